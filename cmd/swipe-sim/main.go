// Command swipe-sim drives a running swipedeck server with generated swipe
// sessions and verifies every deck ends in the state the model predicts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/okian/swipedeck/internal/swipesim"
	"github.com/okian/swipedeck/pkg/logger"
	"github.com/spf13/cobra"
)

var errDiverged = errors.New("decks diverged from the model")

type options struct {
	server      string
	decks       int
	cards       int
	steps       int
	dragSteps   int
	concurrency int
	width       float64
	seed        uint64
	poll        time.Duration
	timeout     time.Duration
	replay      bool
	keep        bool
	logLevel    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:          "swipe-sim",
		Short:        "Replay generated swipe sessions against a swipedeck server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, o)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	f := cmd.Flags()
	f.StringVar(&o.server, "server", "http://127.0.0.1:9080", "swipedeck base URL")
	f.IntVar(&o.decks, "decks", 4, "number of decks to drive")
	f.IntVar(&o.cards, "cards", 10, "cards per deck")
	f.IntVar(&o.steps, "steps", 20, "scenarios per deck")
	f.IntVar(&o.dragSteps, "drag-steps", 8, "update samples per drag")
	f.IntVar(&o.concurrency, "concurrency", 4, "decks driven at once")
	f.Float64Var(&o.width, "width", 0, "viewport width (default: ask the server)")
	f.Uint64Var(&o.seed, "seed", uint64(time.Now().UnixNano()), "scenario seed")
	f.DurationVar(&o.poll, "poll", 20*time.Millisecond, "state poll interval")
	f.DurationVar(&o.timeout, "timeout", 5*time.Second, "max wait for a deck to converge")
	f.BoolVar(&o.replay, "replay", false, "post every gesture twice and expect a duplicate ack")
	f.BoolVar(&o.keep, "keep", false, "leave decks on the server")
	f.StringVar(&o.logLevel, "log-level", "info", "log level")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, o *options) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(o.logLevel); err != nil {
		return err
	}
	log := logger.Get().Named("swipe-sim")

	runner := swipesim.NewRunner(swipesim.NewClient(o.server, nil),
		swipesim.WithDecks(o.decks),
		swipesim.WithCards(o.cards),
		swipesim.WithSteps(o.steps),
		swipesim.WithDragSteps(o.dragSteps),
		swipesim.WithConcurrency(o.concurrency),
		swipesim.WithWidth(o.width),
		swipesim.WithSeed(o.seed),
		swipesim.WithPollInterval(o.poll),
		swipesim.WithTimeout(o.timeout),
		swipesim.WithReplay(o.replay),
		swipesim.WithKeepDecks(o.keep),
		swipesim.WithLogger(log),
	)

	log.Info(ctx, "starting simulation",
		logger.String("server", o.server),
		logger.Int("decks", o.decks),
		logger.Int("cards", o.cards),
		logger.Any("seed", o.seed),
	)
	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	printReport(cmd, report)
	if !report.OK() {
		return fmt.Errorf("%w: %d of %d", errDiverged, len(report.Mismatches), report.Decks)
	}
	return nil
}

func printReport(cmd *cobra.Command, r swipesim.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "decks=%d gestures=%d commits=%d duplicates=%d elapsed=%s\n",
		r.Decks, r.Gestures, r.Commits, r.Duplicates, r.Elapsed.Round(time.Millisecond))

	kinds := make([]string, 0, len(r.Scenarios))
	for k := range r.Scenarios {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-13s %d\n", k, r.Scenarios[swipesim.Kind(k)])
	}
	for _, m := range r.Mismatches {
		fmt.Fprintf(out, "MISMATCH %s\n%s\n", m.DeckID, m.Diff)
	}
}
