package swipesim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/internal/domain/types"
	"github.com/okian/swipedeck/pkg/logger"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

// ErrTimeout is returned when a deck never reaches the expected state.
var ErrTimeout = errors.New("deck did not converge")

// Expectation is the part of a deck the simulator can predict.
type Expectation struct {
	Size        int
	TopID       string
	SwipedLeft  int64
	SwipedRight int64
}

func expectationOf(v types.DeckView) Expectation {
	return Expectation{Size: v.Size, TopID: v.TopID, SwipedLeft: v.SwipedLeft, SwipedRight: v.SwipedRight}
}

// Mismatch records a deck whose final state differs from the model.
type Mismatch struct {
	DeckID string
	Diff   string
}

// Report summarises a run.
type Report struct {
	Decks      int
	Scenarios  map[Kind]int
	Commits    int
	Gestures   int
	Duplicates int
	Mismatches []Mismatch
	Elapsed    time.Duration
}

// OK reports whether every deck matched its model.
func (r Report) OK() bool { return len(r.Mismatches) == 0 }

// Runner replays scenarios against a server.
type Runner struct {
	client       *Client
	decks        int
	cards        int
	steps        int
	dragSteps    int
	concurrency  int
	width        float64
	seed         uint64
	pollInterval time.Duration
	timeout      time.Duration
	replay       bool
	keep         bool
	clock        clock.PassiveClock
	logger       logger.Logger

	mu     sync.Mutex
	report Report
}

// NewRunner creates a Runner using client.
func NewRunner(client *Client, opts ...Option) *Runner {
	r := &Runner{
		client:       client,
		decks:        4,
		cards:        10,
		steps:        20,
		dragSteps:    8,
		concurrency:  4,
		seed:         1,
		pollInterval: 20 * time.Millisecond,
		timeout:      5 * time.Second,
		clock:        clock.RealClock{},
		logger:       logger.Get().Named("swipesim"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run creates the decks, plays every scenario and verifies the outcome.
// Transport failures abort the run; model mismatches are collected in the
// report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := r.clock.Now()
	if err := r.client.Health(ctx); err != nil {
		return Report{}, fmt.Errorf("health check: %w", err)
	}
	if r.width <= 0 {
		w, err := r.client.ViewportWidth(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("viewport width: %w", err)
		}
		r.width = w
	}
	r.report = Report{Scenarios: make(map[Kind]int)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := 0; i < r.decks; i++ {
		g.Go(func() error { return r.runDeck(gctx, i) })
	}
	err := g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Elapsed = r.clock.Since(start)
	return r.report, err
}

func (r *Runner) runDeck(ctx context.Context, index int) error {
	items := make([]model.CardItem, r.cards)
	for i := range items {
		items[i] = model.CardItem{
			ID:       fmt.Sprintf("card-%d-%d", index, i),
			ImageRef: fmt.Sprintf("https://img.example/%d/%d.jpg", index, i),
		}
	}
	deckID, err := r.client.CreateDeck(ctx, items)
	if err != nil {
		return fmt.Errorf("deck %d: %w", index, err)
	}
	if !r.keep {
		defer func() { _ = r.client.DeleteDeck(context.WithoutCancel(ctx), deckID) }()
	}

	gen := NewGenerator(r.width, r.dragSteps, r.seed, uint64(index))
	want := Expectation{Size: len(items)}
	var sent int64
	for step := 0; step < r.steps && len(items) > 0; step++ {
		top := items[len(items)-1]
		sc := gen.Next(top.ID)
		accepted, err := r.play(ctx, deckID, sc)
		if err != nil {
			return fmt.Errorf("deck %s: %s on %s: %w", deckID, sc.Kind, top.ID, err)
		}
		sent += int64(accepted)

		// Every gesture must be applied before the outcome is judged. A card
		// grabbed mid-settle keeps its offset, so the next scenario also
		// waits for the previous one to come to rest.
		if sc.Commits() {
			items = items[:len(items)-1]
			switch sc.Expect {
			case model.DirectionLeft:
				want.SwipedLeft++
			case model.DirectionRight:
				want.SwipedRight++
			}
			err = r.await(ctx, deckID, func(v types.DeckView) bool {
				return v.Applied >= sent && v.Size == len(items)
			})
		} else {
			err = r.await(ctx, deckID, func(v types.DeckView) bool {
				return v.Applied >= sent && topPhase(v) == "resting"
			})
		}
		if err != nil {
			return fmt.Errorf("deck %s: after %s on %s: %w", deckID, sc.Kind, top.ID, err)
		}
	}

	want.Size = len(items)
	if len(items) > 0 {
		want.TopID = items[len(items)-1].ID
	}
	view, err := r.client.Deck(ctx, deckID)
	if err != nil {
		return fmt.Errorf("deck %s: %w", deckID, err)
	}
	if diff := cmp.Diff(want, expectationOf(view)); diff != "" {
		r.mu.Lock()
		r.report.Mismatches = append(r.report.Mismatches, Mismatch{DeckID: deckID, Diff: diff})
		r.mu.Unlock()
		r.logger.Warn(ctx, "deck diverged from model",
			logger.String("deck", deckID),
			logger.String("diff", diff),
		)
	}

	r.mu.Lock()
	r.report.Decks++
	r.mu.Unlock()
	return nil
}

// play posts the scenario and returns how many gestures the server accepted
// as new.
func (r *Runner) play(ctx context.Context, deckID string, sc Scenario) (int, error) {
	var duplicates int
	for _, g := range sc.Gestures {
		if err := r.send(ctx, deckID, g); err != nil {
			return 0, err
		}
		if r.replay {
			dup, err := r.client.Gesture(ctx, deckID, g)
			if err != nil {
				return 0, err
			}
			if !dup {
				return 0, fmt.Errorf("event %s replay was accepted twice", g.EventID)
			}
			duplicates++
		}
	}

	r.mu.Lock()
	r.report.Scenarios[sc.Kind]++
	r.report.Gestures += len(sc.Gestures)
	r.report.Duplicates += duplicates
	if sc.Commits() {
		r.report.Commits++
	}
	r.mu.Unlock()
	return len(sc.Gestures), nil
}

// errPending marks a poll that has not seen the awaited state yet.
var errPending = errors.New("pending")

// retry is bounded by the convergence timeout and ctx.
func (r *Runner) retry(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.pollInterval
	b.MaxInterval = 10 * r.pollInterval
	b.MaxElapsedTime = r.timeout
	b.Clock = r.clock
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// send retries on backpressure until the server accepts the sample.
func (r *Runner) send(ctx context.Context, deckID string, g Gesture) error {
	return backoff.Retry(func() error {
		_, err := r.client.Gesture(ctx, deckID, g)
		if err != nil && !errors.Is(err, ErrBackpressure) {
			return backoff.Permanent(err)
		}
		return err
	}, r.retry(ctx))
}

// await polls the deck until done holds or the timeout passes.
func (r *Runner) await(ctx context.Context, deckID string, done func(types.DeckView) bool) error {
	err := backoff.Retry(func() error {
		view, err := r.client.Deck(ctx, deckID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done(view) {
			return errPending
		}
		return nil
	}, r.retry(ctx))
	if errors.Is(err, errPending) {
		return fmt.Errorf("%w within %s", ErrTimeout, r.timeout)
	}
	return err
}

func topPhase(v types.DeckView) string {
	if len(v.Layers) == 0 {
		return ""
	}
	return v.Layers[len(v.Layers)-1].Phase
}
