package swipesim

import (
	"time"

	"github.com/okian/swipedeck/pkg/logger"
	"k8s.io/utils/clock"
)

// Option configures a Runner.
type Option func(*Runner)

// WithDecks sets how many decks are driven.
func WithDecks(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.decks = n
		}
	}
}

// WithCards sets the number of cards per deck.
func WithCards(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.cards = n
		}
	}
}

// WithSteps sets how many scenarios are played per deck.
func WithSteps(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.steps = n
		}
	}
}

// WithDragSteps sets the number of update samples per drag.
func WithDragSteps(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.dragSteps = n
		}
	}
}

// WithConcurrency caps how many decks are driven at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithWidth skips asking the server for its viewport width.
func WithWidth(w float64) Option {
	return func(r *Runner) {
		if w > 0 {
			r.width = w
		}
	}
}

// WithSeed fixes the scenario sequence.
func WithSeed(seed uint64) Option {
	return func(r *Runner) { r.seed = seed }
}

// WithPollInterval sets the delay between state polls.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithTimeout bounds how long one deck may take to converge after a
// scenario.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithReplay posts every gesture twice and requires the second to be
// reported as a duplicate.
func WithReplay(on bool) Option {
	return func(r *Runner) { r.replay = on }
}

// WithKeepDecks leaves decks on the server after the run.
func WithKeepDecks(on bool) Option {
	return func(r *Runner) { r.keep = on }
}

// WithClock overrides the clock used for timing and backoff.
func WithClock(c clock.PassiveClock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
