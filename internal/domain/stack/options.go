package stack

import (
	"time"

	"github.com/okian/swipedeck/internal/domain/animation"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/pkg/logger"
	"k8s.io/utils/clock"
)

// Option applies a configuration option to a Coordinator.
type Option func(*Coordinator)

// WithDeckID tags decisions, logs and layers with the owning deck.
func WithDeckID(id string) Option {
	return func(c *Coordinator) {
		c.deckID = id
	}
}

// WithClock sets the clock used for removal and drag idle timers.
func WithClock(clk clock.WithDelayedExecution) Option {
	return func(c *Coordinator) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithRemovalDelay sets how long a committed card stays in the stack.
func WithRemovalDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.removalDelay = d
		}
	}
}

// WithAnimator sets the animator handed to every card.
func WithAnimator(a animation.Animator) Option {
	return func(c *Coordinator) {
		if a != nil {
			c.animator = a
		}
	}
}

// WithVisibleDepth limits Layers to the top n cards. Zero renders all.
func WithVisibleDepth(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.depth = n
		}
	}
}

// WithListener is told about every commit decision.
func WithListener(fn func(model.Decision)) Option {
	return func(c *Coordinator) {
		c.listener = fn
	}
}

// WithLogger sets a custom logger for the coordinator.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDragIdleTimeout sets how long the top card may stay dragging without a
// gesture before it is treated as a lost pointer. Zero disables the deadline.
func WithDragIdleTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.idleTimeout = d
		}
	}
}
