package card

import (
	"time"

	"github.com/okian/swipedeck/internal/domain/animation"
	"github.com/okian/swipedeck/pkg/logger"
)

// Option applies a configuration option to a Controller.
type Option func(*Controller)

// WithID names the card for logging.
func WithID(id string) Option {
	return func(c *Controller) {
		c.id = id
	}
}

// WithOnSwipeLeft registers the callback fired when the card commits left.
func WithOnSwipeLeft(fn func()) Option {
	return func(c *Controller) {
		c.onLeft = fn
	}
}

// WithOnSwipeRight registers the callback fired when the card commits right.
func WithOnSwipeRight(fn func()) Option {
	return func(c *Controller) {
		c.onRight = fn
	}
}

// WithAnimator replaces the animation primitive.
func WithAnimator(a animation.Animator) Option {
	return func(c *Controller) {
		if a != nil {
			c.animator = a
		}
	}
}

// WithSettleObserver is told how much animated time each settle took.
func WithSettleObserver(fn func(time.Duration)) Option {
	return func(c *Controller) {
		c.onSettled = fn
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}
