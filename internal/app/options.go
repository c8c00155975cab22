package service

import (
	"time"

	"github.com/okian/swipedeck/internal/domain/animation"
	"github.com/okian/swipedeck/internal/domain/card"
	"github.com/okian/swipedeck/pkg/logger"
	"k8s.io/utils/clock"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCardParams sets the tunables every card is created with.
func WithCardParams(p card.Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithSpring sets the settle spring.
func WithSpring(cfg animation.SpringConfig) Option {
	return func(s *Service) {
		s.spring = cfg
	}
}

// WithDragIdleTimeout sets how long a drag may go without gestures before it
// is released as a lost pointer. Zero disables the deadline.
func WithDragIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.idleTimeout = d
		}
	}
}

// WithRemovalDelay sets how long committed cards stay in their stack.
func WithRemovalDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.removalDelay = d
		}
	}
}

// WithVisibleDepth caps rendered layers per deck.
func WithVisibleDepth(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.visibleDepth = n
		}
	}
}

// WithFrameRate sets the animation frame rate.
func WithFrameRate(fps int) Option {
	return func(s *Service) {
		if fps > 0 {
			s.frameRate = fps
		}
	}
}

// WithWorkerCount sets the number of gesture pumps.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of each gesture queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxDecks caps concurrently hosted decks. Zero means no limit.
func WithMaxDecks(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxDecks = n
		}
	}
}

// WithClock sets the clock behind removal timers and the frame loop.
func WithClock(clk clock.WithTickerAndDelayedExecution) Option {
	return func(s *Service) {
		if clk != nil {
			s.clock = clk
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
