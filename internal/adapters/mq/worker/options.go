package worker

import (
	"time"

	"github.com/okian/swipedeck/pkg/logger"
	"k8s.io/utils/clock"
)

// Option applies a configuration option to a Pump.
type Option func(*Pump)

// WithName sets the pump name for identification and logging.
func WithName(name string) Option {
	return func(p *Pump) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pump.
func WithLogger(l logger.Logger) Option {
	return func(p *Pump) {
		if l != nil {
			p.logger = l
		}
	}
}

// PoolOption applies a configuration option to a Pool.
type PoolOption func(*Pool)

// WithPumps sets how many pumps, and so queues, the pool runs.
func WithPumps(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithQueueCapacity sets the capacity of each pump's queue.
func WithQueueCapacity(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.capacity = n
		}
	}
}

// WithPoolLogger sets a custom logger for the pool.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// FrameOption applies a configuration option to a FrameLoop.
type FrameOption func(*FrameLoop)

// WithFrameRate sets how many frames per second the loop runs.
func WithFrameRate(fps int) FrameOption {
	return func(f *FrameLoop) {
		if fps > 0 {
			f.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithFrameClock sets the clock that paces frames.
func WithFrameClock(clk clock.WithTicker) FrameOption {
	return func(f *FrameLoop) {
		if clk != nil {
			f.clock = clk
		}
	}
}
