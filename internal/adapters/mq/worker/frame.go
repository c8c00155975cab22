package worker

import (
	"context"
	"time"

	"github.com/okian/swipedeck/pkg/logger"
	"github.com/okian/swipedeck/pkg/metrics"
	"k8s.io/utils/clock"
)

const defaultFrameRate = 60

// FrameTarget is advanced once per frame and reports how many animations are
// still running.
type FrameTarget interface {
	Animate(dt time.Duration) int
}

// FrameLoop is the animation execution context. It only advances
// presentation; decisions are taken on the gesture path.
type FrameLoop struct {
	target   FrameTarget
	clock    clock.WithTicker
	interval time.Duration
	logger   logger.Logger
}

// NewFrameLoop creates a frame loop for target.
func NewFrameLoop(target FrameTarget, opts ...FrameOption) *FrameLoop {
	f := &FrameLoop{
		target:   target,
		clock:    clock.RealClock{},
		interval: time.Second / defaultFrameRate,
		logger:   logger.Get().Named("frame-loop"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Interval returns the time between frames.
func (f *FrameLoop) Interval() time.Duration { return f.interval }

// Run ticks until ctx is cancelled. Each frame advances the target by the
// time that actually passed since the previous one.
func (f *FrameLoop) Run(ctx context.Context) error {
	last := f.clock.Now()
	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Debug(ctx, "frame loop started", logger.Any("interval", f.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C():
			dt := now.Sub(last)
			last = now
			if dt <= 0 {
				continue
			}

			start := time.Now()
			running := f.target.Animate(dt)
			metrics.RecordFrameDuration(float64(time.Since(start).Microseconds()) / 1000)
			metrics.UpdateAnimatingCards(running)
		}
	}
}
