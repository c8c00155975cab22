// Package service hosts swipe decks and implements the dependencies required
// by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/swipedeck/internal/adapters/mq/worker"
	"github.com/okian/swipedeck/internal/domain/animation"
	"github.com/okian/swipedeck/internal/domain/card"
	"github.com/okian/swipedeck/internal/domain/dedupe"
	"github.com/okian/swipedeck/internal/domain/stack"
	"github.com/okian/swipedeck/pkg/logger"
	"github.com/okian/swipedeck/pkg/metrics"
	"k8s.io/utils/clock"
)

const stopTimeout = 5 * time.Second

// Service hosts many decks, each a stack.Coordinator, and feeds them gestures
// through a worker pool and animation frames through a frame loop.
type Service struct {
	mu sync.RWMutex

	decks    map[string]*deck
	deduper  dedupe.Deduper
	pool     *worker.Pool
	frames   *worker.FrameLoop
	animator animation.Animator

	// Configuration
	params       card.Params
	spring       animation.SpringConfig
	removalDelay time.Duration
	idleTimeout  time.Duration
	visibleDepth int
	frameRate    int
	workerCount  int
	queueSize    int
	dedupeSize   int
	maxDecks     int
	clock        clock.WithTickerAndDelayedExecution

	// State
	started   bool
	stopFrame context.CancelFunc
	frameDone chan struct{}

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		decks:        make(map[string]*deck),
		params:       card.DefaultParams(390),
		spring:       animation.DefaultSpringConfig(),
		removalDelay: stack.DefaultRemovalDelay,
		idleTimeout:  stack.DefaultDragIdleTimeout,
		frameRate:    60,
		workerCount:  runtime.NumCPU(),
		queueSize:    4096,
		dedupeSize:   dedupe.DefaultMaxSize,
		clock:        clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.animator = animation.NewStandard(animation.WithSpring(s.spring))
	return s
}

// Start launches the gesture pumps and the frame loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.params.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting deck service...")

	s.pool = worker.NewPool(s,
		worker.WithPumps(s.workerCount),
		worker.WithQueueCapacity(s.queueSize),
		worker.WithPoolLogger(s.logger.Named("pool")),
	)
	// The pool and frame loop outlive the Start call, so they get their own
	// context rather than ctx.
	s.pool.Start(context.WithoutCancel(ctx))

	s.frames = worker.NewFrameLoop(s,
		worker.WithFrameRate(s.frameRate),
		worker.WithFrameClock(s.clock),
	)
	frameCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopFrame = cancel
	s.frameDone = make(chan struct{})
	go func(loop *worker.FrameLoop, done chan struct{}) {
		defer close(done)
		_ = loop.Run(frameCtx)
	}(s.frames, s.frameDone)

	s.started = true
	s.logger.Info(ctx, "deck service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("frameRate", s.frameRate),
		logger.Float64("viewportWidth", s.params.ViewportWidth),
	)
	return nil
}

// Stop drains queued gestures, stops the frame loop and closes every deck.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, stopFrame, frameDone := s.pool, s.stopFrame, s.frameDone
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping deck service...")

	// Pumps call back into the service, so they are drained without s.mu held.
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "gesture pool did not drain", logger.Error(err))
	}
	stopFrame()
	<-frameDone

	s.mu.Lock()
	for id, d := range s.decks {
		_ = d.coord.Close()
		delete(s.decks, id)
	}
	s.mu.Unlock()
	metrics.UpdateActiveDecks(0)

	s.logger.Info(ctx, "deck service stopped")
}

// Started reports whether the service accepts gestures.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Animate advances every deck by one frame. It is the service's frame target.
func (s *Service) Animate(dt time.Duration) int {
	var running int
	for _, d := range s.snapshot() {
		running += d.coord.Animate(dt)
	}
	return running
}

func (s *Service) snapshot() []*deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*deck, 0, len(s.decks))
	for _, d := range s.decks {
		out = append(out, d)
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	decks := s.snapshot()

	s.mu.RLock()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"frameRate":     s.frameRate,
		"removalDelay":  s.removalDelay.String(),
		"dragIdle":      s.idleTimeout.String(),
		"viewportWidth": s.params.ViewportWidth,
		"decks":         len(decks),
	}
	pool := s.pool
	started := s.started
	s.mu.RUnlock()

	var cards, pending int
	var left, right int64
	for _, d := range decks {
		cards += d.coord.Len()
		pending += d.coord.Pending()
		left += d.left.Load()
		right += d.right.Load()
	}
	stats["cards"] = cards
	stats["pendingRemovals"] = pending
	stats["swipedLeft"] = left
	stats["swipedRight"] = right
	stats["dedupeEntries"] = s.deduper.Size()

	if started && pool != nil {
		queueLen := pool.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	metrics.UpdateActiveDecks(len(decks))
	return stats
}
