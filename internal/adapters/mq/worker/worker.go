// Package worker moves gesture events from queues into decks and drives the
// animation frame loop.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/pkg/logger"
	"github.com/okian/swipedeck/pkg/metrics"
)

// Dispatcher applies one gesture event to its deck.
type Dispatcher interface {
	DispatchGesture(ctx context.Context, ev model.GestureEvent) error
}

// Source is where a pump reads events from.
type Source interface {
	Dequeue(ctx context.Context) <-chan model.GestureEvent
}

// Pump delivers events from one source to a dispatcher, one at a time, in the
// order they were queued.
type Pump struct {
	source     Source
	dispatcher Dispatcher
	name       string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewPump creates a pump.
func NewPump(source Source, dispatcher Dispatcher, opts ...Option) *Pump {
	p := &Pump{
		source:     source,
		dispatcher: dispatcher,
		name:       "pump",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)
	return p
}

// Run delivers events until the source closes, ctx is cancelled or Shutdown
// is called.
func (p *Pump) Run(ctx context.Context) {
	defer close(p.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := p.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.process(ctx, ev)
		}
	}
}

func (p *Pump) process(ctx context.Context, ev model.GestureEvent) { //nolint:gocritic // hugeParam: events travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := p.dispatcher.DispatchGesture(ctx, ev); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "dispatch_error")
		p.logger.Warn(ctx, "gesture dispatch failed",
			logger.String("deck", ev.DeckID),
			logger.String("eventID", ev.EventID),
			logger.Error(err),
		)
	}
}

// Shutdown stops the pump without draining and waits for it to exit.
func (p *Pump) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() { close(p.shutdown) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (p *Pump) Done() <-chan struct{} { return p.done }
