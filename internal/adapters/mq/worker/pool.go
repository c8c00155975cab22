package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/swipedeck/internal/adapters/mq/queue"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/pkg/logger"
	"github.com/okian/swipedeck/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultQueueCapacity = 1024

// ErrPoolStopped is returned by Enqueue once Shutdown has begun.
var ErrPoolStopped = errors.New("worker pool stopped")

// Pool runs a fixed set of pumps, each with its own queue. Events are routed
// by deck id, so all events of one deck go through one pump and keep their
// order while different decks proceed in parallel.
type Pool struct {
	size     int
	capacity int

	queues []*queue.InMemoryQueue
	pumps  []*Pump

	mu      sync.Mutex
	group   *errgroup.Group
	stopped bool

	logger logger.Logger
}

// NewPool creates a pool delivering to dispatcher.
func NewPool(dispatcher Dispatcher, opts ...PoolOption) *Pool {
	p := &Pool{
		size:     runtime.NumCPU(),
		capacity: defaultQueueCapacity,
		logger:   logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.queues = make([]*queue.InMemoryQueue, p.size)
	p.pumps = make([]*Pump, p.size)
	for i := 0; i < p.size; i++ {
		name := "pump-" + strconv.Itoa(i)
		p.queues[i] = queue.NewInMemoryQueue(queue.WithCapacity(p.capacity), queue.WithName(name))
		p.pumps[i] = NewPump(p.queues[i], dispatcher, WithName(name), WithLogger(p.logger))
	}

	metrics.UpdateQueueCapacity(p.Cap())
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start launches every pump.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.group != nil || p.stopped {
		return
	}
	p.group = &errgroup.Group{}
	for _, pump := range p.pumps {
		pump := pump
		p.group.Go(func() error {
			pump.Run(ctx)
			return nil
		})
	}
	metrics.UpdateWorkerActiveCount(len(p.pumps))
	p.logger.Info(ctx, "worker pool started", logger.Int("pumps", len(p.pumps)))
}

// Shard returns the pump index that handles deckID.
func (p *Pool) Shard(deckID string) int {
	return int(xxhash.Sum64String(deckID) % uint64(len(p.queues)))
}

// Enqueue routes ev to its deck's queue.
func (p *Pool) Enqueue(ctx context.Context, ev model.GestureEvent) error { //nolint:gocritic // hugeParam: events travel by value
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return ErrPoolStopped
	}

	if err := p.queues[p.Shard(ev.DeckID)].Enqueue(ctx, ev); err != nil {
		return fmt.Errorf("enqueue gesture %s: %w", ev.EventID, err)
	}
	p.reportDepth()
	return nil
}

func (p *Pool) reportDepth() {
	size := p.Len()
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(p.Cap()))
}

// Len returns the number of queued events across all pumps.
func (p *Pool) Len() int {
	var n int
	for _, q := range p.queues {
		n += q.Len()
	}
	return n
}

// Cap returns the total queue capacity.
func (p *Pool) Cap() int {
	return p.size * p.capacity
}

// Size returns the number of pumps.
func (p *Pool) Size() int {
	return len(p.pumps)
}

// Shutdown closes every queue and waits for the pumps to drain them. If ctx
// ends first the pumps are stopped where they are.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	group := p.group
	p.mu.Unlock()

	for _, q := range p.queues {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	defer metrics.UpdateWorkerActiveCount(0)
	if group == nil {
		return nil
	}

	drained := make(chan error, 1)
	go func() { drained <- group.Wait() }()

	select {
	case err := <-drained:
		p.reportDepth()
		return err
	case <-ctx.Done():
		p.logger.Warn(ctx, "pool drain timed out, stopping pumps", logger.Int("pending", p.Len()))
	}

	for _, pump := range p.pumps {
		pump.shutdownOnce.Do(func() { close(pump.shutdown) })
	}
	<-drained
	return fmt.Errorf("shutdown timed out: %w", ctx.Err())
}
