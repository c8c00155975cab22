// Package queue buffers gesture events between the transport that receives
// them and the pump that feeds them to decks.
package queue

import (
	"context"
	"sync"

	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/pkg/metrics"
)

const defaultQueueCapacity = 4096

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue buffers ev. It never blocks; a full queue returns ErrQueueFull.
	Enqueue(ctx context.Context, ev model.GestureEvent) error

	// Dequeue returns a channel delivering events in enqueue order. It is
	// closed once the queue is closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan model.GestureEvent

	Len() int
	Cap() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	name     string
	events   chan model.GestureEvent
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		name:     "gestures",
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan model.GestureEvent, q.capacity)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, ev model.GestureEvent) error { //nolint:gocritic // hugeParam: passed by value into the channel anyway
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent(q.name, "closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent(q.name, "context_cancelled")
		return err
	}

	select {
	case q.events <- ev:
		metrics.RecordQueueEnqueue()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent(q.name, "queue_full")
		return ErrQueueFull
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.GestureEvent {
	out := make(chan model.GestureEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-q.events:
				if !ok {
					return
				}
				select {
				case out <- ev:
					metrics.RecordQueueDequeue()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the number of buffered events.
func (q *InMemoryQueue) Len() int { return len(q.events) }

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting events. Buffered events are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.events)
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
