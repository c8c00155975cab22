// Package dedupe tracks gesture event ids so that retried deliveries reach a
// deck at most once.
package dedupe

import (
	"container/list"
	"context"
	"strings"
	"sync"
)

// DefaultMaxSize bounds the remembered ids when no size is configured.
const DefaultMaxSize = 50000

// Deduper records seen event ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a delivery that could not be accepted may be
	// retried.
	Unrecord(ctx context.Context, id string)

	// Forget drops every id recorded under prefix, used when a deck goes away.
	Forget(ctx context.Context, prefix string) int

	Size() int64
}

// Key scopes an event id to its deck. Clients choose event ids, so two decks
// may legitimately reuse one.
func Key(deckID, eventID string) string {
	return deckID + "/" + eventID
}

// inMemoryDeduper remembers the most recent ids in insertion order and evicts
// the oldest once full. A non-positive maxSize disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *inMemoryDeduper) Forget(_ context.Context, prefix string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	var n int
	for el := d.order.Front(); el != nil; {
		next := el.Next()
		if id := el.Value.(string); strings.HasPrefix(id, prefix) {
			d.order.Remove(el)
			delete(d.seen, id)
			n++
		}
		el = next
	}
	return n
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
