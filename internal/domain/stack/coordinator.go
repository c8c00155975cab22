// Package stack owns the ordered collection of cards in one deck.
//
// The last item is the top of the stack and the only one wired to gesture
// input. When a card's controller commits, the Coordinator keeps the item in
// place for the removal delay so its exit animation can play, then drops it
// and uncovers the next card.
//
// A card left dragging with no gesture traffic for the drag idle timeout is
// treated as having lost its pointer.
package stack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/swipedeck/internal/domain/animation"
	"github.com/okian/swipedeck/internal/domain/card"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/internal/domain/types"
	"github.com/okian/swipedeck/pkg/logger"
	"github.com/okian/swipedeck/pkg/metrics"
	"k8s.io/utils/clock"
)

// DefaultRemovalDelay matches the card exit duration.
const DefaultRemovalDelay = 400 * time.Millisecond

// DefaultDragIdleTimeout bounds how long a drag may go without input.
const DefaultDragIdleTimeout = 5 * time.Second

type entry struct {
	item model.CardItem
	ctrl *card.Controller
}

// removal is a scheduled drop of one item. The timer callback only acts if
// its token is still the one registered for the id.
type removal struct {
	timer clock.Timer
}

// idleWatch is the deadline on the card currently being dragged. Only the
// watch stored in Coordinator.idle may fire.
type idleWatch struct {
	mu      sync.Mutex
	ctrl    *card.Controller
	timer   clock.Timer
	stopped bool
}

func (w *idleWatch) arm(clk clock.WithDelayedExecution, d time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.timer = clk.AfterFunc(d, fn)
	}
}

func (w *idleWatch) stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Coordinator is safe for concurrent use. Gestures, animation frames and
// removal timers typically arrive on different goroutines.
type Coordinator struct {
	mu sync.Mutex

	deckID       string
	params       card.Params
	clock        clock.WithDelayedExecution
	removalDelay time.Duration
	idleTimeout  time.Duration
	animator     animation.Animator
	depth        int
	listener     func(model.Decision)
	logger       logger.Logger

	entries []*entry
	pending map[string]*removal
	closed  bool

	idle atomic.Pointer[idleWatch]
}

// New creates an empty stack whose cards use params.
func New(params card.Params, opts ...Option) (*Coordinator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &Coordinator{
		params:       params,
		clock:        clock.RealClock{},
		removalDelay: DefaultRemovalDelay,
		idleTimeout:  DefaultDragIdleTimeout,
		animator:     animation.NewStandard(),
		pending:      make(map[string]*removal),
		logger:       logger.Get().Named("stack"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetItems replaces the stack wholesale. Pending removals are cancelled and
// the previous cards stop reacting to input.
func (c *Coordinator) SetItems(ctx context.Context, items []model.CardItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.ID == "" {
			return fmt.Errorf("item %d: %w", i, ErrInvalidItem)
		}
		if _, ok := seen[it.ID]; ok {
			return fmt.Errorf("item %q: %w", it.ID, ErrDuplicateItem)
		}
		seen[it.ID] = struct{}{}
	}

	defer c.idle.Swap(nil).stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	entries := make([]*entry, 0, len(items))
	for _, it := range items {
		ctrl, err := c.newController(it.ID)
		if err != nil {
			return err
		}
		entries = append(entries, &entry{item: it, ctrl: ctrl})
	}

	c.cancelAllLocked()
	for _, e := range c.entries {
		e.ctrl.Detach()
	}
	c.entries = entries
	metrics.ObserveStackDepth(len(entries))

	c.logger.Debug(ctx, "stack replaced",
		logger.String("deck", c.deckID),
		logger.Int("size", len(entries)),
	)
	return nil
}

func (c *Coordinator) newController(id string) (*card.Controller, error) {
	var ctrl *card.Controller
	ctrl, err := card.NewController(c.params,
		card.WithID(id),
		card.WithAnimator(c.animator),
		card.WithLogger(c.logger.Named("card")),
		card.WithOnSwipeLeft(func() { c.decided(ctrl, id, model.DirectionLeft) }),
		card.WithOnSwipeRight(func() { c.decided(ctrl, id, model.DirectionRight) }),
		card.WithSettleObserver(func(d time.Duration) {
			metrics.RecordSettle()
			metrics.RecordSettleDuration(float64(d) / float64(time.Millisecond))
		}),
	)
	return ctrl, err
}

// decided runs on the gesture path with no lock held, so the stack may have
// been replaced since ctrl committed. Removal is only scheduled while ctrl
// still owns the entry for id.
func (c *Coordinator) decided(ctrl *card.Controller, id string, dir model.Direction) {
	metrics.RecordSwipeDecision(dir.String())
	c.commit(context.Background(), id, ctrl)
	if c.listener != nil {
		c.listener(model.Decision{DeckID: c.deckID, CardID: id, Direction: dir})
	}
}

// Commit schedules removal of id after the removal delay. It reports whether
// a removal was scheduled; an unknown id or one already pending is a no-op.
func (c *Coordinator) Commit(ctx context.Context, id string) bool {
	return c.commit(ctx, id, nil)
}

// commit schedules removal of id. A non-nil owner must be the controller of
// the current entry for id.
func (c *Coordinator) commit(ctx context.Context, id string, owner *card.Controller) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	if owner != nil && c.entries[i].ctrl != owner {
		c.logger.Debug(ctx, "stale decision, not scheduling removal",
			logger.String("deck", c.deckID),
			logger.String("card", id),
		)
		return false
	}
	if _, ok := c.pending[id]; ok {
		return false
	}

	token := &removal{}
	c.pending[id] = token
	token.timer = c.clock.AfterFunc(c.removalDelay, func() { c.expire(id, token) })
	metrics.RecordRemovalScheduled()

	c.logger.Debug(ctx, "removal scheduled",
		logger.String("deck", c.deckID),
		logger.String("card", id),
		logger.Any("delay", c.removalDelay),
	)
	return true
}

func (c *Coordinator) expire(id string, token *removal) {
	c.mu.Lock()
	if c.pending[id] != token {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	removed := c.dropLocked(id)
	size := len(c.entries)
	c.mu.Unlock()

	if removed {
		c.dropIdle(id)
		metrics.RecordRemovalCompleted()
		metrics.ObserveStackDepth(size)
	}
}

// Remove drops id immediately, cancelling any scheduled removal. Removing an
// absent id is a no-op.
func (c *Coordinator) Remove(ctx context.Context, id string) bool {
	c.mu.Lock()
	if r, ok := c.pending[id]; ok {
		r.timer.Stop()
		delete(c.pending, id)
		metrics.RecordRemovalCancelled()
	}
	removed := c.dropLocked(id)
	size := len(c.entries)
	c.mu.Unlock()

	if removed {
		c.dropIdle(id)
		metrics.ObserveStackDepth(size)
		c.logger.Debug(ctx, "card removed",
			logger.String("deck", c.deckID),
			logger.String("card", id),
		)
	}
	return removed
}

func (c *Coordinator) dropLocked(id string) bool {
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.entries[i].ctrl.Detach()
	c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
	return true
}

func (c *Coordinator) indexLocked(id string) int {
	for i, e := range c.entries {
		if e.item.ID == id {
			return i
		}
	}
	return -1
}

func (c *Coordinator) cancelAllLocked() {
	for id, r := range c.pending {
		r.timer.Stop()
		delete(c.pending, id)
		metrics.RecordRemovalCancelled()
	}
}

// HandleGesture delivers ev to the topmost card. An event naming another card
// is rejected with ErrNotTopmost; an empty CardID means "whatever is on top".
func (c *Coordinator) HandleGesture(ctx context.Context, ev model.GestureEvent) error {
	ctrl, err := c.target(ev.CardID)
	if err != nil {
		return err
	}
	ctrl.Handle(ctx, ev)
	c.watchIdle(ctrl)
	return nil
}

// watchIdle restarts the drag idle deadline after a gesture reached ctrl, or
// clears it once ctrl has stopped dragging.
func (c *Coordinator) watchIdle(ctrl *card.Controller) {
	if c.idleTimeout <= 0 {
		return
	}
	var next *idleWatch
	if ctrl.Phase() == card.PhaseDragging {
		next = &idleWatch{ctrl: ctrl}
	}
	c.idle.Swap(next).stop()
	if next != nil {
		// The callback may run under the clock's lock, and a lost pointer can
		// commit and schedule a removal on that same clock.
		next.arm(c.clock, c.idleTimeout, func() { go c.idleExpired(next) })
	}
}

func (c *Coordinator) idleExpired(w *idleWatch) {
	if !c.idle.CompareAndSwap(w, nil) {
		return
	}
	if w.ctrl.Phase() != card.PhaseDragging {
		return
	}
	metrics.RecordErrorByComponent("stack", "drag_idle_timeout")
	c.logger.Info(context.Background(), "drag idle, treating pointer as lost",
		logger.String("deck", c.deckID),
		logger.String("card", w.ctrl.ID()),
		logger.Any("timeout", c.idleTimeout),
	)
	w.ctrl.Handle(context.Background(), model.GestureEvent{Kind: model.GestureCancel})
}

// dropIdle clears the drag deadline if it belongs to the removed card.
func (c *Coordinator) dropIdle(id string) {
	if w := c.idle.Load(); w != nil && w.ctrl.ID() == id && c.idle.CompareAndSwap(w, nil) {
		w.stop()
	}
}

func (c *Coordinator) target(cardID string) (*card.Controller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if len(c.entries) == 0 {
		return nil, ErrEmptyStack
	}
	top := c.entries[len(c.entries)-1]
	if cardID != "" && cardID != top.item.ID {
		return nil, ErrNotTopmost
	}
	return top.ctrl, nil
}

// AttachGesture routes a gesture stream to whichever card is on top when
// each event arrives, until the stream closes or ctx is cancelled. If the
// stream closes while a card is still being dragged, that card is told the
// pointer was lost.
func (c *Coordinator) AttachGesture(ctx context.Context, stream <-chan model.GestureEvent) error {
	var active *card.Controller
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				if active != nil && active.Phase() == card.PhaseDragging {
					active.Handle(ctx, model.GestureEvent{Kind: model.GestureCancel})
				}
				return nil
			}
			ctrl, err := c.target(ev.CardID)
			if err != nil {
				if errors.Is(err, ErrClosed) {
					return err
				}
				metrics.RecordGestureIgnored(ignoreReason(err))
				continue
			}
			if ev.Kind == model.GestureStart {
				active = ctrl
			}
			ctrl.Handle(ctx, ev)
			c.watchIdle(ctrl)
		}
	}
}

func ignoreReason(err error) string {
	switch err {
	case ErrEmptyStack:
		return "empty_stack"
	case ErrNotTopmost:
		return "not_topmost"
	default:
		return "other"
	}
}

// Animate advances every running card animation by dt and returns how many
// are still in flight.
func (c *Coordinator) Animate(dt time.Duration) int {
	var running int
	for _, ctrl := range c.controllers() {
		if ctrl.Tick(dt) {
			running++
		}
	}
	return running
}

func (c *Coordinator) controllers() []*card.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*card.Controller, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.ctrl
	}
	return out
}

// Layers renders the stack bottom first. Every layer has the same size and
// position; only the last one is interactive.
func (c *Coordinator) Layers() []types.Layer {
	return c.View().Layers
}

// View renders the deck from a single read of the stack, so Size, TopID and
// Layers always agree. Decision counters are left to the caller.
func (c *Coordinator) View() types.DeckView {
	c.mu.Lock()
	entries := append([]*entry(nil), c.entries...)
	pending := make(map[string]bool, len(c.pending))
	for id := range c.pending {
		pending[id] = true
	}
	depth := c.depth
	c.mu.Unlock()

	view := types.DeckView{
		DeckID: c.deckID,
		Size:   len(entries),
		Layers: renderLayers(entries, pending, depth),
	}
	if len(entries) > 0 {
		view.TopID = entries[len(entries)-1].item.ID
	}
	return view
}

func renderLayers(entries []*entry, pending map[string]bool, depth int) []types.Layer {
	start := 0
	if depth > 0 && len(entries) > depth {
		start = len(entries) - depth
	}
	out := make([]types.Layer, 0, len(entries)-start)
	for i := start; i < len(entries); i++ {
		e := entries[i]
		m := e.ctrl.Snapshot()
		t := card.Render(m.Motion)
		out = append(out, types.Layer{
			ID:             e.item.ID,
			ImageRef:       e.item.ImageRef,
			Index:          i,
			Interactive:    i == len(entries)-1,
			Phase:          m.Phase.String(),
			TranslateX:     t.TranslateX,
			TranslateY:     t.TranslateY,
			RotateDeg:      t.RotateDeg,
			PendingRemoval: pending[e.item.ID],
		})
	}
	return out
}

// Items returns the current stack, bottom first.
func (c *Coordinator) Items() []model.CardItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.CardItem, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.item
	}
	return out
}

// Len returns the number of cards in the stack.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Top returns the interactive card.
func (c *Coordinator) Top() (model.CardItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return model.CardItem{}, false
	}
	return c.entries[len(c.entries)-1].item, true
}

// Controller returns the controller for id, or nil.
func (c *Coordinator) Controller(id string) *card.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.entries[i].ctrl
	}
	return nil
}

// Pending returns the number of scheduled removals.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close cancels all timers and detaches every card.
func (c *Coordinator) Close() error {
	defer c.idle.Swap(nil).stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.cancelAllLocked()
	for _, e := range c.entries {
		e.ctrl.Detach()
	}
	c.entries = nil
	return nil
}
