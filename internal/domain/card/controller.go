package card

import (
	"context"
	"sync"
	"time"

	"github.com/okian/swipedeck/internal/domain/animation"
	"github.com/okian/swipedeck/internal/domain/model"
	"github.com/okian/swipedeck/pkg/logger"
)

// Controller owns one card's gesture state. Gestures, animation frames and
// queries may arrive from different goroutines; callbacks always run with no
// lock held so they may call back into the owner.
type Controller struct {
	mu sync.Mutex

	id       string
	params   Params
	machine  Machine
	animator animation.Animator

	running   animation.Animation
	animTime  time.Duration
	notified  bool
	detached  bool
	onLeft    func()
	onRight   func()
	onSettled func(time.Duration)

	logger logger.Logger
}

// NewController creates a resting card.
func NewController(params Params, opts ...Option) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		params:   params,
		animator: animation.NewStandard(),
		logger:   logger.Get().Named("card"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ID returns the card id given with WithID.
func (c *Controller) ID() string { return c.id }

// Handle feeds one gesture event into the state machine.
func (c *Controller) Handle(ctx context.Context, ev model.GestureEvent) {
	switch ev.Kind {
	case model.GestureStart:
		c.apply(ctx, Event{Kind: EventGestureStart})
	case model.GestureUpdate:
		c.apply(ctx, Event{Kind: EventGestureUpdate, Sample: ev.Sample})
	case model.GestureEnd:
		c.apply(ctx, Event{Kind: EventGestureEnd})
	case model.GestureCancel:
		c.apply(ctx, Event{Kind: EventGestureLost})
	default:
		c.logger.Warn(ctx, "ignoring unknown gesture kind",
			logger.String("card", c.id),
			logger.String("kind", string(ev.Kind)),
		)
	}
}

// AttachGesture subscribes the card to a drag stream and blocks until the
// stream closes or ctx is cancelled. A stream that closes mid-drag is a lost
// pointer and resolves like a release at the last offset. Cancellation
// discards the subscription without deciding anything.
func (c *Controller) AttachGesture(ctx context.Context, stream <-chan model.GestureEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				if c.Phase() == PhaseDragging {
					c.apply(ctx, Event{Kind: EventGestureLost})
				}
				return nil
			}
			c.Handle(ctx, ev)
		}
	}
}

func (c *Controller) apply(ctx context.Context, ev Event) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return
	}
	prev := c.machine.Phase
	next, effects := Reduce(c.params, c.machine, ev)
	c.machine = next

	var notify func()
	for _, e := range effects {
		switch e.Kind {
		case EffectNotify:
			if !c.notified {
				c.notified = true
				notify = c.callbackFor(e.Direction)
			}
		case EffectSettle:
			c.start(c.animator.Settle(c.frame()))
		case EffectExit:
			c.start(c.animator.Exit(c.frame(), e.TargetX, e.Duration))
		case EffectStopAnimation:
			c.running = nil
		}
	}
	phase, decision, offsetX := next.Phase, next.Decision, next.Motion.OffsetX
	c.mu.Unlock()

	if phase != prev {
		c.logger.Debug(ctx, "card phase changed",
			logger.String("card", c.id),
			logger.String("from", prev.String()),
			logger.String("to", phase.String()),
			logger.Float64("offsetX", offsetX),
		)
	}
	if notify != nil {
		c.logger.Debug(ctx, "card committed",
			logger.String("card", c.id),
			logger.String("direction", decision.String()),
		)
		notify()
	}
}

func (c *Controller) start(a animation.Animation) {
	c.running = a
	c.animTime = 0
}

func (c *Controller) callbackFor(d model.Direction) func() {
	switch d {
	case model.DirectionLeft:
		return c.onLeft
	case model.DirectionRight:
		return c.onRight
	}
	return nil
}

func (c *Controller) frame() animation.Frame {
	m := c.machine.Motion
	return animation.Frame{X: m.OffsetX, Y: m.OffsetY, Rotation: m.RotationDeg}
}

// Tick advances the running animation by dt and reports whether one is still
// in flight. It only writes interpolated values; completion is reported to
// Reduce, which owns the phase change.
func (c *Controller) Tick(dt time.Duration) bool {
	c.mu.Lock()
	if c.running == nil || c.detached {
		c.mu.Unlock()
		return false
	}

	f := c.frame()
	done := c.running.Advance(dt, &f)
	c.animTime += dt
	c.machine.Motion.OffsetX = f.X
	c.machine.Motion.OffsetY = f.Y
	c.machine.Motion.RotationDeg = f.Rotation
	if !done {
		c.mu.Unlock()
		return true
	}

	settled := c.machine.Phase == PhaseSettling
	took := c.animTime
	c.running = nil
	c.machine, _ = Reduce(c.params, c.machine, Event{Kind: EventAnimationDone})
	observer := c.onSettled
	c.mu.Unlock()

	if settled && observer != nil {
		observer(took)
	}
	return false
}

// Detach stops the card from reacting to anything further. Owners call it
// when the card leaves the stack.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.detached = true
	c.running = nil
	c.mu.Unlock()
}

// Snapshot returns the current machine state.
func (c *Controller) Snapshot() Machine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.Snapshot().Phase
}

// Motion returns the current motion state.
func (c *Controller) Motion() MotionState {
	return c.Snapshot().Motion
}

// Transform renders the current motion state.
func (c *Controller) Transform() Transform {
	return Render(c.Motion())
}

// Animating reports whether a settle or exit animation is in flight.
func (c *Controller) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running != nil
}
