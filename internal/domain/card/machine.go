// Package card implements the per-card gesture state machine.
//
// Reduce is the pure decision core: it folds one event into a Machine and
// returns the effects the caller must carry out. Controller is the adapter
// that feeds real gesture and animation-frame events into Reduce, runs the
// animations and dispatches the swipe callbacks.
package card

import (
	"math"
	"time"

	"github.com/okian/swipedeck/internal/domain/model"
)

// Phase is the lifecycle state of one card.
type Phase int

// Phases.
const (
	PhaseResting Phase = iota
	PhaseDragging
	PhaseSettling
	PhaseExiting
	PhaseCommitted
)

func (p Phase) String() string {
	switch p {
	case PhaseResting:
		return "resting"
	case PhaseDragging:
		return "dragging"
	case PhaseSettling:
		return "settling"
	case PhaseExiting:
		return "exiting"
	case PhaseCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// MotionState is the live visual state of a card.
type MotionState struct {
	OffsetX     float64
	OffsetY     float64
	RotationDeg float64
	BaseOffsetX float64
	BaseOffsetY float64
}

// Transform is what the rendering layer applies to a card.
type Transform struct {
	TranslateX float64
	TranslateY float64
	RotateDeg  float64
}

// Render maps motion state to a transform.
func Render(m MotionState) Transform {
	return Transform{TranslateX: m.OffsetX, TranslateY: m.OffsetY, RotateDeg: m.RotationDeg}
}

// Machine is the full reducible state of a card.
type Machine struct {
	Phase    Phase
	Motion   MotionState
	Decision model.Direction
}

// EventKind enumerates reducer inputs.
type EventKind int

// Reducer inputs.
const (
	EventGestureStart EventKind = iota
	EventGestureUpdate
	EventGestureEnd
	// EventGestureLost is a drag that stopped without a clean end.
	EventGestureLost
	// EventAnimationDone is reported by the animation context when the
	// running settle or exit animation reached its target.
	EventAnimationDone
)

// Event is one reducer input.
type Event struct {
	Kind   EventKind
	Sample model.GestureSample
}

// EffectKind enumerates what the adapter must do after a reduction.
type EffectKind int

// Effects.
const (
	// EffectNotify invokes the swipe callback for Direction.
	EffectNotify EffectKind = iota
	// EffectSettle starts the spring back to rest.
	EffectSettle
	// EffectExit starts the timed animation of OffsetX to TargetX.
	EffectExit
	// EffectStopAnimation drops any running animation.
	EffectStopAnimation
)

// Effect is a side effect requested by Reduce.
type Effect struct {
	Kind      EffectKind
	Direction model.Direction
	TargetX   float64
	Duration  time.Duration
}

// Classify applies the commit threshold to a horizontal offset.
func Classify(p Params, offsetX float64) model.Direction {
	t := p.Threshold()
	switch {
	case offsetX > t:
		return model.DirectionRight
	case offsetX < -t:
		return model.DirectionLeft
	default:
		return model.DirectionNone
	}
}

// Reduce folds ev into m. It is pure: the same inputs always produce the
// same outputs, and nothing here depends on animation timing.
func Reduce(p Params, m Machine, ev Event) (Machine, []Effect) {
	switch ev.Kind {
	case EventGestureStart:
		return start(m)
	case EventGestureUpdate:
		return update(p, m, ev.Sample), nil
	case EventGestureEnd, EventGestureLost:
		return end(p, m)
	case EventAnimationDone:
		return animationDone(m), nil
	}
	return m, nil
}

func start(m Machine) (Machine, []Effect) {
	var effects []Effect
	switch m.Phase {
	case PhaseResting:
	case PhaseSettling:
		// Grabbing a card mid-spring continues from where it is.
		effects = []Effect{{Kind: EffectStopAnimation}}
	default:
		return m, nil
	}
	m.Phase = PhaseDragging
	m.Motion.BaseOffsetX = m.Motion.OffsetX
	m.Motion.BaseOffsetY = m.Motion.OffsetY
	return m, effects
}

func update(p Params, m Machine, s model.GestureSample) Machine {
	if m.Phase != PhaseDragging {
		return m
	}
	m.Motion.OffsetX = m.Motion.BaseOffsetX + s.TranslationX
	m.Motion.OffsetY = m.Motion.BaseOffsetY + math.Min(0, s.TranslationY)
	m.Motion.RotationDeg = m.Motion.OffsetX / p.RotationDivisor
	return m
}

func end(p Params, m Machine) (Machine, []Effect) {
	if m.Phase != PhaseDragging {
		return m, nil
	}
	dir := Classify(p, m.Motion.OffsetX)
	if dir == model.DirectionNone {
		m.Phase = PhaseSettling
		return m, []Effect{{Kind: EffectSettle}}
	}

	target := p.ExitDistance()
	if dir == model.DirectionLeft {
		target = -target
	}
	m.Phase = PhaseExiting
	m.Decision = dir
	return m, []Effect{
		{Kind: EffectNotify, Direction: dir},
		{Kind: EffectExit, Direction: dir, TargetX: target, Duration: p.ExitDuration},
	}
}

func animationDone(m Machine) Machine {
	switch m.Phase {
	case PhaseSettling:
		m.Phase = PhaseResting
		m.Motion = MotionState{}
	case PhaseExiting:
		m.Phase = PhaseCommitted
	}
	return m
}
