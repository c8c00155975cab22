package animation

import "time"

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

// Linear progresses at a constant rate.
func Linear(t float64) float64 { return t }

// EaseInOutQuad accelerates through the first half and decelerates through
// the second.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

// timingAnimation tweens X from one value to another over a fixed duration.
type timingAnimation struct {
	from, to float64
	duration time.Duration
	elapsed  time.Duration
	easing   Easing
}

// NewTiming creates a time-bounded tween of X. A non-positive duration jumps
// straight to the target on the first Advance.
func NewTiming(from, to float64, d time.Duration, easing Easing) Animation {
	if easing == nil {
		easing = Linear
	}
	return &timingAnimation{from: from, to: to, duration: d, easing: easing}
}

func (a *timingAnimation) Advance(dt time.Duration, f *Frame) bool {
	a.elapsed += dt
	if a.duration <= 0 || a.elapsed >= a.duration {
		f.X = a.to
		return true
	}
	p := a.easing(float64(a.elapsed) / float64(a.duration))
	f.X = a.from + (a.to-a.from)*p
	return false
}
