// Package animation provides the position/rotation animation primitives a
// card uses to present settle and exit motion. Animations only interpolate
// values; they never decide anything about the gesture that started them.
package animation

import "time"

// Frame is the animated part of a card's motion.
type Frame struct {
	X        float64
	Y        float64
	Rotation float64
}

// Animation advances a Frame toward its target.
type Animation interface {
	// Advance moves f forward by dt and reports whether the animation has
	// reached its target. Once it returns true, f holds the final values.
	Advance(dt time.Duration, f *Frame) bool
}

// Animator builds the two animations a card needs.
type Animator interface {
	// Settle springs every component of from back to zero.
	Settle(from Frame) Animation
	// Exit moves X from its current value to targetX over d.
	Exit(from Frame, targetX float64, d time.Duration) Animation
}

// Standard is the default Animator: a damped spring for settle and an eased
// timed tween for exit.
type Standard struct {
	spring SpringConfig
	easing Easing
}

// NewStandard creates the default Animator.
func NewStandard(opts ...Option) *Standard {
	s := &Standard{
		spring: DefaultSpringConfig(),
		easing: EaseInOutQuad,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settle implements Animator.
func (s *Standard) Settle(_ Frame) Animation {
	return NewSpring(s.spring)
}

// Exit implements Animator.
func (s *Standard) Exit(from Frame, targetX float64, d time.Duration) Animation {
	return NewTiming(from.X, targetX, d, s.easing)
}
