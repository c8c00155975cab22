package animation

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// Spring defaults match a unit-mass spring with stiffness 100 and damping 10.
const (
	defaultSpringFPS        = 60
	defaultAngularFrequency = 10.0
	defaultDampingRatio     = 0.5
	defaultRestDisplacement = 0.01
	defaultRestSpeed        = 2.0
	maxStepsPerAdvance      = 600
)

// SpringConfig parameterises the settle spring.
type SpringConfig struct {
	FPS              int     // integration rate; the spring steps in 1/FPS increments
	AngularFrequency float64 // sqrt(stiffness/mass)
	DampingRatio     float64 // < 1 under-damped, 1 critical, > 1 over-damped
	RestDisplacement float64 // |value| under this counts as at rest
	RestSpeed        float64 // |velocity| under this counts as at rest
}

// DefaultSpringConfig returns the stock settle spring.
func DefaultSpringConfig() SpringConfig {
	return SpringConfig{
		FPS:              defaultSpringFPS,
		AngularFrequency: defaultAngularFrequency,
		DampingRatio:     defaultDampingRatio,
		RestDisplacement: defaultRestDisplacement,
		RestSpeed:        defaultRestSpeed,
	}
}

// springAnimation drives X, Y and Rotation to zero with one harmonica spring.
type springAnimation struct {
	cfg    SpringConfig
	spring harmonica.Spring
	step   time.Duration
	carry  time.Duration

	vx, vy, vr float64
}

// NewSpring creates a settle animation toward zero.
func NewSpring(cfg SpringConfig) Animation {
	if cfg.FPS <= 0 {
		cfg.FPS = defaultSpringFPS
	}
	return &springAnimation{
		cfg:    cfg,
		spring: harmonica.NewSpring(harmonica.FPS(cfg.FPS), cfg.AngularFrequency, cfg.DampingRatio),
		step:   time.Second / time.Duration(cfg.FPS),
	}
}

// Advance integrates in fixed steps so the result does not depend on how the
// caller slices time.
func (s *springAnimation) Advance(dt time.Duration, f *Frame) bool {
	if s.atRest(f) {
		s.snap(f)
		return true
	}

	s.carry += dt
	for steps := 0; s.carry >= s.step && steps < maxStepsPerAdvance; steps++ {
		s.carry -= s.step
		f.X, s.vx = s.spring.Update(f.X, s.vx, 0)
		f.Y, s.vy = s.spring.Update(f.Y, s.vy, 0)
		f.Rotation, s.vr = s.spring.Update(f.Rotation, s.vr, 0)
		if s.atRest(f) {
			s.snap(f)
			return true
		}
	}
	if s.carry > s.step {
		// Long stalls are dropped rather than replayed.
		s.carry = 0
	}
	return false
}

func (s *springAnimation) atRest(f *Frame) bool {
	d, v := s.cfg.RestDisplacement, s.cfg.RestSpeed
	return math.Abs(f.X) < d && math.Abs(f.Y) < d && math.Abs(f.Rotation) < d &&
		math.Abs(s.vx) < v && math.Abs(s.vy) < v && math.Abs(s.vr) < v
}

func (s *springAnimation) snap(f *Frame) {
	*f = Frame{}
	s.vx, s.vy, s.vr = 0, 0, 0
}
