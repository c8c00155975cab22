package animation

// Option applies a configuration option to the Standard animator.
type Option func(*Standard)

// WithSpring replaces the settle spring parameters. Non-positive fields keep
// their defaults.
func WithSpring(cfg SpringConfig) Option {
	return func(s *Standard) {
		if cfg.FPS > 0 {
			s.spring.FPS = cfg.FPS
		}
		if cfg.AngularFrequency > 0 {
			s.spring.AngularFrequency = cfg.AngularFrequency
		}
		if cfg.DampingRatio > 0 {
			s.spring.DampingRatio = cfg.DampingRatio
		}
		if cfg.RestDisplacement > 0 {
			s.spring.RestDisplacement = cfg.RestDisplacement
		}
		if cfg.RestSpeed > 0 {
			s.spring.RestSpeed = cfg.RestSpeed
		}
	}
}

// WithEasing sets the curve used by exit animations.
func WithEasing(e Easing) Option {
	return func(s *Standard) {
		if e != nil {
			s.easing = e
		}
	}
}
