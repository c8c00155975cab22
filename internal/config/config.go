// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/swipedeck/internal/domain/animation"
	"github.com/okian/swipedeck/internal/domain/card"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ViewportWidth is the interactive width every card is judged against.
	ViewportWidth float64 `koanf:"viewport_width"`

	// SwipeThresholdRatio is the fraction of the width a drag must exceed.
	SwipeThresholdRatio float64 `koanf:"swipe_threshold_ratio"`

	// ExitDurationMS and ExitDistanceMultiplier shape the exit animation.
	ExitDurationMS         int     `koanf:"exit_duration_ms"`
	ExitDistanceMultiplier float64 `koanf:"exit_distance_multiplier"`

	// RotationDivisor couples tilt to horizontal offset.
	RotationDivisor float64 `koanf:"rotation_divisor"`

	// Settle spring.
	SpringAngularFrequency float64 `koanf:"spring_angular_frequency"`
	SpringDampingRatio     float64 `koanf:"spring_damping_ratio"`

	// RemovalDelayMS is how long a committed card stays in its stack.
	RemovalDelayMS int `koanf:"removal_delay_ms"`

	// DragIdleTimeoutMS releases a drag that has gone this long without a
	// gesture, as if the pointer were lost. Zero disables it.
	DragIdleTimeoutMS int `koanf:"drag_idle_timeout_ms"`

	// FrameRate paces the animation loop.
	FrameRate int `koanf:"frame_rate"`

	// QueueSize bounds each gesture queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of gesture pumps.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the gesture deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxDecks caps concurrently hosted decks. Zero means no limit.
	MaxDecks int `koanf:"max_decks"`

	// VisibleDepth caps rendered layers per deck. Zero renders all.
	VisibleDepth int `koanf:"visible_depth"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		ViewportWidth:          390,
		SwipeThresholdRatio:    card.DefaultThresholdRatio,
		ExitDurationMS:         int(card.DefaultExitDuration / time.Millisecond),
		ExitDistanceMultiplier: card.DefaultExitDistanceMultiplier,
		RotationDivisor:        card.DefaultRotationDivisor,
		SpringAngularFrequency: animation.DefaultSpringConfig().AngularFrequency,
		SpringDampingRatio:     animation.DefaultSpringConfig().DampingRatio,
		RemovalDelayMS:         400,
		DragIdleTimeoutMS:      5000,
		FrameRate:              60,
		QueueSize:              4096,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             100_000,
		MaxDecks:               10_000,
		VisibleDepth:           0,
	}
}

// CardParams returns the card tunables.
func (c *Config) CardParams() card.Params {
	return card.Params{
		ViewportWidth:          c.ViewportWidth,
		ThresholdRatio:         c.SwipeThresholdRatio,
		ExitDistanceMultiplier: c.ExitDistanceMultiplier,
		ExitDuration:           time.Duration(c.ExitDurationMS) * time.Millisecond,
		RotationDivisor:        c.RotationDivisor,
	}
}

// Spring returns the settle spring configuration.
func (c *Config) Spring() animation.SpringConfig {
	s := animation.DefaultSpringConfig()
	s.AngularFrequency = c.SpringAngularFrequency
	s.DampingRatio = c.SpringDampingRatio
	return s
}

// RemovalDelay returns RemovalDelayMS as a duration.
func (c *Config) RemovalDelay() time.Duration {
	return time.Duration(c.RemovalDelayMS) * time.Millisecond
}

// DragIdleTimeout returns DragIdleTimeoutMS as a duration.
func (c *Config) DragIdleTimeout() time.Duration {
	return time.Duration(c.DragIdleTimeoutMS) * time.Millisecond
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := c.CardParams().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.SpringAngularFrequency <= 0:
		return fmt.Errorf("%w: spring_angular_frequency must be positive", ErrInvalidConfig)
	case c.SpringDampingRatio <= 0:
		return fmt.Errorf("%w: spring_damping_ratio must be positive", ErrInvalidConfig)
	case c.RemovalDelayMS < 0:
		return fmt.Errorf("%w: removal_delay_ms must not be negative", ErrInvalidConfig)
	case c.DragIdleTimeoutMS < 0:
		return fmt.Errorf("%w: drag_idle_timeout_ms must not be negative", ErrInvalidConfig)
	case c.FrameRate <= 0 || c.FrameRate > 240:
		return fmt.Errorf("%w: frame_rate must be in 1..240, got %d", ErrInvalidConfig, c.FrameRate)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxDecks < 0 || c.VisibleDepth < 0:
		return fmt.Errorf("%w: max_decks and visible_depth must not be negative", ErrInvalidConfig)
	}
	return nil
}
