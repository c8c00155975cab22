package card

import (
	"fmt"
	"time"
)

// Default tunables.
const (
	DefaultThresholdRatio         = 0.5
	DefaultExitDistanceMultiplier = 2.0
	DefaultExitDuration           = 400 * time.Millisecond
	DefaultRotationDivisor        = 10.0
)

// Params are the engine-level tunables of a card. ViewportWidth is supplied
// by the host; nothing reads screen size from ambient state.
type Params struct {
	ViewportWidth          float64
	ThresholdRatio         float64       // fraction of ViewportWidth a drag must exceed to commit
	ExitDistanceMultiplier float64       // exit target is this many viewport widths off-centre
	ExitDuration           time.Duration // length of the timed exit animation
	RotationDivisor        float64       // RotationDeg = OffsetX / RotationDivisor
}

// DefaultParams returns the stock tunables for a viewport of the given width.
func DefaultParams(viewportWidth float64) Params {
	return Params{
		ViewportWidth:          viewportWidth,
		ThresholdRatio:         DefaultThresholdRatio,
		ExitDistanceMultiplier: DefaultExitDistanceMultiplier,
		ExitDuration:           DefaultExitDuration,
		RotationDivisor:        DefaultRotationDivisor,
	}
}

// Threshold is the horizontal displacement a drag must strictly exceed.
func (p Params) Threshold() float64 {
	return p.ThresholdRatio * p.ViewportWidth
}

// ExitDistance is the absolute X an exiting card animates to.
func (p Params) ExitDistance() float64 {
	return p.ExitDistanceMultiplier * p.ViewportWidth
}

// Validate reports the first unusable tunable.
func (p Params) Validate() error {
	switch {
	case p.ViewportWidth <= 0:
		return fmt.Errorf("%w: viewport width must be positive, got %v", ErrInvalidParams, p.ViewportWidth)
	case p.ThresholdRatio <= 0:
		return fmt.Errorf("%w: threshold ratio must be positive, got %v", ErrInvalidParams, p.ThresholdRatio)
	case p.ExitDistanceMultiplier <= p.ThresholdRatio:
		return fmt.Errorf("%w: exit distance multiplier %v must exceed threshold ratio %v",
			ErrInvalidParams, p.ExitDistanceMultiplier, p.ThresholdRatio)
	case p.ExitDuration < 0:
		return fmt.Errorf("%w: exit duration must not be negative", ErrInvalidParams)
	case p.RotationDivisor == 0:
		return fmt.Errorf("%w: rotation divisor must not be zero", ErrInvalidParams)
	}
	return nil
}
