package animation

import (
	"fmt"
	"math"
)

// Curve identifies an easing function mapping progress x in [0, 1] to a
// value fraction in [0, 1].
type Curve int

const (
	Linear Curve = iota
	EaseOutQuad
	EaseOutCubic
	EaseOutExpo
)

// Y evaluates the curve at x.
func (c Curve) Y(x float64) float64 {
	switch c {
	case EaseOutQuad:
		return 1 - (1-x)*(1-x)
	case EaseOutCubic:
		return 1 - (1-x)*(1-x)*(1-x)
	case EaseOutExpo:
		return 1 - math.Pow(2, -10*x)
	default:
		return x
	}
}

// String returns the configuration-file name of the curve.
func (c Curve) String() string {
	switch c {
	case EaseOutQuad:
		return "ease-out-quad"
	case EaseOutCubic:
		return "ease-out-cubic"
	case EaseOutExpo:
		return "ease-out-expo"
	default:
		return "linear"
	}
}

// ParseCurve converts a configuration-file name to a Curve.
func ParseCurve(s string) (Curve, error) {
	switch s {
	case "linear":
		return Linear, nil
	case "ease-out-quad":
		return EaseOutQuad, nil
	case "ease-out-cubic":
		return EaseOutCubic, nil
	case "ease-out-expo":
		return EaseOutExpo, nil
	}
	return Linear, fmt.Errorf("unknown animation curve %q", s)
}
