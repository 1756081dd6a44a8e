package fixed

import "math"

// Phase is expressed in table units: 1024 units per full turn, so one
// quadrant spans 256 units and a single 256-entry quarter-wave table covers
// the whole circle by symmetry.
const (
	PhaseBits  = 10
	PhaseSteps = 1 << PhaseBits // units per full turn
	quadrant   = PhaseSteps / 4
)

// sineQuarter holds sin over the first quadrant in Q4.14. Read-only after
// package init; shared freely across components with no synchronization.
var sineQuarter [quadrant]Value

func init() {
	for i := range sineQuarter {
		sineQuarter[i] = FromFloat(math.Sin(float64(i) / quadrant * math.Pi / 2))
	}
}

// SinU returns sin(2π·p/PhaseSteps) in Q4.14, p in table units (any sign).
func SinU(p int32) Value {
	p &= PhaseSteps - 1 // wrap to [0, 1024)
	switch {
	case p < quadrant:
		return sineQuarter[p]
	case p == quadrant:
		return One
	case p < 2*quadrant:
		return sineQuarter[2*quadrant-p]
	case p < 3*quadrant:
		return -SinU(p - 2*quadrant)
	default:
		return -SinU(p - 2*quadrant)
	}
}

// CosU returns cos(2π·p/PhaseSteps) via the quarter-turn identity.
func CosU(p int32) Value {
	return SinU(p + quadrant)
}

// FracPhase maps the fractional part of a Q4.14 value onto table units.
func FracPhase(v Value) int32 {
	frac := int32(v) & (Scale - 1) // fractional bits of the exponent
	return frac >> (FracBits - PhaseBits)
}
