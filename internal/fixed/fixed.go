// Package fixed provides the Q4.14 saturating fixed-point kernel shared by
// every per-tick component: the value type, the integer square root, and the
// amplitude approximation. All arithmetic here is branch-bounded: no
// operation may spin, allocate, or fault inside the tick loop.
package fixed

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Value is a signed Q4.14 scalar: 14 fractional bits on int32 storage.
// Representable range is [-8.0, +8.0), resolution 1/16384.
type Value int32

const (
	// FracBits is the fractional width; every product is rescaled by this.
	FracBits = 14

	// Scale is the integer value of 1.0.
	Scale = 1 << FracBits // 16384

	// One is 1.0 in Q4.14.
	One Value = Scale

	// Max and Min bound the representable range. Overflow saturates here,
	// never wraps; the loop must keep running on bad arithmetic.
	Max Value = 8*Scale - 1
	Min Value = -8 * Scale
)

// MinAmplitude is the division floor. Denominators below this are treated as
// this value; the original system excludes samples under ~0.01 amplitude from
// phase statistics for the same reason.
const MinAmplitude Value = 164 // ≈ 0.01

// FromFloat converts a float64 to Q4.14, saturating out-of-range inputs.
func FromFloat(f float64) Value {
	return sat64(int64(f * Scale))
}

// Float converts back to float64 for reporting and tests.
func (v Value) Float() float64 {
	return float64(v) / Scale
}

func sat64(x int64) Value {
	if x > int64(Max) {
		return Max
	}
	if x < int64(Min) {
		return Min
	}
	return Value(x)
}

// Add returns v+o with saturation.
func (v Value) Add(o Value) Value {
	return sat64(int64(v) + int64(o))
}

// Sub returns v-o with saturation.
func (v Value) Sub(o Value) Value {
	return sat64(int64(v) - int64(o))
}

// Mul returns the Q4.14 product. The raw product carries 28 fractional bits;
// the explicit >>FracBits rescale restores Q4.14 before saturation.
func (v Value) Mul(o Value) Value {
	return sat64((int64(v) * int64(o)) >> FracBits)
}

// Div returns v/o in Q4.14. Denominators inside (-MinAmplitude, MinAmplitude)
// are floored to ±MinAmplitude so a decaying oscillator can never blow up a
// unit-vector normalization.
func (v Value) Div(o Value) Value {
	if o >= 0 && o < MinAmplitude {
		o = MinAmplitude
	} else if o < 0 && o > -MinAmplitude {
		o = -MinAmplitude
	}
	return sat64((int64(v) << FracBits) / int64(o))
}

// Abs returns |v|, saturating the Min edge case.
func (v Value) Abs() Value {
	if v < 0 {
		return sat64(-int64(v))
	}
	return v
}

// ClampSym clamps v to the symmetric range [-bound, +bound]. Offsets are
// clamped, never reflected or wrapped.
func (v Value) ClampSym(bound Value) Value {
	if bound < 0 {
		bound = -bound
	}
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}

// Clamp bounds any integer value to [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Isqrt returns floor(sqrt(x)) for x ≥ 0 (0 for negative inputs).
// Initial guess is shift-based (2^ceil(bits/2)), refined by three
// Newton-Raphson steps and a final floor correction. Cost is bounded
// regardless of input.
func Isqrt(x int64) int32 {
	if x <= 0 {
		return 0
	}
	g := int64(1) << ((bits.Len64(uint64(x)) + 1) / 2)
	for i := 0; i < 3; i++ {
		g = (g + x/g) >> 1
	}
	for g > 0 && g*g > x {
		g--
	}
	for (g+1)*(g+1) <= x {
		g++
	}
	return int32(g)
}

// amplitudeCoeff is 0.4 in Q4.14, the minor-axis weight of the
// max+0.4·min magnitude approximation.
const amplitudeCoeff Value = 6554

// Amplitude approximates sqrt(x²+y²) as max(|x|,|y|) + 0.4·min(|x|,|y|).
// Worst-case error is about 11%, which the tuned thresholds absorb; a true
// square root per oscillator per tick would not fit the timing budget the
// original hardware was built to.
func Amplitude(x, y Value) Value {
	ax, ay := x.Abs(), y.Abs()
	if ax < ay {
		ax, ay = ay, ax
	}
	return ax.Add(ay.Mul(amplitudeCoeff))
}

// GeoMean returns the geometric mean of two non-negative Q4.14 values.
// The product carries 28 fractional bits, so its integer square root is
// already back in Q4.14 with no explicit rescale needed.
func GeoMean(a, b Value) Value {
	if a < 0 {
		a = 0
	}
	if b < 0 {
		b = 0
	}
	return Value(Isqrt(int64(a) * int64(b)))
}
