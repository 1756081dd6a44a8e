// Package phi provides the golden-ratio frequency ladder. Every oscillator's
// center frequency is Φⁿ times the base frequency for a real-valued ladder
// exponent n; every frequency in the system traces back to Φ and the base.
package phi

import "math"

// Phi is the golden ratio.
const Phi = 1.6180339887498948

// BaseHz anchors the ladder: the fundamental Schumann mode sits at n = 0.
const BaseHz = 7.83

// Named ladder rungs. Internal oscillators sit on half-integer exponents,
// where the energy landscape has its attractors.
const (
	ExpTheta = -0.5 // ≈ 5.89 Hz
	ExpAlpha = 0.5  // ≈ 9.53 Hz (L6)
	ExpL5a   = 1.5  // ≈ 15.42 Hz (low beta)
	ExpL5b   = 2.5  // ≈ 24.94 Hz (high beta)
	ExpL4    = 3.0  // ≈ 31.73 Hz (low gamma)
	ExpL23   = 3.5  // ≈ 40.36 Hz (gamma)
)

// CatastropheExp is the ladder exponent at which an oscillator would sit at
// exactly twice the base frequency (Φⁿ = 2, n = ln2/lnΦ ≈ 1.4404). A 2:1
// coincidence phase-locks the pair permanently, so the landscape repels a
// window around this exponent.
var CatastropheExp = math.Log(2) / math.Log(Phi)

// ReferenceHz lists the external reference harmonics the boundary detectors
// score against, lowest first.
var ReferenceHz = [5]float64{7.83, 13.75, 20.0, 25.0, 32.0}

// Freq returns the center frequency in Hz for a ladder exponent.
func Freq(n float64) float64 {
	return BaseHz * math.Pow(Phi, n)
}

// Exponent inverts Freq: the ladder exponent whose center frequency is hz.
func Exponent(hz float64) float64 {
	return math.Log(hz/BaseHz) / math.Log(Phi)
}

// AngularStep converts a frequency to the per-tick phase increment in raw
// step units, given the tick rate. Frequencies are carried through the core
// in these integer units; two oscillators' geometric mean is then a plain
// integer square root of their product.
func AngularStep(hz float64, tickHz float64, unitsPerTurn int) int32 {
	return int32(math.Round(hz / tickHz * float64(unitsPerTurn)))
}
