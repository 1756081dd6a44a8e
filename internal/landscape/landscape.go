// Package landscape implements the energy landscape over ladder exponents and
// the position classifier. The landscape holds oscillators near half-integer
// rungs (the attractors) and repels them from the narrow window where a 2:1
// harmonic coincidence would lock a pair permanently.
package landscape

import (
	"fmt"

	"github.com/talgya/resonance/internal/fixed"
)

// Position classifies where an exponent's fractional part sits on the rung.
type Position uint8

const (
	// PositionAttractor is a stable half-integer rung.
	PositionAttractor Position = iota
	// PositionBoundary is an integer boundary between bands, the energy maximum.
	PositionBoundary
	// PositionQuarter is the fallback between boundary and attractor.
	PositionQuarter
	// PositionDanger is the 2:1 catastrophe window.
	PositionDanger
)

var positionNames = [...]string{"attractor", "boundary", "quarter", "danger"}

func (p Position) String() string {
	if int(p) < len(positionNames) {
		return positionNames[p]
	}
	return "unknown"
}

// Config fixes the landscape shape for a run.
type Config struct {
	// ForceGain scales the restoring force toward half-integer rungs.
	ForceGain fixed.Value
	// DangerCenter is the fractional exponent of the 2:1 coincidence
	// (frac(ln2/lnΦ) ≈ 0.4404).
	DangerCenter fixed.Value
	// DangerHalfWidth is the half-width of the repelled window.
	DangerHalfWidth fixed.Value
	// RepelGain scales the repulsive gradient inside the window.
	RepelGain fixed.Value
	// EscapeMin is the guaranteed minimum escape push inside the window,
	// emitted even where the gradient is locally weak.
	EscapeMin fixed.Value
	// ClassifyDist is the distance threshold for the boundary and
	// attractor buckets.
	ClassifyDist fixed.Value
}

// DefaultConfig returns the tuned landscape constants.
func DefaultConfig() Config {
	return Config{
		ForceGain:       fixed.FromFloat(0.02),
		DangerCenter:    fixed.FromFloat(0.4404),
		DangerHalfWidth: fixed.FromFloat(0.05),
		RepelGain:       fixed.FromFloat(0.08),
		EscapeMin:       fixed.FromFloat(0.01),
		ClassifyDist:    fixed.FromFloat(0.125),
	}
}

// Validate rejects shapes that would misclassify everything or emit no push.
func (c Config) Validate() error {
	if c.ForceGain <= 0 {
		return fmt.Errorf("landscape: force gain must be positive")
	}
	if c.DangerHalfWidth <= 0 || c.DangerHalfWidth >= fixed.FromFloat(0.25) {
		return fmt.Errorf("landscape: danger half-width must be in (0, 0.25)")
	}
	if c.DangerCenter <= 0 || c.DangerCenter >= fixed.One {
		return fmt.Errorf("landscape: danger center must be a fractional exponent in (0, 1)")
	}
	if c.EscapeMin <= 0 {
		return fmt.Errorf("landscape: escape minimum must be positive")
	}
	if c.ClassifyDist <= 0 || c.ClassifyDist > fixed.FromFloat(0.25) {
		return fmt.Errorf("landscape: classify distance must be in (0, 0.25]")
	}
	return nil
}

// Result is one evaluation of the landscape at an exponent.
type Result struct {
	Position  Position
	Stability fixed.Value // [0,1]: 1 at half-integers, 0 at integer boundaries
	Force     fixed.Value // restoring force toward the nearest attractor
	Escape    fixed.Value // unconditional danger-window push, zero outside
}

// Field evaluates the landscape. Stateless; safe for concurrent readers.
type Field struct {
	cfg Config
}

// New builds a Field, validating the configuration.
func New(cfg Config) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Field{cfg: cfg}, nil
}

// Evaluate classifies the exponent and computes the per-tick correction
// terms. The period-1 energy term is cos(2π·frac), minima at half-integers;
// its negative gradient reduces to sin(2π·frac) through the quarter-wave
// table. Consumers must register this output one tick before applying it as
// a drift correction.
func (f *Field) Evaluate(n fixed.Value) Result {
	frac := fixed.Value(int32(n) & (fixed.Scale - 1))
	phase := fixed.FracPhase(n)

	r := Result{
		Position:  f.classify(frac),
		Stability: (fixed.One - fixed.CosU(phase)) >> 1,
		Force:     f.cfg.ForceGain.Mul(fixed.SinU(phase)),
	}

	if r.Position == PositionDanger {
		dist := (frac - f.cfg.DangerCenter).Abs()
		// Push away from the window center: gradient term plus the
		// guaranteed minimum, signed by which side of center we sit on.
		push := f.cfg.EscapeMin.Add(f.cfg.RepelGain.Mul(f.cfg.DangerHalfWidth - dist))
		if frac < f.cfg.DangerCenter {
			push = -push
		}
		r.Escape = push
	}
	return r
}

// classify buckets a fractional exponent. The danger check takes precedence
// over every distance bucket.
func (f *Field) classify(frac fixed.Value) Position {
	if (frac - f.cfg.DangerCenter).Abs() < f.cfg.DangerHalfWidth {
		return PositionDanger
	}
	distInt := frac
	if alt := fixed.One - frac; alt < distInt {
		distInt = alt
	}
	if distInt < f.cfg.ClassifyDist {
		return PositionBoundary
	}
	if (frac - fixed.One/2).Abs() < f.cfg.ClassifyDist {
		return PositionAttractor
	}
	return PositionQuarter
}
