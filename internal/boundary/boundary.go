// Package boundary implements the boundary/alignment detectors. A boundary
// oscillator is synthesized at the geometric mean of two parents' frequencies
// and scored against an external reference; the hypothesis is that this mean
// marks the transition between the two parents' frequency bands.
package boundary

import (
	"fmt"

	"github.com/talgya/resonance/internal/fixed"
)

// maxStepUnits clamps frequencies before the product so the square root
// input stays well inside int64.
const maxStepUnits = 1 << 15

// Config fixes one detector for the run.
type Config struct {
	Name string
	// ParentA and ParentB index the oscillator bank.
	ParentA, ParentB int
	// Reference indexes the external reference bank.
	Reference int
	// Sigma is the Gaussian width in angular-step units. Boundaries with a
	// known structural gap get a wider sigma, keeping the gate achievable
	// but rare.
	Sigma int32
	// GateThreshold is the hard gate: scores below it emit zero.
	GateThreshold fixed.Value
	// MixGain scales the synthesized boundary amplitude.
	MixGain fixed.Value
}

// Validate rejects detectors that would divide by zero or never gate.
func (c Config) Validate() error {
	if c.Sigma <= 0 {
		return fmt.Errorf("boundary %q: sigma must be positive", c.Name)
	}
	if c.GateThreshold < 0 || c.GateThreshold > fixed.One {
		return fmt.Errorf("boundary %q: gate threshold must be in [0, 1]", c.Name)
	}
	if c.MixGain <= 0 {
		return fmt.Errorf("boundary %q: mix gain must be positive", c.Name)
	}
	if c.ParentA == c.ParentB {
		return fmt.Errorf("boundary %q: parents must differ", c.Name)
	}
	return nil
}

// AlignmentResult is one tick's detector output.
type AlignmentResult struct {
	Boundary int32       // synthesized boundary frequency, step units
	Detuning int32       // |boundary - reference|, always ≥ 0
	Score    fixed.Value // Gaussian alignment score in [0, 1]
	Gate     fixed.Value // 0 below threshold, else Score unchanged
}

// PhaseState is the synthesized boundary oscillator state.
type PhaseState struct {
	X, Y      fixed.Value // direction: the averaged parent unit vector
	Amplitude fixed.Value
}

// Detector scores one boundary. Stateless per tick.
type Detector struct {
	cfg Config
}

// New builds a detector, validating the configuration.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the fixed configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Align synthesizes the boundary frequency from the two parent frequencies
// and scores its detuning against the reference. All inputs are in integer
// angular-step units. The score is max(0, 1 - detuning²/σ²), clamped into
// [0, 1]; the gate passes it through unchanged or not at all.
func (d *Detector) Align(freqA, freqB, ref int32) AlignmentResult {
	fa := fixed.Clamp(freqA, 0, maxStepUnits)
	fb := fixed.Clamp(freqB, 0, maxStepUnits)

	b := fixed.Isqrt(int64(fa) * int64(fb))
	det := b - ref
	if det < 0 {
		det = -det
	}

	// 1 - det²/σ² in Q4.14. det and sigma are plain step units, so the
	// ratio is scaled up before the subtraction.
	ratio := int64(det) * int64(det) * fixed.Scale / (int64(d.cfg.Sigma) * int64(d.cfg.Sigma))
	score := fixed.Value(0)
	if ratio < int64(fixed.One) {
		score = fixed.One - fixed.Value(ratio)
	}

	gate := fixed.Value(0)
	if score >= d.cfg.GateThreshold {
		gate = score
	}
	return AlignmentResult{Boundary: b, Detuning: det, Score: score, Gate: gate}
}

// Synthesize derives the boundary oscillator's own phase state from its
// parents. Amplitude is the geometric mean of the parent amplitudes scaled by
// the mixing gain and an alignment factor: each parent is normalized to a
// unit vector and the averaged vector's length sets the factor. Aligned
// parents give near-full amplitude; anti-phase parents suppress toward zero.
// Divisions are floored at fixed.MinAmplitude.
func (d *Detector) Synthesize(ax, ay, bx, by fixed.Value) PhaseState {
	ampA := fixed.Amplitude(ax, ay)
	ampB := fixed.Amplitude(bx, by)

	// Parent unit vectors, then their average.
	ux := ax.Div(ampA).Add(bx.Div(ampB)) >> 1
	uy := ay.Div(ampA).Add(by.Div(ampB)) >> 1
	alignment := fixed.Amplitude(ux, uy)
	if alignment > fixed.One {
		alignment = fixed.One
	}

	amp := fixed.GeoMean(ampA, ampB).Mul(d.cfg.MixGain).Mul(alignment)
	return PhaseState{X: ux, Y: uy, Amplitude: amp}
}
