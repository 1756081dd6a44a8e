// Package engine wires the per-tick components into one deterministic core:
// drift generators feed oscillator frequencies, the landscape supervises
// ladder positions, boundary detectors and the synchrony meter score the
// bank, and the coupling and ignition controllers shape the downstream
// coupling regime.
package engine

import (
	"fmt"
	"math"

	"github.com/talgya/resonance/internal/boundary"
	"github.com/talgya/resonance/internal/coupling"
	"github.com/talgya/resonance/internal/drift"
	"github.com/talgya/resonance/internal/fixed"
	"github.com/talgya/resonance/internal/ignition"
	"github.com/talgya/resonance/internal/landscape"
	"github.com/talgya/resonance/internal/phi"
	"github.com/talgya/resonance/internal/synchrony"
)

// TickHz is the nominal tick rate. Only tick order matters for correctness,
// but frequency/step conversions need a rate.
const TickHz = 1000.0

// UnitsPerTurn is the angular resolution: one full turn is one fixed.Scale
// of step units, so step arithmetic and Q4.14 share a grid.
const UnitsPerTurn = fixed.Scale

// OscillatorConfig fixes one oscillator's ladder placement and drift profile.
type OscillatorConfig struct {
	Name     string
	Exponent float64 // ladder exponent n at center
	Drift    drift.Config
	// Landscape enables this oscillator's participation in the energy
	// landscape loop (classification plus, in adaptive mode, correction).
	Landscape bool

	// Derived at load time.
	centerStep int32       // per-tick angular step at center frequency
	stepSlope  int32       // d(step)/dn, for linearized frequency offsets
	centerExp  fixed.Value // exponent in Q4.14
}

func (o *OscillatorConfig) derive() {
	hz := phi.Freq(o.Exponent)
	o.centerStep = phi.AngularStep(hz, TickHz, UnitsPerTurn)
	// Φⁿ is locally exponential: a small exponent offset Δn moves the
	// step by centerStep·lnΦ·Δn.
	o.stepSlope = int32(math.Round(float64(o.centerStep) * math.Log(phi.Phi)))
	o.centerExp = fixed.FromFloat(o.Exponent)
}

// Config is the complete core configuration, fixed at run start.
type Config struct {
	Oscillators []OscillatorConfig
	Boundaries  []boundary.Config
	Synchrony   synchrony.Config
	Coupling    coupling.Config
	Ignition    ignition.Config
	Landscape   landscape.Config

	// AdaptiveMode closes the inner loop: landscape forces feed back into
	// drift corrections with a one-tick register.
	AdaptiveMode bool
}

// DefaultConfig returns the canonical bank: five slow external references on
// the Schumann harmonics and six internal seekers on the half-integer ladder
// rungs, with the three tuned boundary detectors between adjacent bands.
func DefaultConfig(seed uint32) Config {
	oscs := []OscillatorConfig{}
	for i, hz := range phi.ReferenceHz {
		oscs = append(oscs, OscillatorConfig{
			Name:     fmt.Sprintf("sr_f%d", i),
			Exponent: phi.Exponent(hz),
			Drift:    drift.Reference(fmt.Sprintf("sr_f%d", i), seed+uint32(i)),
		})
	}
	internal := []struct {
		name string
		exp  float64
	}{
		{"theta", phi.ExpTheta},
		{"l6", phi.ExpAlpha},
		{"l5a", phi.ExpL5a},
		{"l5b", phi.ExpL5b},
		{"l4", phi.ExpL4},
		{"l23", phi.ExpL23},
	}
	for i, o := range internal {
		cfg := drift.Seeker(o.name, seed+100+uint32(i))
		cfg.Adaptive = true
		oscs = append(oscs, OscillatorConfig{
			Name:      o.name,
			Exponent:  o.exp,
			Drift:     cfg,
			Landscape: true,
		})
	}

	// Bank indices: sr_f0..sr_f4 = 0..4, theta..l23 = 5..10.
	bounds := []boundary.Config{
		{
			// geomean(l5a, l5b) sits almost exactly on the 20 Hz
			// harmonic: the tight boundary.
			Name: "l5a_l5b", ParentA: 7, ParentB: 8, Reference: 2,
			Sigma: 10, GateThreshold: fixed.FromFloat(0.5),
			MixGain: fixed.FromFloat(0.8),
		},
		{
			// geomean(l6, l5a) ≈ 12.1 Hz against the 13.75 Hz
			// harmonic: a known structural gap, wider sigma keeps
			// the gate achievable but rare.
			Name: "l6_l5a", ParentA: 6, ParentB: 7, Reference: 1,
			Sigma: 40, GateThreshold: fixed.FromFloat(0.5),
			MixGain: fixed.FromFloat(0.8),
		},
		{
			// geomean(l4, l23) ≈ 35.8 Hz against the 32 Hz
			// harmonic: the widest gap.
			Name: "l4_l23", ParentA: 9, ParentB: 10, Reference: 4,
			Sigma: 80, GateThreshold: fixed.FromFloat(0.5),
			MixGain: fixed.FromFloat(0.8),
		},
	}

	return Config{
		Oscillators: oscs,
		Boundaries:  bounds,
		Synchrony:   synchrony.DefaultConfig([]int{5, 6, 7, 8, 9, 10}),
		Coupling:    coupling.DefaultConfig(),
		Ignition:    ignition.DefaultConfig(),
		Landscape:   landscape.DefaultConfig(),
	}
}

// Validate checks the whole configuration tree. Any error prevents the run
// from starting; nothing is validated again inside the tick loop.
func (c *Config) Validate() error {
	if len(c.Oscillators) == 0 {
		return fmt.Errorf("config: at least one oscillator required")
	}
	names := make(map[string]bool, len(c.Oscillators))
	for i := range c.Oscillators {
		o := &c.Oscillators[i]
		if o.Name == "" {
			return fmt.Errorf("config: oscillator %d has no name", i)
		}
		if names[o.Name] {
			return fmt.Errorf("config: duplicate oscillator name %q", o.Name)
		}
		names[o.Name] = true
		if err := o.Drift.Validate(); err != nil {
			return fmt.Errorf("config: oscillator %q: %w", o.Name, err)
		}
	}
	n := len(c.Oscillators)
	for _, b := range c.Boundaries {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		for _, idx := range []int{b.ParentA, b.ParentB, b.Reference} {
			if idx < 0 || idx >= n {
				return fmt.Errorf("config: boundary %q references oscillator %d of %d", b.Name, idx, n)
			}
		}
	}
	if err := c.Synchrony.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, m := range c.Synchrony.Members {
		if m < 0 || m >= n {
			return fmt.Errorf("config: synchrony member %d of %d oscillators", m, n)
		}
	}
	if err := c.Coupling.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Ignition.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Landscape.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
