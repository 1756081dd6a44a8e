package engine

import (
	"fmt"

	"github.com/talgya/resonance/internal/boundary"
	"github.com/talgya/resonance/internal/coupling"
	"github.com/talgya/resonance/internal/drift"
	"github.com/talgya/resonance/internal/fixed"
	"github.com/talgya/resonance/internal/ignition"
	"github.com/talgya/resonance/internal/landscape"
	"github.com/talgya/resonance/internal/synchrony"
)

// Inputs is everything external the core reads on one tick.
type Inputs struct {
	// X, Y carry the oscillator bank's phase state, indexed like
	// Config.Oscillators. Missing entries read as zero.
	X, Y []fixed.Value
	// Coherence and Quiescent drive the ignition trigger.
	Coherence fixed.Value
	Quiescent bool
	// Reset aborts all state machines back to their initial state. It is
	// the only way to cut an ignition cycle or crossfade short.
	Reset bool
}

// OscillatorOutput is one oscillator's per-tick frequency state.
type OscillatorOutput struct {
	Offset    drift.Output
	Exponent  fixed.Value // center exponent plus offset
	Step      int32       // per-tick angular step, linearized around center
	Position  landscape.Position
	Stability fixed.Value
}

// BoundaryOutput pairs a detector's alignment result with its synthesized
// phase state.
type BoundaryOutput struct {
	boundary.AlignmentResult
	Phase boundary.PhaseState
}

// Outputs is the complete per-tick output bundle the downstream system
// consumes as a time series.
type Outputs struct {
	Tick        uint64
	Oscillators []OscillatorOutput
	Boundaries  []BoundaryOutput
	Synchrony   synchrony.Result
	Coupling    coupling.Output
	Ignition    ignition.Output
}

// Core owns every component instance for a run. Single logical timeline:
// Step is the only mutator, and each call advances exactly one tick.
type Core struct {
	cfg   Config
	gens  []*drift.Generator
	field *landscape.Field
	dets  []*boundary.Detector
	meter *synchrony.Meter
	mode  *coupling.Controller
	ign   *ignition.Controller

	// force holds the landscape correction computed on the previous tick:
	// combinational compute, registered consumption. The one-tick latency
	// is load-bearing for the adaptive loop's stability.
	force []fixed.Value

	prevIgnition ignition.Output
	tick         uint64

	// scratch buffers, reused every tick
	xs, ys []fixed.Value
}

// New validates the configuration and builds the core. Configuration errors
// are the only errors this package surfaces; after New succeeds the tick
// loop cannot fail.
func New(cfg Config) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i := range cfg.Oscillators {
		cfg.Oscillators[i].derive()
	}

	c := &Core{
		cfg:   cfg,
		force: make([]fixed.Value, len(cfg.Oscillators)),
		xs:    make([]fixed.Value, len(cfg.Oscillators)),
		ys:    make([]fixed.Value, len(cfg.Oscillators)),
	}

	for _, o := range cfg.Oscillators {
		g, err := drift.New(o.Drift)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		c.gens = append(c.gens, g)
	}
	var err error
	if c.field, err = landscape.New(cfg.Landscape); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	for _, b := range cfg.Boundaries {
		d, err := boundary.New(b)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		c.dets = append(c.dets, d)
	}
	if c.meter, err = synchrony.New(cfg.Synchrony); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if c.mode, err = coupling.New(cfg.Coupling); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if c.ign, err = ignition.New(cfg.Ignition); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return c, nil
}

// Config returns the fixed configuration (derived fields populated).
func (c *Core) Config() Config {
	return c.cfg
}

// Tick returns the number of completed ticks.
func (c *Core) Tick() uint64 {
	return c.tick
}

// Step advances the core one tick. Evaluation is topological: drift first,
// then landscape, detectors and meter, then the two controllers. Every
// numeric hazard inside is recovered by saturation or flooring; Step never
// fails.
func (c *Core) Step(in Inputs) Outputs {
	if in.Reset {
		c.reset()
	}
	c.tick++

	// Zero-extend the bank state into the scratch buffers.
	copy(c.xs, in.X)
	copy(c.ys, in.Y)
	for i := len(in.X); i < len(c.xs); i++ {
		c.xs[i] = 0
	}
	for i := len(in.Y); i < len(c.ys); i++ {
		c.ys[i] = 0
	}

	out := Outputs{
		Tick:        c.tick,
		Oscillators: make([]OscillatorOutput, len(c.gens)),
		Boundaries:  make([]BoundaryOutput, len(c.dets)),
	}

	// Drift and landscape. The generators consume the force registered on
	// the previous tick; this tick's forces are registered for the next.
	steps := make([]int32, len(c.gens))
	for i, g := range c.gens {
		o := &c.cfg.Oscillators[i]
		d := g.Tick(c.force[i])
		exp := o.centerExp.Add(d.Total)
		step := o.centerStep + int32((int64(o.stepSlope)*int64(d.Total))>>fixed.FracBits)
		steps[i] = step

		oo := OscillatorOutput{Offset: d, Exponent: exp, Step: step}
		if o.Landscape {
			r := c.field.Evaluate(exp)
			oo.Position = r.Position
			oo.Stability = r.Stability
			if c.cfg.AdaptiveMode {
				c.force[i] = r.Force.Add(r.Escape)
			}
		}
		out.Oscillators[i] = oo
	}

	// Boundary detectors score this tick's frequencies and synthesize
	// the boundary oscillators from the external phase state.
	var power fixed.Value
	for i, d := range c.dets {
		b := d.Config()
		align := d.Align(steps[b.ParentA], steps[b.ParentB], steps[b.Reference])
		phase := d.Synthesize(c.xs[b.ParentA], c.ys[b.ParentA], c.xs[b.ParentB], c.ys[b.ParentB])
		out.Boundaries[i] = BoundaryOutput{AlignmentResult: align, Phase: phase}
		if align.Gate > power {
			power = align.Gate
		}
	}

	// Synchrony meter. The registered (previous-tick) value is what the
	// mode controller reads, matching the hardware's output register.
	now, prev := c.meter.Measure(c.xs, c.ys)
	out.Synchrony = now

	// Controllers. The mode controller reads the previous tick's ignition
	// phase so the sibling pair stays free of same-tick hazards.
	out.Coupling = c.mode.Tick(coupling.Inputs{
		Synchrony:     prev.R,
		BoundaryPower: power,
		IgnitionPhase: c.prevIgnition.Phase,
	})
	out.Ignition = c.ign.Tick(in.Coherence, in.Quiescent, false)
	c.prevIgnition = out.Ignition

	return out
}

// reset returns every stateful component to its initial state without
// touching configuration. The tick counter keeps running.
func (c *Core) reset() {
	for i, g := range c.gens {
		g.Reset()
		c.force[i] = 0
	}
	c.meter.Reset()
	c.mode.Reset()
	c.ign.Reset()
	c.prevIgnition = ignition.Output{}
}
