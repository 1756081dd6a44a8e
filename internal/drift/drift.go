// Package drift implements the per-oscillator frequency drift and jitter
// generators. Each oscillator carries a slow bounded random walk plus an
// independent fast per-tick jitter; the cadence and bound of the walk encode
// the stability hierarchy: references wander slowly and narrowly, seekers
// 3–5× faster and wider, so seeker/reference pairs produce periodic alignment
// windows instead of permanent lock.
package drift

import (
	"fmt"

	"github.com/talgya/resonance/internal/entropy"
	"github.com/talgya/resonance/internal/fixed"
)

// Role names an oscillator's place in the stability hierarchy.
type Role uint8

const (
	RoleReference Role = iota
	RoleSeeker
)

// String returns the role name for logs and telemetry.
func (r Role) String() string {
	if r == RoleSeeker {
		return "seeker"
	}
	return "reference"
}

// Config fixes one generator's behavior for the run.
type Config struct {
	Name string
	Role Role

	// WalkCadence is the number of ticks between walk updates.
	WalkCadence uint32
	// WalkStep is the maximum single walk step. Realized steps are a
	// discrete magnitude in {1/4, 2/4, 3/4, 4/4} of this.
	WalkStep fixed.Value
	// WalkBound is the symmetric clamp on the accumulated slow offset.
	WalkBound fixed.Value

	// JitterStep and JitterBound shape the fast per-tick component.
	JitterStep  fixed.Value
	JitterBound fixed.Value

	// Adaptive enables the landscape correction input; CorrectionShift
	// right-shifts the correction before it is applied, setting the
	// feedback strength.
	Adaptive        bool
	CorrectionShift uint

	Seed uint32
}

// Reference returns the narrow, slow profile used for external reference
// oscillators.
func Reference(name string, seed uint32) Config {
	return Config{
		Name:        name,
		Role:        RoleReference,
		WalkCadence: 64,
		WalkStep:    fixed.FromFloat(0.004),
		WalkBound:   fixed.FromFloat(0.05),
		JitterStep:  fixed.FromFloat(0.001),
		JitterBound: fixed.FromFloat(0.01),
		Seed:        seed,
	}
}

// Seeker returns the wide, fast profile used for internal seeker
// oscillators: 4× the reference cadence and 4× its range.
func Seeker(name string, seed uint32) Config {
	return Config{
		Name:            name,
		Role:            RoleSeeker,
		WalkCadence:     16,
		WalkStep:        fixed.FromFloat(0.016),
		WalkBound:       fixed.FromFloat(0.2),
		JitterStep:      fixed.FromFloat(0.004),
		JitterBound:     fixed.FromFloat(0.04),
		CorrectionShift: 3,
		Seed:            seed,
	}
}

// Validate rejects configurations that would stall or unbound the walk.
// Rejected configs must prevent the run from starting.
func (c Config) Validate() error {
	if c.WalkCadence == 0 {
		return fmt.Errorf("drift %q: walk cadence must be at least 1 tick", c.Name)
	}
	if c.WalkStep <= 0 {
		return fmt.Errorf("drift %q: walk step must be positive", c.Name)
	}
	if c.WalkBound <= 0 {
		return fmt.Errorf("drift %q: walk bound must be positive", c.Name)
	}
	if c.JitterStep < 0 || c.JitterBound < 0 {
		return fmt.Errorf("drift %q: jitter step and bound must be non-negative", c.Name)
	}
	if c.JitterStep > 0 && c.JitterBound == 0 {
		return fmt.Errorf("drift %q: jitter step set but jitter bound is zero", c.Name)
	}
	if c.CorrectionShift > 14 {
		return fmt.Errorf("drift %q: correction shift %d leaves no signal", c.Name, c.CorrectionShift)
	}
	return nil
}

// Output is one tick's frequency offset decomposition.
type Output struct {
	Slow   fixed.Value // accumulated random walk
	Jitter fixed.Value // fast per-tick component
	Total  fixed.Value // Slow + Jitter, what the oscillator bank consumes
}

// Generator owns one oscillator's drift state. Single writer: only the tick
// loop mutates it.
type Generator struct {
	cfg     Config
	walkRng *entropy.LFSR
	jitRng  *entropy.LFSR
	counter uint32
	slow    fixed.Value
	jitter  fixed.Value
}

// New builds a generator, validating the configuration first.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		cfg: cfg,
		// Independent sequences for walk and jitter so the jitter rate
		// does not perturb walk reproducibility.
		walkRng: entropy.NewLFSR(cfg.Seed),
		jitRng:  entropy.NewLFSR(cfg.Seed*2654435761 + 1),
	}, nil
}

// Config returns the fixed configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Tick advances one tick. correction is the previous tick's landscape force
// for this oscillator (zero when adaptive mode is off or the oscillator has
// no landscape). The returned offsets are clamped, never wrapped.
func (g *Generator) Tick(correction fixed.Value) Output {
	g.counter++
	if g.counter%g.cfg.WalkCadence == 0 {
		g.slow = g.slow.Add(g.walkStep())
		if g.cfg.Adaptive {
			g.slow = g.slow.Add(correction >> g.cfg.CorrectionShift)
		}
		g.slow = g.slow.ClampSym(g.cfg.WalkBound)
	}

	// Jitter runs every tick regardless of cadence. It dithers the
	// instantaneous frequency only; spectral widening is an
	// amplitude-domain effect handled downstream, not here.
	if g.cfg.JitterStep > 0 {
		g.jitter = g.jitter.Add(g.signedStep(g.jitRng, g.cfg.JitterStep))
		g.jitter = g.jitter.ClampSym(g.cfg.JitterBound)
	}

	return Output{
		Slow:   g.slow,
		Jitter: g.jitter,
		Total:  g.slow.Add(g.jitter),
	}
}

// walkStep draws a signed discrete step: sign bit plus a 2-bit magnitude
// selecting quarters of WalkStep.
func (g *Generator) walkStep() fixed.Value {
	bits := g.walkRng.Bits(3)
	mag := fixed.Value(int64(g.cfg.WalkStep) * int64(1+bits&3) / 4)
	if bits&4 != 0 {
		return -mag
	}
	return mag
}

func (g *Generator) signedStep(rng *entropy.LFSR, step fixed.Value) fixed.Value {
	if rng.Bits(1) == 1 {
		return step
	}
	return -step
}

// Reset returns the generator to its initial state: offsets cleared, both
// bit sequences rewound to their seeds.
func (g *Generator) Reset() {
	g.counter = 0
	g.slow = 0
	g.jitter = 0
	g.walkRng.Reset()
	g.jitRng.Reset()
}
