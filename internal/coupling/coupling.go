// Package coupling implements the three-state coupling mode controller. It
// selects between the modulation-based regime and the phase-locked harmonic
// regime, crossfading the two path gains over a fixed duration whenever it
// switches. Hysteresis on the synchrony thresholds prevents bang-bang
// flapping, and an active ignition overrides entry and suppresses exit.
package coupling

import (
	"fmt"

	"github.com/talgya/resonance/internal/fixed"
	"github.com/talgya/resonance/internal/ignition"
)

// Mode enumerates the coupling regimes.
type Mode uint8

const (
	ModeModulatory Mode = iota
	ModeTransitioning
	ModeHarmonic
)

var modeNames = [...]string{"modulatory", "transitioning", "harmonic"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Config fixes the controller thresholds for a run.
type Config struct {
	// EntryThreshold is the synchrony level that, together with boundary
	// power, arms entry into the harmonic regime.
	EntryThreshold fixed.Value
	// ExitThreshold is the lower hysteresis bound: only crossing below it
	// exits the harmonic regime.
	ExitThreshold fixed.Value
	// PowerThreshold gates entry on aggregate boundary power.
	PowerThreshold fixed.Value
	// CrossfadeTicks is the minimum transition duration.
	CrossfadeTicks uint32
}

// DefaultConfig returns the tuned thresholds.
func DefaultConfig() Config {
	return Config{
		EntryThreshold: fixed.FromFloat(0.7),
		ExitThreshold:  fixed.FromFloat(0.45),
		PowerThreshold: fixed.FromFloat(0.3),
		CrossfadeTicks: 48,
	}
}

// Validate rejects inverted hysteresis and zero-length crossfades.
func (c Config) Validate() error {
	if c.EntryThreshold <= 0 || c.EntryThreshold > fixed.One {
		return fmt.Errorf("coupling: entry threshold must be in (0, 1]")
	}
	if c.ExitThreshold <= 0 || c.ExitThreshold >= c.EntryThreshold {
		return fmt.Errorf("coupling: exit threshold must be in (0, entry)")
	}
	if c.PowerThreshold < 0 || c.PowerThreshold > fixed.One {
		return fmt.Errorf("coupling: power threshold must be in [0, 1]")
	}
	if c.CrossfadeTicks == 0 {
		return fmt.Errorf("coupling: crossfade must be at least 1 tick")
	}
	return nil
}

// Inputs is what the controller reads each tick: the previous tick's
// synchrony and boundary outputs plus the ignition phase.
type Inputs struct {
	Synchrony     fixed.Value
	BoundaryPower fixed.Value
	IgnitionPhase ignition.Phase
}

// Output is one tick's regime selection.
type Output struct {
	Mode         Mode
	ModGain      fixed.Value // modulation-path gain
	HarmonicGain fixed.Value // phase-locked-path gain
}

// Controller owns the mode state machine.
type Controller struct {
	cfg     Config
	mode    Mode
	target  Mode // Harmonic or Modulatory while transitioning
	counter uint32
}

// New builds a controller, validating the configuration.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg, target: ModeModulatory}, nil
}

// ignitionSuppressesExit reports whether the ignition phase holds the
// controller in the harmonic regime. Decay and later no longer suppress.
func ignitionSuppressesExit(p ignition.Phase) bool {
	switch p {
	case ignition.PhaseCoherenceRising, ignition.PhaseAmplitudeSurge,
		ignition.PhasePlateau, ignition.PhasePropagation:
		return true
	}
	return false
}

// Tick advances one tick and returns the mode code and path gains.
func (c *Controller) Tick(in Inputs) Output {
	ignActive := in.IgnitionPhase != ignition.PhaseBaseline

	switch c.mode {
	case ModeModulatory:
		armed := in.Synchrony >= c.cfg.EntryThreshold && in.BoundaryPower >= c.cfg.PowerThreshold
		if armed || ignActive {
			c.mode = ModeTransitioning
			c.target = ModeHarmonic
			c.counter = 0
		}

	case ModeTransitioning:
		// An ignition firing mid-retreat flips the transition back
		// toward harmonic; the counter inversion keeps the gains
		// continuous. This override is the only interruption.
		if c.target == ModeModulatory && ignActive {
			c.target = ModeHarmonic
			c.counter = c.cfg.CrossfadeTicks - c.counter
		}
		c.counter++
		if c.counter >= c.cfg.CrossfadeTicks {
			c.mode = c.target
		}

	case ModeHarmonic:
		exitWanted := in.Synchrony < c.cfg.ExitThreshold ||
			in.IgnitionPhase == ignition.PhaseDecay
		if exitWanted && !ignitionSuppressesExit(in.IgnitionPhase) {
			c.mode = ModeTransitioning
			c.target = ModeModulatory
			c.counter = 0
		}
	}

	return Output{Mode: c.mode, ModGain: c.modGain(), HarmonicGain: c.harmonicGain()}
}

// crossfade returns the transition progress in [0, 1]: true linear
// interpolation over elapsed ticks rather than a midpoint hold.
func (c *Controller) crossfade() fixed.Value {
	if c.counter >= c.cfg.CrossfadeTicks {
		return fixed.One
	}
	return fixed.Value(int64(c.counter) << fixed.FracBits / int64(c.cfg.CrossfadeTicks))
}

func (c *Controller) harmonicGain() fixed.Value {
	switch c.mode {
	case ModeHarmonic:
		return fixed.One
	case ModeTransitioning:
		p := c.crossfade()
		if c.target == ModeHarmonic {
			return p
		}
		return fixed.One - p
	}
	return 0
}

func (c *Controller) modGain() fixed.Value {
	return fixed.One - c.harmonicGain()
}

// Reset returns the controller to the modulatory regime.
func (c *Controller) Reset() {
	c.mode = ModeModulatory
	c.target = ModeModulatory
	c.counter = 0
}
