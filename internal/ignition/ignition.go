// Package ignition implements the seven-phase ignition controller. An
// ignition event is a bounded transient amplification of coupling strength
// and phase-locking, triggered by sustained coherence during quiescence and
// gated afterward by a refractory period. The defining behavior is ordering:
// the phase-lock envelope reaches peak before the gain envelope does.
// Coherence precedes amplitude in timing shape, not merely endpoints.
package ignition

import (
	"fmt"

	"github.com/talgya/resonance/internal/fixed"
)

// Phase enumerates the controller states. Transitions are strictly
// sequential within a cycle; only the external reset input can cut a cycle
// short.
type Phase uint8

const (
	PhaseBaseline Phase = iota
	PhaseCoherenceRising
	PhaseAmplitudeSurge
	PhasePlateau
	PhasePropagation
	PhaseDecay
	PhaseRefractory
)

var phaseNames = [...]string{
	"baseline", "coherence_rising", "amplitude_surge", "plateau",
	"propagation", "decay", "refractory",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Config fixes the controller's timing and levels for a run.
type Config struct {
	// CoherenceThreshold arms the trigger; quiescence must also hold.
	CoherenceThreshold fixed.Value

	// Per-phase durations in ticks. Every one must be at least 1: a
	// zero-length phase would let the machine skip a transition inside a
	// single tick and silently break the lock-before-gain ordering.
	RisingTicks      uint32
	SurgeTicks       uint32
	PlateauTicks     uint32
	PropagationTicks uint32
	DecayTicks       uint32
	RefractoryTicks  uint32

	// Envelope levels.
	GainPeak    fixed.Value
	GainSustain fixed.Value // non-zero level decay relaxes toward
	LockPeak    fixed.Value

	// DecayShift sets the relaxation time constant: each tick subtracts
	// the remaining distance right-shifted by this amount.
	DecayShift uint
}

// DefaultConfig returns the tuned event shape.
func DefaultConfig() Config {
	return Config{
		CoherenceThreshold: fixed.FromFloat(0.6),
		RisingTicks:        32,
		SurgeTicks:         32,
		PlateauTicks:       64,
		PropagationTicks:   64,
		DecayTicks:         96,
		RefractoryTicks:    256,
		GainPeak:           fixed.One,
		GainSustain:        fixed.FromFloat(0.25),
		LockPeak:           fixed.One,
		DecayShift:         4,
	}
}

// Validate rejects configurations that would break the phase sequence.
func (c Config) Validate() error {
	if c.CoherenceThreshold <= 0 || c.CoherenceThreshold > fixed.One {
		return fmt.Errorf("ignition: coherence threshold must be in (0, 1]")
	}
	durations := []struct {
		name string
		val  uint32
	}{
		{"rising", c.RisingTicks},
		{"surge", c.SurgeTicks},
		{"plateau", c.PlateauTicks},
		{"propagation", c.PropagationTicks},
		{"decay", c.DecayTicks},
		{"refractory", c.RefractoryTicks},
	}
	for _, d := range durations {
		if d.val == 0 {
			return fmt.Errorf("ignition: %s duration must be at least 1 tick", d.name)
		}
	}
	if c.GainPeak <= 0 || c.LockPeak <= 0 {
		return fmt.Errorf("ignition: envelope peaks must be positive")
	}
	if c.GainSustain <= 0 || c.GainSustain >= c.GainPeak {
		return fmt.Errorf("ignition: gain sustain must be in (0, peak)")
	}
	if c.DecayShift < 1 || c.DecayShift > 10 {
		return fmt.Errorf("ignition: decay shift must be in [1, 10]")
	}
	return nil
}

// Output is one tick's controller state.
type Output struct {
	Phase  Phase
	Gain   fixed.Value
	Lock   fixed.Value
	Active bool // true in every phase except Baseline
}

// Controller owns the ignition state machine for the run.
type Controller struct {
	cfg     Config
	phase   Phase
	counter uint32
	gain    fixed.Value
	lock    fixed.Value
}

// New builds a controller, validating the configuration.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg}, nil
}

// gainPartial is the documented fraction of peak the gain reaches while
// coherence is still rising: one quarter.
func (c *Controller) gainPartial() fixed.Value {
	return c.cfg.GainPeak >> 2
}

// Reset aborts any in-flight cycle back to Baseline with cleared envelopes.
func (c *Controller) Reset() {
	c.phase = PhaseBaseline
	c.counter = 0
	c.gain = 0
	c.lock = 0
}

// Tick advances one tick. coherence and quiescent are the externally
// supplied trigger inputs; reset aborts any in-flight cycle back to
// Baseline. Pure in (inputs, state) → (output, next state).
func (c *Controller) Tick(coherence fixed.Value, quiescent bool, reset bool) Output {
	if reset {
		c.Reset()
	}

	switch c.phase {
	case PhaseBaseline:
		if coherence > c.cfg.CoherenceThreshold && quiescent {
			c.advance(PhaseCoherenceRising)
		}

	case PhaseCoherenceRising:
		// Lock races to peak while gain only creeps to its partial
		// fraction. Linear ramps; endpoints snapped at the transition.
		c.lock = rampToward(c.lock, c.cfg.LockPeak, c.cfg.RisingTicks)
		c.gain = rampToward(c.gain, c.gainPartial(), c.cfg.RisingTicks)
		c.counter++
		if c.counter >= c.cfg.RisingTicks {
			c.lock = c.cfg.LockPeak
			c.gain = c.gainPartial()
			c.advance(PhaseAmplitudeSurge)
		}

	case PhaseAmplitudeSurge:
		c.gain = rampToward(c.gain, c.cfg.GainPeak, c.cfg.SurgeTicks)
		c.counter++
		if c.counter >= c.cfg.SurgeTicks {
			c.gain = c.cfg.GainPeak
			c.advance(PhasePlateau)
		}

	case PhasePlateau:
		c.counter++
		if c.counter >= c.cfg.PlateauTicks {
			c.advance(PhasePropagation)
		}

	case PhasePropagation:
		c.counter++
		if c.counter >= c.cfg.PropagationTicks {
			c.advance(PhaseDecay)
		}

	case PhaseDecay:
		// Shift-form exponential: subtract a right-shifted fraction of
		// the remaining distance. Gain relaxes toward the sustained
		// level, lock only partway toward half peak.
		c.gain = relax(c.gain, c.cfg.GainSustain, c.cfg.DecayShift)
		c.lock = relax(c.lock, c.cfg.LockPeak>>1, c.cfg.DecayShift)
		c.counter++
		if c.counter >= c.cfg.DecayTicks {
			c.advance(PhaseRefractory)
		}

	case PhaseRefractory:
		// Both envelopes finish relaxing to baseline. No re-trigger,
		// regardless of inputs, until the full duration elapses.
		c.gain = relax(c.gain, 0, c.cfg.DecayShift)
		c.lock = relax(c.lock, 0, c.cfg.DecayShift)
		c.counter++
		if c.counter >= c.cfg.RefractoryTicks {
			c.gain = 0
			c.lock = 0
			c.advance(PhaseBaseline)
		}
	}

	return Output{
		Phase:  c.phase,
		Gain:   c.gain,
		Lock:   c.lock,
		Active: c.phase != PhaseBaseline,
	}
}

func (c *Controller) advance(next Phase) {
	c.phase = next
	c.counter = 0
}

// rampToward moves v linearly toward target over the given duration,
// never overshooting.
func rampToward(v, target fixed.Value, duration uint32) fixed.Value {
	step := target / fixed.Value(duration)
	if step == 0 {
		step = 1
	}
	v = v.Add(step)
	if v > target {
		v = target
	}
	return v
}

// relax subtracts a right-shifted fraction of the remaining distance. The
// shift amount is the effective time constant. The +1 floor guarantees
// progress once the distance shrinks below one shift quantum.
func relax(v, target fixed.Value, shift uint) fixed.Value {
	d := v - target
	if d == 0 {
		return v
	}
	if d > 0 {
		step := d >> shift
		if step == 0 {
			step = 1
		}
		return v - step
	}
	step := (-d) >> shift
	if step == 0 {
		step = 1
	}
	return v + step
}
