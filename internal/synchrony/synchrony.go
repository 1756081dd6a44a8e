// Package synchrony implements the population synchrony meter: the Kuramoto
// order parameter over a fixed subset of oscillators, computed entirely in
// Q4.14 with the shared amplitude approximation.
package synchrony

import (
	"fmt"

	"github.com/talgya/resonance/internal/fixed"
)

// Config fixes the meter for a run.
type Config struct {
	// Members indexes the oscillator bank subset the meter watches.
	Members []int
	// HighThreshold flags high synchrony when R crosses it.
	HighThreshold fixed.Value
}

// DefaultConfig watches six oscillators with the tuned threshold.
func DefaultConfig(members []int) Config {
	return Config{
		Members:       members,
		HighThreshold: fixed.FromFloat(0.7),
	}
}

// Validate rejects empty subsets and degenerate thresholds.
func (c Config) Validate() error {
	if len(c.Members) == 0 {
		return fmt.Errorf("synchrony: member subset must not be empty")
	}
	if c.HighThreshold <= 0 || c.HighThreshold > fixed.One {
		return fmt.Errorf("synchrony: high threshold must be in (0, 1]")
	}
	return nil
}

// Result is one tick's synchrony measurement.
type Result struct {
	R          fixed.Value // order parameter in [0, 1]
	MeanX      fixed.Value // mean phase vector components
	MeanY      fixed.Value
	High       bool
}

// Meter computes the order parameter. State is a single one-tick output
// register kept for the timing budget; the measurement itself is pure.
type Meter struct {
	cfg  Config
	last Result
}

// New builds a meter, validating the configuration.
func New(cfg Config) (*Meter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Meter{cfg: cfg}, nil
}

// Members returns the watched subset.
func (m *Meter) Members() []int {
	return m.cfg.Members
}

// Measure normalizes each member to a unit vector, averages, and takes the
// magnitude as R. xs and ys are the full bank state; only Members are read.
// The previous tick's result is returned alongside (registered output).
func (m *Meter) Measure(xs, ys []fixed.Value) (now, prev Result) {
	prev = m.last

	var sumX, sumY int64
	for _, i := range m.cfg.Members {
		amp := fixed.Amplitude(xs[i], ys[i])
		sumX += int64(xs[i].Div(amp))
		sumY += int64(ys[i].Div(amp))
	}
	n := int64(len(m.cfg.Members))
	meanX := fixed.Value(sumX / n)
	meanY := fixed.Value(sumY / n)

	// Magnitude via the integer square root. The squared components carry
	// 28 fractional bits, so the root is back in Q4.14 directly.
	r := fixed.Value(fixed.Isqrt(int64(meanX)*int64(meanX) + int64(meanY)*int64(meanY)))
	if r > fixed.One {
		r = fixed.One
	}

	now = Result{
		R:     r,
		MeanX: meanX,
		MeanY: meanY,
		High:  r >= m.cfg.HighThreshold,
	}
	m.last = now
	return now, prev
}

// Reset clears the output register.
func (m *Meter) Reset() {
	m.last = Result{}
}
