// Package entropy provides the deterministic pseudo-random bit sources behind
// frequency drift. Each generator owns its own sequence; identical seeds give
// bit-identical runs, which the determinism tests depend on.
package entropy

// LFSR is a 32-bit Galois linear-feedback shift register.
// Taps implement x³² + x²² + x² + x + 1 (maximal length).
type LFSR struct {
	state uint32
	seed  uint32
}

const lfsrTaps uint32 = 0x80200003

// NewLFSR creates a register from a seed. A zero seed would lock the
// register at zero forever, so it is replaced with a fixed nonzero fill.
func NewLFSR(seed uint32) *LFSR {
	if seed == 0 {
		seed = 0xACE1ACE1
	}
	return &LFSR{state: seed, seed: seed}
}

// Next advances one step and returns the new register state.
func (l *LFSR) Next() uint32 {
	lsb := l.state & 1
	l.state >>= 1
	if lsb != 0 {
		l.state ^= lfsrTaps
	}
	return l.state
}

// Bits advances once and returns the low n bits of the new state (n ≤ 32).
func (l *LFSR) Bits(n uint) uint32 {
	return l.Next() & (1<<n - 1)
}

// Reset rewinds the register to its seed state.
func (l *LFSR) Reset() {
	l.state = l.seed
}
