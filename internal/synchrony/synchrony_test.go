package synchrony

import (
	"math"
	"testing"

	"github.com/talgya/resonance/internal/fixed"
)

func bankOf(states [][2]float64) (xs, ys []fixed.Value) {
	xs = make([]fixed.Value, len(states))
	ys = make([]fixed.Value, len(states))
	for i, s := range states {
		xs[i] = fixed.FromFloat(s[0])
		ys[i] = fixed.FromFloat(s[1])
	}
	return xs, ys
}

func sixMembers() []int { return []int{0, 1, 2, 3, 4, 5} }

func TestIdenticalPhasesGiveMaximumR(t *testing.T) {
	m, err := New(DefaultConfig(sixMembers()))
	if err != nil {
		t.Fatal(err)
	}
	states := make([][2]float64, 6)
	for i := range states {
		states[i] = [2]float64{0.42, 0.31}
	}
	xs, ys := bankOf(states)
	now, _ := m.Measure(xs, ys)
	if now.R.Float() < 0.95 {
		t.Errorf("R = %f for identical phases, want ≈1", now.R.Float())
	}
	if !now.High {
		t.Error("high-synchrony flag should be set")
	}
}

func TestEvenSpreadGivesNearZeroR(t *testing.T) {
	m, err := New(DefaultConfig(sixMembers()))
	if err != nil {
		t.Fatal(err)
	}
	states := make([][2]float64, 6)
	for i := range states {
		a := 2 * math.Pi * float64(i) / 6
		states[i] = [2]float64{0.5 * math.Cos(a), 0.5 * math.Sin(a)}
	}
	xs, ys := bankOf(states)
	now, _ := m.Measure(xs, ys)
	if now.R.Float() > 0.1 {
		t.Errorf("R = %f for evenly spread phases, want ≈0", now.R.Float())
	}
	if now.High {
		t.Error("high-synchrony flag should be clear")
	}
}

func TestRStaysInUnitInterval(t *testing.T) {
	m, err := New(DefaultConfig(sixMembers()))
	if err != nil {
		t.Fatal(err)
	}
	// Sweep mixed amplitudes and phases, including near-dead oscillators
	// that exercise the division floor.
	for k := 0; k < 200; k++ {
		states := make([][2]float64, 6)
		for i := range states {
			a := float64(k*7+i*13) / 9.0
			amp := 0.001 + 0.6*float64((k+i)%5)/4.0
			states[i] = [2]float64{amp * math.Cos(a), amp * math.Sin(a)}
		}
		xs, ys := bankOf(states)
		now, _ := m.Measure(xs, ys)
		if now.R < 0 || now.R > fixed.One {
			t.Fatalf("R = %d outside [0, 1] at sweep %d", now.R, k)
		}
	}
}

func TestOutputRegisterLagsOneTick(t *testing.T) {
	m, err := New(DefaultConfig([]int{0, 1}))
	if err != nil {
		t.Fatal(err)
	}
	xs, ys := bankOf([][2]float64{{0.5, 0}, {0.5, 0}})
	first, prev := m.Measure(xs, ys)
	if prev.R != 0 {
		t.Errorf("register should start empty, got R=%d", prev.R)
	}
	xs2, ys2 := bankOf([][2]float64{{0.5, 0}, {-0.5, 0}})
	_, prev = m.Measure(xs2, ys2)
	if prev != first {
		t.Error("registered output should be the previous tick's result")
	}
}

func TestMeanPhasePointsWithPopulation(t *testing.T) {
	m, err := New(DefaultConfig([]int{0, 1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	xs, ys := bankOf([][2]float64{{0.5, 0.1}, {0.6, 0.05}, {0.4, 0.08}})
	now, _ := m.Measure(xs, ys)
	if now.MeanX <= 0 {
		t.Errorf("mean x = %d, want positive for a +x population", now.MeanX)
	}
	if now.MeanY.Abs() > now.MeanX {
		t.Error("mean vector should point mostly along +x")
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := New(Config{Members: nil, HighThreshold: fixed.FromFloat(0.7)}); err == nil {
		t.Error("empty member subset should be rejected")
	}
	if _, err := New(Config{Members: []int{0}, HighThreshold: 0}); err == nil {
		t.Error("zero threshold should be rejected")
	}
	if _, err := New(Config{Members: []int{0}, HighThreshold: fixed.One * 2}); err == nil {
		t.Error("threshold above one should be rejected")
	}
}
