package fixed

import (
	"math"
	"testing"
)

func TestMulRescales(t *testing.T) {
	half := FromFloat(0.5)
	quarter := half.Mul(half)
	if got := quarter.Float(); math.Abs(got-0.25) > 1e-3 {
		t.Errorf("0.5*0.5 = %f, want 0.25", got)
	}
	// 2.0 * 3.0 = 6.0, still in range
	if got := FromFloat(2).Mul(FromFloat(3)).Float(); math.Abs(got-6.0) > 1e-3 {
		t.Errorf("2*3 = %f, want 6", got)
	}
}

func TestMulSaturates(t *testing.T) {
	big := FromFloat(4)
	if got := big.Mul(big); got != Max {
		t.Errorf("4*4 should saturate to Max, got %d", got)
	}
	neg := FromFloat(-4)
	if got := neg.Mul(big); got != Min {
		t.Errorf("-4*4 should saturate to Min, got %d", got)
	}
}

func TestAddSubSaturate(t *testing.T) {
	if got := Max.Add(One); got != Max {
		t.Errorf("Max+1 = %d, want Max", got)
	}
	if got := Min.Sub(One); got != Min {
		t.Errorf("Min-1 = %d, want Min", got)
	}
}

func TestClampSym(t *testing.T) {
	bound := FromFloat(0.5)
	cases := []struct {
		in   float64
		want float64
	}{
		{0.2, 0.2},
		{0.9, 0.5},
		{-0.9, -0.5},
		{-0.2, -0.2},
	}
	for _, c := range cases {
		got := FromFloat(c.in).ClampSym(bound).Float()
		if math.Abs(got-c.want) > 1e-3 {
			t.Errorf("ClampSym(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}

func TestDivFloorsDenominator(t *testing.T) {
	// Tiny denominator must be floored, not divide toward infinity.
	got := One.Div(1)
	wantMax := One.Div(MinAmplitude)
	if got != wantMax {
		t.Errorf("1/tiny = %d, want floored quotient %d", got, wantMax)
	}
	// Ordinary division still works.
	if got := FromFloat(1).Div(FromFloat(2)).Float(); math.Abs(got-0.5) > 1e-3 {
		t.Errorf("1/2 = %f, want 0.5", got)
	}
}

func TestIsqrtExactFloor(t *testing.T) {
	cases := []struct {
		in   int64
		want int32
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 2},
		{561080, 749}, // 664*845, a boundary geometric-mean product
		{1 << 40, 1 << 20},
	}
	for _, c := range cases {
		if got := Isqrt(c.in); got != c.want {
			t.Errorf("Isqrt(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestIsqrtNeverOvershoots(t *testing.T) {
	for x := int64(0); x < 5000; x++ {
		g := int64(Isqrt(x))
		if g*g > x || (g+1)*(g+1) <= x {
			t.Fatalf("Isqrt(%d) = %d is not the floor root", x, g)
		}
	}
}

func TestAmplitudeApproximation(t *testing.T) {
	cases := []struct{ x, y float64 }{
		{1, 0},
		{0, 1},
		{0.7, 0.7},
		{-0.5, 0.3},
		{0.1, -0.9},
	}
	for _, c := range cases {
		got := Amplitude(FromFloat(c.x), FromFloat(c.y)).Float()
		true_ := math.Hypot(c.x, c.y)
		if math.Abs(got-true_) > 0.12*true_+1e-3 {
			t.Errorf("Amplitude(%f,%f) = %f, true %f outside tolerance", c.x, c.y, got, true_)
		}
	}
}

func TestGeoMean(t *testing.T) {
	a, b := FromFloat(1), FromFloat(4)
	if got := GeoMean(a, b).Float(); math.Abs(got-2.0) > 1e-3 {
		t.Errorf("geomean(1,4) = %f, want 2", got)
	}
	if got := GeoMean(FromFloat(-1), b); got != 0 {
		t.Errorf("negative input should clamp to 0, got %d", got)
	}
}

func TestSineTableSymmetry(t *testing.T) {
	for p := int32(0); p < PhaseSteps; p++ {
		want := FromFloat(math.Sin(2 * math.Pi * float64(p) / PhaseSteps))
		got := SinU(p)
		if d := (got - want).Abs(); d > 4 {
			t.Fatalf("SinU(%d) = %d, want %d (quarter-wave unfold broken)", p, got, want)
		}
	}
}

func TestSineTableWraps(t *testing.T) {
	if SinU(PhaseSteps+100) != SinU(100) {
		t.Error("phase should wrap modulo a full turn")
	}
	if SinU(-100) != SinU(PhaseSteps-100) {
		t.Error("negative phase should wrap to the equivalent positive phase")
	}
}

func TestCosIsQuarterShift(t *testing.T) {
	if CosU(0) != One {
		t.Errorf("cos(0) = %d, want One", CosU(0))
	}
	if got := CosU(PhaseSteps / 2); got != -One {
		t.Errorf("cos(π) = %d, want -One", got)
	}
}

func TestFracPhase(t *testing.T) {
	// Exponent 2.5 → frac 0.5 → half turn.
	if got := FracPhase(FromFloat(2.5)); got != PhaseSteps/2 {
		t.Errorf("FracPhase(2.5) = %d, want %d", got, PhaseSteps/2)
	}
	// Negative exponents take the positive residue: frac(-0.25) = 0.75.
	if got := FracPhase(FromFloat(-0.25)); got != 3*PhaseSteps/4 {
		t.Errorf("FracPhase(-0.25) = %d, want %d", got, 3*PhaseSteps/4)
	}
}
