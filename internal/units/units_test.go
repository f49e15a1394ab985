package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, tag := range []string{"K_RJ", "uK_RJ", "mK_RJ", "K_CMB", "uK_CMB", "Jysr", "MJysr", "kJysr"} {
		if !IsValid(tag) {
			t.Errorf("IsValid(%q) = false", tag)
		}
	}
	for _, tag := range []string{"", "K", "uK", "XJysr", "K_RJX", "furlongs"} {
		if IsValid(tag) {
			t.Errorf("IsValid(%q) = true", tag)
		}
	}
}

func TestIdentity(t *testing.T) {
	for _, tag := range []string{"uK_RJ", "K_CMB", "MJysr"} {
		for _, nu := range []float64{-3, 0, 23, 148, 857} {
			f, err := Factor(tag, tag, nu)
			if err != nil {
				t.Fatalf("Factor(%s, %s, %g): %v", tag, tag, nu, err)
			}
			if f != 1 {
				t.Errorf("Factor(%s, %s, %g) = %g, want 1", tag, tag, nu, f)
			}
		}
	}
}

func TestPrefixOnly(t *testing.T) {
	cases := []struct {
		from, to string
		want     float64
	}{
		{"uK_RJ", "K_RJ", 1e-6},
		{"K_RJ", "uK_RJ", 1e6},
		{"mK_CMB", "uK_CMB", 1e3},
		{"MJysr", "Jysr", 1e6},
	}
	for _, c := range cases {
		// Same base, so no frequency needed (zero must be accepted).
		f, err := Factor(c.from, c.to, 0)
		if err != nil {
			t.Fatalf("Factor(%s, %s): %v", c.from, c.to, err)
		}
		if math.Abs(f/c.want-1) > 1e-15 {
			t.Errorf("Factor(%s, %s) = %g, want %g", c.from, c.to, f, c.want)
		}
	}
}

func TestCMBToRJ(t *testing.T) {
	// Cross-check against the thermodynamic correction computed longhand.
	nu := 148.0
	x := planckH * nu * 1e9 / (boltzmannK * tCMB)
	want := x * x * math.Exp(x) / ((math.Exp(x) - 1) * (math.Exp(x) - 1))

	got, err := Factor("K_CMB", "K_RJ", nu)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got/want-1) > 1e-12 {
		t.Errorf("K_CMB->K_RJ at %g GHz = %g, want %g", nu, got, want)
	}
	// The correction is always below unity and shrinks with frequency.
	if got >= 1 {
		t.Errorf("thermodynamic correction %g should be < 1", got)
	}
	higher, _ := Factor("K_CMB", "K_RJ", 500)
	if higher >= got {
		t.Errorf("correction should fall with frequency: %g !< %g", higher, got)
	}
}

func TestRJToJysr(t *testing.T) {
	nu := 100.0
	// 1 K_RJ = 2 k nu^2 / c^2 * 1e26 Jy/sr.
	want := 2 * boltzmannK * nu * 1e9 * nu * 1e9 / (lightC * lightC) * 1e26
	got, err := Factor("K_RJ", "Jysr", nu)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got/want-1) > 1e-12 {
		t.Errorf("K_RJ->Jysr at %g GHz = %g, want %g", nu, got, want)
	}
}

func TestRoundTripAcrossBases(t *testing.T) {
	for _, nu := range []float64{30, 148, 353} {
		f1, err := Factor("uK_RJ", "MJysr", nu)
		if err != nil {
			t.Fatal(err)
		}
		f2, err := Factor("MJysr", "uK_RJ", nu)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(f1*f2-1) > 1e-12 {
			t.Errorf("round trip at %g GHz: %g * %g != 1", nu, f1, f2)
		}
	}
}

func TestCrossBaseNeedsFrequency(t *testing.T) {
	for _, nu := range []float64{0, -10} {
		if _, err := Factor("K_CMB", "K_RJ", nu); err == nil {
			t.Errorf("expected error for nu = %g", nu)
		}
	}
}

func TestUnknownUnit(t *testing.T) {
	if _, err := Factor("parsecs", "K_RJ", 100); err == nil {
		t.Error("expected error for unknown source unit")
	}
	if _, err := Factor("K_RJ", "parsecs", 100); err == nil {
		t.Error("expected error for unknown target unit")
	}
}

func TestConverterImplementsCapability(t *testing.T) {
	var c Converter
	got, err := c.Factor("uK_RJ", "K_RJ", 148)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1e-6 {
		t.Errorf("Converter.Factor = %g, want 1e-6", got)
	}
}
