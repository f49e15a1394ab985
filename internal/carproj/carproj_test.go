package carproj

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fullSky is a coarse 10-degree grid covering the whole sphere.
func fullSky(t *testing.T) *Geometry {
	t.Helper()
	g, err := New(19, 36, WCS{
		CRPix: [2]float64{1, 10},
		CRVal: [2]float64{0, 0},
		CDelt: [2]float64{10, 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewValidation(t *testing.T) {
	valid := WCS{CRPix: [2]float64{1, 1}, CDelt: [2]float64{1, 1}}
	cases := []struct {
		name   string
		ny, nx int
		wcs    WCS
		ok     bool
	}{
		{"valid", 4, 8, valid, true},
		{"zero rows", 0, 8, valid, false},
		{"zero cols", 4, 0, valid, false},
		{"zero scale", 4, 8, WCS{CRPix: [2]float64{1, 1}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(c.ny, c.nx, c.wcs)
			if c.ok && err != nil {
				t.Errorf("New: %v", err)
			}
			if !c.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPixSkyRoundTrip(t *testing.T) {
	g := fullSky(t)
	for _, p := range [][2]int{{0, 0}, {9, 0}, {18, 35}, {5, 17}} {
		ra, dec := g.PixToSky(p[0], p[1])
		y, x := g.SkyToPix(ra, dec)
		if got, want := [2]int{y, x}, p; !cmp.Equal(got, want) {
			t.Errorf("round trip %v -> (%g, %g) -> %v", want, ra, dec, got)
		}
	}
}

func TestReferencePixel(t *testing.T) {
	g := fullSky(t)
	// CRPix (1, 10) is 0-based pixel (y=9, x=0) and must land on CRVal.
	ra, dec := g.PixToSky(9, 0)
	if ra != 0 || dec != 0 {
		t.Errorf("reference pixel maps to (%g, %g), want (0, 0)", ra, dec)
	}
}

func TestRowTheta(t *testing.T) {
	g := fullSky(t)
	// Row 9 sits on the equator: theta = pi/2.
	if got := g.RowTheta(9); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("equator theta = %g, want pi/2", got)
	}
	// Colatitude decreases toward the north row.
	if g.RowTheta(18) >= g.RowTheta(9) {
		t.Error("theta should shrink as dec grows")
	}
}

func TestRowThetaClampsPoles(t *testing.T) {
	g, err := New(3, 4, WCS{
		CRPix: [2]float64{1, 2},
		CRVal: [2]float64{0, 90}, // middle row pinned to the north pole
		CDelt: [2]float64{90, 90},
	})
	if err != nil {
		t.Fatal(err)
	}
	theta := g.RowTheta(1)
	if theta <= 0 {
		t.Errorf("pole theta = %g, must stay positive for spin-2 kernels", theta)
	}
	if math.IsNaN(1 / (math.Sin(theta) * math.Sin(theta))) {
		t.Error("1/sin^2(theta) not finite at clamped pole")
	}
}

func TestRowPhi(t *testing.T) {
	g := fullSky(t)
	phi0, dphi := g.RowPhi()
	if phi0 != 0 {
		t.Errorf("phi0 = %g, want 0", phi0)
	}
	if math.Abs(dphi-10*math.Pi/180) > 1e-15 {
		t.Errorf("dphi = %g, want 10 degrees in radians", dphi)
	}
}

func TestNPix(t *testing.T) {
	g := fullSky(t)
	if got := g.NPix(); got != 19*36 {
		t.Errorf("NPix = %d, want %d", got, 19*36)
	}
}
