package sht

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysim/almsky/internal/alm"
)

// testRings builds a small latitude/longitude grid of rings for direct
// comparison against closed-form harmonics.
func testRings(nTheta, nPhi int) ([]Ring, int) {
	rings := make([]Ring, nTheta)
	for i := 0; i < nTheta; i++ {
		theta := math.Pi * (float64(i) + 0.5) / float64(nTheta)
		rings[i] = Ring{
			Theta:  theta,
			Phi0:   0,
			DPhi:   2 * math.Pi / float64(nPhi),
			Count:  nPhi,
			Offset: i * nPhi,
		}
	}
	return rings, nTheta * nPhi
}

func newSet(t *testing.T, lmax int) *alm.Alm {
	t.Helper()
	a, err := alm.New(lmax)
	require.NoError(t, err)
	return a
}

func TestMonopole(t *testing.T) {
	a := newSet(t, 4)
	a.Set(0, 0, complex(7, 0))

	rings, npix := testRings(6, 8)
	maps, err := Synthesize([]*alm.Alm{a}, rings, npix)
	require.NoError(t, err)
	require.Len(t, maps, 1)

	want := 7 / math.Sqrt(4*math.Pi)
	for p, v := range maps[0] {
		assert.InDeltaf(t, want, v, 1e-12, "pixel %d", p)
	}
}

func TestDipole(t *testing.T) {
	a := newSet(t, 4)
	a.Set(1, 0, complex(2.5, 0))

	rings, npix := testRings(9, 4)
	maps, err := Synthesize([]*alm.Alm{a}, rings, npix)
	require.NoError(t, err)

	// a10 lambda_10 = a10 sqrt(3/4pi) cos(theta), phi-independent.
	for i, r := range rings {
		want := 2.5 * math.Sqrt(3/(4*math.Pi)) * math.Cos(r.Theta)
		for j := 0; j < r.Count; j++ {
			assert.InDeltaf(t, want, maps[0][r.Offset+j], 1e-12, "ring %d pixel %d", i, j)
		}
	}
}

func TestSectoralMode(t *testing.T) {
	// a11 real: T = 2 a11 lambda_11 cos(phi), lambda_11 = -sqrt(3/8pi) sin(theta).
	a := newSet(t, 3)
	a.Set(1, 1, complex(1.5, 0))

	rings, npix := testRings(5, 12)
	maps, err := Synthesize([]*alm.Alm{a}, rings, npix)
	require.NoError(t, err)

	for _, r := range rings {
		amp := -2 * 1.5 * math.Sqrt(3/(8*math.Pi)) * math.Sin(r.Theta)
		for j := 0; j < r.Count; j++ {
			phi := r.Phi0 + float64(j)*r.DPhi
			assert.InDelta(t, amp*math.Cos(phi), maps[0][r.Offset+j], 1e-12)
		}
	}
}

func TestImaginarySectoralMode(t *testing.T) {
	// a11 imaginary: the sin(phi) quadrature must appear with opposite sign.
	a := newSet(t, 2)
	a.Set(1, 1, complex(0, 0.75))

	rings, npix := testRings(4, 16)
	maps, err := Synthesize([]*alm.Alm{a}, rings, npix)
	require.NoError(t, err)

	for _, r := range rings {
		amp := 2 * 0.75 * math.Sqrt(3/(8*math.Pi)) * math.Sin(r.Theta)
		for j := 0; j < r.Count; j++ {
			phi := r.Phi0 + float64(j)*r.DPhi
			assert.InDelta(t, amp*math.Sin(phi), maps[0][r.Offset+j], 1e-12)
		}
	}
}

func TestPolarizedEModeM0(t *testing.T) {
	// A pure E-mode with m=0: U vanishes identically and Q depends only on
	// theta. This holds in any spin-2 sign convention.
	T := newSet(t, 4)
	E := newSet(t, 4)
	B := newSet(t, 4)
	E.Set(2, 0, complex(3, 0))

	rings, npix := testRings(7, 10)
	maps, err := Synthesize([]*alm.Alm{T, E, B}, rings, npix)
	require.NoError(t, err)
	require.Len(t, maps, 3)

	qNonZero := false
	for _, r := range rings {
		q0 := maps[1][r.Offset]
		for j := 0; j < r.Count; j++ {
			assert.InDelta(t, q0, maps[1][r.Offset+j], 1e-12, "Q must be phi-independent")
			assert.InDelta(t, 0, maps[2][r.Offset+j], 1e-12, "U must vanish for E-only m=0")
		}
		if math.Abs(q0) > 1e-6 {
			qNonZero = true
		}
	}
	assert.True(t, qNonZero, "Q should be excited by the E-mode quadrupole")
}

func TestPolarizedBModeM0(t *testing.T) {
	// The mirror case: B-only m=0 excites U and leaves Q at zero.
	T := newSet(t, 4)
	E := newSet(t, 4)
	B := newSet(t, 4)
	B.Set(2, 0, complex(3, 0))

	rings, npix := testRings(7, 10)
	maps, err := Synthesize([]*alm.Alm{T, E, B}, rings, npix)
	require.NoError(t, err)

	uNonZero := false
	for p := range maps[1] {
		assert.InDelta(t, 0, maps[1][p], 1e-12)
		if math.Abs(maps[2][p]) > 1e-6 {
			uNonZero = true
		}
	}
	assert.True(t, uNonZero, "U should be excited by the B-mode quadrupole")
}

func TestPolarizationBelowQuadrupoleIsZero(t *testing.T) {
	// Spin-2 kernels vanish for l < 2, so dipole-only E produces no Q/U.
	T := newSet(t, 3)
	E := newSet(t, 3)
	B := newSet(t, 3)
	E.Set(1, 0, complex(5, 0))
	E.Set(1, 1, complex(2, 1))

	rings, npix := testRings(5, 8)
	maps, err := Synthesize([]*alm.Alm{T, E, B}, rings, npix)
	require.NoError(t, err)
	for p := range maps[1] {
		assert.InDelta(t, 0, maps[1][p], 1e-12)
		assert.InDelta(t, 0, maps[2][p], 1e-12)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	a := newSet(t, 2)
	rings, npix := testRings(2, 4)

	t.Run("wrong set count", func(t *testing.T) {
		_, err := Synthesize([]*alm.Alm{a, a}, rings, npix)
		assert.Error(t, err)
	})
	t.Run("mismatched lmax", func(t *testing.T) {
		b := newSet(t, 3)
		_, err := Synthesize([]*alm.Alm{a, b, b}, rings, npix)
		assert.Error(t, err)
	})
	t.Run("ring outside map", func(t *testing.T) {
		bad := []Ring{{Theta: 1, DPhi: 1, Count: 4, Offset: npix - 2}}
		_, err := Synthesize([]*alm.Alm{a}, bad, npix)
		assert.Error(t, err)
	})
}

func TestLegendreAgainstClosedForms(t *testing.T) {
	theta := 0.9
	ct, st := math.Cos(theta), math.Sin(theta)
	p := newLegendre(3, theta)

	m0 := p.next()
	assert.InDelta(t, 1/math.Sqrt(4*math.Pi), m0[0], 1e-14)
	assert.InDelta(t, math.Sqrt(3/(4*math.Pi))*ct, m0[1], 1e-14)
	assert.InDelta(t, math.Sqrt(5/(16*math.Pi))*(3*ct*ct-1), m0[2], 1e-13)

	m1 := p.next()
	assert.InDelta(t, -math.Sqrt(3/(8*math.Pi))*st, m1[1], 1e-14)
	assert.InDelta(t, -math.Sqrt(15/(8*math.Pi))*st*ct, m1[2], 1e-13)

	m2 := p.next()
	assert.InDelta(t, math.Sqrt(15/(32*math.Pi))*st*st, m2[2], 1e-13)
}
