// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common helpers for the numeric test suites:
// tolerance assertions and synthetic coefficient sets with known analytic
// maps.
package testutil

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/skysim/almsky/internal/alm"
	"github.com/skysim/almsky/internal/fitsio"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta checks |got-want| <= tol.
func AssertInDelta(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("got %g, want %g (tol %g)", got, want, tol)
	}
}

// MonopoleAlm returns an intensity set with only a00 set. Its synthesized
// map is the constant a00/sqrt(4*pi).
func MonopoleAlm(t *testing.T, lmax int, a00 float64) *alm.Alm {
	t.Helper()
	a, err := alm.New(lmax)
	AssertNoError(t, err)
	a.Set(0, 0, complex(a00, 0))
	return a
}

// DipoleAlm returns an intensity set with only a10 set. Its synthesized map
// is a10*sqrt(3/4pi)*cos(theta).
func DipoleAlm(t *testing.T, lmax int, a10 float64) *alm.Alm {
	t.Helper()
	a, err := alm.New(lmax)
	AssertNoError(t, err)
	a.Set(1, 0, complex(a10, 0))
	return a
}

// WriteAlmFile writes the given sets to a temp FITS file and returns its
// path. The file is cleaned up with the test.
func WriteAlmFile(t *testing.T, sets ...*alm.Alm) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alms.fits")
	AssertNoError(t, fitsio.WriteAlms(path, sets))
	return path
}

// PolarizedFixture returns (T, E, B) sets sharing lmax, with a temperature
// monopole, a single E-mode quadrupole a20 and zero B.
func PolarizedFixture(t *testing.T, lmax int, t00, e20 float64) []*alm.Alm {
	t.Helper()
	T := MonopoleAlm(t, lmax, t00)
	E, err := alm.New(lmax)
	AssertNoError(t, err)
	E.Set(2, 0, complex(e20, 0))
	B, err := alm.New(lmax)
	AssertNoError(t, err)
	return []*alm.Alm{T, E, B}
}
