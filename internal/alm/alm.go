// Package alm stores spherical-harmonic coefficient sets.
//
// Coefficients for a real field are kept for m >= 0 only; the m < 0 half
// follows from a_{l,-m} = (-1)^m conj(a_{lm}). Storage is m-major packed,
// matching the layout harmonic-transform tools exchange on disk.
package alm

import "fmt"

// Alm holds one coefficient set up to degree Lmax (Mmax == Lmax).
type Alm struct {
	Lmax int
	data []complex128
}

// New returns a zeroed coefficient set for degrees 0..lmax.
func New(lmax int) (*Alm, error) {
	if lmax < 0 {
		return nil, fmt.Errorf("alm: lmax %d out of range", lmax)
	}
	return &Alm{Lmax: lmax, data: make([]complex128, Size(lmax))}, nil
}

// Size returns the number of (l, m) pairs with 0 <= m <= l <= lmax.
func Size(lmax int) int {
	return (lmax + 1) * (lmax + 2) / 2
}

// index is the m-major packed offset: all l for m=0, then m=1, ...
func (a *Alm) index(l, m int) int {
	return m*(2*a.Lmax+1-m)/2 + l
}

// At returns a_{lm}. l or m outside the stored triangle is a programming
// error and panics, same as an out-of-range slice index would.
func (a *Alm) At(l, m int) complex128 {
	if m < 0 || l < m || l > a.Lmax {
		panic(fmt.Sprintf("alm: At(%d, %d) outside lmax=%d triangle", l, m, a.Lmax))
	}
	return a.data[a.index(l, m)]
}

// Set assigns a_{lm}.
func (a *Alm) Set(l, m int, v complex128) {
	if m < 0 || l < m || l > a.Lmax {
		panic(fmt.Sprintf("alm: Set(%d, %d) outside lmax=%d triangle", l, m, a.Lmax))
	}
	a.data[a.index(l, m)] = v
}

// FromFITSIndex splits the 1-based on-disk index l*l + l + m + 1 used by
// alm FITS tables into (l, m).
func FromFITSIndex(idx int) (l, m int, err error) {
	if idx < 1 {
		return 0, 0, fmt.Errorf("alm: fits index %d out of range", idx)
	}
	// l = floor(sqrt(idx-1)) without float rounding surprises near squares.
	l = intSqrt(idx - 1)
	m = idx - 1 - l*l - l
	if m < -l || m > l {
		return 0, 0, fmt.Errorf("alm: fits index %d does not map to a valid (l, m)", idx)
	}
	return l, m, nil
}

// ToFITSIndex is the inverse of FromFITSIndex.
func ToFITSIndex(l, m int) int {
	return l*l + l + m + 1
}

func intSqrt(n int) int {
	if n < 0 {
		return 0
	}
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
