// Package sht synthesizes pixelized sky maps from spherical-harmonic
// coefficients. It supports spin-0 (intensity) and spin-2 (Q/U polarization
// from E/B coefficients) on any geometry expressible as iso-latitude rings.
//
// The evaluation is direct: normalized associated Legendre recurrences per
// ring, then an azimuthal phase sweep per pixel. Cost is O(npix * lmax) plus
// O(nrings * lmax^2), which is fine for the moderate lmax of precomputed
// component templates. No FFT shortcut and no recurrence rescaling for very
// high l; templates beyond lmax of a few hundred do not occur here.
package sht

import "math"

// invSqrt4Pi is lambda_00, the fully normalized Y_00.
const invSqrt4Pi = 0.28209479177387814

// legendre computes rows of fully normalized associated Legendre functions
// lambda_lm(theta) = sqrt((2l+1)/(4pi) (l-m)!/(l+m)!) P_lm(cos theta),
// Condon-Shortley phase included, one m at a time in increasing order.
type legendre struct {
	lmax   int
	ct, st float64
	m      int
	mm     float64 // lambda_mm for the current m
	row    []float64
}

func newLegendre(lmax int, theta float64) *legendre {
	return &legendre{
		lmax: lmax,
		ct:   math.Cos(theta),
		st:   math.Sin(theta),
		m:    -1,
		row:  make([]float64, lmax+1),
	}
}

// next advances to the following m and returns lambda_lm for l = m..lmax,
// indexed by l. The returned slice is reused between calls.
func (p *legendre) next() []float64 {
	p.m++
	m := p.m
	if m == 0 {
		p.mm = invSqrt4Pi
	} else {
		// lambda_mm = -sqrt((2m+1)/(2m)) sin(theta) lambda_{m-1,m-1}
		fm := float64(m)
		p.mm *= -math.Sqrt((2*fm+1)/(2*fm)) * p.st
	}
	row := p.row
	row[m] = p.mm
	if m < p.lmax {
		row[m+1] = math.Sqrt(2*float64(m)+3) * p.ct * p.mm
	}
	for l := m + 2; l <= p.lmax; l++ {
		fl := float64(l)
		fm := float64(m)
		a := math.Sqrt((4*fl*fl - 1) / (fl*fl - fm*fm))
		b := math.Sqrt(((fl-1)*(fl-1) - fm*fm) / (4*(fl-1)*(fl-1) - 1))
		row[l] = a * (p.ct*row[l-1] - b*row[l-2])
	}
	return row[: p.lmax+1 : p.lmax+1]
}

// spinFactors returns the spin-2 functions F1_lm and F2_lm at the current
// ring for one (l, m), given the lambda row of the same m. These are the
// real-space polarization kernels of Kamionkowski, Kosowsky & Stebbins:
//
//	F1 = 2 N_l [ -((l - m^2)/sin^2 + l(l-1)/2) lambda_lm
//	             + (cos/sin^2) sqrt((2l+1)(l-m)(l+m)/(2l-1)) lambda_{l-1,m} ]
//	F2 = 2 N_l (m/sin^2) [ -(l-1) cos lambda_lm
//	             + sqrt((2l+1)(l-m)(l+m)/(2l-1)) lambda_{l-1,m} ]
//
// with N_l = 1/sqrt((l+2)(l+1)l(l-1)). Both vanish for l < 2, and F2
// vanishes for m = 0.
func (p *legendre) spinFactors(l, m int, row []float64) (f1, f2 float64) {
	if l < 2 {
		return 0, 0
	}
	fl := float64(l)
	fm := float64(m)
	st2 := p.st * p.st
	k := 2 / math.Sqrt((fl+2)*(fl+1)*fl*(fl-1))

	var prev float64 // lambda_{l-1,m}, zero when l-1 < m
	if l-1 >= m {
		prev = row[l-1]
	}
	cross := math.Sqrt((2*fl + 1) * (fl - fm) * (fl + fm) / (2*fl - 1))

	f1 = k * (-((fl-fm*fm)/st2+fl*(fl-1)/2)*row[l] + p.ct/st2*cross*prev)
	if m != 0 {
		f2 = k * fm / st2 * (-(fl-1)*p.ct*row[l] + cross*prev)
	}
	return f1, f2
}
