// Package healpix implements RING-ordered HEALPix sphere geometry.
//
// HEALPix (Gorski et al. 2005) divides the sphere into 12*nside^2 equal-area
// pixels whose centers lie on 4*nside-1 rings of constant colatitude. RING
// ordering numbers pixels north to south, west to east within each ring.
// Only the geometry needed for harmonic synthesis lives here: ring layout
// and pixel-center angles.
package healpix

import (
	"fmt"
	"math"
)

// Geometry describes one RING-ordered HEALPix tessellation.
type Geometry struct {
	NSide int
}

// New validates nside and returns the geometry. nside must be a power of
// two; the standard requires it and callers rely on npix = 12*nside^2.
func New(nside int) (*Geometry, error) {
	if nside < 1 || nside&(nside-1) != 0 {
		return nil, fmt.Errorf("healpix: nside %d is not a positive power of two", nside)
	}
	return &Geometry{NSide: nside}, nil
}

// NPix returns the pixel count 12*nside^2.
func (g *Geometry) NPix() int {
	return 12 * g.NSide * g.NSide
}

// Ring describes one constant-colatitude ring of pixel centers.
// Pixel j of the ring (0-based) sits at phi = Phi0 + j*DPhi and RING
// index Start+j.
type Ring struct {
	Start int
	Count int
	Z     float64 // cos(colatitude) of the ring
	Phi0  float64
	DPhi  float64
}

// Theta returns the ring colatitude in radians.
func (r Ring) Theta() float64 {
	return math.Acos(r.Z)
}

// Rings returns the 4*nside-1 rings north to south. Ring i (1-based):
//
//	polar caps   i < nside or i > 3*nside: 4*k pixels, k = min(i, 4n-i),
//	             z = +-(1 - k^2/(3n^2)), first center at phi = pi/(4k)
//	equatorial   nside <= i <= 3*nside: 4n pixels, z = 4/3 - 2i/(3n),
//	             staggered by half a pixel on alternate rings
func (g *Geometry) Rings() []Ring {
	n := g.NSide
	fn := float64(n)
	rings := make([]Ring, 0, 4*n-1)
	start := 0
	for i := 1; i <= 4*n-1; i++ {
		var r Ring
		switch {
		case i < n: // north cap
			fi := float64(i)
			r = Ring{
				Count: 4 * i,
				Z:     1 - fi*fi/(3*fn*fn),
				Phi0:  math.Pi / (4 * fi), // half-pixel offset
				DPhi:  math.Pi / (2 * fi),
			}
		case i > 3*n: // south cap, mirror of the north
			k := 4*n - i
			fk := float64(k)
			r = Ring{
				Count: 4 * k,
				Z:     -(1 - fk*fk/(3*fn*fn)),
				Phi0:  math.Pi / (4 * fk),
				DPhi:  math.Pi / (2 * fk),
			}
		default: // equatorial belt
			s := float64((i - n + 1) & 1) // stagger: 1 on ring n, 0 on ring n+1, ...
			r = Ring{
				Count: 4 * n,
				Z:     4.0/3.0 - 2*float64(i)/(3*fn),
				Phi0:  s * math.Pi / (4 * fn),
				DPhi:  math.Pi / (2 * fn),
			}
		}
		r.Start = start
		start += r.Count
		rings = append(rings, r)
	}
	return rings
}

// PixAng returns the (theta, phi) center of RING pixel p.
func (g *Geometry) PixAng(p int) (theta, phi float64, err error) {
	if p < 0 || p >= g.NPix() {
		return 0, 0, fmt.Errorf("healpix: pixel %d out of range for nside %d", p, g.NSide)
	}
	for _, r := range g.Rings() {
		if p < r.Start+r.Count {
			j := p - r.Start
			return r.Theta(), r.Phi0 + float64(j)*r.DPhi, nil
		}
	}
	// Unreachable: the rings cover 0..NPix-1.
	return 0, 0, fmt.Errorf("healpix: pixel %d not covered", p)
}
