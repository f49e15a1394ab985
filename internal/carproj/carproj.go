// Package carproj describes rectangular curved-sky pixel grids in the
// plate-carree (CAR) projection: rows of constant declination, columns of
// constant right ascension, tied to a FITS-style world coordinate system.
package carproj

import (
	"fmt"
	"math"
)

// WCS is the world coordinate transform of a CAR grid. Following the FITS
// convention, CRPix is 1-based and CRVal/CDelt are in degrees; axis 1 is
// right ascension (x, columns), axis 2 is declination (y, rows).
type WCS struct {
	CRPix [2]float64 // reference pixel (x, y), 1-based
	CRVal [2]float64 // sky coordinates at the reference pixel, degrees
	CDelt [2]float64 // degrees per pixel along (x, y)
}

// Geometry is a (shape, WCS) pair: NY rows by NX columns of sky pixels.
type Geometry struct {
	NY, NX int
	WCS    WCS
}

// New validates the shape and scale and returns the geometry. Shapes with
// more than two leading dimensions are the caller's concern; only the
// trailing (ny, nx) spatial plane is described here.
func New(ny, nx int, wcs WCS) (*Geometry, error) {
	if ny < 1 || nx < 1 {
		return nil, fmt.Errorf("carproj: invalid shape (%d, %d)", ny, nx)
	}
	if wcs.CDelt[0] == 0 || wcs.CDelt[1] == 0 {
		return nil, fmt.Errorf("carproj: WCS pixel scale must be non-zero")
	}
	return &Geometry{NY: ny, NX: nx, WCS: wcs}, nil
}

// NPix returns the flattened pixel count ny*nx.
func (g *Geometry) NPix() int {
	return g.NY * g.NX
}

// PixToSky maps 0-based pixel indices (y, x) to (ra, dec) in degrees.
func (g *Geometry) PixToSky(y, x int) (ra, dec float64) {
	ra = g.WCS.CRVal[0] + (float64(x)+1-g.WCS.CRPix[0])*g.WCS.CDelt[0]
	dec = g.WCS.CRVal[1] + (float64(y)+1-g.WCS.CRPix[1])*g.WCS.CDelt[1]
	return ra, dec
}

// SkyToPix maps (ra, dec) degrees to the nearest 0-based pixel indices.
// Results may fall outside the grid; callers bound-check.
func (g *Geometry) SkyToPix(ra, dec float64) (y, x int) {
	x = int(math.Round((ra-g.WCS.CRVal[0])/g.WCS.CDelt[0] + g.WCS.CRPix[0] - 1))
	y = int(math.Round((dec-g.WCS.CRVal[1])/g.WCS.CDelt[1] + g.WCS.CRPix[1] - 1))
	return y, x
}

// RowTheta returns the colatitude (radians) of row y, clamped away from the
// exact poles so spin-2 synthesis terms with 1/sin^2(theta) stay finite.
func (g *Geometry) RowTheta(y int) float64 {
	_, dec := g.PixToSky(y, 0)
	theta := (90 - dec) * math.Pi / 180
	const eps = 1e-8
	if theta < eps {
		theta = eps
	}
	if theta > math.Pi-eps {
		theta = math.Pi - eps
	}
	return theta
}

// RowPhi returns the azimuth (radians) of column 0 and the per-column step
// for row y. CAR rows share the same azimuth spacing.
func (g *Geometry) RowPhi() (phi0, dphi float64) {
	ra0, _ := g.PixToSky(0, 0)
	return ra0 * math.Pi / 180, g.WCS.CDelt[0] * math.Pi / 180
}
