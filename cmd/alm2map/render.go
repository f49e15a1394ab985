package main

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/skysim/almsky"
	"github.com/skysim/almsky/internal/healpix"
)

// skyGrid adapts a value grid to plotter.GridXYZ. Rows run south to north
// so the rendered image comes out with north up.
type skyGrid struct {
	vals [][]float64 // [row][col], row 0 is the southernmost
	ra0  float64
	dRA  float64
	dec0 float64 // dec of row 0, degrees
	dDec float64 // positive
}

func (g *skyGrid) Dims() (c, r int)   { return len(g.vals[0]), len(g.vals) }
func (g *skyGrid) Z(c, r int) float64 { return g.vals[r][c] }
func (g *skyGrid) X(c int) float64    { return g.ra0 + float64(c)*g.dRA }
func (g *skyGrid) Y(r int) float64    { return g.dec0 + float64(r)*g.dDec }

func renderComponent(comp *almsky.PrecomputedAlms, vals []float64, file string) error {
	var grid *skyGrid
	var err error
	if comp.NSide() > 0 {
		grid, err = healpixGrid(comp.NSide(), vals)
	} else {
		grid, err = rectGrid(comp, vals)
	}
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = file
	p.X.Label.Text = "RA (deg)"
	p.Y.Label.Text = "dec (deg)"

	hm := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	p.Add(hm)

	return p.Save(12*vg.Inch, 6*vg.Inch, file)
}

// healpixGrid resamples a RING-ordered map onto an equirectangular grid by
// nearest pixel. Resolution tracks nside so no ring is skipped.
func healpixGrid(nside int, vals []float64) (*skyGrid, error) {
	geom, err := healpix.New(nside)
	if err != nil {
		return nil, err
	}
	if len(vals) != geom.NPix() {
		return nil, fmt.Errorf("map has %d pixels, geometry wants %d", len(vals), geom.NPix())
	}
	rings := geom.Rings()

	ny := 4 * nside
	nx := 8 * nside
	grid := make([][]float64, ny)
	for i := range grid {
		row := make([]float64, nx)
		dec := -90 + 180*(float64(i)+0.5)/float64(ny)
		z := math.Sin(dec * math.Pi / 180)
		r := nearestRing(rings, z)
		for j := range row {
			phi := 2 * math.Pi * (float64(j) + 0.5) / float64(nx)
			row[j] = vals[r.Start+nearestInRing(r, phi)]
		}
		grid[i] = row
	}
	return &skyGrid{
		vals: grid,
		ra0:  360 * 0.5 / float64(nx),
		dRA:  360 / float64(nx),
		dec0: -90 + 180*0.5/float64(ny),
		dDec: 180 / float64(ny),
	}, nil
}

// nearestRing picks the ring whose z is closest to the target. Rings are
// ordered north to south, i.e. by decreasing z.
func nearestRing(rings []healpix.Ring, z float64) healpix.Ring {
	lo, hi := 0, len(rings)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if rings[mid].Z > z {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo > 0 && math.Abs(rings[lo-1].Z-z) < math.Abs(rings[lo].Z-z) {
		lo--
	}
	return rings[lo]
}

func nearestInRing(r healpix.Ring, phi float64) int {
	j := int(math.Round((phi - r.Phi0) / r.DPhi))
	j %= r.Count
	if j < 0 {
		j += r.Count
	}
	return j
}

func rectGrid(comp *almsky.PrecomputedAlms, vals []float64) (*skyGrid, error) {
	g := comp.Geometry()
	if g == nil {
		return nil, fmt.Errorf("no grid descriptor available")
	}
	if len(vals) != g.NY*g.NX {
		return nil, fmt.Errorf("map has %d pixels, grid wants %d", len(vals), g.NY*g.NX)
	}
	grid := make([][]float64, g.NY)
	for i := range grid {
		grid[i] = vals[i*g.NX : (i+1)*g.NX]
	}
	ra0, dec0 := g.PixToSky(0, 0)
	dDec := g.WCS.CDelt[1]
	if dDec < 0 {
		// Grid rows run north to south; reverse so row 0 is the south edge.
		for i, j := 0, len(grid)-1; i < j; i, j = i+1, j-1 {
			grid[i], grid[j] = grid[j], grid[i]
		}
		_, dec0 = g.PixToSky(g.NY-1, 0)
		dDec = -dDec
	}
	return &skyGrid{
		vals: grid,
		ra0:  ra0,
		dRA:  g.WCS.CDelt[0],
		dec0: dec0,
		dDec: dDec,
	}, nil
}
