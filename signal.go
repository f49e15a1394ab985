package almsky

import (
	"gonum.org/v1/gonum/floats"

	"github.com/skysim/almsky/internal/carproj"
)

// SkyMap is one frequency slice of component output: Data[c][p] is the
// value of component c (I, or I/Q/U) at pixel p. Rectangular maps keep
// their grid descriptor in Geom so consumers retain projection metadata;
// HEALPix maps carry NSide and, for partial sky, the RING indices the
// pixels correspond to.
type SkyMap struct {
	Data  [][]float64
	NSide int
	Geom  *carproj.Geometry
	Pix   []int
}

// SignalAt returns the cached map rescaled from the input units to
// outputUnits at a single frequency in GHz.
func (p *PrecomputedAlms) SignalAt(nuGHz float64, outputUnits string) (*SkyMap, error) {
	maps, err := p.Signal([]float64{nuGHz}, outputUnits)
	if err != nil {
		return nil, err
	}
	return maps[0], nil
}

// Signal returns one rescaled copy of the cached map per requested
// frequency. An empty frequency list means the single default frequency.
// The cached map is never mutated; every slice is a fresh copy scaled by
// the per-frequency conversion factor.
func (p *PrecomputedAlms) Signal(nuGHz []float64, outputUnits string) ([]*SkyMap, error) {
	if len(nuGHz) == 0 {
		nuGHz = []float64{DefaultFrequencyGHz}
	}
	out := make([]*SkyMap, len(nuGHz))
	for i, nu := range nuGHz {
		factor, err := p.conv.Factor(p.cfg.InputUnits, outputUnits, nu)
		if err != nil {
			return nil, err
		}
		m := &SkyMap{
			Data:  make([][]float64, len(p.outputMap)),
			NSide: p.NSide(),
			Geom:  p.geom,
			Pix:   p.cfg.PixelIndices,
		}
		for c, src := range p.outputMap {
			dst := make([]float64, len(src))
			floats.ScaleTo(dst, factor, src)
			m.Data[c] = dst
		}
		out[i] = m
	}
	return out, nil
}
