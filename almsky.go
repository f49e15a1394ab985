// Package almsky implements a sky-simulation component backed by
// precomputed spherical-harmonic coefficients.
//
// A PrecomputedAlms reads one alm FITS file at construction, synthesizes it
// once onto either a HEALPix sphere or a rectangular plate-carree grid, and
// then serves frequency-broadcast, unit-rescaled copies of the cached map
// through Signal and SignalAt. The host simulation framework composes many
// such components; this one carries no state beyond the cached map and is
// safe for concurrent Signal calls.
package almsky

import (
	"errors"
	"fmt"

	"github.com/skysim/almsky/internal/alm"
	"github.com/skysim/almsky/internal/carproj"
	"github.com/skysim/almsky/internal/fitsio"
	"github.com/skysim/almsky/internal/healpix"
	"github.com/skysim/almsky/internal/monitoring"
	"github.com/skysim/almsky/internal/sht"
	"github.com/skysim/almsky/internal/units"
)

// DefaultFrequencyGHz is used when Signal is called without frequencies.
// The value is irrelevant for temperature-to-temperature conversions,
// which carry no frequency dependence.
const DefaultFrequencyGHz = 148.0

// DefaultInputUnits is the convention alm template files are stored in.
const DefaultInputUnits = "uK_RJ"

// Configuration errors surfaced at construction.
var (
	ErrNoGrid        = errors.New("almsky: either NSide or Shape+WCS must be set")
	ErrGridAmbiguous = errors.New("almsky: NSide and Shape/WCS are mutually exclusive")
)

// Converter computes the scalar factor turning a value in `from` units into
// `to` units at a frequency in GHz. It is modeled as an injected capability
// so tests can substitute fixed conversion tables.
type Converter interface {
	Factor(from, to string, nuGHz float64) (float64, error)
}

// Config holds the construction parameters of a PrecomputedAlms.
// Exactly one of NSide or (Shape, WCS) must be given.
type Config struct {
	// Filename is the path to the alm FITS file (required).
	Filename string

	// NSide selects HEALPix output at this resolution.
	NSide int

	// Shape (ny, nx) and WCS select rectangular plate-carree output.
	Shape [2]int
	WCS   *carproj.WCS

	// InputUnits is the unit convention of the stored coefficients.
	InputUnits string

	// HasPolarization selects 3 coefficient sets (T, E, B -> I, Q, U)
	// instead of intensity only.
	HasPolarization bool

	// PixelIndices restricts HEALPix output to these RING pixels.
	PixelIndices []int

	// Converter overrides the built-in unit conversion. Nil uses the
	// physical RJ/CMB/Jysr tables.
	Converter Converter
}

// DefaultConfig returns the conventional defaults: uK_RJ input with
// polarization enabled.
func DefaultConfig() Config {
	return Config{
		InputUnits:      DefaultInputUnits,
		HasPolarization: true,
	}
}

// PrecomputedAlms is the component. The synthesized map is computed once in
// New and never mutated afterwards.
type PrecomputedAlms struct {
	cfg  Config
	conv Converter

	hp   *healpix.Geometry // HEALPix mode
	geom *carproj.Geometry // rectangular mode

	outputMap [][]float64 // nComp x npix, read-only after construction
}

// New reads the coefficient file, synthesizes the map for the configured
// grid and returns the ready component.
func New(cfg Config) (*PrecomputedAlms, error) {
	if cfg.Filename == "" {
		return nil, errors.New("almsky: Filename is required")
	}
	if cfg.InputUnits == "" {
		cfg.InputUnits = DefaultInputUnits
	}

	rect := cfg.Shape != [2]int{} || cfg.WCS != nil
	switch {
	case cfg.NSide > 0 && rect:
		return nil, ErrGridAmbiguous
	case cfg.NSide <= 0 && !rect:
		return nil, ErrNoGrid
	}

	p := &PrecomputedAlms{cfg: cfg, conv: cfg.Converter}
	if p.conv == nil {
		p.conv = units.Converter{}
	}

	sets, err := fitsio.ReadAlms(cfg.Filename, cfg.HasPolarization)
	if err != nil {
		return nil, err
	}

	if cfg.NSide > 0 {
		if err := p.loadHealpix(sets); err != nil {
			return nil, err
		}
	} else {
		if err := p.loadRect(sets); err != nil {
			return nil, err
		}
	}

	monitoring.Logf("almsky: %s: synthesized %d-component map, %d pixels (lmax %d)",
		cfg.Filename, len(p.outputMap), len(p.outputMap[0]), sets[0].Lmax)
	return p, nil
}

func (p *PrecomputedAlms) loadHealpix(sets []*alm.Alm) error {
	hp, err := healpix.New(p.cfg.NSide)
	if err != nil {
		return err
	}
	p.hp = hp

	rings := make([]sht.Ring, 0, 4*hp.NSide-1)
	for _, r := range hp.Rings() {
		rings = append(rings, sht.Ring{
			Theta:  r.Theta(),
			Phi0:   r.Phi0,
			DPhi:   r.DPhi,
			Count:  r.Count,
			Offset: r.Start,
		})
	}
	full, err := sht.Synthesize(sets, rings, hp.NPix())
	if err != nil {
		return err
	}

	if len(p.cfg.PixelIndices) == 0 {
		p.outputMap = full
		return nil
	}
	// Partial sky: keep only the requested RING pixels, in the given order.
	sub := make([][]float64, len(full))
	for c := range full {
		sub[c] = make([]float64, len(p.cfg.PixelIndices))
		for i, pix := range p.cfg.PixelIndices {
			if pix < 0 || pix >= hp.NPix() {
				return fmt.Errorf("almsky: pixel index %d out of range for nside %d",
					pix, hp.NSide)
			}
			sub[c][i] = full[c][pix]
		}
	}
	p.outputMap = sub
	return nil
}

func (p *PrecomputedAlms) loadRect(sets []*alm.Alm) error {
	if p.cfg.Shape == [2]int{} || p.cfg.WCS == nil {
		return errors.New("almsky: rectangular mode needs both Shape and WCS")
	}
	if len(p.cfg.PixelIndices) != 0 {
		return errors.New("almsky: PixelIndices applies to HEALPix output only")
	}
	geom, err := carproj.New(p.cfg.Shape[0], p.cfg.Shape[1], *p.cfg.WCS)
	if err != nil {
		return err
	}
	p.geom = geom

	phi0, dphi := geom.RowPhi()
	rings := make([]sht.Ring, geom.NY)
	for y := 0; y < geom.NY; y++ {
		rings[y] = sht.Ring{
			Theta:  geom.RowTheta(y),
			Phi0:   phi0,
			DPhi:   dphi,
			Count:  geom.NX,
			Offset: y * geom.NX,
		}
	}
	out, err := sht.Synthesize(sets, rings, geom.NPix())
	if err != nil {
		return err
	}
	p.outputMap = out
	return nil
}

// NComponents is 3 when polarization was requested, else 1.
func (p *PrecomputedAlms) NComponents() int {
	return len(p.outputMap)
}

// NPix is the per-component pixel count of the cached map.
func (p *PrecomputedAlms) NPix() int {
	return len(p.outputMap[0])
}

// Geometry returns the rectangular grid descriptor, or nil in HEALPix mode.
func (p *PrecomputedAlms) Geometry() *carproj.Geometry {
	return p.geom
}

// NSide returns the HEALPix resolution, or 0 in rectangular mode.
func (p *PrecomputedAlms) NSide() int {
	if p.hp == nil {
		return 0
	}
	return p.hp.NSide
}
