// Command alm2map synthesizes a pixelized sky map from a precomputed-alm
// FITS file and renders each component to a PNG heatmap.
//
// Configuration comes from a JSON file (see Config) with flag overrides for
// the common fields:
//
//	alm2map -config sky.json
//	alm2map -alms cmb_alms.fits -nside 128 -freq 148 -units uK_CMB -out plots/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/skysim/almsky"
	"github.com/skysim/almsky/internal/carproj"
)

// Config mirrors the construction parameters of the component. Pointer
// fields distinguish "absent" from zero so a config file and flags can be
// merged.
type Config struct {
	Filename     *string     `json:"filename,omitempty"`
	NSide        *int        `json:"nside,omitempty"`
	Shape        *[2]int     `json:"shape,omitempty"` // (ny, nx)
	CRPix        *[2]float64 `json:"crpix,omitempty"`
	CRVal        *[2]float64 `json:"crval,omitempty"`
	CDelt        *[2]float64 `json:"cdelt,omitempty"`
	InputUnits   *string     `json:"input_units,omitempty"`
	OutputUnits  *string     `json:"output_units,omitempty"`
	FrequencyGHz *float64    `json:"frequency_ghz,omitempty"`
	Polarized    *bool       `json:"polarized,omitempty"`
	OutDir       *string     `json:"out_dir,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "JSON config file")
	almsPath := flag.String("alms", "", "alm FITS file (overrides config)")
	nside := flag.Int("nside", 0, "HEALPix nside (overrides config)")
	freq := flag.Float64("freq", almsky.DefaultFrequencyGHz, "frequency in GHz")
	outUnits := flag.String("units", almsky.DefaultInputUnits, "output units")
	outDir := flag.String("out", ".", "output directory for PNGs")
	intensityOnly := flag.Bool("intensity-only", false, "read a single coefficient set")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("alm2map: %v", err)
	}
	if *almsPath != "" {
		cfg.Filename = almsPath
	}
	if *nside > 0 {
		cfg.NSide = nside
	}
	if flagSet("units") || cfg.OutputUnits == nil {
		cfg.OutputUnits = outUnits
	}
	if flagSet("freq") || cfg.FrequencyGHz == nil {
		cfg.FrequencyGHz = freq
	}
	if flagSet("out") || cfg.OutDir == nil {
		cfg.OutDir = outDir
	}
	if *intensityOnly {
		f := false
		cfg.Polarized = &f
	}

	if err := run(cfg); err != nil {
		log.Fatalf("alm2map: %v", err)
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func run(cfg *Config) error {
	comp, err := buildComponent(cfg)
	if err != nil {
		return err
	}

	m, err := comp.SignalAt(*cfg.FrequencyGHz, *cfg.OutputUnits)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	names := componentNames(len(m.Data))
	for c, vals := range m.Data {
		file := filepath.Join(*cfg.OutDir, fmt.Sprintf("map_%s.png", names[c]))
		if err := renderComponent(comp, vals, file); err != nil {
			return fmt.Errorf("component %s: %w", names[c], err)
		}
		log.Printf("wrote %s", file)
	}
	return nil
}

func buildComponent(cfg *Config) (*almsky.PrecomputedAlms, error) {
	if cfg.Filename == nil || *cfg.Filename == "" {
		return nil, fmt.Errorf("no alm file given (set -alms or filename in the config)")
	}

	c := almsky.DefaultConfig()
	c.Filename = *cfg.Filename
	if cfg.InputUnits != nil {
		c.InputUnits = *cfg.InputUnits
	}
	if cfg.Polarized != nil {
		c.HasPolarization = *cfg.Polarized
	}
	if cfg.NSide != nil {
		c.NSide = *cfg.NSide
	}
	if cfg.Shape != nil {
		c.Shape = *cfg.Shape
		wcs := &carproj.WCS{
			CRPix: [2]float64{1, 1},
			CDelt: [2]float64{1, 1},
		}
		if cfg.CRPix != nil {
			wcs.CRPix = *cfg.CRPix
		}
		if cfg.CRVal != nil {
			wcs.CRVal = *cfg.CRVal
		}
		if cfg.CDelt != nil {
			wcs.CDelt = *cfg.CDelt
		}
		c.WCS = wcs
	}
	return almsky.New(c)
}

func componentNames(n int) []string {
	if n == 3 {
		return []string{"I", "Q", "U"}
	}
	return []string{"I"}
}
