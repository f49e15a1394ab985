// Package units provides shared constants and validation for sky brightness
// units, and frequency-dependent conversion factors between them.
//
// A unit tag is a metric prefix followed by a base convention:
// Rayleigh-Jeans temperature (K_RJ), thermodynamic temperature relative to
// the CMB blackbody (K_CMB), or flux density per steradian (Jysr).
// Examples: uK_RJ, K_CMB, MJysr.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Base unit conventions.
const (
	BaseRJ   = "K_RJ"
	BaseCMB  = "K_CMB"
	BaseJysr = "Jysr"
)

// Physical constants (SI, CODATA 2018) and the CMB monopole temperature.
const (
	planckH    = 6.62607015e-34 // J s
	boltzmannK = 1.380649e-23   // J/K
	lightC     = 2.99792458e8   // m/s
	tCMB       = 2.7255         // K, Fixsen (2009)
)

// prefixScale maps metric prefixes accepted in unit tags.
var prefixScale = map[string]float64{
	"n": 1e-9,
	"u": 1e-6,
	"m": 1e-3,
	"":  1,
	"k": 1e3,
	"M": 1e6,
	"G": 1e9,
}

var bases = []string{BaseRJ, BaseCMB, BaseJysr}

// unit is a parsed tag: a scale and a base convention.
type unit struct {
	scale float64
	base  string
}

func parse(tag string) (unit, error) {
	for _, b := range bases {
		if !strings.HasSuffix(tag, b) {
			continue
		}
		prefix := strings.TrimSuffix(tag, b)
		scale, ok := prefixScale[prefix]
		if !ok {
			return unit{}, fmt.Errorf("units: unknown prefix %q in %q", prefix, tag)
		}
		return unit{scale: scale, base: b}, nil
	}
	return unit{}, fmt.Errorf("units: unrecognized unit %q (valid bases: %s)",
		tag, strings.Join(bases, ", "))
}

// IsValid reports whether tag parses as a brightness unit.
func IsValid(tag string) bool {
	_, err := parse(tag)
	return err == nil
}

// Factor returns the multiplier converting a value in `from` to `to` at
// frequency nuGHz. Conversions within one base are frequency-independent;
// crossing bases requires a positive frequency.
func Factor(from, to string, nuGHz float64) (float64, error) {
	uf, err := parse(from)
	if err != nil {
		return 0, err
	}
	ut, err := parse(to)
	if err != nil {
		return 0, err
	}
	if uf.base == ut.base {
		return uf.scale / ut.scale, nil
	}
	if nuGHz <= 0 {
		return 0, fmt.Errorf("units: %s -> %s needs a positive frequency, got %g GHz",
			from, to, nuGHz)
	}
	return uf.scale * baseToRJ(uf.base, nuGHz) / (ut.scale * baseToRJ(ut.base, nuGHz)), nil
}

// baseToRJ returns the factor from one base unit to K_RJ at nuGHz.
func baseToRJ(base string, nuGHz float64) float64 {
	nu := nuGHz * 1e9
	switch base {
	case BaseRJ:
		return 1
	case BaseCMB:
		// Derivative of the blackbody at T_CMB over the RJ derivative:
		// x^2 e^x / (e^x - 1)^2, x = h nu / k T_CMB.
		x := planckH * nu / (boltzmannK * tCMB)
		ex := math.Exp(x)
		d := math.Expm1(x)
		return x * x * ex / (d * d)
	case BaseJysr:
		// 1 Jy/sr = 1e-26 W m^-2 Hz^-1 sr^-1; T_RJ = I c^2 / (2 k nu^2).
		return 1e-26 * lightC * lightC / (2 * boltzmannK * nu * nu)
	}
	panic("units: unreachable base " + base)
}

// Converter is the stateless conversion capability backed by this package.
// It satisfies interfaces that model unit conversion as an injected
// dependency.
type Converter struct{}

// Factor implements the conversion-capability contract.
func (Converter) Factor(from, to string, nuGHz float64) (float64, error) {
	return Factor(from, to, nuGHz)
}
