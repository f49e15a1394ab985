package sht

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/skysim/almsky/internal/alm"
)

// Ring is one iso-latitude run of pixels: pixel j (0-based) has azimuth
// Phi0 + j*DPhi and lands at Offset+j in the flattened output.
type Ring struct {
	Theta  float64
	Phi0   float64
	DPhi   float64
	Count  int
	Offset int
}

// Synthesize evaluates coefficient sets on the given rings and returns one
// flattened map of npix pixels per component.
//
// One set synthesizes intensity only. Three sets are interpreted as
// (T, E, B) and produce (I, Q, U), with E/B entering through the spin-2
// kernels. Any other count is an error.
func Synthesize(sets []*alm.Alm, rings []Ring, npix int) ([][]float64, error) {
	switch len(sets) {
	case 1, 3:
	default:
		return nil, fmt.Errorf("sht: need 1 or 3 coefficient sets, got %d", len(sets))
	}
	lmax := sets[0].Lmax
	for i, s := range sets {
		if s.Lmax != lmax {
			return nil, fmt.Errorf("sht: set %d has lmax %d, set 0 has %d", i, s.Lmax, lmax)
		}
	}
	for _, r := range rings {
		if r.Count < 1 || r.Offset < 0 || r.Offset+r.Count > npix {
			return nil, fmt.Errorf("sht: ring at offset %d (count %d) outside %d pixels",
				r.Offset, r.Count, npix)
		}
	}

	polarized := len(sets) == 3
	ncomp := 1
	if polarized {
		ncomp = 3
	}
	out := make([][]float64, ncomp)
	for c := range out {
		out[c] = make([]float64, npix)
	}

	ws := newWorkspace(lmax)
	for _, r := range rings {
		ws.ring(sets, r, out, polarized)
	}
	return out, nil
}

// workspace holds per-ring scratch buffers so one synthesis run allocates
// the azimuthal phase arrays only when a longer ring comes along.
type workspace struct {
	lmax                   int
	cosBase, sinBase       []float64 // cos/sin of phi_j
	cosM, sinM, cosT, sinT []float64 // cos/sin of m*phi_j, plus rotation scratch
}

func newWorkspace(lmax int) *workspace {
	return &workspace{lmax: lmax}
}

func (w *workspace) grow(n int) {
	if len(w.cosBase) >= n {
		return
	}
	w.cosBase = make([]float64, n)
	w.sinBase = make([]float64, n)
	w.cosM = make([]float64, n)
	w.sinM = make([]float64, n)
	w.cosT = make([]float64, n)
	w.sinT = make([]float64, n)
}

// ring accumulates one ring into the output maps.
//
// For a real field, T(phi) = sum_m w_m Re[t_m e^{im phi}] with w_0 = 1,
// w_m = 2, t_m = sum_l a_lm lambda_lm. The polarization components follow
// the spin-2 kernels:
//
//	Q = -sum_m w_m ( Re[cE_m e^{im phi}] + Im[dB_m e^{im phi}] )
//	U = -sum_m w_m ( Re[cB_m e^{im phi}] - Im[dE_m e^{im phi}] )
//
// where cX_m = sum_l X_lm F1_lm and dX_m = sum_l X_lm F2_lm.
func (w *workspace) ring(sets []*alm.Alm, r Ring, out [][]float64, polarized bool) {
	n := r.Count
	w.grow(n)
	cosB, sinB := w.cosBase[:n], w.sinBase[:n]
	cosM, sinM := w.cosM[:n], w.sinM[:n]
	cosT, sinT := w.cosT[:n], w.sinT[:n]
	for j := 0; j < n; j++ {
		phi := r.Phi0 + float64(j)*r.DPhi
		cosB[j] = math.Cos(phi)
		sinB[j] = math.Sin(phi)
		cosM[j] = 1 // m = 0 phases
		sinM[j] = 0
	}

	lam := newLegendre(w.lmax, r.Theta)
	rowT := out[0][r.Offset : r.Offset+n]
	var rowQ, rowU []float64
	if polarized {
		rowQ = out[1][r.Offset : r.Offset+n]
		rowU = out[2][r.Offset : r.Offset+n]
	}

	for m := 0; m <= w.lmax; m++ {
		row := lam.next()

		var tM, cE, dE, cB, dB complex128
		for l := m; l <= w.lmax; l++ {
			tM += sets[0].At(l, m) * complex(row[l], 0)
			if polarized {
				f1, f2 := lam.spinFactors(l, m, row)
				e := sets[1].At(l, m)
				b := sets[2].At(l, m)
				cE += e * complex(f1, 0)
				dE += e * complex(f2, 0)
				cB += b * complex(f1, 0)
				dB += b * complex(f2, 0)
			}
		}

		if m > 0 {
			// Rotate the phase arrays from (m-1)phi to m*phi.
			for j := 0; j < n; j++ {
				cosT[j] = cosM[j]*cosB[j] - sinM[j]*sinB[j]
				sinT[j] = sinM[j]*cosB[j] + cosM[j]*sinB[j]
			}
			copy(cosM, cosT)
			copy(sinM, sinT)
		}

		wm := 2.0
		if m == 0 {
			wm = 1.0
		}

		// Re[z e^{im phi}] = Re(z) cos - Im(z) sin
		// Im[z e^{im phi}] = Re(z) sin + Im(z) cos
		floats.AddScaled(rowT, wm*real(tM), cosM)
		floats.AddScaled(rowT, -wm*imag(tM), sinM)
		if polarized {
			floats.AddScaled(rowQ, -wm*real(cE), cosM)
			floats.AddScaled(rowQ, wm*imag(cE), sinM)
			floats.AddScaled(rowQ, -wm*real(dB), sinM)
			floats.AddScaled(rowQ, -wm*imag(dB), cosM)

			floats.AddScaled(rowU, -wm*real(cB), cosM)
			floats.AddScaled(rowU, wm*imag(cB), sinM)
			floats.AddScaled(rowU, wm*real(dE), sinM)
			floats.AddScaled(rowU, wm*imag(dE), cosM)
		}
	}
}
