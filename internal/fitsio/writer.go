package fitsio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/skysim/almsky/internal/alm"
)

// WriteAlms writes coefficient sets to path in the layout ReadAlms expects:
// an empty primary HDU followed by one (index, real, imag) BINTABLE per set.
// It exists so tools and tests can generate inputs without a Python stack.
func WriteAlms(path string, sets []*alm.Alm) error {
	if len(sets) == 0 {
		return fmt.Errorf("fitsio: no coefficient sets to write")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fitsio: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := writeAlms(w, sets); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("fitsio: %w", err)
	}
	return f.Close()
}

func writeAlms(w io.Writer, sets []*alm.Alm) error {
	cards := []string{
		card("SIMPLE", "T", "conforms to FITS standard"),
		card("BITPIX", "8", ""),
		card("NAXIS", "0", ""),
		card("EXTEND", "T", ""),
	}
	if err := writeHeader(w, cards); err != nil {
		return err
	}
	for _, a := range sets {
		if err := writeAlmTable(w, a); err != nil {
			return err
		}
	}
	return nil
}

const rowBytes = 4 + 8 + 8 // index J + real D + imag D

func writeAlmTable(w io.Writer, a *alm.Alm) error {
	nrows := alm.Size(a.Lmax)
	cards := []string{
		card("XTENSION", "'BINTABLE'", "binary table extension"),
		card("BITPIX", "8", ""),
		card("NAXIS", "2", ""),
		card("NAXIS1", fmt.Sprintf("%d", rowBytes), "bytes per row"),
		card("NAXIS2", fmt.Sprintf("%d", nrows), ""),
		card("PCOUNT", "0", ""),
		card("GCOUNT", "1", ""),
		card("TFIELDS", "3", ""),
		card("TTYPE1", "'index   '", "l*l + l + m + 1"),
		card("TFORM1", "'1J      '", ""),
		card("TTYPE2", "'real    '", ""),
		card("TFORM2", "'1D      '", ""),
		card("TTYPE3", "'imag    '", ""),
		card("TFORM3", "'1D      '", ""),
		card("MAX-LPOL", fmt.Sprintf("%d", a.Lmax), "maximum multipole l"),
		card("MAX-MPOL", fmt.Sprintf("%d", a.Lmax), "maximum m"),
	}
	if err := writeHeader(w, cards); err != nil {
		return err
	}

	var buf [rowBytes]byte
	written := 0
	for m := 0; m <= a.Lmax; m++ {
		for l := m; l <= a.Lmax; l++ {
			v := a.At(l, m)
			binary.BigEndian.PutUint32(buf[0:], uint32(int32(alm.ToFITSIndex(l, m))))
			binary.BigEndian.PutUint64(buf[4:], math.Float64bits(real(v)))
			binary.BigEndian.PutUint64(buf[12:], math.Float64bits(imag(v)))
			if _, err := w.Write(buf[:]); err != nil {
				return fmt.Errorf("fitsio: %w", err)
			}
			written += rowBytes
		}
	}
	return pad(w, written)
}

// card formats one 80-byte header card. Values are right-aligned to column
// 30 for non-string values as the standard prescribes for fixed format.
func card(key, value, comment string) string {
	var body string
	if len(value) > 0 && value[0] == '\'' {
		body = fmt.Sprintf("%-8s= %-20s", key, value)
	} else {
		body = fmt.Sprintf("%-8s= %20s", key, value)
	}
	if comment != "" {
		body += " / " + comment
	}
	if len(body) > cardSize {
		body = body[:cardSize]
	}
	return body + spaces(cardSize-len(body))
}

func writeHeader(w io.Writer, cards []string) error {
	n := 0
	for _, c := range cards {
		if _, err := io.WriteString(w, c); err != nil {
			return fmt.Errorf("fitsio: %w", err)
		}
		n += cardSize
	}
	end := "END" + spaces(cardSize-3)
	if _, err := io.WriteString(w, end); err != nil {
		return fmt.Errorf("fitsio: %w", err)
	}
	n += cardSize
	// Header blocks pad with spaces, data blocks with zero bytes.
	return padWith(w, n, ' ')
}

func pad(w io.Writer, written int) error {
	return padWith(w, written, 0)
}

// padWith fills the current block up to the 2880-byte boundary.
func padWith(w io.Writer, written int, fill byte) error {
	rem := written % blockSize
	if rem == 0 {
		return nil
	}
	b := make([]byte, blockSize-rem)
	for i := range b {
		b[i] = fill
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("fitsio: %w", err)
	}
	return nil
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
