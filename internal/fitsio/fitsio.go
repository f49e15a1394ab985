// Package fitsio reads and writes the FITS binary-table layout used for
// precomputed spherical-harmonic coefficients.
//
// An alm file is a primary HDU with no data followed by one BINTABLE
// extension per coefficient set: HDU 1 holds intensity, HDUs 2-3 hold the
// two polarization sets. Each table row is (index J, real D, imag D) with
// index = l*l + l + m + 1. FITS stores everything big-endian in 2880-byte
// blocks; see the FITS 3.0 standard.
package fitsio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/skysim/almsky/internal/alm"
)

const (
	blockSize = 2880
	cardSize  = 80
	cardsPer  = blockSize / cardSize
)

// header holds the parsed key cards of one HDU.
type header struct {
	keys map[string]interface{}
}

func (h *header) intKey(name string) (int, error) {
	v, ok := h.keys[name]
	if !ok {
		return 0, fmt.Errorf("fitsio: header missing %s", name)
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("fitsio: header %s is not an integer", name)
	}
	return n, nil
}

func (h *header) strKey(name string) string {
	if v, ok := h.keys[name].(string); ok {
		return v
	}
	return ""
}

// blockReader consumes a FITS stream block by block.
type blockReader struct {
	r   io.Reader
	buf [blockSize]byte
}

func (b *blockReader) next() ([]byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		return nil, err
	}
	return b.buf[:], nil
}

// readHeader consumes blocks until the END card.
func (b *blockReader) readHeader() (*header, error) {
	h := &header{keys: make(map[string]interface{})}
	for {
		blk, err := b.next()
		if err != nil {
			return nil, fmt.Errorf("fitsio: reading header block: %w", err)
		}
		for i := 0; i < cardsPer; i++ {
			card := string(blk[i*cardSize : (i+1)*cardSize])
			key := strings.TrimSpace(card[:8])
			if key == "END" {
				return h, nil
			}
			if key == "" || key == "COMMENT" || key == "HISTORY" {
				continue
			}
			if len(card) < 10 || card[8:10] != "= " {
				continue
			}
			h.keys[key] = parseValue(strings.TrimSpace(card[10:]))
		}
	}
}

// parseValue interprets one card value per the standard: quoted strings,
// T/F logicals, integers and floats. Unparseable values come back nil.
func parseValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if s[0] == '\'' {
		end := strings.Index(s[1:], "'")
		if end < 0 {
			return nil
		}
		return strings.TrimRight(s[1:1+end], " ")
	}
	if j := strings.Index(s, "/"); j >= 0 {
		s = strings.TrimSpace(s[:j])
	}
	switch s {
	case "":
		return nil
	case "T":
		return true
	case "F":
		return false
	}
	if strings.ContainsAny(s, ".ED") {
		s = strings.Replace(s, "D", "E", 1)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	}
	return nil
}

// readData returns the nbytes-long data section of an HDU, consuming the
// block padding after it.
func (b *blockReader) readData(nbytes int) ([]byte, error) {
	if nbytes == 0 {
		return nil, nil
	}
	blocks := (nbytes + blockSize - 1) / blockSize
	data := make([]byte, 0, nbytes)
	for i := 0; i < blocks; i++ {
		blk, err := b.next()
		if err != nil {
			return nil, fmt.Errorf("fitsio: reading data block: %w", err)
		}
		data = append(data, blk...)
	}
	return data[:nbytes], nil
}

// almColumn describes where one table column sits inside a row.
type almColumn struct {
	offset int
	form   byte // J, K, E or D
	width  int
}

// ReadAlms reads 1 (intensity) or 3 (intensity + polarization) coefficient
// sets from path. All sets in one file must share the same lmax.
func ReadAlms(path string, polarized bool) ([]*alm.Alm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fitsio: %w", err)
	}
	defer f.Close()
	return readAlms(f, polarized)
}

func readAlms(r io.Reader, polarized bool) ([]*alm.Alm, error) {
	b := &blockReader{r: r}

	// Primary HDU: header only for alm files, but tolerate image data.
	ph, err := b.readHeader()
	if err != nil {
		return nil, err
	}
	if _, ok := ph.keys["SIMPLE"]; !ok {
		return nil, fmt.Errorf("fitsio: not a FITS file (no SIMPLE card)")
	}
	if err := skipPrimaryData(b, ph); err != nil {
		return nil, err
	}

	want := 1
	if polarized {
		want = 3
	}
	sets := make([]*alm.Alm, 0, want)
	for hdu := 1; hdu <= want; hdu++ {
		a, err := readAlmTable(b)
		if err != nil {
			return nil, fmt.Errorf("fitsio: HDU %d: %w", hdu, err)
		}
		sets = append(sets, a)
	}
	for i := 1; i < len(sets); i++ {
		if sets[i].Lmax != sets[0].Lmax {
			return nil, fmt.Errorf("fitsio: HDU %d has lmax %d, HDU 1 has %d",
				i+1, sets[i].Lmax, sets[0].Lmax)
		}
	}
	return sets, nil
}

func skipPrimaryData(b *blockReader, h *header) error {
	naxis, err := h.intKey("NAXIS")
	if err != nil {
		return err
	}
	if naxis == 0 {
		return nil
	}
	bitpix, err := h.intKey("BITPIX")
	if err != nil {
		return err
	}
	n := abs(bitpix) / 8
	for i := 1; i <= naxis; i++ {
		d, err := h.intKey(fmt.Sprintf("NAXIS%d", i))
		if err != nil {
			return err
		}
		n *= d
	}
	_, err = b.readData(n)
	return err
}

// readAlmTable reads one BINTABLE HDU holding (index, real, imag) rows.
func readAlmTable(b *blockReader) (*alm.Alm, error) {
	h, err := b.readHeader()
	if err != nil {
		return nil, err
	}
	if x := h.strKey("XTENSION"); x != "BINTABLE" {
		return nil, fmt.Errorf("expected BINTABLE extension, got %q", x)
	}
	rowBytes, err := h.intKey("NAXIS1")
	if err != nil {
		return nil, err
	}
	nrows, err := h.intKey("NAXIS2")
	if err != nil {
		return nil, err
	}
	tfields, err := h.intKey("TFIELDS")
	if err != nil {
		return nil, err
	}
	if tfields < 3 {
		return nil, fmt.Errorf("alm table needs 3 columns, found %d", tfields)
	}

	cols := make([]almColumn, 0, tfields)
	offset := 0
	for i := 1; i <= tfields; i++ {
		form := h.strKey(fmt.Sprintf("TFORM%d", i))
		c, err := parseTForm(form)
		if err != nil {
			return nil, err
		}
		c.offset = offset
		offset += c.width
		cols = append(cols, c)
	}
	if offset > rowBytes {
		return nil, fmt.Errorf("columns span %d bytes but NAXIS1 is %d", offset, rowBytes)
	}

	data, err := b.readData(rowBytes * nrows)
	if err != nil {
		return nil, err
	}

	// First pass finds lmax from the largest index.
	lmax := -1
	for row := 0; row < nrows; row++ {
		idx, err := cols[0].intAt(data, row*rowBytes)
		if err != nil {
			return nil, err
		}
		l, _, err := alm.FromFITSIndex(idx)
		if err != nil {
			return nil, err
		}
		if l > lmax {
			lmax = l
		}
	}
	if lmax < 0 {
		return nil, fmt.Errorf("alm table is empty")
	}

	a, err := alm.New(lmax)
	if err != nil {
		return nil, err
	}
	for row := 0; row < nrows; row++ {
		base := row * rowBytes
		idx, err := cols[0].intAt(data, base)
		if err != nil {
			return nil, err
		}
		l, m, err := alm.FromFITSIndex(idx)
		if err != nil {
			return nil, err
		}
		if m < 0 {
			return nil, fmt.Errorf("alm table row %d has negative m", row)
		}
		re, err := cols[1].floatAt(data, base)
		if err != nil {
			return nil, err
		}
		im, err := cols[2].floatAt(data, base)
		if err != nil {
			return nil, err
		}
		a.Set(l, m, complex(re, im))
	}
	return a, nil
}

func parseTForm(form string) (almColumn, error) {
	form = strings.TrimSpace(form)
	// Strip the repeat count; alm columns are scalar so only "1" (or empty)
	// is accepted.
	i := 0
	for i < len(form) && form[i] >= '0' && form[i] <= '9' {
		i++
	}
	if i == len(form) {
		return almColumn{}, fmt.Errorf("invalid TFORM %q", form)
	}
	if rep := form[:i]; rep != "" && rep != "1" {
		return almColumn{}, fmt.Errorf("TFORM %q: array columns are not supported", form)
	}
	switch form[i] {
	case 'J':
		return almColumn{form: 'J', width: 4}, nil
	case 'K':
		return almColumn{form: 'K', width: 8}, nil
	case 'E':
		return almColumn{form: 'E', width: 4}, nil
	case 'D':
		return almColumn{form: 'D', width: 8}, nil
	}
	return almColumn{}, fmt.Errorf("unsupported TFORM %q", form)
}

func (c almColumn) intAt(data []byte, base int) (int, error) {
	p := base + c.offset
	switch c.form {
	case 'J':
		return int(int32(binary.BigEndian.Uint32(data[p:]))), nil
	case 'K':
		return int(int64(binary.BigEndian.Uint64(data[p:]))), nil
	}
	return 0, fmt.Errorf("fitsio: index column has float TFORM %c", c.form)
}

func (c almColumn) floatAt(data []byte, base int) (float64, error) {
	p := base + c.offset
	switch c.form {
	case 'E':
		return float64(math.Float32frombits(binary.BigEndian.Uint32(data[p:]))), nil
	case 'D':
		return math.Float64frombits(binary.BigEndian.Uint64(data[p:])), nil
	}
	return 0, fmt.Errorf("fitsio: value column has integer TFORM %c", c.form)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
