// Command map-report synthesizes maps from an alm FITS file across a set of
// frequencies and writes a standalone HTML report: per-component value
// histograms plus summary statistics, rendered with echarts.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/skysim/almsky"
)

const histogramBins = 40

func main() {
	almsPath := flag.String("alms", "", "alm FITS file")
	nside := flag.Int("nside", 64, "HEALPix nside for the synthesized maps")
	freqSpec := flag.String("freqs", fmt.Sprintf("%g", almsky.DefaultFrequencyGHz), "comma-separated frequencies in GHz")
	inUnits := flag.String("in-units", almsky.DefaultInputUnits, "units of the stored coefficients")
	outUnits := flag.String("units", almsky.DefaultInputUnits, "units for the report")
	polarized := flag.Bool("pol", true, "read T, E and B coefficient sets")
	outPath := flag.String("o", "map-report.html", "output HTML file")
	flag.Parse()

	freqs, err := parseFreqs(*freqSpec)
	if err != nil {
		log.Fatalf("map-report: %v", err)
	}

	cfg := almsky.DefaultConfig()
	cfg.Filename = *almsPath
	cfg.NSide = *nside
	cfg.InputUnits = *inUnits
	cfg.HasPolarization = *polarized

	comp, err := almsky.New(cfg)
	if err != nil {
		log.Fatalf("map-report: %v", err)
	}

	maps, err := comp.Signal(freqs, *outUnits)
	if err != nil {
		log.Fatalf("map-report: %v", err)
	}

	if err := writeReport(*outPath, freqs, *outUnits, maps); err != nil {
		log.Fatalf("map-report: %v", err)
	}
	log.Printf("wrote %s (%d frequencies, %d components, %d pixels)",
		*outPath, len(freqs), comp.NComponents(), comp.NPix())
}

func parseFreqs(spec string) ([]float64, error) {
	var freqs []float64
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		nu, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("bad frequency %q: %w", field, err)
		}
		freqs = append(freqs, nu)
	}
	if len(freqs) == 0 {
		return nil, fmt.Errorf("no frequencies given")
	}
	return freqs, nil
}

func componentName(i, n int) string {
	if n == 3 {
		return []string{"I", "Q", "U"}[i]
	}
	return "I"
}

func writeReport(path string, freqs []float64, units string, maps []*almsky.SkyMap) error {
	page := components.NewPage()
	for fi, m := range maps {
		for ci, vals := range m.Data {
			name := componentName(ci, len(m.Data))
			page.AddCharts(histogramChart(name, freqs[fi], units, vals))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

func histogramChart(name string, nu float64, units string, vals []float64) *charts.Bar {
	lo := floats.Min(vals)
	hi := floats.Max(vals)
	width := (hi - lo) / histogramBins
	if width == 0 {
		width = 1 // constant map, everything lands in one bin
	}

	counts := make([]int, histogramBins)
	for _, v := range vals {
		b := int((v - lo) / width)
		if b >= histogramBins {
			b = histogramBins - 1
		}
		counts[b]++
	}

	labels := make([]string, histogramBins)
	data := make([]opts.BarData, histogramBins)
	for b := range counts {
		labels[b] = fmt.Sprintf("%.3g", lo+(float64(b)+0.5)*width)
		data[b] = opts.BarData{Value: counts[b]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "map report",
			Width:     "900px",
			Height:    "400px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s at %g GHz", name, nu),
			Subtitle: summaryLine(units, vals),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: units}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pixels"}),
	)
	bar.SetXAxis(labels).AddSeries("pixels", data)
	return bar
}

func summaryLine(units string, vals []float64) string {
	mean := stat.Mean(vals, nil)
	sd := stat.StdDev(vals, nil)
	if math.IsNaN(sd) {
		sd = 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return fmt.Sprintf("mean %.4g %s, median %.4g, stddev %.3g, range [%.4g, %.4g]",
		mean, units, median, sd, sorted[0], sorted[len(sorted)-1])
}
