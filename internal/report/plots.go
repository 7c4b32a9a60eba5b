package report

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	"github.com/KaramelBytes/asdp-cli/internal/table"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotOptions bounds visualization work.
type PlotOptions struct {
	Disabled   bool
	MaxColumns int
	MaxRows    int
	Seed       int64
}

// DefaultPlotOptions mirrors the usual limits: five histograms over at most 5000 rows.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{MaxColumns: 5, MaxRows: 5000, Seed: 42}
}

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// Plots renders SVG charts of t: a histogram per leading numeric column, a correlation
// heat map when there are at least two of them, and a missing-values bar chart when
// any cell is missing. Keys are dist_<column>, correlation and missing. Rendering
// problems are logged and skip the affected chart.
func Plots(t *table.Table, opt PlotOptions, log *audit.Log) map[string]string {
	out := map[string]string{}
	if opt.Disabled {
		log.Add("Visualizations disabled by configuration.")
		return out
	}
	rows := sampleRows(t, opt, log)

	numeric := t.NumericNames()
	if opt.MaxColumns > 0 && len(numeric) > opt.MaxColumns {
		numeric = numeric[:opt.MaxColumns]
	}
	series := make([][]float64, len(numeric))
	for j, name := range numeric {
		c, _ := t.Column(name)
		series[j] = pick(c.Num, rows)
	}

	for j, name := range numeric {
		svg, err := histogram(name, series[j])
		if err != nil {
			log.Addf("Skipped distribution plot for %s: %v", name, err)
			continue
		}
		out["dist_"+name] = svg
	}
	if len(numeric) > 1 {
		if svg, err := correlation(numeric, series); err != nil {
			log.Addf("Skipped correlation plot: %v", err)
		} else {
			out["correlation"] = svg
		}
	}

	var names []string
	var counts plotter.Values
	total := 0
	for _, c := range t.Columns() {
		n := 0
		for _, i := range rows {
			if c.IsMissing(i) {
				n++
			}
		}
		names = append(names, c.Name)
		counts = append(counts, float64(n))
		total += n
	}
	if total > 0 {
		if svg, err := missingBars(names, counts); err != nil {
			log.Addf("Skipped missing values plot: %v", err)
		} else {
			out["missing"] = svg
		}
	}
	return out
}

// sampleRows returns the row positions to plot, drawing a seeded sample when the
// table exceeds MaxRows.
func sampleRows(t *table.Table, opt PlotOptions, log *audit.Log) []int {
	n := t.Rows()
	if opt.MaxRows <= 0 || n <= opt.MaxRows {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rng := rand.New(rand.NewSource(opt.Seed))
	rows := rng.Perm(n)[:opt.MaxRows]
	sort.Ints(rows)
	log.Addf("Sampled %d rows for plotting out of %d total.", opt.MaxRows, n)
	return rows
}

func pick(vals []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for k, i := range rows {
		out[k] = vals[i]
	}
	return out
}

func finiteValues(vals []float64) plotter.Values {
	var out plotter.Values
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func histogram(name string, vals []float64) (string, error) {
	v := finiteValues(vals)
	if len(v) == 0 {
		return "", fmt.Errorf("no values")
	}
	lo, hi := v[0], v[0]
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo == hi {
		return "", fmt.Errorf("constant column")
	}
	bins := int(math.Ceil(math.Log2(float64(len(v))))) + 1
	h, err := plotter.NewHist(v, bins)
	if err != nil {
		return "", err
	}
	p := plot.New()
	p.Title.Text = "Distribution of " + name
	p.X.Label.Text = name
	p.Y.Label.Text = "count"
	p.Add(h)
	return renderSVG(p)
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ.
type corrGrid [][]float64

func (g corrGrid) Dims() (c, r int)   { return len(g), len(g) }
func (g corrGrid) Z(c, r int) float64 { return g[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

func correlation(names []string, series [][]float64) (string, error) {
	n := len(names)
	grid := make(corrGrid, n)
	for i := range grid {
		grid[i] = make([]float64, n)
		for j := range grid[i] {
			grid[i][j] = pairwiseCorrelation(series[i], series[j])
		}
	}
	h := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	h.Min, h.Max = -1, 1
	p := plot.New()
	p.Title.Text = "Correlation Matrix"
	p.Add(h)
	p.NominalX(names...)
	p.NominalY(names...)
	return renderSVG(p)
}

// pairwiseCorrelation is the Pearson correlation over rows where both values are
// present; 0 when it is undefined.
func pairwiseCorrelation(a, b []float64) float64 {
	var x, y []float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	if len(x) < 2 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func missingBars(names []string, counts plotter.Values) (string, error) {
	bars, err := plotter.NewBarChart(counts, vg.Points(20))
	if err != nil {
		return "", err
	}
	p := plot.New()
	p.Title.Text = "Missing Values by Column"
	p.Y.Label.Text = "missing"
	p.Add(bars)
	p.NominalX(names...)
	return renderSVG(p)
}

func renderSVG(p *plot.Plot) (string, error) {
	wt, err := p.WriterTo(plotWidth, plotHeight, "svg")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", err
	}
	svg := buf.String()
	// Drop the XML prolog so the markup can be inlined in HTML.
	if strings.HasPrefix(svg, "<?xml") {
		if i := strings.Index(svg, "?>"); i >= 0 {
			svg = strings.TrimLeft(svg[i+2:], "\r\n")
		}
	}
	return svg, nil
}
