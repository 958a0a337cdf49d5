package render

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/askdb/askdb/internal/datatable"
	"github.com/askdb/askdb/internal/recommend"
	"gonum.org/v1/gonum/stat"
)

// plotKind is the internal drawing model a chart builder produces. The two
// encoding backends (PNG, SVG) consume the same model so layout math lives in
// exactly one place.
type plotKind int

const (
	plotBars plotKind = iota
	plotLines
	plotPie
	plotScatter
	plotHistogram
	plotTable
	plotMessage
)

type series struct {
	name   string
	values []float64
}

type plot struct {
	kind       plotKind
	title      string
	note       string
	xLabel     string
	yLabel     string
	labels     []string // category labels (bars, lines, pie)
	series     []series // one or more value series (bars, lines)
	xs, ys     []float64
	horizontal bool
	// histogram
	binEdges  []float64
	binCounts []float64
	mean      float64
	median    float64
	hasStats  bool
	// table
	headers []string
	cells   [][]string
	// message
	message    string
	subMessage string
}

// Row display bounds, matching the source visualization's readability caps.
const (
	maxBarRows       = 30
	maxLineRows      = 200
	maxPieSlices     = 10
	maxFallbackBars  = 15
	maxTableRows     = 10
	maxTableCols     = 10
	histogramCutover = 50
)

var errNoNumericColumn = errors.New("no numeric column available")

// buildPlot dispatches to the kind-specific builder. Builders re-check their
// own column requirements against the table rather than trusting the
// recommendation.
func buildPlot(t *datatable.Table, rec *recommend.Recommendation) (*plot, error) {
	switch rec.Kind {
	case recommend.KindBar:
		return buildBarPlot(t, rec)
	case recommend.KindLine:
		return buildLinePlot(t, rec)
	case recommend.KindPie:
		return buildPiePlot(t, rec)
	case recommend.KindScatter:
		return buildScatterPlot(t, rec)
	case recommend.KindHistogram:
		return buildHistogramPlot(t, rec)
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", rec.Kind)
	}
}

// pickXColumn resolves the category axis: the recommended column if present,
// else the first categorical column, else the first column.
func pickXColumn(t *datatable.Table, rec *recommend.Recommendation) string {
	if rec.XAxis != "" && t.HasColumn(rec.XAxis) {
		return rec.XAxis
	}
	if cats := t.CategoricalColumns(); len(cats) > 0 {
		return cats[0]
	}
	if t.ColumnCount() > 0 {
		return t.Columns[0].Name
	}
	return ""
}

// pickYColumns resolves the value columns: recommended columns that exist and
// are numeric, else up to limit numeric columns.
func pickYColumns(t *datatable.Table, rec *recommend.Recommendation, limit int) []string {
	numeric := t.NumericColumns()
	isNumeric := func(name string) bool {
		for _, n := range numeric {
			if n == name {
				return true
			}
		}
		return false
	}

	var cols []string
	for _, name := range rec.YAxis {
		if t.HasColumn(name) && isNumeric(name) {
			cols = append(cols, name)
		}
		if len(cols) == limit {
			return cols
		}
	}
	if len(cols) > 0 {
		return cols
	}
	return numeric[:min(limit, len(numeric))]
}

func buildBarPlot(t *datatable.Table, rec *recommend.Recommendation) (*plot, error) {
	xCol := pickXColumn(t, rec)
	if xCol == "" {
		return nil, errors.New("no columns to plot")
	}
	yCols := pickYColumns(t, rec, 3)

	p := &plot{
		kind:       plotBars,
		title:      rec.Title,
		note:       rec.Explanation,
		xLabel:     xCol,
		horizontal: rec.Orientation == recommend.OrientationHorizontal,
	}

	if len(yCols) == 0 {
		// No numeric values: draw category frequencies instead.
		counts := t.ValueCounts(xCol)
		counts = counts[:min(maxFallbackBars, len(counts))]
		values := make([]float64, len(counts))
		for i, vc := range counts {
			p.labels = append(p.labels, vc.Value)
			values[i] = float64(vc.Count)
		}
		p.series = []series{{name: "count", values: values}}
		p.yLabel = "Count"
		return p, nil
	}

	rows := min(t.RowCount(), maxBarRows)
	xIdx := t.ColumnIndex(xCol)
	for row := 0; row < rows; row++ {
		p.labels = append(p.labels, t.CellString(row, xIdx))
	}
	for _, yCol := range yCols {
		yIdx := t.ColumnIndex(yCol)
		values := make([]float64, rows)
		for row := 0; row < rows; row++ {
			v, _ := t.Float(row, yIdx)
			values[row] = v
		}
		p.series = append(p.series, series{name: yCol, values: values})
	}
	p.yLabel = yCols[0]
	return p, nil
}

func buildLinePlot(t *datatable.Table, rec *recommend.Recommendation) (*plot, error) {
	xCol := pickXColumn(t, rec)
	yCols := pickYColumns(t, rec, 3)
	if len(yCols) == 0 {
		return nil, errNoNumericColumn
	}

	p := &plot{
		kind:   plotLines,
		title:  rec.Title,
		note:   rec.Explanation,
		xLabel: xCol,
		yLabel: yCols[0],
	}

	rows := min(t.RowCount(), maxLineRows)
	xIdx := t.ColumnIndex(xCol)
	for row := 0; row < rows; row++ {
		p.labels = append(p.labels, t.CellString(row, xIdx))
	}
	for _, yCol := range yCols {
		yIdx := t.ColumnIndex(yCol)
		values := make([]float64, rows)
		for row := 0; row < rows; row++ {
			v, _ := t.Float(row, yIdx)
			values[row] = v
		}
		p.series = append(p.series, series{name: yCol, values: values})
	}
	return p, nil
}

func buildPiePlot(t *datatable.Table, rec *recommend.Recommendation) (*plot, error) {
	xCol := pickXColumn(t, rec)
	if xCol == "" {
		return nil, errors.New("no columns to plot")
	}
	yCols := pickYColumns(t, rec, 1)

	type slice struct {
		label string
		value float64
	}
	var slices []slice

	if len(yCols) == 0 {
		for _, vc := range t.ValueCounts(xCol) {
			slices = append(slices, slice{label: vc.Value, value: float64(vc.Count)})
		}
	} else {
		// Aggregate the value column per category.
		xIdx := t.ColumnIndex(xCol)
		yIdx := t.ColumnIndex(yCols[0])
		sums := make(map[string]float64)
		var order []string
		for row := 0; row < t.RowCount(); row++ {
			label := t.CellString(row, xIdx)
			if _, seen := sums[label]; !seen {
				order = append(order, label)
			}
			if v, ok := t.Float(row, yIdx); ok && v > 0 {
				sums[label] += v
			}
		}
		for _, label := range order {
			slices = append(slices, slice{label: label, value: sums[label]})
		}
	}

	sort.SliceStable(slices, func(i, j int) bool { return slices[i].value > slices[j].value })
	slices = slices[:min(maxPieSlices, len(slices))]

	total := 0.0
	for _, s := range slices {
		total += s.value
	}
	if total <= 0 {
		return nil, errors.New("no positive values for pie chart")
	}

	p := &plot{kind: plotPie, title: rec.Title, note: rec.Explanation}
	values := make([]float64, len(slices))
	for i, s := range slices {
		p.labels = append(p.labels, s.label)
		values[i] = s.value
	}
	p.series = []series{{values: values}}
	return p, nil
}

func buildScatterPlot(t *datatable.Table, rec *recommend.Recommendation) (*plot, error) {
	numeric := t.NumericColumns()
	if len(numeric) < 2 {
		return nil, fmt.Errorf("scatter plot needs two numeric columns, have %d", len(numeric))
	}

	xCol := rec.XAxis
	if !contains(numeric, xCol) {
		xCol = numeric[0]
	}
	yCol := ""
	for _, name := range rec.YAxis {
		if contains(numeric, name) && name != xCol {
			yCol = name
			break
		}
	}
	if yCol == "" {
		for _, name := range numeric {
			if name != xCol {
				yCol = name
				break
			}
		}
	}

	p := &plot{
		kind:   plotScatter,
		title:  rec.Title,
		note:   rec.Explanation,
		xLabel: xCol,
		yLabel: yCol,
	}
	xIdx, yIdx := t.ColumnIndex(xCol), t.ColumnIndex(yCol)
	for row := 0; row < t.RowCount(); row++ {
		x, okX := t.Float(row, xIdx)
		y, okY := t.Float(row, yIdx)
		if okX && okY {
			p.xs = append(p.xs, x)
			p.ys = append(p.ys, y)
		}
	}
	if len(p.xs) == 0 {
		return nil, errors.New("no plottable points")
	}
	return p, nil
}

func buildHistogramPlot(t *datatable.Table, rec *recommend.Recommendation) (*plot, error) {
	yCols := pickYColumns(t, rec, 1)
	col := ""
	if len(yCols) > 0 {
		col = yCols[0]
	} else if numeric := t.NumericColumns(); len(numeric) > 0 {
		col = numeric[0]
	}
	if col == "" {
		return nil, errNoNumericColumn
	}

	values := t.FloatColumn(col)
	if len(values) == 0 {
		return nil, errNoNumericColumn
	}
	return histogramOf(values, col, rec.Title, rec.Explanation), nil
}

// histogramOf bins values and records the summary statistics drawn as
// reference lines.
func histogramOf(values []float64, column, title, note string) *plot {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	bins := min(30, max(5, len(values)/10))
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		hi = lo + 1
	}
	edges := make([]float64, bins+1)
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	// The highest divider must sit strictly above the maximum value or the
	// maximum falls outside the last bin.
	edges[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, edges, sorted, nil)

	if title == "" {
		title = fmt.Sprintf("Distribution of %s", column)
	}
	return &plot{
		kind:      plotHistogram,
		title:     title,
		note:      note,
		xLabel:    column,
		yLabel:    "Frequency",
		binEdges:  edges,
		binCounts: counts,
		mean:      stat.Mean(sorted, nil),
		median:    stat.Quantile(0.5, stat.Empirical, sorted, nil),
		hasStats:  true,
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
