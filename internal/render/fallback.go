package render

import (
	"fmt"
	"sort"

	"github.com/askdb/askdb/internal/datatable"
)

// buildUniversalFallback inspects the table's column types and row count
// directly, ignoring the recommendation, and always produces some plot:
// a data table for very small results, a frequency chart for categorical-only
// results, a histogram for large numeric results, else a simple ordered
// bar or line chart.
func buildUniversalFallback(t *datatable.Table) *plot {
	numeric := t.NumericColumns()
	categorical := t.CategoricalColumns()
	rows := t.RowCount()
	cols := t.ColumnCount()

	// Very small result: show the raw data.
	if rows <= maxTableRows && cols <= maxTableCols {
		p := &plot{
			kind:    plotTable,
			title:   fmt.Sprintf("Data Table (%d rows, %d columns)", rows, cols),
			headers: t.ColumnNames(),
		}
		for row := 0; row < rows; row++ {
			line := make([]string, cols)
			for col := 0; col < cols; col++ {
				line[col] = t.CellString(row, col)
			}
			p.cells = append(p.cells, line)
		}
		return p
	}

	// Categorical only: frequency of the first categorical column.
	if len(numeric) == 0 && len(categorical) > 0 {
		catCol := categorical[0]
		counts := t.ValueCounts(catCol)
		counts = counts[:min(maxFallbackBars, len(counts))]
		p := &plot{
			kind:       plotBars,
			title:      fmt.Sprintf("Frequency of %s Values", catCol),
			horizontal: true,
			yLabel:     "Count",
		}
		values := make([]float64, len(counts))
		for i, vc := range counts {
			p.labels = append(p.labels, vc.Value)
			values[i] = float64(vc.Count)
		}
		p.series = []series{{name: "count", values: values}}
		return p
	}

	if len(numeric) > 0 {
		numCol := numeric[0]

		// Large numeric result: the distribution says more than the rows.
		if rows > histogramCutover {
			return histogramOf(t.FloatColumn(numCol), numCol, "", "")
		}

		// Smaller numeric result with categories: bars sorted by value.
		if len(categorical) > 0 {
			catCol := categorical[0]
			xIdx, yIdx := t.ColumnIndex(catCol), t.ColumnIndex(numCol)
			type pair struct {
				label string
				value float64
			}
			pairs := make([]pair, 0, rows)
			for row := 0; row < rows; row++ {
				v, _ := t.Float(row, yIdx)
				pairs = append(pairs, pair{label: t.CellString(row, xIdx), value: v})
			}
			sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].value > pairs[j].value })
			pairs = pairs[:min(maxBarRows, len(pairs))]

			p := &plot{
				kind:   plotBars,
				title:  fmt.Sprintf("%s by %s", numCol, catCol),
				xLabel: catCol,
				yLabel: numCol,
			}
			values := make([]float64, len(pairs))
			for i, pr := range pairs {
				p.labels = append(p.labels, pr.label)
				values[i] = pr.value
			}
			p.series = []series{{name: numCol, values: values}}
			return p
		}

		// Numeric only: values in row order.
		values := t.FloatColumn(numCol)
		p := &plot{
			kind:   plotLines,
			title:  fmt.Sprintf("Values of %s", numCol),
			xLabel: "Row Number",
			yLabel: numCol,
		}
		for i := range values {
			p.labels = append(p.labels, fmt.Sprint(i+1))
		}
		p.series = []series{{name: numCol, values: values}}
		return p
	}

	return placeholderPlot()
}

// placeholderPlot is the terminal fallback: a literal could-not-visualize
// message.
func placeholderPlot() *plot {
	return &plot{
		kind:       plotMessage,
		message:    "Could not visualize this data",
		subMessage: "Try a different query with numeric or categorical data",
	}
}
