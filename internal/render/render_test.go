package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/datatable"
	"github.com/askdb/askdb/internal/recommend"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func regionTable(rows int) *datatable.Table {
	tab := &datatable.Table{
		Columns: []datatable.Column{
			{Name: "region", Kind: datatable.KindCategorical},
			{Name: "revenue", Kind: datatable.KindNumeric},
			{Name: "units", Kind: datatable.KindNumeric},
		},
	}
	for i := 0; i < rows; i++ {
		tab.Rows = append(tab.Rows, []any{
			fmt.Sprintf("region-%d", i), float64(100 + i*10), float64(i),
		})
	}
	return tab
}

func TestBuildBarPlot(t *testing.T) {
	t.Parallel()
	rec := &recommend.Recommendation{
		Kind:  recommend.KindBar,
		XAxis: "region",
		YAxis: []string{"revenue", "units"},
		Title: "Revenue by Region",
	}
	p, err := buildPlot(regionTable(5), rec)
	require.NoError(t, err)

	assert.Equal(t, plotBars, p.kind)
	assert.Equal(t, "Revenue by Region", p.title)
	assert.Len(t, p.labels, 5)
	require.Len(t, p.series, 2)
	assert.Equal(t, "revenue", p.series[0].name)
	assert.Equal(t, []float64{100, 110, 120, 130, 140}, p.series[0].values)
}

func TestBuildBarPlotCapsRows(t *testing.T) {
	t.Parallel()
	rec := &recommend.Recommendation{Kind: recommend.KindBar, XAxis: "region", YAxis: []string{"revenue"}}
	p, err := buildPlot(regionTable(100), rec)
	require.NoError(t, err)
	assert.Len(t, p.labels, maxBarRows)
}

func TestBuildBarPlotFrequenciesWithoutNumeric(t *testing.T) {
	t.Parallel()
	tab := &datatable.Table{
		Columns: []datatable.Column{{Name: "status", Kind: datatable.KindCategorical}},
		Rows:    [][]any{{"open"}, {"open"}, {"closed"}},
	}
	rec := &recommend.Recommendation{Kind: recommend.KindBar, XAxis: "status"}
	p, err := buildPlot(tab, rec)
	require.NoError(t, err)

	require.Len(t, p.series, 1)
	assert.Equal(t, "count", p.series[0].name)
	assert.Equal(t, []float64{2, 1}, p.series[0].values)
	assert.Equal(t, []string{"open", "closed"}, p.labels)
}

func TestBuildLinePlotNeedsNumeric(t *testing.T) {
	t.Parallel()
	tab := &datatable.Table{
		Columns: []datatable.Column{{Name: "status", Kind: datatable.KindCategorical}},
		Rows:    [][]any{{"open"}},
	}
	_, err := buildPlot(tab, &recommend.Recommendation{Kind: recommend.KindLine})
	assert.ErrorIs(t, err, errNoNumericColumn)
}

func TestBuildPiePlotCapsSlices(t *testing.T) {
	t.Parallel()
	rec := &recommend.Recommendation{Kind: recommend.KindPie, XAxis: "region", YAxis: []string{"revenue"}}
	p, err := buildPlot(regionTable(20), rec)
	require.NoError(t, err)

	assert.Equal(t, plotPie, p.kind)
	assert.LessOrEqual(t, len(p.labels), maxPieSlices)
}

func TestBuildScatterPlot(t *testing.T) {
	t.Parallel()
	rec := &recommend.Recommendation{
		Kind:  recommend.KindScatter,
		XAxis: "revenue",
		YAxis: []string{"units"},
	}
	p, err := buildPlot(regionTable(6), rec)
	require.NoError(t, err)

	assert.Equal(t, plotScatter, p.kind)
	assert.Len(t, p.xs, 6)
	assert.Len(t, p.ys, 6)
	assert.Equal(t, "revenue", p.xLabel)
	assert.Equal(t, "units", p.yLabel)
}

func TestBuildScatterPlotNeedsTwoNumeric(t *testing.T) {
	t.Parallel()
	tab := &datatable.Table{
		Columns: []datatable.Column{
			{Name: "region", Kind: datatable.KindCategorical},
			{Name: "revenue", Kind: datatable.KindNumeric},
		},
		Rows: [][]any{{"north", 1.0}},
	}
	_, err := buildPlot(tab, &recommend.Recommendation{Kind: recommend.KindScatter})
	assert.Error(t, err)
}

func TestBuildHistogramPlot(t *testing.T) {
	t.Parallel()
	rec := &recommend.Recommendation{Kind: recommend.KindHistogram, YAxis: []string{"revenue"}}
	p, err := buildPlot(regionTable(60), rec)
	require.NoError(t, err)

	assert.Equal(t, plotHistogram, p.kind)
	assert.True(t, p.hasStats)
	assert.Len(t, p.binEdges, len(p.binCounts)+1)

	var total float64
	for _, c := range p.binCounts {
		total += c
	}
	assert.Equal(t, float64(60), total, "every value lands in a bin")
}

func TestBuildHistogramIncludesMaximum(t *testing.T) {
	t.Parallel()
	tab := &datatable.Table{
		Columns: []datatable.Column{{Name: "v", Kind: datatable.KindNumeric}},
	}
	for i := 0; i < 80; i++ {
		tab.Rows = append(tab.Rows, []any{float64(i)})
	}
	p, err := buildPlot(tab, &recommend.Recommendation{Kind: recommend.KindHistogram})
	require.NoError(t, err)

	assert.Greater(t, p.binEdges[len(p.binEdges)-1], 79.0,
		"top divider sits strictly above the maximum value")
	assert.Positive(t, p.binCounts[len(p.binCounts)-1],
		"maximum value lands in the last bin")
}

func TestBuildHistogramConstantColumn(t *testing.T) {
	t.Parallel()
	tab := &datatable.Table{
		Columns: []datatable.Column{{Name: "v", Kind: datatable.KindNumeric}},
	}
	for i := 0; i < 20; i++ {
		tab.Rows = append(tab.Rows, []any{7.0})
	}
	p, err := buildPlot(tab, &recommend.Recommendation{Kind: recommend.KindHistogram})
	require.NoError(t, err)
	assert.Equal(t, 7.0, p.mean)
	assert.Equal(t, 7.0, p.median)
}

func TestBuildPlotUnsupportedKind(t *testing.T) {
	t.Parallel()
	_, err := buildPlot(regionTable(3), &recommend.Recommendation{Kind: recommend.KindRadar})
	assert.Error(t, err)
}

func TestUniversalFallbackSmallResultIsTable(t *testing.T) {
	t.Parallel()
	p := buildUniversalFallback(regionTable(3))
	assert.Equal(t, plotTable, p.kind)
	assert.Equal(t, []string{"region", "revenue", "units"}, p.headers)
	assert.Len(t, p.cells, 3)
}

func TestUniversalFallbackCategoricalFrequency(t *testing.T) {
	t.Parallel()
	tab := &datatable.Table{
		Columns: []datatable.Column{{Name: "status", Kind: datatable.KindCategorical}},
	}
	for i := 0; i < 40; i++ {
		tab.Rows = append(tab.Rows, []any{fmt.Sprintf("s%d", i%20)})
	}
	p := buildUniversalFallback(tab)
	assert.Equal(t, plotBars, p.kind)
	assert.True(t, p.horizontal)
	assert.LessOrEqual(t, len(p.labels), maxFallbackBars)
}

func TestUniversalFallbackLargeNumericIsHistogram(t *testing.T) {
	t.Parallel()
	p := buildUniversalFallback(regionTable(60))
	assert.Equal(t, plotHistogram, p.kind)
}

func TestUniversalFallbackMidSizeSortsBars(t *testing.T) {
	t.Parallel()
	p := buildUniversalFallback(regionTable(20))
	assert.Equal(t, plotBars, p.kind)
	require.NotEmpty(t, p.series)
	values := p.series[0].values
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i-1], values[i], "bars sorted descending")
	}
}

func pngMagic(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'})
}

func TestPipelineRenderProducesBothEncodings(t *testing.T) {
	t.Parallel()
	p := NewPipeline(10, discard())
	rec := &recommend.Recommendation{
		Kind:  recommend.KindBar,
		XAxis: "region",
		YAxis: []string{"revenue"},
		Title: "Revenue",
	}
	fig := p.Render(regionTable(5), rec, "revenue by region")

	require.NotNil(t, fig)
	assert.Equal(t, recommend.KindBar, fig.Kind)
	assert.True(t, pngMagic(fig.PNG))
	assert.Contains(t, string(fig.SVG), "<svg")
	assert.False(t, fig.Fallback)
	assert.False(t, fig.Placeholder)
}

func TestPipelineRenderEmptyTable(t *testing.T) {
	t.Parallel()
	p := NewPipeline(10, discard())

	fig := p.Render(nil, nil, "q")
	assert.True(t, fig.Placeholder)
	assert.Equal(t, "No data available for visualization", fig.Note)

	fig = p.Render(datatable.New(nil), nil, "q")
	assert.True(t, fig.Placeholder)
}

func TestPipelineRenderNoneKind(t *testing.T) {
	t.Parallel()
	p := NewPipeline(10, discard())
	fig := p.Render(regionTable(3), &recommend.Recommendation{Kind: recommend.KindNone}, "q")

	assert.True(t, fig.Placeholder)
	assert.Equal(t, "This data is not suitable for visualization", fig.Note)
}

func TestPipelineRenderFallsBack(t *testing.T) {
	t.Parallel()
	tab := &datatable.Table{
		Columns: []datatable.Column{{Name: "status", Kind: datatable.KindCategorical}},
		Rows:    [][]any{{"open"}, {"closed"}},
	}
	p := NewPipeline(10, discard())
	fig := p.Render(tab, &recommend.Recommendation{Kind: recommend.KindScatter}, "q")

	assert.True(t, fig.Fallback)
	assert.Contains(t, fig.Note, "Could not draw scatter chart")
	assert.NotEmpty(t, fig.SVG)
}

func TestPipelineRenderCaches(t *testing.T) {
	t.Parallel()
	p := NewPipeline(10, discard())
	rec := &recommend.Recommendation{Kind: recommend.KindBar, XAxis: "region", YAxis: []string{"revenue"}}
	tab := regionTable(4)

	first := p.Render(tab, rec, "q")
	second := p.Render(tab, rec, "q")
	assert.Same(t, first, second)

	other := p.Render(tab, rec, "another question")
	assert.NotSame(t, first, other, "query text is part of the cache key")
}

func TestPipelineRenderKind(t *testing.T) {
	t.Parallel()
	p := NewPipeline(10, discard())
	base := &recommend.Recommendation{
		Kind:  recommend.KindBar,
		XAxis: "region",
		YAxis: []string{"revenue"},
		Title: "Revenue",
	}
	tab := regionTable(4)

	primary := p.Render(tab, base, "q")
	pie := p.RenderKind(tab, base, "q", recommend.KindPie)

	assert.Equal(t, recommend.KindPie, pie.Kind)
	assert.NotSame(t, primary, pie, "alternatives cache under their own key")
	assert.Same(t, pie, p.RenderKind(tab, base, "q", recommend.KindPie))
}

func TestSceneTextPlacement(t *testing.T) {
	t.Parallel()
	s := buildScene(&plot{
		kind:   plotBars,
		title:  "Revenue",
		labels: []string{"a", "b"},
		series: []series{{name: "v", values: []float64{1, 2}}},
		xLabel: "region",
		yLabel: "revenue",
	})

	var title *shape
	for i := range s.shapes {
		if s.shapes[i].kind == shapeText && s.shapes[i].text == "Revenue" {
			title = &s.shapes[i]
			break
		}
	}
	require.NotNil(t, title)
	assert.Equal(t, float64(canvasWidth)/2, title.x)
	assert.Equal(t, 28.0, title.y)
	assert.True(t, title.bold)
}

func TestScenePerKind(t *testing.T) {
	t.Parallel()
	plots := []*plot{
		{kind: plotBars, title: "b", labels: []string{"a", "b"},
			series: []series{{name: "v", values: []float64{1, 2}}}},
		{kind: plotBars, title: "bh", horizontal: true, labels: []string{"a", "b"},
			series: []series{{name: "v", values: []float64{1, 2}}}},
		{kind: plotLines, title: "l", labels: []string{"a", "b", "c"},
			series: []series{{name: "v", values: []float64{1, 3, 2}}}},
		{kind: plotPie, title: "p", labels: []string{"a", "b"},
			series: []series{{values: []float64{3, 1}}}},
		{kind: plotScatter, title: "s", xs: []float64{1, 2}, ys: []float64{2, 1}},
		{kind: plotHistogram, title: "h", binEdges: []float64{0, 1, 2},
			binCounts: []float64{3, 4}, mean: 1, median: 1, hasStats: true},
		{kind: plotTable, title: "t", headers: []string{"a"}, cells: [][]string{{"x"}}},
		{kind: plotMessage, message: "nothing to draw"},
	}
	for _, pl := range plots {
		s := buildScene(pl)
		require.NotNil(t, s, "kind %d", pl.kind)
		assert.NotEmpty(t, s.shapes, "kind %d produces shapes", pl.kind)

		png, err := encodePNG(s)
		require.NoError(t, err, "kind %d", pl.kind)
		assert.True(t, pngMagic(png), "kind %d", pl.kind)

		svg := encodeSVG(s)
		assert.Contains(t, string(svg), "</svg>", "kind %d", pl.kind)
	}
}
