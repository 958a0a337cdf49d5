package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
)

// The drawing primitives shared by the PNG and SVG backends. All layout math
// happens here so the two encoders stay dumb.

type shapeKind int

const (
	shapeRect shapeKind = iota
	shapeLine
	shapePolygon
	shapeCircle
	shapeText
)

type anchor int

const (
	anchorStart anchor = iota
	anchorMiddle
	anchorEnd
)

type point struct{ x, y float64 }

type shape struct {
	kind        shapeKind
	x, y, w, h  float64 // rect: origin+size, circle: center in x,y with radius in w
	x1, y1      float64
	x2, y2      float64
	pts         []point
	fill        color.RGBA
	stroke      color.RGBA
	strokeWidth float64
	text        string
	anchor      anchor
	bold        bool
}

type scene struct {
	width, height int
	shapes        []shape
}

// Canvas dimensions and chart margins.
const (
	canvasWidth  = 1000
	canvasHeight = 600

	marginLeft   = 80.0
	marginRight  = 40.0
	marginTop    = 60.0
	marginBottom = 90.0
)

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorAxis       = color.RGBA{90, 90, 90, 255}
	colorGrid       = color.RGBA{225, 225, 225, 255}
	colorText       = color.RGBA{40, 40, 40, 255}
	colorSubtle     = color.RGBA{120, 120, 120, 255}
	colorMeanLine   = color.RGBA{214, 39, 40, 255}
	colorMedianLine = color.RGBA{44, 160, 44, 255}
	colorHeader     = color.RGBA{242, 242, 242, 255}
)

// palette mirrors the tab10 colors the source styling used for comparisons.
var palette = []color.RGBA{
	{31, 119, 180, 255},
	{255, 127, 14, 255},
	{44, 160, 44, 255},
	{214, 39, 40, 255},
	{148, 103, 189, 255},
	{140, 86, 75, 255},
	{227, 119, 194, 255},
	{127, 127, 127, 255},
	{188, 189, 34, 255},
	{23, 190, 207, 255},
}

func seriesColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

// buildScene lays a plot out onto a fixed-size canvas.
func buildScene(p *plot) *scene {
	s := &scene{width: canvasWidth, height: canvasHeight}
	s.rect(0, 0, canvasWidth, canvasHeight, colorBackground, color.RGBA{}, 0)

	if p.title != "" {
		s.text(canvasWidth/2, 28, p.title, anchorMiddle, colorText, true)
	}
	if p.note != "" {
		s.text(canvasWidth/2, canvasHeight-14, truncate(p.note, 140), anchorMiddle, colorSubtle, false)
	}

	switch p.kind {
	case plotBars:
		s.layoutBars(p)
	case plotLines:
		s.layoutLines(p)
	case plotPie:
		s.layoutPie(p)
	case plotScatter:
		s.layoutScatter(p)
	case plotHistogram:
		s.layoutHistogram(p)
	case plotTable:
		s.layoutTable(p)
	case plotMessage:
		s.text(canvasWidth/2, canvasHeight/2-10, p.message, anchorMiddle, colorText, true)
		if p.subMessage != "" {
			s.text(canvasWidth/2, canvasHeight/2+14, p.subMessage, anchorMiddle, colorSubtle, false)
		}
	}
	return s
}

func (s *scene) plotArea() (x, y, w, h float64) {
	return marginLeft, marginTop, canvasWidth - marginLeft - marginRight, canvasHeight - marginTop - marginBottom
}

// axes draws the plot frame, five horizontal grid lines and their value
// labels for the given value range.
func (s *scene) axes(lo, hi float64, xLabel, yLabel string) {
	px, py, pw, ph := s.plotArea()
	for i := 0; i <= 4; i++ {
		frac := float64(i) / 4
		y := py + ph - frac*ph
		s.line(px, y, px+pw, y, colorGrid, 1)
		s.text(px-8, y+4, formatTick(lo+frac*(hi-lo)), anchorEnd, colorSubtle, false)
	}
	s.line(px, py, px, py+ph, colorAxis, 1.5)
	s.line(px, py+ph, px+pw, py+ph, colorAxis, 1.5)
	if xLabel != "" {
		s.text(px+pw/2, py+ph+52, truncate(xLabel, 40), anchorMiddle, colorText, false)
	}
	if yLabel != "" {
		s.text(14, py+12, truncate(yLabel, 24), anchorStart, colorText, false)
	}
}

// legend draws colored keys for multi-series plots in the top-right corner.
func (s *scene) legend(names []string) {
	if len(names) < 2 {
		return
	}
	px, py, pw, _ := s.plotArea()
	x := px + pw - 150
	y := py + 8
	for i, name := range names {
		s.rect(x, y+float64(i*18), 12, 12, seriesColor(i), color.RGBA{}, 0)
		s.text(x+18, y+float64(i*18)+10, truncate(name, 18), anchorStart, colorText, false)
	}
}

func (s *scene) layoutBars(p *plot) {
	lo, hi := seriesRange(p.series, true)
	px, py, pw, ph := s.plotArea()

	n := len(p.labels)
	k := len(p.series)
	if n == 0 || k == 0 {
		s.text(canvasWidth/2, canvasHeight/2, "No data to visualize", anchorMiddle, colorSubtle, false)
		return
	}

	if p.horizontal {
		s.axesHorizontal(lo, hi, p.yLabel)
		slot := ph / float64(n)
		barH := slot * 0.8 / float64(k)
		for si, ser := range p.series {
			for i, v := range ser.values {
				w := scale(v, lo, hi) * pw
				y := py + float64(i)*slot + slot*0.1 + float64(si)*barH
				s.rect(px, y, w, barH, seriesColor(si), color.RGBA{}, 0)
			}
		}
		step := labelStep(n, int(ph/14))
		for i, label := range p.labels {
			if i%step != 0 {
				continue
			}
			y := py + float64(i)*slot + slot/2 + 4
			s.text(px-8, y, truncate(label, 18), anchorEnd, colorText, false)
		}
	} else {
		s.axes(lo, hi, p.xLabel, p.yLabel)
		slot := pw / float64(n)
		barW := slot * 0.8 / float64(k)
		for si, ser := range p.series {
			for i, v := range ser.values {
				h := scale(v, lo, hi) * ph
				x := px + float64(i)*slot + slot*0.1 + float64(si)*barW
				s.rect(x, py+ph-h, barW, h, seriesColor(si), color.RGBA{}, 0)
			}
		}
		step := labelStep(n, int(pw/70))
		for i, label := range p.labels {
			if i%step != 0 {
				continue
			}
			x := px + float64(i)*slot + slot/2
			s.text(x, py+ph+18, truncate(label, 12), anchorMiddle, colorText, false)
		}
	}

	s.legend(seriesNames(p.series))
}

// axesHorizontal mirrors axes for horizontal bar charts: the value axis runs
// along the bottom.
func (s *scene) axesHorizontal(lo, hi float64, valueLabel string) {
	px, py, pw, ph := s.plotArea()
	for i := 0; i <= 4; i++ {
		frac := float64(i) / 4
		x := px + frac*pw
		s.line(x, py, x, py+ph, colorGrid, 1)
		s.text(x, py+ph+18, formatTick(lo+frac*(hi-lo)), anchorMiddle, colorSubtle, false)
	}
	s.line(px, py, px, py+ph, colorAxis, 1.5)
	s.line(px, py+ph, px+pw, py+ph, colorAxis, 1.5)
	if valueLabel != "" {
		s.text(px+pw/2, py+ph+52, truncate(valueLabel, 40), anchorMiddle, colorText, false)
	}
}

func (s *scene) layoutLines(p *plot) {
	lo, hi := seriesRange(p.series, false)
	s.axes(lo, hi, p.xLabel, p.yLabel)
	px, py, pw, ph := s.plotArea()

	n := len(p.labels)
	if n == 0 {
		return
	}
	stepX := pw
	if n > 1 {
		stepX = pw / float64(n-1)
	}

	for si, ser := range p.series {
		col := seriesColor(si)
		var prev *point
		for i, v := range ser.values {
			x := px + float64(i)*stepX
			y := py + ph - scale(v, lo, hi)*ph
			if prev != nil {
				s.line(prev.x, prev.y, x, y, col, 2)
			}
			if n <= 40 {
				s.circle(x, y, 3, col)
			}
			prev = &point{x, y}
		}
	}

	step := labelStep(n, int(pw/70))
	for i, label := range p.labels {
		if i%step != 0 {
			continue
		}
		x := px + float64(i)*stepX
		s.text(x, py+ph+18, truncate(label, 12), anchorMiddle, colorText, false)
	}
	s.legend(seriesNames(p.series))
}

func (s *scene) layoutPie(p *plot) {
	if len(p.series) == 0 || len(p.series[0].values) == 0 {
		return
	}
	values := p.series[0].values
	total := 0.0
	for _, v := range values {
		total += v
	}

	cx, cy := float64(canvasWidth)/2, float64(canvasHeight)/2+10
	radius := math.Min(float64(canvasWidth), float64(canvasHeight))/2 - 120

	angle := -math.Pi / 2
	for i, v := range values {
		sweep := v / total * 2 * math.Pi
		s.wedge(cx, cy, radius, angle, angle+sweep, seriesColor(i))

		mid := angle + sweep/2
		lx := cx + math.Cos(mid)*(radius+28)
		ly := cy + math.Sin(mid)*(radius+28)
		a := anchorStart
		if math.Cos(mid) < 0 {
			a = anchorEnd
		}
		label := fmt.Sprintf("%s (%.1f%%)", truncate(p.labels[i], 20), v/total*100)
		s.text(lx, ly+4, label, a, colorText, false)

		angle += sweep
	}
}

func (s *scene) layoutScatter(p *plot) {
	loX, hiX := valueRange(p.xs, false)
	loY, hiY := valueRange(p.ys, false)
	s.axes(loY, hiY, p.xLabel, p.yLabel)
	px, py, pw, ph := s.plotArea()

	for i := 0; i <= 4; i++ {
		frac := float64(i) / 4
		x := px + frac*pw
		s.text(x, py+ph+18, formatTick(loX+frac*(hiX-loX)), anchorMiddle, colorSubtle, false)
	}

	col := seriesColor(0)
	for i := range p.xs {
		x := px + scale(p.xs[i], loX, hiX)*pw
		y := py + ph - scale(p.ys[i], loY, hiY)*ph
		s.circle(x, y, 4, col)
	}
}

func (s *scene) layoutHistogram(p *plot) {
	if len(p.binCounts) == 0 {
		return
	}
	_, hi := valueRange(p.binCounts, true)
	s.axes(0, hi, p.xLabel, p.yLabel)
	px, py, pw, ph := s.plotArea()

	loX := p.binEdges[0]
	hiX := p.binEdges[len(p.binEdges)-1]
	for i, count := range p.binCounts {
		x0 := px + scale(p.binEdges[i], loX, hiX)*pw
		x1 := px + scale(p.binEdges[i+1], loX, hiX)*pw
		h := scale(count, 0, hi) * ph
		s.rect(x0, py+ph-h, math.Max(x1-x0-1, 1), h, seriesColor(0), colorBackground, 0.5)
	}

	for i := 0; i <= 4; i++ {
		frac := float64(i) / 4
		x := px + frac*pw
		s.text(x, py+ph+18, formatTick(loX+frac*(hiX-loX)), anchorMiddle, colorSubtle, false)
	}

	if p.hasStats {
		xMean := px + scale(p.mean, loX, hiX)*pw
		xMedian := px + scale(p.median, loX, hiX)*pw
		s.line(xMean, py, xMean, py+ph, colorMeanLine, 1.5)
		s.line(xMedian, py, xMedian, py+ph, colorMedianLine, 1.5)
		s.text(px+pw-4, py+14, fmt.Sprintf("Mean: %.2f", p.mean), anchorEnd, colorMeanLine, false)
		s.text(px+pw-4, py+30, fmt.Sprintf("Median: %.2f", p.median), anchorEnd, colorMedianLine, false)
	}
}

func (s *scene) layoutTable(p *plot) {
	px, py, pw, ph := s.plotArea()
	cols := len(p.headers)
	if cols == 0 {
		return
	}
	rows := len(p.cells) + 1 // plus header row
	cellW := pw / float64(cols)
	cellH := math.Min(34, ph/float64(rows))

	s.rect(px, py, pw, cellH, colorHeader, colorAxis, 1)
	for c, name := range p.headers {
		s.text(px+float64(c)*cellW+cellW/2, py+cellH/2+4, truncate(name, 16), anchorMiddle, colorText, true)
	}
	for r, row := range p.cells {
		y := py + float64(r+1)*cellH
		s.rect(px, y, pw, cellH, colorBackground, colorGrid, 1)
		for c := 0; c < cols && c < len(row); c++ {
			s.text(px+float64(c)*cellW+cellW/2, y+cellH/2+4, truncate(row[c], 16), anchorMiddle, colorText, false)
		}
	}
}

// wedge approximates a pie slice as a polygon so both backends can draw it
// with the same primitive.
func (s *scene) wedge(cx, cy, r, a0, a1 float64, fill color.RGBA) {
	steps := int(math.Max(2, (a1-a0)/(math.Pi/90)))
	pts := make([]point, 0, steps+2)
	pts = append(pts, point{cx, cy})
	for i := 0; i <= steps; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(steps)
		pts = append(pts, point{cx + math.Cos(a)*r, cy + math.Sin(a)*r})
	}
	s.shapes = append(s.shapes, shape{kind: shapePolygon, pts: pts, fill: fill, stroke: colorBackground, strokeWidth: 1})
}

func (s *scene) rect(x, y, w, h float64, fill, stroke color.RGBA, strokeWidth float64) {
	s.shapes = append(s.shapes, shape{kind: shapeRect, x: x, y: y, w: w, h: h, fill: fill, stroke: stroke, strokeWidth: strokeWidth})
}

func (s *scene) line(x1, y1, x2, y2 float64, stroke color.RGBA, width float64) {
	s.shapes = append(s.shapes, shape{kind: shapeLine, x1: x1, y1: y1, x2: x2, y2: y2, stroke: stroke, strokeWidth: width})
}

func (s *scene) circle(x, y, r float64, fill color.RGBA) {
	s.shapes = append(s.shapes, shape{kind: shapeCircle, x: x, y: y, w: r, fill: fill})
}

func (s *scene) text(x, y float64, text string, a anchor, col color.RGBA, bold bool) {
	s.shapes = append(s.shapes, shape{kind: shapeText, x: x, y: y, text: text, anchor: a, fill: col, bold: bold})
}

// seriesRange returns the value range across all series. Bars always include
// zero so bar lengths stay proportional.
func seriesRange(all []series, includeZero bool) (float64, float64) {
	var values []float64
	for _, s := range all {
		values = append(values, s.values...)
	}
	return valueRange(values, includeZero)
}

func valueRange(values []float64, includeZero bool) (float64, float64) {
	if len(values) == 0 {
		return 0, 1
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

func scale(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	f := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, f))
}

// labelStep spaces category labels so at most maxLabels are drawn.
func labelStep(n, maxLabels int) int {
	if maxLabels < 1 {
		maxLabels = 1
	}
	step := (n + maxLabels - 1) / maxLabels
	if step < 1 {
		step = 1
	}
	return step
}

func formatTick(v float64) string {
	if math.Abs(v) >= 1000 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func seriesNames(all []series) []string {
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.name
	}
	return names
}
