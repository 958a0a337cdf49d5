// Package recommend chooses a chart for a tabular result, preferring an AI
// recommendation with a deterministic rule-based fallback. Recommendations
// are cached by content-derived key; no path out of this package returns an
// error to a caller.
package recommend

import (
	"fmt"
	"strings"
)

// ChartKind identifies a chart type in the recommendation vocabulary. Kinds
// the render pipeline does not support directly route to its universal
// fallback.
type ChartKind string

const (
	KindBar       ChartKind = "bar"
	KindLine      ChartKind = "line"
	KindScatter   ChartKind = "scatter"
	KindPie       ChartKind = "pie"
	KindHeatmap   ChartKind = "heatmap"
	KindBox       ChartKind = "box"
	KindHistogram ChartKind = "histogram"
	KindRadar     ChartKind = "radar"
	KindNone      ChartKind = "none"
)

// Chart orientations.
const (
	OrientationVertical   = "vertical"
	OrientationHorizontal = "horizontal"
)

// Comparison types.
const (
	ComparisonEntity = "entity"
	ComparisonTime   = "time"
)

// Alternative is a ranked alternative chart kind with its rationale.
type Alternative struct {
	Kind        ChartKind `json:"chart_type"`
	Explanation string    `json:"explanation"`
}

// Recommendation describes which chart to draw and how. Produced here,
// consumed read-only by the render pipeline.
type Recommendation struct {
	Kind               ChartKind     `json:"chart_type"`
	XAxis              string        `json:"x_axis"`
	YAxis              []string      `json:"y_axis"`
	ColorBy            string        `json:"color_by"`
	Title              string        `json:"title"`
	Explanation        string        `json:"explanation"`
	IsComparison       bool          `json:"is_comparison"`
	ComparisonEntities []string      `json:"comparison_entities"`
	ComparisonType     string        `json:"comparison_type"`
	Orientation        string        `json:"chart_orientation"`
	Alternatives       []Alternative `json:"alternative_charts"`
}

// defaultTitle builds a title from the chart kind and axes when the source
// recommendation carries none.
func (r *Recommendation) defaultTitle() string {
	kind := capitalize(string(r.Kind))
	x := r.XAxis
	if x == "" {
		x = "Data"
	}
	if len(r.YAxis) > 0 {
		limit := min(3, len(r.YAxis))
		return fmt.Sprintf("%s Chart of %s vs. %s", kind, x, strings.Join(r.YAxis[:limit], ", "))
	}
	return fmt.Sprintf("%s Chart of %s", kind, x)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
