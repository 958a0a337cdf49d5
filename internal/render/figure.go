// Package render turns a tabular result and a chart recommendation into a
// rendered figure. Every chart kind re-validates its own column requirements
// before drawing; a failed kind-specific renderer falls back to a universal
// renderer driven purely by the table's shape, and in the worst case a
// "could not visualize" placeholder is produced. Rendering never returns an
// error to its caller.
package render

import "github.com/askdb/askdb/internal/recommend"

// Figure is a rendered chart in both raster and vector form.
type Figure struct {
	// Kind is the chart kind that was actually drawn, which may differ from
	// the recommendation when a fallback was taken.
	Kind recommend.ChartKind

	// PNG and SVG hold the encoded image bytes.
	PNG []byte
	SVG []byte

	// Fallback is set when the universal fallback renderer produced the
	// figure instead of the recommended kind.
	Fallback bool

	// Placeholder is set when nothing could be visualized and the figure is
	// a textual placeholder.
	Placeholder bool

	// Note carries the human-readable reason for a fallback or placeholder.
	Note string
}
