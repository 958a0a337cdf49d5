package render

import (
	"fmt"
	"log/slog"

	"github.com/askdb/askdb/internal/cache"
	"github.com/askdb/askdb/internal/cachekey"
	"github.com/askdb/askdb/internal/datatable"
	"github.com/askdb/askdb/internal/recommend"
)

// Pipeline renders figures and caches them keyed on result content plus the
// originating query. The cache evicts its oldest entry once full.
type Pipeline struct {
	cache  *cache.Store[*Figure]
	logger *slog.Logger
}

// NewPipeline creates a render pipeline with a bounded figure cache.
func NewPipeline(capacity int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cache:  cache.New[*Figure](capacity),
		logger: logger.With(slog.String("component", "render")),
	}
}

// Render produces a figure for a table and its chart recommendation. It never
// returns an error: empty results and unvisualizable data yield placeholder
// figures, and a builder that cannot honor the recommendation routes through
// the universal fallback.
func (p *Pipeline) Render(t *datatable.Table, rec *recommend.Recommendation, query string) *Figure {
	if t == nil || t.Empty() {
		return p.messageFigure("No data available for visualization", "")
	}

	key := cachekey.Derive(t, query)
	if fig, ok := p.cache.Get(key); ok {
		p.logger.Debug("figure cache hit", slog.String("key", key))
		return fig
	}

	fig := p.render(t, rec)
	p.cache.Put(key, fig)
	return fig
}

// RenderKind renders one of the recommendation's alternative chart kinds for
// the same result. Alternative figures are cached separately from the primary
// figure.
func (p *Pipeline) RenderKind(t *datatable.Table, rec *recommend.Recommendation, query string, kind recommend.ChartKind) *Figure {
	if t == nil || t.Empty() {
		return p.messageFigure("No data available for visualization", "")
	}

	key := cachekey.Derive(t, query) + ":" + string(kind)
	if fig, ok := p.cache.Get(key); ok {
		return fig
	}

	fig := p.render(t, recommend.ForKind(rec, t, kind))
	p.cache.Put(key, fig)
	return fig
}

func (p *Pipeline) render(t *datatable.Table, rec *recommend.Recommendation) (fig *Figure) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("chart rendering panicked", slog.Any("panic", r))
			fig = p.messageFigure("Could not visualize this data",
				"Try a different query with numeric or categorical data")
		}
	}()

	if rec == nil || rec.Kind == recommend.KindNone {
		return p.messageFigure("This data is not suitable for visualization", "")
	}

	pl, err := buildPlot(t, rec)
	var fallback bool
	var note string
	if err != nil {
		p.logger.Info("falling back to universal renderer",
			slog.String("chart_kind", string(rec.Kind)),
			slog.String("reason", err.Error()))
		pl = buildUniversalFallback(t)
		fallback = true
		note = fmt.Sprintf("Could not draw %s chart; showing the data another way", rec.Kind)
		if pl.note == "" {
			pl.note = note
		}
	}

	return p.encode(pl, fallback, note)
}

func (p *Pipeline) messageFigure(message, detail string) *Figure {
	pl := &plot{kind: plotMessage, message: message, subMessage: detail}
	fig := p.encode(pl, false, message)
	return fig
}

// encode draws the plot onto a scene and serializes it through both backends.
// A PNG encoding failure is logged and leaves only the SVG populated.
func (p *Pipeline) encode(pl *plot, fallback bool, note string) *Figure {
	s := buildScene(pl)

	png, err := encodePNG(s)
	if err != nil {
		p.logger.Error("PNG encoding failed", slog.String("error", err.Error()))
		png = nil
	}

	return &Figure{
		Kind:        chartKindOf(pl.kind),
		PNG:         png,
		SVG:         encodeSVG(s),
		Fallback:    fallback,
		Placeholder: pl.kind == plotMessage,
		Note:        note,
	}
}

// chartKindOf maps the internal drawing model back to the recommendation
// vocabulary. Table and message plots have no chart kind of their own.
func chartKindOf(k plotKind) recommend.ChartKind {
	switch k {
	case plotBars:
		return recommend.KindBar
	case plotLines:
		return recommend.KindLine
	case plotPie:
		return recommend.KindPie
	case plotScatter:
		return recommend.KindScatter
	case plotHistogram:
		return recommend.KindHistogram
	default:
		return recommend.KindNone
	}
}
