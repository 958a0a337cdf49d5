package recommend

import (
	"context"
	"log/slog"

	"github.com/askdb/askdb/internal/cache"
	"github.com/askdb/askdb/internal/cachekey"
	"github.com/askdb/askdb/internal/datatable"
)

// Advisor is the AI collaborator producing chart recommendations. A nil
// Advisor on the Recommender means no AI backend is configured and the
// rule-based path is always used.
type Advisor interface {
	AdviseChart(ctx context.Context, table *datatable.Table, question string) (*Recommendation, error)
}

// Recommender produces chart recommendations with caching and graceful
// degradation: AI first, deterministic rules on any failure.
type Recommender struct {
	advisor Advisor
	cache   *cache.Store[*Recommendation]
	logger  *slog.Logger
}

// NewRecommender creates a recommender. advisor may be nil; cacheCapacity
// bounds the recommendation cache entry count.
func NewRecommender(advisor Advisor, cacheCapacity int, logger *slog.Logger) *Recommender {
	return &Recommender{
		advisor: advisor,
		cache:   cache.New[*Recommendation](cacheCapacity),
		logger:  logger.With("component", "chart_recommender"),
	}
}

// Recommend returns a chart recommendation for the table and question. It
// never fails: AI errors, validation problems and unconfigured backends all
// degrade to the rule-based fallback. The result is cached under the
// content-derived key of the (table, question) pair.
func (r *Recommender) Recommend(ctx context.Context, table *datatable.Table, question string) *Recommendation {
	key := cachekey.Derive(table, question)
	if rec, ok := r.cache.Get(key); ok {
		r.logger.Debug("recommendation cache hit", "cache_key", shortKey(key))
		return rec
	}

	rec := r.produce(ctx, table, question)
	r.validate(rec, table)
	r.cache.Put(key, rec)

	r.logger.Info("chart recommended",
		"chart_type", rec.Kind,
		"is_comparison", rec.IsComparison,
		"cache_key", shortKey(key))
	return rec
}

func (r *Recommender) produce(ctx context.Context, table *datatable.Table, question string) *Recommendation {
	if r.advisor == nil {
		return RuleBased(table, question)
	}

	rec, err := r.advisor.AdviseChart(ctx, table, question)
	if err != nil || rec == nil {
		r.logger.Warn("AI chart recommendation failed, using rule-based fallback", "error", err)
		return RuleBased(table, question)
	}
	return rec
}

// validate repairs a recommendation in place so the render pipeline never
// receives references to columns the table does not have.
func (r *Recommender) validate(rec *Recommendation, table *datatable.Table) {
	if rec.Kind == "" {
		rec.Kind = KindBar
	}

	if rec.XAxis != "" && !table.HasColumn(rec.XAxis) {
		rec.XAxis = ""
		if table.ColumnCount() > 0 {
			rec.XAxis = table.Columns[0].Name
		}
	}

	if len(rec.YAxis) > 0 {
		kept := rec.YAxis[:0]
		for _, col := range rec.YAxis {
			if table.HasColumn(col) {
				kept = append(kept, col)
			}
		}
		rec.YAxis = kept
		if len(rec.YAxis) == 0 && table.ColumnCount() > 1 {
			numeric := table.NumericColumns()
			rec.YAxis = numeric[:min(3, len(numeric))]
		}
	}

	if rec.ColorBy != "" && !table.HasColumn(rec.ColorBy) {
		rec.ColorBy = ""
	}

	// Comparison without named entities: lift distinct values off the
	// categorical axis when there are few enough to be meaningful.
	if rec.IsComparison && len(rec.ComparisonEntities) == 0 && rec.XAxis != "" {
		if table.DistinctCount(rec.XAxis) <= 10 {
			for _, vc := range table.ValueCounts(rec.XAxis) {
				rec.ComparisonEntities = append(rec.ComparisonEntities, vc.Value)
			}
		}
	}
	rec.ComparisonEntities = dedupe(rec.ComparisonEntities)
	if len(rec.ComparisonEntities) > 10 {
		rec.ComparisonEntities = rec.ComparisonEntities[:10]
	}

	if rec.Kind == KindBar && rec.Orientation == "" && rec.XAxis != "" {
		if table.DistinctCount(rec.XAxis) > 6 {
			rec.Orientation = OrientationHorizontal
		} else {
			rec.Orientation = OrientationVertical
		}
	}
	if rec.Orientation == "" {
		rec.Orientation = OrientationVertical
	}

	if rec.Title == "" {
		rec.Title = rec.defaultTitle()
	}
}

func shortKey(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
