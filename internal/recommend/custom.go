package recommend

import (
	"fmt"

	"github.com/askdb/askdb/internal/datatable"
)

// ForKind derives a recommendation for a specific chart kind from an existing
// base recommendation, used when the caller asks to render one of the ranked
// alternatives. Kind-specific column constraints are reapplied: a pie keeps a
// single value column and a scatter needs two numeric columns.
func ForKind(base *Recommendation, table *datatable.Table, kind ChartKind) *Recommendation {
	custom := &Recommendation{
		Kind:               kind,
		XAxis:              base.XAxis,
		YAxis:              append([]string(nil), base.YAxis...),
		ColorBy:            base.ColorBy,
		Title:              fmt.Sprintf("%s Chart of %s", capitalize(string(kind)), baseTitle(base)),
		Explanation:        base.Explanation,
		IsComparison:       base.IsComparison,
		ComparisonEntities: append([]string(nil), base.ComparisonEntities...),
		ComparisonType:     base.ComparisonType,
		Orientation:        OrientationVertical,
	}
	if kind == KindBar {
		custom.Orientation = base.Orientation
	}

	// Prefer the ranked alternative's own rationale when one exists.
	for _, alt := range base.Alternatives {
		if alt.Kind == kind && alt.Explanation != "" {
			custom.Explanation = alt.Explanation
			break
		}
	}

	if kind == KindPie && len(custom.YAxis) > 1 {
		custom.YAxis = custom.YAxis[:1]
	}

	if kind == KindScatter {
		numeric := table.NumericColumns()
		if len(numeric) >= 2 {
			if !contains(numeric, custom.XAxis) {
				custom.XAxis = numeric[0]
			}
			custom.YAxis = nil
			for _, col := range numeric {
				if col != custom.XAxis {
					custom.YAxis = []string{col}
					break
				}
			}
		}
	}

	return custom
}

func baseTitle(base *Recommendation) string {
	if base.Title != "" {
		return base.Title
	}
	return "Data"
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
