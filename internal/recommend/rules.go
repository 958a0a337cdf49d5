package recommend

import (
	"regexp"
	"strings"

	"github.com/askdb/askdb/internal/datatable"
)

// Lexical cues used to decide whether a question is asking for a comparison.
var comparisonCues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)compare|comparison|versus|vs\.?|difference|between`),
	regexp.MustCompile(`(?i)which (is|are) (better|worse|higher|lower|more|less)`),
	regexp.MustCompile(`(?i)highest|lowest|most|least`),
}

var correlationCue = regexp.MustCompile(`(?i)correlat|relationship between`)

var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)compare\s+([^.?!]+)`),
	regexp.MustCompile(`(?i)comparison\s+(?:of|between)\s+([^.?!]+)`),
	regexp.MustCompile(`(?i)([^.?!]+?)\s+(?:vs\.?|versus)\s+([^.?!]+)`),
}

var entitySeparator = regexp.MustCompile(`(?i),|\band\b|&|\+|\bvs\.?\b|\bversus\b`)

var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`),
	regexp.MustCompile(`(?i)year\s+(\d{4})`),
	regexp.MustCompile(`(?i)in\s+(\d{4})`),
	regexp.MustCompile(`(?i)for\s+(\d{4})`),
}

// maxPieCategories is the largest category count for which a pie chart stays
// readable.
const maxPieCategories = 8

// RuleBased produces a deterministic chart recommendation from the table's
// column structure and lexical cues in the question. It is the fallback used
// whenever no AI backend is configured or the AI path fails, and it never
// selects a chart kind that needs numeric axes when the table has none.
func RuleBased(table *datatable.Table, question string) *Recommendation {
	rec := &Recommendation{
		Kind:        KindNone,
		Title:       "Data Visualization",
		Explanation: "Default visualization based on data structure",
		Orientation: OrientationVertical,
	}

	if table == nil || table.Empty() {
		return rec
	}

	numeric := table.NumericColumns()
	categorical := table.CategoricalColumns()
	datetimes := table.DatetimeColumns()

	entities := ExtractComparisonEntities(question)
	years := ExtractYears(question)

	isComparison := len(entities) > 0 || len(years) > 0
	if !isComparison {
		for _, cue := range comparisonCues {
			if cue.MatchString(question) {
				isComparison = true
				break
			}
		}
	}
	rec.IsComparison = isComparison
	rec.ComparisonEntities = entities
	if len(rec.ComparisonEntities) > 10 {
		rec.ComparisonEntities = rec.ComparisonEntities[:10]
	}
	switch {
	case len(years) > 0:
		rec.ComparisonType = ComparisonTime
	case len(entities) > 0:
		rec.ComparisonType = ComparisonEntity
	}

	switch {
	// Explicit entity comparison reads best as a bar chart.
	case len(entities) > 0 && len(numeric) > 0 && len(categorical) > 0:
		rec.Kind = KindBar
		rec.XAxis = categorical[0]
		rec.YAxis = firstN(numeric, 3)
		if table.DistinctCount(rec.XAxis) > 7 {
			rec.Orientation = OrientationHorizontal
		}
		rec.Explanation = "Bar chart chosen to compare the requested entities side by side"

	// An explicit correlation question between two numeric columns.
	case correlationCue.MatchString(question) && len(numeric) >= 2:
		rec.Kind = KindScatter
		rec.XAxis = numeric[0]
		rec.YAxis = []string{numeric[1]}
		rec.Explanation = "Scatter plot chosen to show the relationship between two numeric columns"

	// A time axis with numeric values is a trend.
	case (len(datetimes) > 0 || len(years) > 0) && len(numeric) > 0:
		rec.Kind = KindLine
		if len(datetimes) > 0 {
			rec.XAxis = datetimes[0]
		} else if len(categorical) > 0 {
			rec.XAxis = categorical[0]
		} else {
			rec.XAxis = table.Columns[0].Name
		}
		rec.YAxis = firstN(numeric, 3)
		rec.Explanation = "Line chart chosen to show the trend over time"

	// Large numeric tables without categories read as a trend over rows.
	case table.RowCount() > 15 && len(numeric) > 0 && len(categorical) == 0:
		rec.Kind = KindLine
		rec.XAxis = table.Columns[0].Name
		rec.YAxis = firstN(numeric, 3)
		rec.Explanation = "Line chart chosen to show the trend across a large result"

	// Few categories with a numeric value: part-to-whole.
	case len(categorical) > 0 && len(numeric) > 0 && table.DistinctCount(categorical[0]) < maxPieCategories:
		rec.Kind = KindPie
		rec.XAxis = categorical[0]
		rec.YAxis = numeric[:1]
		rec.Explanation = "Pie chart chosen for a small number of categories"

	// Many categories with a numeric value: horizontal bars stay readable.
	case len(categorical) > 0 && len(numeric) > 0:
		rec.Kind = KindBar
		rec.Orientation = OrientationHorizontal
		rec.XAxis = categorical[0]
		rec.YAxis = numeric[:1]
		rec.Explanation = "Horizontal bar chart chosen for readability with many categories"

	// Numeric only: plot values in row order.
	case len(numeric) > 0:
		rec.Kind = KindLine
		rec.XAxis = table.Columns[0].Name
		rec.YAxis = firstN(numeric, 3)
		rec.Explanation = "Line chart of numeric values in result order"

	// No numeric columns at all: frequency of the first categorical column.
	case len(categorical) > 0:
		rec.Kind = KindBar
		rec.XAxis = categorical[0]
		rec.Explanation = "Frequency chart of categorical values"
		if table.DistinctCount(rec.XAxis) > 7 {
			rec.Orientation = OrientationHorizontal
		}
	}

	rec.Alternatives = ruleAlternatives(rec.Kind, numeric, categorical)
	return rec
}

// ruleAlternatives offers a small ranked set of other kinds that the data
// shape supports.
func ruleAlternatives(chosen ChartKind, numeric, categorical []string) []Alternative {
	var alts []Alternative
	add := func(kind ChartKind, why string) {
		if kind == chosen {
			return
		}
		alts = append(alts, Alternative{Kind: kind, Explanation: why})
	}

	if len(categorical) > 0 && len(numeric) > 0 {
		add(KindBar, "Bars compare values across categories directly")
		add(KindPie, "A pie shows each category's share of the whole")
		add(KindLine, "A line reveals ordering effects across categories")
	}
	if len(numeric) >= 2 {
		add(KindScatter, "A scatter plot exposes the relationship between two measures")
	}
	if len(numeric) >= 1 {
		add(KindHistogram, "A histogram shows the distribution of a numeric column")
	}
	if len(alts) > 4 {
		alts = alts[:4]
	}
	return alts
}

// ExtractComparisonEntities pulls candidate comparison entities out of
// phrases like "compare X, Y and Z" or "X vs Y". Results are de-duplicated
// and order-preserving.
func ExtractComparisonEntities(question string) []string {
	if question == "" {
		return nil
	}

	var entities []string
	for _, pattern := range entityPatterns {
		for _, match := range pattern.FindAllStringSubmatch(question, -1) {
			for _, group := range match[1:] {
				for _, part := range entitySeparator.Split(group, -1) {
					if p := strings.TrimSpace(part); p != "" {
						entities = append(entities, p)
					}
				}
			}
		}
	}
	return dedupe(entities)
}

// ExtractYears finds four-digit years (1900–2099) mentioned in the question.
func ExtractYears(question string) []string {
	if question == "" {
		return nil
	}
	var years []string
	for _, pattern := range yearPatterns {
		for _, match := range pattern.FindAllStringSubmatch(question, -1) {
			years = append(years, match[1])
		}
	}
	return dedupe(years)
}

func firstN(values []string, n int) []string {
	return values[:min(n, len(values))]
}
