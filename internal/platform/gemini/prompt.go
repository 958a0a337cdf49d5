package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/askdb/askdb/internal/datatable"
	"github.com/askdb/askdb/internal/recommend"
	"gonum.org/v1/gonum/stat"
)

const (
	sqlSystemInstruction = "You are an expert SQL query generator that translates natural language " +
		"to precise, efficient SQL queries. You have deep understanding of database structures " +
		"and query optimization."

	summarySystemInstruction = "You provide concise, insightful summaries of database query results."

	chartSystemInstruction = "You are a data visualization expert that provides chart " +
		"recommendations in JSON format only."
)

var sqlPromptTemplate = template.Must(template.New("sql").Parse(`You are an advanced natural language to SQL converter with expertise in SQL. Convert the following question into a precise, efficient SQL query.

Database schema:
{{.Schema}}

Database structure:
{{.Structure}}

{{.History}}Question: {{.Question}}

Identified query type: {{.QueryType}}

{{.Examples}}Important guidelines:
1. Only return the SQL query without any explanation or markdown formatting
2. Do not use backticks or any other formatting
3. Only use SELECT statements or SHOW statements for security
4. Your response should be a valid SQL query that can be executed directly
5. Keep it focused on answering the question with the most efficient query
6. ALWAYS use fully qualified column names (table_name.column_name) in SELECT, JOIN, WHERE, GROUP BY, and ORDER BY clauses when the query involves multiple tables
7. Be particularly careful with JOIN operations to avoid ambiguous column references
8. Use aliases for table names when appropriate to make the query more readable

SQL Query:
`))

var summaryPromptTemplate = template.Must(template.New("summary").Parse(`Analyze the following database query and results:

Natural Language Query: {{.Question}}
SQL Query: {{.SQL}}

Data sample (first 5 rows):
{{.Sample}}

Data statistics:
{{.Stats}}

Total rows returned: {{.RowCount}}

Please provide a concise, meaningful summary of these results in 3-4 sentences.
Focus on key insights, patterns, or notable findings in the data.
`))

var chartPromptTemplate = template.Must(template.New("chart").Parse(`As a data visualization expert, recommend the best chart type for this SQL query result data. Your recommendation will be directly used to generate a visualization:

Query: {{.Question}}
Dataset Size: {{.RowCount}} rows, {{.ColumnCount}} columns

Column information:
{{.ColumnTypes}}

Column statistics:
{{.ColumnStats}}

Sample data:
{{.Sample}}

Detected comparison entities: {{.Entities}}
Years mentioned in query: {{.Years}}

Please provide a recommendation in the following JSON format:
{
    "chart_type": "one of [bar, line, scatter, pie, heatmap, box, histogram, radar, none]",
    "x_axis": "recommended column name for x-axis or null",
    "y_axis": ["recommended column(s) for y-axis or null"],
    "title": "suggested chart title",
    "explanation": "brief explanation of why this chart type is appropriate",
    "color_by": "column to use for color differentiation or null",
    "is_comparison": true/false,
    "comparison_entities": ["entity1", "entity2", "entity3"],
    "chart_orientation": "vertical or horizontal",
    "comparison_type": "entity or time",
    "alternative_charts": [
        {
            "chart_type": "alternative chart type",
            "explanation": "brief explanation why this chart type could also work"
        }
    ]
}

For the alternative_charts field, provide 2-4 alternative chart types that could also work for this data, ranked in order of suitability.

Visualization guidelines:
1. If comparing specific entities, ensure each entity is clearly visible, preferably with a bar chart
2. If comparing years or time periods, use a line chart with time on x-axis to show trends
3. For datasets with >15 rows that aren't comparisons, use a line chart to show trends
4. For entity comparisons with up to 7 items, use vertical bar charts for clearest comparison
5. For entity comparisons with more than 7 items, use horizontal bar charts for better readability
6. For correlation analysis between numeric columns, use scatter plots
7. For part-to-whole relationships with few categories (<8), consider pie charts
8. For multi-dimensional data with multiple metrics, consider radar charts for small datasets
9. Always ensure the visualization clearly answers the intended query question

Only respond with the JSON, no other text. Ensure the x_axis and y_axis values exactly match column names in the data.
`))

// queryType categorizes a question so the prompt can carry targeted few-shot
// examples.
type queryType string

const (
	queryAggregation  queryType = "AGGREGATION"
	queryComparison   queryType = "COMPARISON"
	queryFiltering    queryType = "FILTERING"
	querySorting      queryType = "SORTING"
	queryGrouping     queryType = "GROUPING"
	queryTimeAnalysis queryType = "TIME_ANALYSIS"
	queryListing      queryType = "LISTING"
	queryGeneral      queryType = "GENERAL"
)

var queryTypeCues = []struct {
	kind queryType
	cues []string
}{
	{queryAggregation, []string{"average", "avg", "mean", "sum", "total", "count", "how many"}},
	{queryComparison, []string{"compare", "comparison", "vs", "versus", "difference between"}},
	{queryFiltering, []string{"where", "which", "find", "search", "filter"}},
	{querySorting, []string{"top", "bottom", "highest", "lowest", "best", "worst", "order", "sort", "rank"}},
	{queryGrouping, []string{"group", "by each", "for each", "categorize", "segment"}},
	{queryTimeAnalysis, []string{"trend", "over time", "by year", "by month", "by date", "period"}},
	{queryListing, []string{"show", "list", "display", "all", "view"}},
}

// classifyQuestion determines the query type from cue words, first match
// wins in priority order.
func classifyQuestion(question string) queryType {
	lower := strings.ToLower(question)
	for _, group := range queryTypeCues {
		for _, cue := range group.cues {
			if strings.Contains(lower, cue) {
				return group.kind
			}
		}
	}
	return queryGeneral
}

// schemaTable is one table parsed out of a textual schema description of the
// form "Table: name\nColumns: a (type), b (type)".
type schemaTable struct {
	Name    string
	Columns []string
}

var schemaColumnPattern = regexp.MustCompile(`(\w+)\s*\(`)

func parseSchemaTables(description string) []schemaTable {
	var tables []schemaTable
	for _, line := range strings.Split(description, "\n") {
		switch {
		case strings.HasPrefix(line, "Table:"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "Table:"))
			tables = append(tables, schemaTable{Name: name})
		case len(tables) > 0 && strings.Contains(line, "Columns:"):
			part := line[strings.Index(line, "Columns:")+len("Columns:"):]
			var cols []string
			for _, colInfo := range strings.Split(part, ",") {
				if m := schemaColumnPattern.FindStringSubmatch(colInfo); m != nil {
					cols = append(cols, m[1])
				}
			}
			tables[len(tables)-1].Columns = cols
		}
	}
	return tables
}

// fewShotExamples builds example question/SQL pairs for the identified query
// type using up to two real tables from the schema.
func fewShotExamples(qt queryType, tables []schemaTable) string {
	if len(tables) == 0 {
		return ""
	}
	examples := tables[:min(2, len(tables))]
	cols := func(t schemaTable, n int) []string {
		return t.Columns[:min(n, len(t.Columns))]
	}

	var b strings.Builder
	b.WriteString("Here are a few examples of similar queries:\n\n")
	switch qt {
	case queryAggregation:
		for _, t := range examples {
			c := cols(t, 3)
			if len(c) >= 2 {
				fmt.Fprintf(&b, "Question: What is the average %s for each %s in %s?\n", c[0], c[1], t.Name)
				fmt.Fprintf(&b, "SQL: SELECT %s.%s, AVG(%s.%s) FROM %s GROUP BY %s.%s;\n\n",
					t.Name, c[1], t.Name, c[0], t.Name, t.Name, c[1])
			}
		}
	case queryComparison:
		if len(examples) >= 2 {
			t1, t2 := examples[0], examples[1]
			c1, c2 := cols(t1, 1), cols(t2, 1)
			if len(c1) > 0 && len(c2) > 0 {
				fmt.Fprintf(&b, "Question: Compare the %s between %s and %s\n", c1[0], t1.Name, t2.Name)
				fmt.Fprintf(&b, "SQL: SELECT %s.%s, %s.%s FROM %s JOIN %s ON %s.id = %s.%s_id;\n\n",
					t1.Name, c1[0], t2.Name, c2[0], t1.Name, t2.Name, t1.Name, t2.Name, t1.Name)
			}
		}
	case queryFiltering:
		for _, t := range examples {
			c := cols(t, 1)
			if len(c) > 0 {
				fmt.Fprintf(&b, "Question: Find all %s where %s is greater than 100\n", t.Name, c[0])
				fmt.Fprintf(&b, "SQL: SELECT * FROM %s WHERE %s.%s > 100;\n\n", t.Name, t.Name, c[0])
			}
		}
	case querySorting:
		for _, t := range examples {
			c := cols(t, 1)
			if len(c) > 0 {
				fmt.Fprintf(&b, "Question: Show the top 5 %s by %s\n", t.Name, c[0])
				fmt.Fprintf(&b, "SQL: SELECT * FROM %s ORDER BY %s.%s DESC LIMIT 5;\n\n", t.Name, t.Name, c[0])
			}
		}
	case queryGrouping:
		for _, t := range examples {
			c := cols(t, 1)
			if len(c) > 0 {
				fmt.Fprintf(&b, "Question: Group %s by %s and count them\n", t.Name, c[0])
				fmt.Fprintf(&b, "SQL: SELECT %s.%s, COUNT(*) FROM %s GROUP BY %s.%s;\n\n",
					t.Name, c[0], t.Name, t.Name, c[0])
			}
		}
	case queryTimeAnalysis:
		for _, t := range examples {
			for _, col := range t.Columns {
				lower := strings.ToLower(col)
				if strings.Contains(lower, "date") || strings.Contains(lower, "time") ||
					strings.Contains(lower, "year") || strings.Contains(lower, "month") ||
					strings.Contains(lower, "day") {
					fmt.Fprintf(&b, "Question: Show the trend of records in %s over time\n", t.Name)
					fmt.Fprintf(&b, "SQL: SELECT %s.%s, COUNT(*) FROM %s GROUP BY %s.%s ORDER BY %s.%s;\n\n",
						t.Name, col, t.Name, t.Name, col, t.Name, col)
					return b.String()
				}
			}
		}
	case queryListing:
		for _, t := range examples {
			fmt.Fprintf(&b, "Question: List all %s\n", t.Name)
			fmt.Fprintf(&b, "SQL: SELECT * FROM %s;\n\n", t.Name)
		}
	default:
		for _, t := range examples {
			fmt.Fprintf(&b, "Question: Get information about %s\n", t.Name)
			fmt.Fprintf(&b, "SQL: SELECT * FROM %s LIMIT 10;\n\n", t.Name)
		}
	}
	return b.String()
}

func (g *Generator) buildSQLPrompt(question, schemaDescription string) (string, error) {
	tables := parseSchemaTables(schemaDescription)
	structure := make(map[string][]string, len(tables))
	for _, t := range tables {
		structure[t.Name] = t.Columns
	}
	structureJSON, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling schema structure: %w", err)
	}

	qt := classifyQuestion(question)

	var historyContext strings.Builder
	if entries := g.history.snapshot(); len(entries) > 0 {
		historyContext.WriteString("Here are some recent successful queries for context:\n\n")
		for _, e := range entries {
			fmt.Fprintf(&historyContext, "Question: %s\nSQL: %s\n\n", e.Question, e.SQL)
		}
	}

	var buf strings.Builder
	err = sqlPromptTemplate.Execute(&buf, map[string]any{
		"Schema":    schemaDescription,
		"Structure": string(structureJSON),
		"History":   historyContext.String(),
		"Question":  question,
		"QueryType": string(qt),
		"Examples":  fewShotExamples(qt, tables),
	})
	if err != nil {
		return "", fmt.Errorf("executing SQL prompt template: %w", err)
	}
	return buf.String(), nil
}

func (g *Generator) buildSummaryPrompt(question, sql string, table *datatable.Table) (string, error) {
	var buf strings.Builder
	err := summaryPromptTemplate.Execute(&buf, map[string]any{
		"Question": question,
		"SQL":      sql,
		"Sample":   renderSample(table.Head(5)),
		"Stats":    renderStats(table),
		"RowCount": table.RowCount(),
	})
	if err != nil {
		return "", fmt.Errorf("executing summary prompt template: %w", err)
	}
	return buf.String(), nil
}

func (g *Generator) buildChartPrompt(table *datatable.Table, question string) (string, error) {
	columnTypes := make(map[string]string, table.ColumnCount())
	columnStats := make(map[string]map[string]any, table.ColumnCount())
	for _, col := range table.Columns {
		columnTypes[col.Name] = string(col.Kind)
		columnStats[col.Name] = columnSummary(table, col)
	}
	typesJSON, err := json.Marshal(columnTypes)
	if err != nil {
		return "", fmt.Errorf("marshaling column types: %w", err)
	}
	statsJSON, err := json.Marshal(columnStats)
	if err != nil {
		return "", fmt.Errorf("marshaling column statistics: %w", err)
	}

	entities := strings.Join(recommend.ExtractComparisonEntities(question), ", ")
	if entities == "" {
		entities = "None"
	}
	years := strings.Join(recommend.ExtractYears(question), ", ")
	if years == "" {
		years = "None"
	}

	var buf strings.Builder
	err = chartPromptTemplate.Execute(&buf, map[string]any{
		"Question":    question,
		"RowCount":    table.RowCount(),
		"ColumnCount": table.ColumnCount(),
		"ColumnTypes": string(typesJSON),
		"ColumnStats": string(statsJSON),
		"Sample":      renderSample(table.Head(3)),
		"Entities":    entities,
		"Years":       years,
	})
	if err != nil {
		return "", fmt.Errorf("executing chart prompt template: %w", err)
	}
	return buf.String(), nil
}

// columnSummary produces per-column statistics for the chart prompt: range
// and mean for numeric columns, distinct counts and top values otherwise.
func columnSummary(t *datatable.Table, col datatable.Column) map[string]any {
	if col.Kind == datatable.KindNumeric {
		values := t.FloatColumn(col.Name)
		if len(values) == 0 {
			return map[string]any{"unique_values": 0}
		}
		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		return map[string]any{
			"min":           lo,
			"max":           hi,
			"mean":          stat.Mean(values, nil),
			"unique_values": t.DistinctCount(col.Name),
		}
	}

	top := map[string]int{}
	counts := t.ValueCounts(col.Name)
	for _, vc := range counts[:min(3, len(counts))] {
		top[vc.Value] = vc.Count
	}
	return map[string]any{
		"unique_values":  t.DistinctCount(col.Name),
		"top_categories": top,
	}
}

// renderSample formats rows as aligned text for inclusion in a prompt.
func renderSample(t *datatable.Table) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.ColumnNames(), "\t"))
	b.WriteString("\n")
	for row := 0; row < t.RowCount(); row++ {
		cells := make([]string, t.ColumnCount())
		for col := 0; col < t.ColumnCount(); col++ {
			cells[col] = t.CellString(row, col)
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

// renderStats summarizes each numeric column in one line.
func renderStats(t *datatable.Table) string {
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return "No numeric columns"
	}
	var b strings.Builder
	for _, name := range numeric {
		values := t.FloatColumn(name)
		if len(values) == 0 {
			continue
		}
		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		fmt.Fprintf(&b, "%s: min=%.4g max=%.4g mean=%.4g count=%d\n",
			name, lo, hi, stat.Mean(values, nil), len(values))
	}
	return b.String()
}
