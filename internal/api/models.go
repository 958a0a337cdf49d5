// Package api exposes the HTTP surface of the query pipeline: submitting
// questions, polling task state, cancelling pending tasks, and fetching
// rendered charts.
package api

import (
	"time"

	"github.com/askdb/askdb/internal/orchestrator"
	"github.com/askdb/askdb/internal/recommend"
)

// SubmitQueryRequest is the body of POST /api/queries.
type SubmitQueryRequest struct {
	Question string `json:"question" validate:"required,min=1,max=2000"`
}

// SubmitQueryResponse acknowledges an accepted query.
type SubmitQueryResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// TaskResponse describes the state of one task. Result is populated only for
// completed tasks, Error only for failed ones.
type TaskResponse struct {
	TaskID     string       `json:"task_id"`
	Status     string       `json:"status"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Result     *QueryResult `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// QueryResult is the JSON form of a completed pipeline run. Chart images are
// served separately by the chart endpoint; FigureNote explains any fallback
// the renderer took.
type QueryResult struct {
	Question       string                    `json:"question"`
	SQL            string                    `json:"sql"`
	Summary        string                    `json:"summary"`
	RowCount       int                       `json:"row_count"`
	Columns        []ResultColumn            `json:"columns"`
	Rows           [][]any                   `json:"rows"`
	Recommendation *recommend.Recommendation `json:"recommendation,omitempty"`
	ChartKind      string                    `json:"chart_kind"`
	ChartFallback  bool                      `json:"chart_fallback"`
	FigureNote     string                    `json:"figure_note,omitempty"`
}

// ResultColumn is one column of a query result.
type ResultColumn struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// maxResponseRows caps how many rows are inlined into a task response.
const maxResponseRows = 1000

func queryResultOf(outcome *orchestrator.Outcome) *QueryResult {
	res := &QueryResult{
		Question:       outcome.Question,
		SQL:            outcome.SQL,
		Summary:        outcome.Summary,
		RowCount:       outcome.Table.RowCount(),
		Recommendation: outcome.Recommendation,
	}
	if outcome.Figure != nil {
		res.ChartKind = string(outcome.Figure.Kind)
		res.ChartFallback = outcome.Figure.Fallback
		res.FigureNote = outcome.Figure.Note
	}
	for _, col := range outcome.Table.Columns {
		res.Columns = append(res.Columns, ResultColumn{Name: col.Name, Kind: string(col.Kind)})
	}
	rows := outcome.Table.Rows
	if len(rows) > maxResponseRows {
		rows = rows[:maxResponseRows]
	}
	res.Rows = rows
	return res
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	LLM      string `json:"llm"`
}
