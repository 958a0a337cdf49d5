// Package orchestrator runs the full question-to-figure pipeline: schema
// lookup, SQL generation, safety validation, execution, summarization, chart
// recommendation, and rendering. The first four stages abort the run on
// failure; summarization and visualization degrade instead.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/askdb/askdb/internal/datatable"
	"github.com/askdb/askdb/internal/generation"
	"github.com/askdb/askdb/internal/recommend"
	"github.com/askdb/askdb/internal/render"
	"github.com/askdb/askdb/internal/sqlcheck"
	"github.com/askdb/askdb/internal/task"
)

// Database is the query execution surface the orchestrator needs.
type Database interface {
	SchemaDescription(ctx context.Context) (string, sqlcheck.Schema, error)
	Query(ctx context.Context, sql string) (*datatable.Table, error)
}

// Outcome is the complete result of one pipeline run.
type Outcome struct {
	Question       string
	SQL            string
	Table          *datatable.Table
	Summary        string
	Recommendation *recommend.Recommendation
	Figure         *render.Figure
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	db          Database
	generator   generation.SQLGenerator
	summarizer  generation.Summarizer
	recommender *recommend.Recommender
	renderer    *render.Pipeline
	logger      *slog.Logger
}

// New creates an orchestrator from its stage implementations.
func New(
	db Database,
	generator generation.SQLGenerator,
	summarizer generation.Summarizer,
	recommender *recommend.Recommender,
	renderer *render.Pipeline,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		db:          db,
		generator:   generator,
		summarizer:  summarizer,
		recommender: recommender,
		renderer:    renderer,
		logger:      logger.With(slog.String("component", "orchestrator")),
	}
}

// Process answers one natural-language question end to end.
// ErrNoGenerator is returned when the pipeline runs without a configured
// SQL generation backend.
var ErrNoGenerator = errors.New("no SQL generation backend configured")

func (o *Orchestrator) Process(ctx context.Context, question string) (*Outcome, error) {
	if o.generator == nil {
		return nil, ErrNoGenerator
	}

	schemaText, schema, err := o.db.SchemaDescription(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading database schema: %w", err)
	}

	sql, err := o.generator.GenerateSQL(ctx, question, schemaText)
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	sql = sqlcheck.QualifyAmbiguousColumns(sql, schema, o.logger)

	if err := sqlcheck.Validate(sql); err != nil {
		o.logger.Warn("generated SQL rejected",
			slog.String("question", question),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("validating SQL: %w", err)
	}

	table, err := o.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("executing SQL: %w", err)
	}

	outcome := &Outcome{
		Question: question,
		SQL:      sql,
		Table:    table,
	}

	// Summaries degrade: a failed summary is reported inline, never as a
	// pipeline failure.
	summary, err := o.summarizer.Summarize(ctx, question, sql, table)
	if err != nil {
		o.logger.Warn("summary generation failed", slog.String("error", err.Error()))
		outcome.Summary = fmt.Sprintf("Could not generate summary: %v", err)
	} else {
		outcome.Summary = summary
	}

	outcome.Recommendation = o.recommender.Recommend(ctx, table, question)
	outcome.Figure = o.renderer.Render(table, outcome.Recommendation, question)

	o.logger.Info("pipeline run completed",
		slog.String("question", question),
		slog.Int("rows", table.RowCount()),
		slog.String("chart_kind", string(outcome.Recommendation.Kind)))
	return outcome, nil
}

// TaskFunc adapts a question into a task body for the background workers.
func (o *Orchestrator) TaskFunc(question string) task.Func {
	return func(ctx context.Context) (any, error) {
		return o.Process(ctx, question)
	}
}

// AlternativeFigure renders one of an outcome's alternative chart kinds.
func (o *Orchestrator) AlternativeFigure(outcome *Outcome, kind recommend.ChartKind) *render.Figure {
	return o.renderer.RenderKind(outcome.Table, outcome.Recommendation, outcome.Question, kind)
}
