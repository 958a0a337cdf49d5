package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/datatable"
	"github.com/askdb/askdb/internal/generation"
	"github.com/askdb/askdb/internal/recommend"
	"google.golang.org/genai"
)

// Generator implements generation.SQLGenerator, generation.Summarizer, and
// recommend.Advisor against the Gemini API.
type Generator struct {
	logger  *slog.Logger
	config  config.LLMConfig
	client  *genai.Client
	model   string
	history *history
}

// NewGenerator creates a Generator with the provided dependencies.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:  logger.With(slog.String("component", "gemini")),
		config:  cfg,
		client:  client,
		model:   cfg.ModelName,
		history: newHistory(maxHistoryEntries),
	}, nil
}

// GenerateSQL converts a natural-language question into a single SQL
// statement. Successful generations feed the question/SQL history that gives
// later prompts conversational context.
func (g *Generator) GenerateSQL(ctx context.Context, question, schemaDescription string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question cannot be empty", generation.ErrGenerationFailed)
	}

	prompt, err := g.buildSQLPrompt(question, schemaDescription)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := g.callWithRetry(ctx, sqlSystemInstruction, prompt, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 512,
	})
	if err != nil {
		return "", err
	}

	sql := CleanSQL(text)
	if sql == "" {
		return "", fmt.Errorf("%w: model returned no SQL", generation.ErrInvalidResponse)
	}

	g.history.add(question, sql)
	g.logger.DebugContext(ctx, "generated SQL",
		slog.String("query_type", string(classifyQuestion(question))),
		slog.Int("sql_length", len(sql)))
	return sql, nil
}

// Summarize produces a 3-4 sentence natural-language summary of a query
// result. An empty table short-circuits without an API call.
func (g *Generator) Summarize(ctx context.Context, question, sql string, table *datatable.Table) (string, error) {
	if table == nil || table.Empty() {
		return "No data found for your query.", nil
	}

	prompt, err := g.buildSummaryPrompt(question, sql, table)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := g.callWithRetry(ctx, summarySystemInstruction, prompt, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.5),
		MaxOutputTokens: 400,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// AdviseChart asks the model which chart fits the result. The response must
// be a single JSON object matching the recommendation schema; anything else
// is ErrInvalidResponse, which the recommender treats as a signal to use its
// rule-based fallback.
func (g *Generator) AdviseChart(ctx context.Context, table *datatable.Table, question string) (*recommend.Recommendation, error) {
	if table == nil || table.Empty() {
		return nil, fmt.Errorf("%w: no data to advise on", generation.ErrGenerationFailed)
	}

	prompt, err := g.buildChartPrompt(table, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := g.callWithRetry(ctx, chartSystemInstruction, prompt, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		MaxOutputTokens:  800,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var rec recommend.Recommendation
	if err := json.Unmarshal([]byte(stripJSONFences(text)), &rec); err != nil {
		return nil, fmt.Errorf("%w: failed to parse chart recommendation: %v",
			generation.ErrInvalidResponse, err)
	}
	return &rec, nil
}

// stripJSONFences removes a markdown code fence around a JSON payload, which
// some model responses include despite instructions.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
