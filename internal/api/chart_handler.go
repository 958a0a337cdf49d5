package api

import (
	"log/slog"
	"net/http"

	"github.com/askdb/askdb/internal/api/shared"
	"github.com/askdb/askdb/internal/events"
	"github.com/askdb/askdb/internal/orchestrator"
	"github.com/askdb/askdb/internal/recommend"
	"github.com/askdb/askdb/internal/task"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ChartHandler serves rendered figures for completed tasks.
type ChartHandler struct {
	dispatcher *events.Dispatcher
	pipeline   *orchestrator.Orchestrator
	logger     *slog.Logger
}

// NewChartHandler creates a ChartHandler.
func NewChartHandler(dispatcher *events.Dispatcher, pipeline *orchestrator.Orchestrator, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		dispatcher: dispatcher,
		pipeline:   pipeline,
		logger:     logger.With(slog.String("component", "chart_handler")),
	}
}

// GetChart handles GET /api/tasks/{id}/chart. Query parameters: format is
// "png" (default) or "svg"; kind optionally selects one of the recommended
// alternative chart kinds instead of the primary figure.
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	c, ok := h.dispatcher.Latest(id)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No result for this task")
		return
	}
	if c.Status != task.StatusCompleted {
		shared.RespondWithError(w, r, http.StatusConflict,
			"Task is "+string(c.Status)+", no chart available")
		return
	}
	outcome, ok := c.Result.(*orchestrator.Outcome)
	if !ok || outcome.Figure == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task has no chart")
		return
	}

	fig := outcome.Figure
	if kindParam := r.URL.Query().Get("kind"); kindParam != "" {
		fig = h.pipeline.AlternativeFigure(outcome, recommend.ChartKind(kindParam))
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "png":
		h.writeImage(w, r, fig.PNG, "image/png")
	case "svg":
		h.writeImage(w, r, fig.SVG, "image/svg+xml")
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Unsupported format "+format+", use png or svg")
	}
}

func (h *ChartHandler) writeImage(w http.ResponseWriter, r *http.Request, data []byte, contentType string) {
	if len(data) == 0 {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Chart encoding unavailable")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write chart response", slog.String("error", err.Error()))
	}
}
