package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/askdb/askdb/internal/api/shared"
	"github.com/askdb/askdb/internal/events"
	"github.com/askdb/askdb/internal/orchestrator"
	"github.com/askdb/askdb/internal/task"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// QueryHandler handles query submission and task lifecycle requests.
type QueryHandler struct {
	registry   *task.Registry
	dispatcher *events.Dispatcher
	pipeline   *orchestrator.Orchestrator
	llmEnabled bool
	logger     *slog.Logger
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(
	registry *task.Registry,
	dispatcher *events.Dispatcher,
	pipeline *orchestrator.Orchestrator,
	llmEnabled bool,
	logger *slog.Logger,
) *QueryHandler {
	return &QueryHandler{
		registry:   registry,
		dispatcher: dispatcher,
		pipeline:   pipeline,
		llmEnabled: llmEnabled,
		logger:     logger.With(slog.String("component", "query_handler")),
	}
}

// SubmitQuery handles POST /api/queries. The question is validated, wrapped
// in a task, and queued; processing happens on the worker pool.
func (h *QueryHandler) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	if !h.llmEnabled {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable,
			"SQL generation is unavailable: no LLM API key is configured")
		return
	}

	var req SubmitQueryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	id, err := h.registry.Submit(h.pipeline.TaskFunc(req.Question), h.dispatcher.Callback())
	if err != nil {
		switch {
		case errors.Is(err, task.ErrQueueFull):
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
				"Too many queued queries, try again shortly", err)
		case errors.Is(err, task.ErrQueueClosed):
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
				"Server is shutting down", err)
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to submit query", err)
		}
		return
	}

	h.logger.Info("query submitted",
		slog.String("task_id", id.String()),
		slog.Int("question_length", len(req.Question)))
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitQueryResponse{
		TaskID: id.String(),
		Status: string(task.StatusPending),
	})
}

// GetTask handles GET /api/tasks/{id}.
func (h *QueryHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	t, found := h.registry.Get(id)
	if !found {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown task")
		return
	}

	resp := TaskResponse{
		TaskID: id.String(),
		Status: string(t.Status()),
	}

	if c, ok := h.dispatcher.Latest(id); ok {
		resp.Status = string(c.Status)
		if !c.FinishedAt.IsZero() {
			finished := c.FinishedAt
			resp.FinishedAt = &finished
		}
		resp.Error = c.Err
		if outcome, ok := c.Result.(*orchestrator.Outcome); ok {
			resp.Result = queryResultOf(outcome)
		}
	} else if st := t.Status(); st == task.StatusCompleted || st == task.StatusFailed {
		// The worker has finished but the dispatcher has not applied the
		// completion yet. Report running so a poller never sees a terminal
		// status without its result.
		resp.Status = string(task.StatusRunning)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CancelTask handles DELETE /api/tasks/{id}. Only tasks still waiting in the
// queue can be cancelled; running tasks finish on their own.
func (h *QueryHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	t, found := h.registry.Get(id)
	if !found {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown task")
		return
	}

	if !h.registry.Cancel(id) {
		shared.RespondWithError(w, r, http.StatusConflict,
			"Task is "+string(t.Status())+" and can no longer be cancelled")
		return
	}

	h.logger.Info("task cancelled", slog.String("task_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{
		TaskID: id.String(),
		Status: string(task.StatusCancelled),
	})
}

func (h *QueryHandler) taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}
