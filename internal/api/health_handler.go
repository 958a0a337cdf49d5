package api

import (
	"context"
	"net/http"

	"github.com/askdb/askdb/internal/api/shared"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	db         Pinger
	llmEnabled bool
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db Pinger, llmEnabled bool) *HealthHandler {
	return &HealthHandler{db: db, llmEnabled: llmEnabled}
}

// Health reports overall service health. A down database degrades status but
// answers 200 so load balancers can still read the detail.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "up", LLM: "configured"}
	if err := h.db.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "down"
	}
	if !h.llmEnabled {
		resp.LLM = "not configured"
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
