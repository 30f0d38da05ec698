package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/retrieval"
)

// KnowledgeBase reports on the loaded legal corpus.
type KnowledgeBase interface {
	Stats(ctx context.Context) retrieval.Stats
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	kb            KnowledgeBase
	webSearch     bool
	llmConfigured bool
	now           func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(kb KnowledgeBase, webSearch, llmConfigured bool) *HealthHandler {
	return &HealthHandler{
		kb:            kb,
		webSearch:     webSearch,
		llmConfigured: llmConfigured,
		now:           time.Now,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "degraded"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Knowledge base section statistics
	KnowledgeBase retrieval.Stats `json:"knowledge_base"`

	// List of issues (only present if status is degraded)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP reports the state of the knowledge base and the optional collaborators.
//
// An empty knowledge base degrades the service but does not take it down: answers still come from
// web search, so the response is 200 either way.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	stats := h.kb.Stats(ctx)
	checks := make(map[string]string)
	var issues []string

	if stats.Sections > 0 {
		checks["knowledge_base"] = "ok"
	} else {
		checks["knowledge_base"] = "empty"
		issues = append(issues, "knowledge_base_empty")
	}

	checks["web_search"] = "disabled"
	if h.webSearch {
		checks["web_search"] = "enabled"
	}
	checks["llm"] = "offline"
	if h.llmConfigured {
		checks["llm"] = "configured"
	}

	status := "healthy"
	if len(issues) > 0 {
		status = "degraded"
	}

	response := HealthResponse{
		Status:        status,
		Timestamp:     h.now().UTC().Format(time.RFC3339),
		Checks:        checks,
		KnowledgeBase: stats,
		Issues:        issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
