package handlers

import (
	"net/http"
	"strconv"

	"nyaymitra/internal/contextutil"
	"nyaymitra/internal/retrieval"
	"nyaymitra/internal/service"
)

// RetrieveResponse is the raw retrieval result for a query.
type RetrieveResponse struct {
	Query     string           `json:"query"`
	K         int              `json:"k"`
	Type      retrieval.Type   `json:"type"`
	Documents retrieval.Result `json:"documents"`
}

// RetrieveHandler exposes knowledge base retrieval for debugging and tuning.
type RetrieveHandler struct {
	retriever service.Retriever
}

// NewRetrieveHandler creates a new RetrieveHandler.
func NewRetrieveHandler(retriever service.Retriever) *RetrieveHandler {
	return &RetrieveHandler{retriever: retriever}
}

func (h *RetrieveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid k", "k", raw)
			writeError(w, http.StatusBadRequest, "k must be an integer")
			return
		}
		k = n
	}

	result := h.retriever.Retrieve(ctx, query, k)
	if k <= 0 {
		k = retrieval.DefaultK
	}
	writeJSON(ctx, w, http.StatusOK, RetrieveResponse{
		Query:     query,
		K:         k,
		Type:      result.Type(),
		Documents: result,
	})
}
