package handlers

import (
	"net/http"
	"strconv"
)

// IndexHandler serves the single page front end.
type IndexHandler struct {
	page []byte
}

// NewIndexHandler creates a new IndexHandler for the given HTML page.
func NewIndexHandler(page string) *IndexHandler {
	return &IndexHandler{page: []byte(page)}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Length", strconv.Itoa(len(h.page)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(h.page)
	}
}
