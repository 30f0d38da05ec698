package handlers

import "net/http"

// MapsKeyResponse carries the browser key for the map widget.
type MapsKeyResponse struct {
	Key string `json:"key"`
}

// MapsKeyHandler hands the configured Google Maps key to the page.
type MapsKeyHandler struct {
	key string
}

// NewMapsKeyHandler creates a new MapsKeyHandler.
func NewMapsKeyHandler(key string) *MapsKeyHandler {
	return &MapsKeyHandler{key: key}
}

func (h *MapsKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, MapsKeyResponse{Key: h.key})
}
