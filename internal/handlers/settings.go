package handlers

import (
	"encoding/json"
	"net/http"

	"media-cleaner/internal/pipeline"
)

// GetSettings returns the current batch settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.orch.Settings())
}

// UpdateSettings replaces the batch settings. Items already processing
// keep the snapshot taken when they started.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings pipeline.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSONError(w, "invalid settings payload", http.StatusBadRequest)
		return
	}

	h.orch.UpdateSettings(settings)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, settings)
}
