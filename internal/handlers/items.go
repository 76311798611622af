package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"media-cleaner/internal/orchestrator"

	"github.com/gorilla/mux"
)

// GetPreview serves the admission-time preview rendering of an item.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	f, err := h.orch.OpenPreview(id)
	if errors.Is(err, orchestrator.ErrNotFound) {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, "no preview available", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "preview.jpg", time.Time{}, f)
}

// GetResult serves an item's sanitized output as a download.
func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	f, name, err := h.orch.OpenResult(id)
	if errors.Is(err, orchestrator.ErrNotFound) {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, "no result available", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, time.Time{}, f)
}
