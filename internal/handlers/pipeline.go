package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"media-cleaner/internal/logging"
	"media-cleaner/internal/orchestrator"
)

// ProcessAll starts a batch sweep over every pending item. The sweep
// runs in the background; callers poll GET /api/files for progress.
func (h *Handlers) ProcessAll(w http.ResponseWriter, _ *http.Request) {
	if h.orch.IsBatchBusy() {
		writeJSONError(w, "batch already running", http.StatusConflict)
		return
	}

	// Detached from the request context: the sweep outlives the
	// response that acknowledged it.
	go func() {
		if err := h.orch.ProcessAllPending(context.Background()); err != nil && !errors.Is(err, orchestrator.ErrBusy) {
			logging.Warn("batch sweep ended early: %v", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	writeJSONStatus(w, "processing")
}

// Reset clears the queue and releases every stored blob.
func (h *Handlers) Reset(w http.ResponseWriter, _ *http.Request) {
	if h.orch.IsBatchBusy() || h.orch.IsExporting() {
		writeJSONError(w, "batch operation in progress", http.StatusConflict)
		return
	}

	h.orch.ResetAll()
	writeJSONStatus(w, "reset")
}

// ExportResponse reports the outcome of an export request.
type ExportResponse struct {
	Archive  string `json:"archive"`
	Exported bool   `json:"exported"`
}

// Export bundles every done item into a zip archive.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	path, err := h.orch.ExportDone(r.Context())
	if errors.Is(err, orchestrator.ErrBusy) {
		writeJSONError(w, "export already running", http.StatusConflict)
		return
	}
	if err != nil {
		writeJSONError(w, "export failed", http.StatusInternalServerError)
		return
	}

	response := ExportResponse{Exported: path != ""}
	if path != "" {
		response.Archive = filepath.Base(path)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}
