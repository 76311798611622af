package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"media-cleaner/internal/blobstore"
	"media-cleaner/internal/logging"
	"media-cleaner/internal/orchestrator"
	"media-cleaner/internal/pipeline"

	"github.com/gorilla/mux"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in
// memory; the rest spills to disk.
const maxUploadMemory = 32 << 20

// ItemView is the API representation of one queue item.
type ItemView struct {
	pipeline.Item
	SizeLabel       string `json:"sizeLabel"`
	ResultSizeLabel string `json:"resultSizeLabel,omitempty"`
	HasPreview      bool   `json:"hasPreview"`
}

func itemView(item pipeline.Item) ItemView {
	view := ItemView{
		Item:       item,
		SizeLabel:  formatBytes(item.Source.Size),
		HasPreview: item.PreviewBlob != blobstore.None,
	}
	if item.ResultSize > 0 {
		view.ResultSizeLabel = formatBytes(item.ResultSize)
	}
	return view
}

// UploadResponse reports what an upload request admitted.
type UploadResponse struct {
	Accepted   []ItemView `json:"accepted"`
	Duplicates []string   `json:"duplicates"`
}

// UploadFiles admits a multipart batch of candidate files.
func (h *Handlers) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSONError(w, "invalid multipart request", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("failed to clean up multipart temp files: %v", err)
		}
	}()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeJSONError(w, "no files provided", http.StatusBadRequest)
		return
	}
	lastModified := r.MultipartForm.Value["lastModified"]

	var incoming []orchestrator.IncomingFile
	var opened []interface{ Close() error }
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for i, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			logging.Warn("failed to open uploaded part %q: %v", fh.Filename, err)
			continue
		}
		opened = append(opened, f)

		modTime := time.Now().UnixMilli()
		if i < len(lastModified) {
			if ms, err := strconv.ParseInt(lastModified[i], 10, 64); err == nil {
				modTime = ms
			}
		}

		incoming = append(incoming, orchestrator.IncomingFile{
			Name:         fh.Filename,
			Size:         fh.Size,
			LastModified: modTime,
			MimeType:     fh.Header.Get("Content-Type"),
			Data:         f,
		})
	}

	result := h.orch.Admit(r.Context(), incoming)

	response := UploadResponse{
		Accepted:   make([]ItemView, 0, len(result.Accepted)),
		Duplicates: result.Duplicates,
	}
	if response.Duplicates == nil {
		response.Duplicates = []string{}
	}
	for _, item := range result.Accepted {
		response.Accepted = append(response.Accepted, itemView(item))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// FileListResponse is the queue listing returned by GET /api/files.
type FileListResponse struct {
	Items     []ItemView        `json:"items"`
	Version   uint64            `json:"version"`
	Pending   int               `json:"pending"`
	Done      int               `json:"done"`
	BatchBusy bool              `json:"batchBusy"`
	Exporting bool              `json:"exporting"`
	Settings  pipeline.Settings `json:"settings"`
}

// ListFiles returns a snapshot of the queue with derived state.
func (h *Handlers) ListFiles(w http.ResponseWriter, _ *http.Request) {
	items, version := h.orch.Items()
	pending, done := h.orch.Counts()

	response := FileListResponse{
		Items:     make([]ItemView, 0, len(items)),
		Version:   version,
		Pending:   pending,
		Done:      done,
		BatchBusy: h.orch.IsBatchBusy(),
		Exporting: h.orch.IsExporting(),
		Settings:  h.orch.Settings(),
	}
	for _, item := range items {
		response.Items = append(response.Items, itemView(item))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// DeleteFile removes one item from the queue.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	items, _ := h.orch.Items()
	found := false
	for _, item := range items {
		if item.ID == id {
			found = true
			break
		}
	}
	if !found {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}

	h.orch.RemoveItem(id)

	// Removal is a silent no-op while the item is processing or a batch
	// operation runs; report the conflict to the caller.
	items, _ = h.orch.Items()
	for _, item := range items {
		if item.ID == id {
			writeJSONError(w, "item is busy", http.StatusConflict)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// ProcessFile drives one pending item to a terminal state and returns
// the final item.
func (h *Handlers) ProcessFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Detached from the request context: a client disconnect must not
	// cancel an in-flight encode and push the item to an error state.
	err := h.orch.ProcessOne(context.WithoutCancel(r.Context()), id)
	switch {
	case errors.Is(err, orchestrator.ErrNotFound):
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	case errors.Is(err, orchestrator.ErrVideoBusy),
		errors.Is(err, orchestrator.ErrAlreadyProcessing):
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items, _ := h.orch.Items()
	for _, item := range items {
		if item.ID == id {
			w.Header().Set("Content-Type", "application/json")
			writeJSON(w, itemView(item))
			return
		}
	}
	writeJSONError(w, "item not found", http.StatusNotFound)
}
