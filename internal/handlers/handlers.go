package handlers

import (
	"net/http"
	"time"

	"media-cleaner/internal/orchestrator"

	"github.com/gorilla/mux"
)

type Handlers struct {
	orch      *orchestrator.Orchestrator
	startedAt time.Time
}

func New(orch *orchestrator.Orchestrator) *Handlers {
	return &Handlers{
		orch:      orch,
		startedAt: time.Now(),
	}
}

// RegisterRoutes attaches every API route to the router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/files", h.UploadFiles).Methods(http.MethodPost)
	api.HandleFunc("/files", h.ListFiles).Methods(http.MethodGet)
	api.HandleFunc("/files/{id}", h.DeleteFile).Methods(http.MethodDelete)
	api.HandleFunc("/files/{id}/process", h.ProcessFile).Methods(http.MethodPost)

	api.HandleFunc("/items/{id}/preview", h.GetPreview).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}/result", h.GetResult).Methods(http.MethodGet)

	api.HandleFunc("/process", h.ProcessAll).Methods(http.MethodPost)
	api.HandleFunc("/reset", h.Reset).Methods(http.MethodPost)
	api.HandleFunc("/export", h.Export).Methods(http.MethodPost)

	api.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPut)

	api.HandleFunc("/notifications", h.GetNotification).Methods(http.MethodGet)
	api.HandleFunc("/notifications/focus", h.FocusNotification).Methods(http.MethodPost)
	api.HandleFunc("/notifications/blur", h.BlurNotification).Methods(http.MethodPost)
	api.HandleFunc("/notifications/dismiss", h.DismissNotification).Methods(http.MethodPost)

	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
}
