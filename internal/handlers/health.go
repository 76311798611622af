package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-cleaner/internal/startup"
)

const statusHealthy = "healthy"

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Queue summary
	QueueLength int  `json:"queueLength"`
	Pending     int  `json:"pending"`
	Done        int  `json:"done"`
	BatchBusy   bool `json:"batchBusy"`
	Exporting   bool `json:"exporting"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	items, _ := h.orch.Items()
	pending, done := h.orch.Counts()

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		QueueLength:  len(items),
		Pending:      pending,
		Done:         done,
		BatchBusy:    h.orch.IsBatchBusy(),
		Exporting:    h.orch.IsExporting(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
