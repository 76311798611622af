package handlers

import (
	"net/http"
	"time"
)

// NotificationResponse is the duplicate-rejection notice as seen by the
// client. Visible is false when no notice is live.
type NotificationResponse struct {
	Visible bool     `json:"visible"`
	Names   []string `json:"names,omitempty"`
	Total   int      `json:"total,omitempty"`
	Since   string   `json:"since,omitempty"`
}

// GetNotification returns the current duplicate notice, if any.
func (h *Handlers) GetNotification(w http.ResponseWriter, _ *http.Request) {
	response := NotificationResponse{}
	if notice, ok := h.orch.Notices().Current(); ok {
		response.Visible = true
		response.Names = notice.Names
		response.Total = notice.Total
		response.Since = notice.Since.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// FocusNotification pauses the notice's dismissal countdown, matching
// pointer-over behavior.
func (h *Handlers) FocusNotification(w http.ResponseWriter, _ *http.Request) {
	h.orch.Notices().Focus()
	writeJSONStatus(w, "focused")
}

// BlurNotification resumes the countdown with the shortened
// post-interaction dwell.
func (h *Handlers) BlurNotification(w http.ResponseWriter, _ *http.Request) {
	h.orch.Notices().Blur()
	writeJSONStatus(w, "blurred")
}

// DismissNotification clears the notice immediately.
func (h *Handlers) DismissNotification(w http.ResponseWriter, _ *http.Request) {
	h.orch.Notices().Dismiss()
	writeJSONStatus(w, "dismissed")
}
