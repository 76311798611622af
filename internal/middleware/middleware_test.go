package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriterCapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK) // second call must be ignored
	if _, err := rw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if rw.statusCode != http.StatusTeapot {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusTeapot)
	}
	if rw.bytesWritten != 5 {
		t.Errorf("bytesWritten = %d, want 5", rw.bytesWritten)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("recorded code = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "GET", "GET"},
		{"newline", "a\nb", "a b"},
		{"carriage return", "a\rb", "a b"},
		{"null byte", "a\x00b", "ab"},
		{"ansi escape", "a\x1b[31mb", "a[31mb"},
		{"tab kept", "a\tb", "a\tb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.in); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	config := LoggingConfig{
		SkipPaths:       []string{"/static"},
		LogHealthChecks: false,
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/api/files", false},
		{"/static/app.js", true},
		{"/health", true},
		{"/healthz", true},
	}
	for _, tt := range tests {
		if got := shouldSkip(tt.path, config); got != tt.want {
			t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	config.LogHealthChecks = true
	if shouldSkip("/health", config) {
		t.Error("health check skipped with LogHealthChecks=true")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/files", "/api/files"},
		{"/api/items/4f7c1a/preview", "/api/items/{id}/preview"},
		{"/api/items/4f7c1a/result", "/api/items/{id}/result"},
		{"/api/items/4f7c1a", "/api/items/{id}"},
		{"/api/files/4f7c1a", "/api/files/{id}"},
		{"/api/files/4f7c1a/process", "/api/files/{id}/process"},
		{"/api/settings", "/api/settings"},
		{"/health", "/health"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusNoContent)
	}

	// Skipped paths still pass through untouched.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	if got := clientIP(req); got != "127.0.0.1" {
		t.Errorf("clientIP = %q, want 127.0.0.1", got)
	}
}
