package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" {
		t.Error("version should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("go version should not be empty")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("os/arch should not be empty")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	scratch := t.TempDir()
	export := t.TempDir()
	t.Setenv("SCRATCH_DIR", scratch)
	t.Setenv("EXPORT_DIR", export)
	t.Setenv("CONSTRAINED_PROFILE", "")
	t.Setenv("MAX_CONCURRENT_VIDEO_JOBS", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", config.MetricsPort)
	}
	if !config.MetricsEnabled {
		t.Error("metrics should default to enabled")
	}
	if config.MaxConcurrentVideoJobs != 0 {
		t.Errorf("MaxConcurrentVideoJobs = %d, want unlimited (0)", config.MaxConcurrentVideoJobs)
	}
	if config.ConstrainedProfile {
		t.Error("constrained profile should default to false")
	}
}

func TestLoadConfigVideoJobsOverride(t *testing.T) {
	t.Setenv("SCRATCH_DIR", t.TempDir())
	t.Setenv("EXPORT_DIR", t.TempDir())
	t.Setenv("CONSTRAINED_PROFILE", "")
	t.Setenv("MAX_CONCURRENT_VIDEO_JOBS", "4")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.MaxConcurrentVideoJobs != 4 {
		t.Errorf("MaxConcurrentVideoJobs = %d, want 4", config.MaxConcurrentVideoJobs)
	}
}

func TestLoadConfigConstrainedProfileCapsVideoJobs(t *testing.T) {
	t.Setenv("SCRATCH_DIR", t.TempDir())
	t.Setenv("EXPORT_DIR", t.TempDir())
	t.Setenv("CONSTRAINED_PROFILE", "true")
	t.Setenv("MAX_CONCURRENT_VIDEO_JOBS", "8")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.MaxConcurrentVideoJobs != 1 {
		t.Errorf("MaxConcurrentVideoJobs = %d, want 1 under constrained profile", config.MaxConcurrentVideoJobs)
	}
}

func TestLoadConfigCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	scratch := filepath.Join(base, "scratch")
	export := filepath.Join(base, "exports")
	t.Setenv("SCRATCH_DIR", scratch)
	t.Setenv("EXPORT_DIR", export)
	t.Setenv("CONSTRAINED_PROFILE", "")
	t.Setenv("MAX_CONCURRENT_VIDEO_JOBS", "")

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	for _, dir := range []string{scratch, export} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory at %s, err=%v", dir, err)
		}
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/files", func(http.ResponseWriter, *http.Request) {}).Methods("GET", "POST")
	router.HandleFunc("/health", func(http.ResponseWriter, *http.Request) {}).Methods("GET")

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("routes = %d, want 3", len(routes))
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/files", "api/files"},
		{"/api/items/{id}/result", "api/items"},
		{"/health", "health"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("STR_KEY", "value")
	if got := getEnv("STR_KEY", "fallback"); got != "value" {
		t.Errorf("getEnv = %q, want value", got)
	}
	if got := getEnv("MISSING_KEY_12345", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want fallback", got)
	}

	t.Setenv("BOOL_KEY", "true")
	if !getEnvBool("BOOL_KEY", false) {
		t.Error("getEnvBool should parse true")
	}
	t.Setenv("BOOL_KEY", "garbage")
	if getEnvBool("BOOL_KEY", false) {
		t.Error("getEnvBool should fall back on invalid input")
	}

	t.Setenv("INT_KEY", "4")
	if got := getEnvInt("INT_KEY", 1); got != 4 {
		t.Errorf("getEnvInt = %d, want 4", got)
	}
	t.Setenv("INT_KEY", "nope")
	if got := getEnvInt("INT_KEY", 1); got != 1 {
		t.Errorf("getEnvInt = %d, want fallback 1", got)
	}
}

func TestTestWriteAccess(t *testing.T) {
	if err := testWriteAccess(t.TempDir()); err != nil {
		t.Errorf("writable dir rejected: %v", err)
	}
	if err := testWriteAccess("/nonexistent/path/for/sure"); err == nil {
		t.Error("expected error for missing dir")
	}
}
