package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-cleaner/internal/logging"
	"media-cleaner/internal/sanitize"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	ScratchDir  string
	ExportDir   string
	Port        string
	MetricsPort string

	LogHealthChecks bool
	MetricsEnabled  bool

	// ConstrainedProfile caps video concurrency at 1 regardless of
	// MAX_CONCURRENT_VIDEO_JOBS.
	ConstrainedProfile     bool
	MaxConcurrentVideoJobs int
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	scratchDir := getEnv("SCRATCH_DIR", "/tmp/media-cleaner")
	exportDir := getEnv("EXPORT_DIR", "./exports")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	constrained := getEnvBool("CONSTRAINED_PROFILE", false)
	// 0 means unlimited; constrained profiles are capped at 1 below.
	maxVideoJobs := getEnvInt("MAX_CONCURRENT_VIDEO_JOBS", 0)

	logging.Info("  SCRATCH_DIR:               %s", scratchDir)
	logging.Info("  EXPORT_DIR:                %s", exportDir)
	logging.Info("  PORT:                      %s", port)
	logging.Info("  METRICS_PORT:              %s", metricsPort)
	logging.Info("  METRICS_ENABLED:           %v", metricsEnabled)
	logging.Info("  CONSTRAINED_PROFILE:       %v", constrained)
	logging.Info("  MAX_CONCURRENT_VIDEO_JOBS: %d", maxVideoJobs)
	logging.Info("  LOG_HEALTH_CHECKS:         %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:                 %s", logging.GetLevel())

	if constrained {
		maxVideoJobs = 1
	}
	if maxVideoJobs < 0 {
		logging.Warn("  Invalid MAX_CONCURRENT_VIDEO_JOBS, using unlimited")
		maxVideoJobs = 0
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	scratchDir, err := filepath.Abs(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch directory path: %w", err)
	}
	logging.Info("  Scratch directory (absolute): %s", scratchDir)

	exportDir, err = filepath.Abs(exportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve export directory path: %w", err)
	}
	logging.Info("  Export directory (absolute):  %s", exportDir)

	if err := ensureDirectory(scratchDir, "scratch"); err != nil {
		return nil, fmt.Errorf("scratch directory error: %w", err)
	}
	logging.Debug("  Testing scratch directory write access...")
	if err := testWriteAccess(scratchDir); err != nil {
		return nil, fmt.Errorf("scratch directory is not writable (required for processing): %w", err)
	}
	logging.Info("  [OK] Scratch directory is writable")

	if err := ensureDirectory(exportDir, "export"); err != nil {
		return nil, fmt.Errorf("export directory error: %w", err)
	}
	if err := testWriteAccess(exportDir); err != nil {
		return nil, fmt.Errorf("export directory is not writable (required for archives): %w", err)
	}
	logging.Info("  [OK] Export directory is writable")

	return &Config{
		ScratchDir:             scratchDir,
		ExportDir:              exportDir,
		Port:                   port,
		MetricsPort:            metricsPort,
		LogHealthChecks:        logHealthChecks,
		MetricsEnabled:         metricsEnabled,
		ConstrainedProfile:     constrained,
		MaxConcurrentVideoJobs: maxVideoJobs,
	}, nil
}

// LogImageSanitizerInit logs the image pipeline setup and reports which
// encoding path is in use.
func LogImageSanitizerInit(vipsEnabled bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMAGE SANITIZER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if vipsEnabled {
		logging.Info("  [OK] libvips re-encoding enabled")
	} else {
		logging.Warn("  libvips unavailable, using pure-Go redraw fallback")
	}
}

// LogVideoSanitizerInit logs the video pipeline setup and capability
// probe results.
func LogVideoSanitizerInit(caps sanitize.VideoCapabilities) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("VIDEO SANITIZER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if !caps.FFmpegAvailable {
		logging.Warn("  ffmpeg not found in PATH")
		logging.Warn("  Video items will fail with a capture error")
		return
	}
	logging.Info("  [OK] ffmpeg is available")

	if !caps.FFprobeAvailable {
		logging.Warn("  ffprobe not found in PATH")
		logging.Warn("  Video items will fail: duration probing is required")
	} else {
		logging.Info("  [OK] ffprobe is available")
	}

	if caps.MP4Supported {
		logging.Info("  MP4 output: supported (H.264 encoder present)")
	} else {
		logging.Info("  MP4 output: unsupported, falling back to WebM")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___          ________
   /  |/  /__  ____/ (_)___ _   / ____/ /__  ____ _____  ___  _____
  / /|_/ / _ \/ __  / / __ '/  / /   / / _ \/ __ '/ __ \/ _ \/ ___/
 / /  / /  __/ /_/ / / /_/ /  / /___/ /  __/ /_/ / / / /  __/ /
/_/  /_/\___/\__,_/_/\__,_/   \____/_/\___/\__,_/_/ /_/\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed regardless.
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
