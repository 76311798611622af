package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-cleaner/internal/archive"
	"media-cleaner/internal/blobstore"
	"media-cleaner/internal/handlers"
	"media-cleaner/internal/logging"
	"media-cleaner/internal/metrics"
	"media-cleaner/internal/middleware"
	"media-cleaner/internal/orchestrator"
	"media-cleaner/internal/sanitize"
	"media-cleaner/internal/startup"
	"media-cleaner/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize image pipeline
	sanitize.InitVips()
	defer sanitize.ShutdownVips()
	startup.LogImageSanitizerInit(sanitize.IsVipsAvailable())

	// Probe video capabilities
	caps := sanitize.ProbeCapabilities()
	startup.LogVideoSanitizerInit(caps)

	// Initialize blob store over the scratch directory
	store, err := blobstore.Open(config.ScratchDir)
	if err != nil {
		startup.LogFatal("Failed to open blob store: %v", err)
	}
	defer store.Close()

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
	}

	// Initialize the pipeline orchestrator
	orch := orchestrator.New(store, archive.NewExporter(config.ExportDir), orchestrator.Options{
		Images:                 sanitize.NewImageSanitizer(sanitize.IsVipsAvailable()),
		Videos:                 sanitize.NewVideoSanitizer(caps),
		Previews:               sanitize.NewPreviewRenderer(caps.FFmpegAvailable),
		MaxConcurrentVideoJobs: config.MaxConcurrentVideoJobs,
		PreviewWorkers:         workers.ForPreviews(8),
	})

	// Initialize handlers and router
	h := handlers.New(orch)
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Create server
	srv := &http.Server{
		Addr:         "127.0.0.1:" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics server on its own port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        "127.0.0.1:" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, store)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, store *blobstore.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Wiping scratch blobs")
	if err := store.Close(); err != nil {
		logging.Warn("Blob store cleanup error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Scratch blobs wiped")
	}

	startup.LogShutdownComplete()
}
