package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cleaner_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_cleaner_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_cleaner_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Admission metrics
var (
	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cleaner_admissions_total",
			Help: "Total number of files admitted to the queue",
		},
		[]string{"kind"},
	)

	DuplicatesRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cleaner_duplicates_rejected_total",
			Help: "Total number of files rejected as duplicates at admission",
		},
	)

	UnsupportedDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cleaner_unsupported_dropped_total",
			Help: "Total number of files silently dropped for unsupported MIME types",
		},
	)

	PreviewFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cleaner_preview_failures_total",
			Help: "Total number of admission-time preview renderings that failed",
		},
		[]string{"kind"},
	)
)

// Sanitizer metrics
var (
	SanitizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cleaner_sanitizations_total",
			Help: "Total number of sanitization attempts by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	SanitizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_cleaner_sanitize_duration_seconds",
			Help:    "Sanitization duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	QueueItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_cleaner_queue_items",
			Help: "Number of items currently in the queue by status",
		},
		[]string{"status"},
	)

	BatchSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cleaner_batch_sweeps_total",
			Help: "Total number of process-all sweeps started",
		},
	)
)

// Export metrics
var (
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cleaner_exports_total",
			Help: "Total number of archive exports by outcome",
		},
		[]string{"status"},
	)

	ExportedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cleaner_exported_files_total",
			Help: "Total number of files written into export archives",
		},
	)

	ExportArchiveBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_cleaner_export_archive_bytes",
			Help:    "Size of produced export archives in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 10),
		},
	)
)
