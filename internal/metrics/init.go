package metrics

// InitializeMetrics pre-populates all expected label combinations so
// that every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	kinds := []string{"image", "video"}
	for _, kind := range kinds {
		AdmissionsTotal.WithLabelValues(kind)
		PreviewFailuresTotal.WithLabelValues(kind)
		SanitizeDuration.WithLabelValues(kind)
		SanitizationsTotal.WithLabelValues(kind, "done")
		SanitizationsTotal.WithLabelValues(kind, "error")
	}

	for _, status := range []string{"pending", "processing", "done", "error"} {
		QueueItems.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error", "empty"} {
		ExportsTotal.WithLabelValues(status)
	}
}

// ObserveQueue updates the queue gauges from current per-status counts.
func ObserveQueue(pending, processing, done, errored int) {
	QueueItems.WithLabelValues("pending").Set(float64(pending))
	QueueItems.WithLabelValues("processing").Set(float64(processing))
	QueueItems.WithLabelValues("done").Set(float64(done))
	QueueItems.WithLabelValues("error").Set(float64(errored))
}
