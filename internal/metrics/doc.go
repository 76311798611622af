// Package metrics defines the Prometheus metrics exported by the media
// cleaner: admission, sanitization, export, and HTTP request metrics.
package metrics
