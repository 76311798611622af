// Package middleware provides HTTP middleware for the API server:
// W3C-style request logging and Prometheus request metrics.
package middleware
