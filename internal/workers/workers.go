package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the optimal number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// overrideEnv names an environment variable that, when set to a
// positive integer, wins over the computed count. The limit parameter
// caps the worker count; use 0 for no limit.
func Count(overrideEnv string, multiplier float64, limit int) int {
	if overrideEnv != "" {
		if override := os.Getenv(overrideEnv); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				if limit > 0 && count > limit {
					return limit
				}
				return count
			}
		}
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForPreviews returns the worker count for the admission-time preview
// pool. Preview rendering is mixed CPU/IO work; it can be overridden
// with the PREVIEW_WORKERS environment variable.
func ForPreviews(limit int) int {
	return Count("PREVIEW_WORKERS", 1.5, limit)
}
