// Package orchestrator coordinates the sanitization pipeline: it owns
// the item queue and the blob store bindings, admits and deduplicates
// incoming files, runs per-item and batch sanitization serially with a
// concurrency gate for video work, and drives archive export of done
// items.
package orchestrator
