// Package pipeline defines the shared item model of the sanitization
// pipeline: the PipelineItem value type, its status state machine, the
// batch settings, and the versioned queue that holds all items.
package pipeline
