package pipeline

import (
	"fmt"

	"media-cleaner/internal/blobstore"
	"media-cleaner/internal/mediatypes"
)

// Status is the lifecycle state of a pipeline item.
type Status string

const (
	// StatusPending is the initial state of an admitted item.
	StatusPending Status = "pending"
	// StatusProcessing marks an item whose sanitizer is running.
	StatusProcessing Status = "processing"
	// StatusDone is terminal; the item has a sanitized result.
	StatusDone Status = "done"
	// StatusError is terminal; the item failed with a recorded cause.
	StatusError Status = "error"
)

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// CanTransition reports whether the state machine allows moving from s
// to next. There is no retry edge out of a terminal state; the only way
// back is removing and re-admitting the file.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusDone || next == StatusError
	default:
		return false
	}
}

// Source identifies the original user-supplied file. It is immutable
// for the lifetime of its item.
type Source struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified"` // unix milliseconds
	MimeType     string `json:"mimeType"`
}

// Key returns the identity tuple used for duplicate detection. Two
// sources with equal keys are considered the same file.
func (s Source) Key() string {
	return fmt.Sprintf("%s|%d|%d|%s", s.Name, s.Size, s.LastModified, mediatypes.Normalize(s.MimeType))
}

// Item is the unit of work flowing through the pipeline. Items are
// treated as values: every mutation replaces the whole item in the
// queue so readers never observe a partially-updated one.
type Item struct {
	ID     string           `json:"id"`
	Source Source           `json:"source"`
	Kind   mediatypes.Kind  `json:"kind"`
	Status Status           `json:"status"`

	SourceBlob  blobstore.Handle `json:"-"`
	PreviewBlob blobstore.Handle `json:"-"`
	ResultBlob  blobstore.Handle `json:"-"`

	ErrorDetail string  `json:"error,omitempty"`
	Progress    float64 `json:"progress"`

	// OutputName is fixed at processing start for videos and empty for
	// images, whose export name is resolved lazily from the settings in
	// force at export time.
	OutputName string `json:"outputName,omitempty"`

	ResultSize int64 `json:"resultSize,omitempty"`
}

// Handles returns every blob handle the item owns. Used by removal and
// reset paths to release them in one pass.
func (it Item) Handles() []blobstore.Handle {
	return []blobstore.Handle{it.SourceBlob, it.PreviewBlob, it.ResultBlob}
}

// Settings is the process-wide batch configuration. A snapshot is taken
// the moment an item begins processing; toggling mid-batch only affects
// items not yet started.
type Settings struct {
	AddNamePrefix   bool `json:"addNamePrefix"`
	PreserveQuality bool `json:"preserveQuality"`
}

// DefaultSettings mirrors the initial checkbox state of the tool:
// prefix on, high quality off.
func DefaultSettings() Settings {
	return Settings{AddNamePrefix: true, PreserveQuality: false}
}

// OutputPrefix is prepended to output filenames when AddNamePrefix is set.
const OutputPrefix = "cleaned_"

// ImageOutputName resolves an image item's export name from the
// settings in force right now.
func ImageOutputName(sourceName string, addPrefix bool) string {
	if addPrefix {
		return OutputPrefix + sourceName
	}
	return sourceName
}
