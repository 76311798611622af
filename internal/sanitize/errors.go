package sanitize

import "fmt"

// ErrorKind classifies a sanitization failure. Every kind is terminal
// for the item it occurs on; none of them aborts a batch sweep.
type ErrorKind string

const (
	// ErrRead means the source bytes could not be read.
	ErrRead ErrorKind = "read"
	// ErrDecode means the image or video source could not be decoded.
	ErrDecode ErrorKind = "decode"
	// ErrContext means a required drawing or encoding surface is
	// unavailable.
	ErrContext ErrorKind = "context"
	// ErrEncode means the output could not be produced.
	ErrEncode ErrorKind = "encode"
	// ErrCapture means the runtime lacks the stream-capture capability
	// needed for video re-encoding.
	ErrCapture ErrorKind = "capture"
	// ErrPlayback means the video source could not be played through
	// the encoder; the detail carries the underlying message.
	ErrPlayback ErrorKind = "playback"
)

// Error is a classified sanitization failure. Detail is the
// human-readable cause recorded on the failed item.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// Detail messages surfaced on failed items. These are user-facing.
const (
	detailReadFailed      = "could not read file"
	detailImageDecode     = "could not load image"
	detailCanvasContext   = "could not get canvas context"
	detailImageEncode     = "failed to create cleaned image"
	detailCanvasSupport   = "canvas not supported"
	detailCaptureSupport  = "video stream capture not supported"
	detailVideoLoadFailed = "could not load video file"
)
