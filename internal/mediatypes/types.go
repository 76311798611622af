package mediatypes

import "strings"

// Kind classifies an admitted file by its sanitization path.
type Kind string

const (
	// KindImage routes a file through the image sanitizer.
	KindImage Kind = "image"
	// KindVideo routes a file through the video sanitizer.
	KindVideo Kind = "video"
)

// SupportedMimeTypes is the exact set of MIME types the pipeline admits.
// Anything else is silently dropped at admission.
var SupportedMimeTypes = map[string]Kind{
	"image/jpeg":      KindImage,
	"image/jpg":       KindImage,
	"image/png":       KindImage,
	"video/mp4":       KindVideo,
	"video/quicktime": KindVideo,
	"video/webm":      KindVideo,
}

// Extensions maps supported MIME types to their output file extension.
var Extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
}

// KindOf returns the sanitization kind for a MIME type and whether the
// type is supported at all. Matching is case-insensitive and ignores
// any MIME parameters (e.g. "; codecs=...").
func KindOf(mimeType string) (Kind, bool) {
	kind, ok := SupportedMimeTypes[Normalize(mimeType)]
	return kind, ok
}

// IsSupported reports whether a MIME type is admitted by the pipeline.
func IsSupported(mimeType string) bool {
	_, ok := KindOf(mimeType)
	return ok
}

// Normalize lowercases a MIME type and strips parameters.
func Normalize(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// ExtensionFor returns the file extension (with leading dot) for a
// supported MIME type, or an empty string for unknown types.
func ExtensionFor(mimeType string) string {
	return Extensions[Normalize(mimeType)]
}

// IsMP4Family reports whether a MIME type belongs to the MP4/QuickTime
// container family. These sources prefer an MP4 output container when
// the runtime can encode it.
func IsMP4Family(mimeType string) bool {
	switch Normalize(mimeType) {
	case "video/mp4", "video/quicktime":
		return true
	}
	return false
}
