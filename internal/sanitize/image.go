package sanitize

import (
	"bytes"
	"context"
	"image"
	"io"

	"media-cleaner/internal/logging"
	"media-cleaner/internal/mediatypes"

	_ "image/jpeg"
	_ "image/png"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

const (
	jpegQualityDefault  = 95
	jpegQualityPreserve = 100
)

// ImageSanitizer strips metadata from JPEG and PNG images by
// re-encoding them from decoded pixel data. The primary path runs
// through libvips with metadata stripping; when vips is unavailable the
// fallback decodes with the stdlib codecs, redraws the pixels onto a
// fresh bitmap, and re-encodes. Either way the output carries nothing
// but pixels.
type ImageSanitizer struct {
	useVips bool
}

// NewImageSanitizer creates an image sanitizer. useVips selects the
// libvips path; pass false when vips failed to initialize.
func NewImageSanitizer(useVips bool) *ImageSanitizer {
	return &ImageSanitizer{useVips: useVips}
}

// Sanitize reads the source image from r and returns the re-encoded
// bytes in the source's own format. Failures are classified *Error
// values with the detail recorded on the item.
func (s *ImageSanitizer) Sanitize(ctx context.Context, r io.Reader, mimeType string, preserveQuality bool) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(ErrRead, detailReadFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(ErrRead, detailReadFailed, err)
	}

	quality := jpegQualityDefault
	if preserveQuality {
		quality = jpegQualityPreserve
	}

	if s.useVips {
		if !IsVipsAvailable() {
			return nil, newError(ErrContext, detailCanvasContext, nil)
		}
		return sanitizeWithVips(data, mimeType, quality)
	}
	return sanitizeWithRedraw(data, mimeType, quality)
}

// sanitizeWithVips re-exports the image through libvips with metadata
// stripping enabled.
func sanitizeWithVips(data []byte, mimeType string, quality int) ([]byte, error) {
	ref, err := vips.LoadImageFromBuffer(data, vips.NewImportParams())
	if err != nil {
		return nil, newError(ErrDecode, detailImageDecode, err)
	}
	defer ref.Close()

	var out []byte
	switch mediatypes.Normalize(mimeType) {
	case "image/png":
		out, _, err = ref.ExportPng(&vips.PngExportParams{
			StripMetadata: true,
			Compression:   6,
		})
	default:
		out, _, err = ref.ExportJpeg(&vips.JpegExportParams{
			Quality:        quality,
			StripMetadata:  true,
			OptimizeCoding: true,
		})
	}
	if err != nil {
		return nil, newError(ErrEncode, detailImageEncode, err)
	}

	logging.Debug("vips sanitized image: %d -> %d bytes", len(data), len(out))
	return out, nil
}

// sanitizeWithRedraw is the pure-Go path: decode, copy the pixels onto
// a fresh NRGBA bitmap of identical bounds, re-encode. The fresh bitmap
// never held anything but decoded pixels, so no metadata survives.
func sanitizeWithRedraw(data []byte, mimeType string, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newError(ErrDecode, detailImageDecode, err)
	}

	canvas := imaging.Clone(src)

	var buf bytes.Buffer
	switch mediatypes.Normalize(mimeType) {
	case "image/png":
		err = imaging.Encode(&buf, canvas, imaging.PNG)
	default:
		err = imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return nil, newError(ErrEncode, detailImageEncode, err)
	}

	logging.Debug("redraw sanitized image: %d -> %d bytes", len(data), buf.Len())
	return buf.Bytes(), nil
}
