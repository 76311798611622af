package sanitize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os/exec"

	"media-cleaner/internal/logging"
	"media-cleaner/internal/mediatypes"

	"github.com/disintegration/imaging"
)

// Preview bounds. Previews exist for display only, so they are small
// and always JPEG.
const (
	previewMaxWidth  = 320
	previewMaxHeight = 320
	previewQuality   = 80
)

// PreviewRenderer produces the small display rendering attached to an
// item at admission time.
type PreviewRenderer struct {
	ffmpegAvailable bool
}

// NewPreviewRenderer creates a renderer. Video previews need ffmpeg;
// without it only image previews are produced.
func NewPreviewRenderer(ffmpegAvailable bool) *PreviewRenderer {
	return &PreviewRenderer{ffmpegAvailable: ffmpegAvailable}
}

// Render returns preview JPEG bytes for the source file at path.
func (p *PreviewRenderer) Render(ctx context.Context, path string, kind mediatypes.Kind) ([]byte, error) {
	var (
		img image.Image
		err error
	)

	switch kind {
	case mediatypes.KindImage:
		img, err = imaging.Open(path, imaging.AutoOrientation(true))
	case mediatypes.KindVideo:
		img, err = p.grabVideoFrame(ctx, path)
	default:
		return nil, fmt.Errorf("no preview for kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("preview source failed: %w", err)
	}

	thumb := imaging.Fit(img, previewMaxWidth, previewMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// grabVideoFrame extracts one frame via ffmpeg, preferring the frame at
// one second in and falling back to the very first frame for clips
// shorter than that.
func (p *PreviewRenderer) grabVideoFrame(ctx context.Context, path string) (image.Image, error) {
	if !p.ffmpegAvailable {
		return nil, fmt.Errorf("ffmpeg not available")
	}

	frame, err := p.runFrameGrab(ctx, path, "00:00:01")
	if err != nil {
		logging.Debug("frame grab at 1s failed for %s: %v, retrying at 0", path, err)
		frame, err = p.runFrameGrab(ctx, path, "00:00:00")
	}
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("failed to decode grabbed frame: %w", err)
	}
	return img, nil
}

func (p *PreviewRenderer) runFrameGrab(ctx context.Context, path, seek string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", seek,
		"-i", path,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame grab failed: %v, stderr: %s", err, stderrTail(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame output")
	}
	return stdout.Bytes(), nil
}
