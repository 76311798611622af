package sanitize

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"media-cleaner/internal/logging"
	"media-cleaner/internal/mediatypes"
)

// highQualityBitrate is the video bitrate requested when the user asks
// for quality preservation: 20 Mbps.
const highQualityBitrate = "20M"

// VideoCapabilities describes what the local runtime can do for video
// re-encoding. Probed once at startup.
type VideoCapabilities struct {
	FFmpegAvailable  bool
	FFprobeAvailable bool
	MP4Supported     bool // an H.264 encoder is present
}

// ProbeCapabilities checks for ffmpeg/ffprobe on PATH and whether
// ffmpeg carries an H.264 encoder, which decides MP4 output support.
func ProbeCapabilities() VideoCapabilities {
	var caps VideoCapabilities

	if _, err := exec.LookPath("ffmpeg"); err == nil {
		caps.FFmpegAvailable = true
	}
	if _, err := exec.LookPath("ffprobe"); err == nil {
		caps.FFprobeAvailable = true
	}
	if !caps.FFmpegAvailable {
		return caps
	}

	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		logging.Warn("ffmpeg encoder probe failed: %v", err)
		return caps
	}
	caps.MP4Supported = bytes.Contains(out, []byte("libx264")) || bytes.Contains(out, []byte("h264_"))

	logging.Debug("video capabilities: ffmpeg=%v ffprobe=%v mp4=%v",
		caps.FFmpegAvailable, caps.FFprobeAvailable, caps.MP4Supported)
	return caps
}

// Plan fixes the output container, encoders, and filename for one video
// sanitization. It is computed once, before processing starts, and
// never changes afterward even if settings are toggled.
type Plan struct {
	OutputName string
	MimeType   string
	Extension  string

	videoCodec string
	audioCodec string
}

// VideoSanitizer re-encodes videos through ffmpeg into a fresh
// container with all source metadata dropped.
type VideoSanitizer struct {
	caps VideoCapabilities
}

// NewVideoSanitizer creates a video sanitizer with the given probed
// capabilities.
func NewVideoSanitizer(caps VideoCapabilities) *VideoSanitizer {
	return &VideoSanitizer{caps: caps}
}

// Plan selects the target container for a source and resolves the
// output filename from the prefix setting in force right now.
func (s *VideoSanitizer) Plan(sourceName, mimeType string, addPrefix bool) Plan {
	plan := Plan{
		MimeType:   "video/webm",
		Extension:  "webm",
		videoCodec: "libvpx-vp9",
		audioCodec: "libopus",
	}
	if mediatypes.IsMP4Family(mimeType) && s.caps.MP4Supported {
		plan = Plan{
			MimeType:   "video/mp4",
			Extension:  "mp4",
			videoCodec: "libx264",
			audioCodec: "aac",
		}
	}

	stem := ""
	if idx := strings.LastIndex(sourceName, "."); idx > 0 {
		stem = sourceName[:idx]
	}
	if stem == "" {
		stem = "video"
	}
	if addPrefix {
		stem = "cleaned_" + stem
	}
	plan.OutputName = stem + "." + plan.Extension

	return plan
}

// Duration returns the source duration in seconds via ffprobe.
func (s *VideoSanitizer) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q: %w", stdout.String(), err)
	}
	return dur, nil
}

// Sanitize re-encodes the source at srcPath into destPath per plan,
// reporting fractional progress through onProgress. Failures are
// classified *Error values; the partially written destination is
// removed on failure.
func (s *VideoSanitizer) Sanitize(ctx context.Context, srcPath, destPath string, plan Plan, preserveQuality bool, onProgress func(float64)) error {
	if !s.caps.FFmpegAvailable {
		return newError(ErrCapture, detailCaptureSupport, nil)
	}
	if !s.caps.FFprobeAvailable {
		return newError(ErrContext, detailCanvasSupport, nil)
	}
	if _, err := os.Stat(srcPath); err != nil {
		return newError(ErrRead, detailVideoLoadFailed, err)
	}

	duration, err := s.Duration(ctx, srcPath)
	if err != nil {
		return newError(ErrDecode, detailVideoLoadFailed, err)
	}

	args := buildEncodeArgs(srcPath, destPath, plan, preserveQuality)
	logging.Debug("ffmpeg %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return newError(ErrCapture, detailCaptureSupport, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return newError(ErrCapture, detailCaptureSupport, err)
	}

	// The -progress stream reports encode position; one update per
	// parsed out_time keeps the item's fraction current.
	trackProgress(stdout, duration, onProgress)

	if err := cmd.Wait(); err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Warn("failed to remove partial output %s: %v", destPath, rmErr)
		}
		if ctx.Err() != nil {
			return newError(ErrPlayback, fmt.Sprintf("playback error: %v", ctx.Err()), ctx.Err())
		}
		detail := fmt.Sprintf("playback error: %s", stderrTail(stderr.String()))
		return newError(ErrPlayback, detail, err)
	}

	if onProgress != nil {
		onProgress(1.0)
	}
	return nil
}

// buildEncodeArgs assembles the ffmpeg invocation. Dropping metadata
// and chapter atoms plus re-encoding every stream is what guarantees a
// clean output container.
func buildEncodeArgs(srcPath, destPath string, plan Plan, preserveQuality bool) []string {
	args := []string{
		"-i", srcPath,
		"-map_metadata", "-1",
		"-map_chapters", "-1",
		"-c:v", plan.videoCodec,
	}

	switch plan.videoCodec {
	case "libx264":
		args = append(args, "-preset", "fast", "-pix_fmt", "yuv420p")
		if preserveQuality {
			args = append(args, "-b:v", highQualityBitrate)
		} else {
			args = append(args, "-crf", "23")
		}
	case "libvpx-vp9":
		if preserveQuality {
			args = append(args, "-b:v", highQualityBitrate)
		} else {
			args = append(args, "-b:v", "0", "-crf", "32")
		}
	}

	args = append(args, "-c:a", plan.audioCodec)
	if plan.Extension == "mp4" {
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args,
		"-progress", "pipe:1",
		"-nostats",
		"-f", formatFor(plan.Extension),
		"-y", destPath,
	)
	return args
}

func formatFor(extension string) string {
	if extension == "mp4" {
		return "mp4"
	}
	return "webm"
}

// trackProgress consumes ffmpeg's -progress key=value stream and calls
// onProgress with the clamped fraction of the source duration encoded
// so far.
func trackProgress(r io.Reader, durationSec float64, onProgress func(float64)) {
	if onProgress == nil {
		io.Copy(io.Discard, r) //nolint:errcheck // drain so ffmpeg never blocks on the pipe
		return
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		// out_time_us and out_time_ms both carry microseconds; ffmpeg
		// has reported microseconds under the _ms key forever.
		case "out_time_us", "out_time_ms":
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || durationSec <= 0 {
				continue
			}
			onProgress(clampFraction(float64(us) / 1e6 / durationSec))
		case "progress":
			if value == "end" {
				onProgress(1.0)
			}
		}
	}
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// stderrTail keeps the last few lines of ffmpeg's stderr, which is
// where the actionable message lives.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "ffmpeg failed"
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}
