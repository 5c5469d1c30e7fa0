// Package ffmpeg extracts video frames by shelling out to the ffmpeg and
// ffprobe binaries, which must be on PATH (or configured explicitly).
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Extractor implements the frame source port on top of the ffmpeg toolchain.
type Extractor struct {
	ffmpegBinary  string
	ffprobeBinary string
}

// NewExtractor creates an extractor using the default binary names.
func NewExtractor() *Extractor {
	return &Extractor{
		ffmpegBinary:  "ffmpeg",
		ffprobeBinary: "ffprobe",
	}
}

// SetBinaries overrides the tool paths (for testing or packaged installs).
func (e *Extractor) SetBinaries(ffmpegBinary, ffprobeBinary string) {
	e.ffmpegBinary = ffmpegBinary
	e.ffprobeBinary = ffprobeBinary
}

// Duration probes the container for its duration in seconds.
func (e *Extractor) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := exec.CommandContext(ctx, e.ffprobeBinary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w: %s", err, strings.TrimSpace(string(output)))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: unparseable output %q", strings.TrimSpace(string(output)))
	}
	if duration <= 0 {
		return 0, fmt.Errorf("ffprobe duration: non-positive duration %f", duration)
	}
	return duration, nil
}

// FrameAt decodes the single frame nearest the offset and returns it as JPEG.
func (e *Extractor) FrameAt(ctx context.Context, path string, offsetSeconds float64) ([]byte, string, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offsetSeconds, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, e.ffmpegBinary, args...) //nolint:gosec

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, "", fmt.Errorf("ffmpeg frame at %.3fs: %w: %s", offsetSeconds, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, "", fmt.Errorf("ffmpeg frame at %.3fs: no frame produced", offsetSeconds)
	}

	return stdout.Bytes(), "image/jpeg", nil
}
