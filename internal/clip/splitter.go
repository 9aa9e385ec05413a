// Package clip cuts sub-clips out of a downloaded media file with ffmpeg,
// using stream copy so no re-encoding takes place.
package clip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"
)

const maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics

// ExtractionError reports a failed cut for one range. Stream copy is
// boundary-constrained by keyframes, so a cut can fail even when the
// source file is intact.
type ExtractionError struct {
	MediaPath  string
	Start      float64
	Duration   float64
	ExitCode   int
	StderrTail string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("clip extraction failed for %s range (start=%s duration=%s): exit %d: %s",
		e.MediaPath, formatSeconds(e.Start), formatSeconds(e.Duration), e.ExitCode, e.StderrTail)
}

// Splitter runs ffmpeg as a subprocess to produce independent clip files.
type Splitter struct {
	ffmpegPath string
	logger     *slog.Logger
}

func NewSplitter(ffmpegPath string, logger *slog.Logger) *Splitter {
	return &Splitter{ffmpegPath: ffmpegPath, logger: logger}
}

// Split cuts [start, start+duration) out of mediaPath into outPath via
// stream copy. A failed cut removes any partial output file.
func (s *Splitter) Split(ctx context.Context, mediaPath, outPath string, start, duration float64) error {
	args := []string{
		"-nostats", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-i", mediaPath,
		"-t", formatSeconds(duration),
		"-c", "copy",
		"-y", outPath,
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	cmd.Stdout = io.Discard

	startedAt := time.Now()
	s.logger.Info("extracting clip",
		"input", mediaPath,
		"output", outPath,
		"start", start,
		"duration", duration,
	)

	err := cmd.Run()
	elapsed := time.Since(startedAt)

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}

		os.Remove(outPath)

		s.logger.Warn("clip extraction failed",
			"output", outPath,
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", stderrBuf.String(),
		)

		return &ExtractionError{
			MediaPath:  mediaPath,
			Start:      start,
			Duration:   duration,
			ExitCode:   exitCode,
			StderrTail: stderrBuf.String(),
		}
	}

	s.logger.Info("clip extracted",
		"output", outPath,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
