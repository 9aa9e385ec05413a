package ingest

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ClipRange is a caller-supplied window of the source timeline, in seconds.
// Ranges are independent and may overlap.
type ClipRange struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Result is the manifest of artifacts produced by one ingestion.
// ClipPaths is aligned positionally with the requested ranges.
type Result struct {
	VideoPath      string   `json:"video_path"`
	TranscriptPath string   `json:"transcript_path"`
	ClipPaths      []string `json:"clip_paths"`
}

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record is the persisted history entry for one ingestion request.
type Record struct {
	ID             string    `json:"id"`
	VideoID        string    `json:"video_id"`
	Status         string    `json:"status"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	Error          string    `json:"error,omitempty"`
	VideoPath      string    `json:"video_path,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
	ClipCount      int       `json:"clip_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}

// VideoPath returns the working-directory path of the full media artifact.
func VideoPath(mediaDir, videoID string) string {
	return filepath.Join(mediaDir, videoID+".mp4")
}

// TranscriptPath returns the working-directory path of the transcript artifact.
func TranscriptPath(mediaDir, videoID string) string {
	return filepath.Join(mediaDir, videoID+".json")
}

// ClipPath returns the output path for one clip of the given media file.
// The range is encoded into the name so each (start, duration) pair maps to
// a unique, overwrite-in-place path.
func ClipPath(mediaPath string, start, duration float64) string {
	return mediaPath + "-" + FormatSeconds(start) + "-" + FormatSeconds(duration) + ".mp4"
}

// FormatSeconds renders a second count in its minimal decimal form,
// so whole seconds come out without a fractional part (10, not 10.000000).
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
