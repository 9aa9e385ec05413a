package api

import (
	"time"

	"github.com/lexitube/lexitube-ingest/internal/ingest"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ChunkRequest struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type IngestRequest struct {
	VideoID          string         `json:"videoId,omitempty"`
	VideoURL         string         `json:"videoUrl,omitempty"`
	Language         string         `json:"language,omitempty"`
	FallbackLanguage string         `json:"fallbackLanguage,omitempty"`
	Chunks           []ChunkRequest `json:"chunks"`
}

type IngestResponse struct {
	VideoFilename      string   `json:"videoFilename"`
	TranscriptFilename string   `json:"transcriptFilename"`
	VideoSplitFiles    []string `json:"videoSplitFiles"`
	Message            string   `json:"message"`
}

type RecordResponse struct {
	ID             string `json:"id"`
	VideoID        string `json:"video_id"`
	Status         string `json:"status"`
	ErrorKind      string `json:"error_kind,omitempty"`
	Error          string `json:"error,omitempty"`
	VideoPath      string `json:"video_path,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	ClipCount      int    `json:"clip_count"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type RecordsResponse struct {
	Ingests []RecordResponse `json:"ingests"`
}

type SpeechRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	Language string `json:"language,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (r IngestRequest) ToIngestRequest() ingest.Request {
	ranges := make([]ingest.ClipRange, len(r.Chunks))
	for i, c := range r.Chunks {
		ranges[i] = ingest.ClipRange{Start: c.Start, Duration: c.Duration}
	}
	return ingest.Request{
		VideoID:          r.VideoID,
		VideoURL:         r.VideoURL,
		Language:         r.Language,
		FallbackLanguage: r.FallbackLanguage,
		Ranges:           ranges,
	}
}

func ResultToResponse(res *ingest.Result) IngestResponse {
	clips := res.ClipPaths
	if clips == nil {
		clips = []string{}
	}
	return IngestResponse{
		VideoFilename:      res.VideoPath,
		TranscriptFilename: res.TranscriptPath,
		VideoSplitFiles:    clips,
		Message:            "video ingested successfully",
	}
}

func RecordToResponse(rec *ingest.Record) RecordResponse {
	return RecordResponse{
		ID:             rec.ID,
		VideoID:        rec.VideoID,
		Status:         rec.Status,
		ErrorKind:      rec.ErrorKind,
		Error:          rec.Error,
		VideoPath:      rec.VideoPath,
		TranscriptPath: rec.TranscriptPath,
		ClipCount:      rec.ClipCount,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      rec.UpdatedAt.Format(time.RFC3339),
	}
}
