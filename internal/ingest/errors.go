package ingest

import (
	"errors"
	"fmt"

	"github.com/lexitube/lexitube-ingest/internal/clip"
	"github.com/lexitube/lexitube-ingest/internal/source"
	"github.com/lexitube/lexitube-ingest/internal/transcript"
)

// Kind classifies every failure the pipeline can surface to a caller.
type Kind string

const (
	KindInvalidReference      Kind = "invalid_reference"
	KindInvalidRange          Kind = "invalid_range"
	KindCaptionsDisabled      Kind = "captions_disabled"
	KindTranscriptUnavailable Kind = "transcript_unavailable"
	KindDownloadFailed        Kind = "download_failed"
	KindClipExtractionFailed  Kind = "clip_extraction_failed"
	KindInternal              Kind = "internal"
)

// Error is a pipeline failure tagged with its taxonomy kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs a tagged pipeline error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError tags an underlying error with a taxonomy kind.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the taxonomy kind of err, classifying component errors
// from the source, transcript, and clip packages.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, transcript.ErrCaptionsDisabled) {
		return KindCaptionsDisabled
	}
	var ue *transcript.UnavailableError
	if errors.As(err, &ue) {
		return KindTranscriptUnavailable
	}
	var de *source.DownloadError
	if errors.As(err, &de) {
		return KindDownloadFailed
	}
	var ce *clip.ExtractionError
	if errors.As(err, &ce) {
		return KindClipExtractionFailed
	}
	return KindInternal
}

// IsCallerError reports whether err is a 400-class caller input error.
func IsCallerError(err error) bool {
	switch KindOf(err) {
	case KindInvalidReference, KindInvalidRange:
		return true
	}
	return false
}
