// Package transcript retrieves timed caption data for a video, trying an
// ordered list of languages with a bounded-latency race per attempt.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexitube/lexitube-ingest/internal/metrics"
)

// AutoLanguage is the terminal fallback attempted after the caller's
// primary and fallback languages: the origin's auto-generated track.
const AutoLanguage = "auto"

// ErrCaptionsDisabled marks a video whose captions are switched off
// entirely. This is a property of the video, not of any language, so no
// further language attempt can succeed.
var ErrCaptionsDisabled = errors.New("captions are disabled for this video")

// UnavailableError is returned when every language attempt has been
// exhausted without a usable transcript.
type UnavailableError struct {
	LastErr error
}

func (e *UnavailableError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("transcript unavailable: %v", e.LastErr)
	}
	return "transcript unavailable in any language"
}

func (e *UnavailableError) Unwrap() error {
	return e.LastErr
}

// Entry is one timed caption segment as produced by the caption service.
type Entry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Client fetches the caption track of a video in one language.
// A nil entry slice with a nil error means the track does not exist.
type Client interface {
	Fetch(ctx context.Context, videoID, lang string) ([]Entry, error)
}

// Fetcher tries languages in strict order, racing each attempt against a
// fixed timeout. The losing fetch of a timed-out attempt is abandoned, not
// cancelled; its own HTTP client timeout bounds the leak.
type Fetcher struct {
	client         Client
	attemptTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

func NewFetcher(client Client, attemptTimeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Fetcher {
	return &Fetcher{
		client:         client,
		attemptTimeout: attemptTimeout,
		logger:         logger,
		metrics:        m,
	}
}

type attemptResult struct {
	entries []Entry
	err     error
}

// Fetch attempts primaryLang, fallbackLang, then the auto-generated track,
// in that order, and returns the entries of the first language that yields
// a non-empty transcript along with the space-joined text.
//
// Captions being disabled aborts immediately; any other per-language
// failure is recorded and the next language is tried. When all languages
// are exhausted the recorded failure, if any, is carried in the returned
// UnavailableError.
func (f *Fetcher) Fetch(ctx context.Context, videoID, primaryLang, fallbackLang string) ([]Entry, string, error) {
	langs := []string{primaryLang, fallbackLang, AutoLanguage}
	attempted := make(map[string]bool)

	var lastErr error

	for _, lang := range langs {
		if lang == "" || attempted[lang] {
			continue
		}
		attempted[lang] = true

		entries, err := f.attempt(ctx, videoID, lang)
		if err != nil {
			if isCaptionsDisabled(err) {
				f.logger.Warn("captions disabled, aborting language fallback",
					"video_id", videoID, "lang", lang)
				return nil, "", ErrCaptionsDisabled
			}
			f.logger.Warn("transcript attempt failed",
				"video_id", videoID, "lang", lang, "error", err)
			lastErr = err
			f.countFallback()
			continue
		}

		if len(entries) == 0 {
			f.logger.Info("no transcript in language, trying next",
				"video_id", videoID, "lang", lang)
			f.countFallback()
			continue
		}

		text := JoinText(entries)
		f.logger.Info("transcript fetched",
			"video_id", videoID, "lang", lang, "entries", len(entries))
		return entries, text, nil
	}

	return nil, "", &UnavailableError{LastErr: lastErr}
}

// attempt races one language fetch against the attempt timeout.
func (f *Fetcher) attempt(ctx context.Context, videoID, lang string) ([]Entry, error) {
	resultCh := make(chan attemptResult, 1)

	go func() {
		entries, err := f.client.Fetch(ctx, videoID, lang)
		resultCh <- attemptResult{entries: entries, err: err}
	}()

	timer := time.NewTimer(f.attemptTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.entries, res.err
	case <-timer.C:
		return nil, fmt.Errorf("transcript fetch timed out after %s", f.attemptTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Fetcher) countFallback() {
	if f.metrics != nil {
		f.metrics.IncTranscriptFallbacks()
	}
}

// JoinText concatenates entry text in original order with single spaces.
func JoinText(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, " ")
}

// isCaptionsDisabled matches both the typed sentinel and external errors
// whose message indicates the video has captions switched off.
func isCaptionsDisabled(err error) bool {
	if errors.Is(err, ErrCaptionsDisabled) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "captions are disabled")
}
