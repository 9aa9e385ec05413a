package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient fetches caption tracks from a timedtext-style endpoint.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Generous cap so abandoned race losers still terminate.
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// timedTextResponse mirrors the json3 caption payload: a list of timed
// events, each holding one or more text segments.
type timedTextResponse struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			Text string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// Fetch retrieves the caption track for videoID in lang. A missing track
// yields (nil, nil); a disabled-captions response yields ErrCaptionsDisabled.
func (c *HTTPClient) Fetch(ctx context.Context, videoID, lang string) ([]Entry, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("fmt", "json3")
	if lang == AutoLanguage {
		q.Set("kind", "asr")
	} else {
		q.Set("lang", lang)
	}

	reqURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create caption request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("caption request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read caption response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrCaptionsDisabled
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("caption service returned HTTP %d", resp.StatusCode)
	}

	// The service answers 200 with an empty body when the track does not exist.
	if len(body) == 0 {
		return nil, nil
	}

	var parsed timedTextResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse caption response: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Events))
	for _, ev := range parsed.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.Text)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			Text:     text,
			Start:    float64(ev.StartMs) / 1000,
			Duration: float64(ev.DurationMs) / 1000,
		})
	}

	if len(entries) == 0 {
		return nil, nil
	}
	return entries, nil
}
