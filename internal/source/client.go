// Package source talks to the origin video platform: an oEmbed-style
// existence check and the raw media stream download.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// The origin blocks requests that do not identify as a browser.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DownloadError represents a failed media retrieval from the origin.
type DownloadError struct {
	VideoID    string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download failed for %s: HTTP %d", e.VideoID, e.StatusCode)
	}
	return fmt.Sprintf("download failed for %s: %v", e.VideoID, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Client streams media from the origin platform.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Exists checks the origin's oEmbed endpoint for the video. A 404 (or any
// client error) means the video does not exist or is not embeddable.
func (c *Client) Exists(ctx context.Context, videoID string) error {
	q := url.Values{}
	q.Set("url", c.baseURL+"/watch?v="+videoID)
	q.Set("format", "json")
	reqURL := c.baseURL + "/oembed?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &DownloadError{VideoID: videoID, Err: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DownloadError{VideoID: videoID, Err: fmt.Errorf("existence check: %w", err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return &DownloadError{VideoID: videoID, StatusCode: resp.StatusCode}
	}
	return nil
}

// Stream opens the media download for the video. The caller owns the
// returned body and must close it.
func (c *Client) Stream(ctx context.Context, videoID string) (io.ReadCloser, error) {
	reqURL := c.baseURL + "/download?v=" + url.QueryEscape(videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &DownloadError{VideoID: videoID, Err: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)

	c.logger.Info("opening media stream", "video_id", videoID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &DownloadError{VideoID: videoID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &DownloadError{VideoID: videoID, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}
