// Package speech is the client for the external speech synthesis service
// consumed by the vocabulary application. The service accepts
// {text, voice, language, engine} and answers with an audio byte stream.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	EngineNeural   = "neural"
	EngineStandard = "standard"

	maxAudioBytes = 32 << 20
)

// neuralVoices lists the voices whose preferred engine is neural; every
// other voice starts on the standard engine. One retry on the other
// engine covers voices that are only provisioned on one of the two.
var neuralVoices = map[string]bool{
	"Joanna":   true,
	"Matthew":  true,
	"Lupe":     true,
	"Lucia":    true,
	"Vicki":    true,
	"Lea":      true,
	"Takumi":   true,
	"Seoyeon":  true,
	"Camila":   true,
	"Bianca":   true,
}

// EngineFor returns the preferred synthesis engine for a voice.
func EngineFor(voice string) string {
	if neuralVoices[voice] {
		return EngineNeural
	}
	return EngineStandard
}

// fallbackEngine is the engine tried once after the preferred one fails.
func fallbackEngine(engine string) string {
	if engine == EngineNeural {
		return EngineStandard
	}
	return EngineNeural
}

// SynthesisError represents a failed synthesis attempt.
type SynthesisError struct {
	Voice      string
	Engine     string
	StatusCode int
	Body       string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed (voice=%s engine=%s): HTTP %d: %s",
		e.Voice, e.Engine, e.StatusCode, e.Body)
}

type synthesisRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
	Engine   string `json:"engine"`
}

// Client talks to the speech synthesis service.
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

// Synthesize renders text with the given voice and language. The voice's
// preferred engine is tried first; on failure the other engine is tried
// exactly once before the error is surfaced.
func (c *Client) Synthesize(ctx context.Context, text, voice, language string) ([]byte, string, error) {
	engine := EngineFor(voice)

	audio, contentType, err := c.attempt(ctx, text, voice, language, engine)
	if err == nil {
		return audio, contentType, nil
	}

	retryEngine := fallbackEngine(engine)
	c.logger.Warn("synthesis failed, retrying with fallback engine",
		"voice", voice, "engine", engine, "fallback_engine", retryEngine, "error", err)

	audio, contentType, retryErr := c.attempt(ctx, text, voice, language, retryEngine)
	if retryErr != nil {
		return nil, "", err
	}
	return audio, contentType, nil
}

func (c *Client) attempt(ctx context.Context, text, voice, language, engine string) ([]byte, string, error) {
	body, err := json.Marshal(synthesisRequest{
		Text:     text,
		Voice:    voice,
		Language: language,
		Engine:   engine,
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshal synthesis request: %w", err)
	}

	url := c.baseURL + "/synthesize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", &SynthesisError{
			Voice:      voice,
			Engine:     engine,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read synthesis response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	c.logger.Info("speech synthesized",
		"voice", voice, "engine", engine, "bytes", len(audio))
	return audio, contentType, nil
}
