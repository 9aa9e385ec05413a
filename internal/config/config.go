// Package config provides configuration management for the Lexitube ingest agent.
// Configuration is loaded from environment variables with sensible defaults,
// optionally seeded from a .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 8686
	DefaultLogLevel = "info"
	DefaultDataDir  = ".lexitube"
	DefaultMediaDir = "videos"

	// Environment variable names
	EnvPort     = "LEXITUBE_PORT"
	EnvLogLevel = "LEXITUBE_LOG_LEVEL"
	EnvDataDir  = "LEXITUBE_DATA_DIR"
	EnvMediaDir = "LEXITUBE_MEDIA_DIR"

	// External service environment variable names
	EnvOriginBaseURL   = "LEXITUBE_ORIGIN_BASE_URL"
	EnvCaptionsBaseURL = "LEXITUBE_CAPTIONS_BASE_URL"
	EnvSpeechBaseURL   = "LEXITUBE_SPEECH_BASE_URL"
	EnvFFmpegPath      = "LEXITUBE_FFMPEG_PATH"

	// Database filename
	DBFilename = "lexitube.db"

	// External service defaults
	DefaultOriginBaseURL   = "https://www.youtube.com"
	DefaultCaptionsBaseURL = "https://www.youtube.com/api/timedtext"
	DefaultFFmpegPath      = "ffmpeg"

	// Pipeline timeout defaults
	DefaultTranscriptAttemptTimeout = 15 * time.Second
	DefaultDownloadClientTimeout    = 30 * time.Minute
	DefaultSpeechTimeout            = 60 * time.Second
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
	OriginBaseURL() string
	CaptionsBaseURL() string
	SpeechBaseURL() string
	FFmpegPath() string
	TranscriptAttemptTimeout() time.Duration
	DownloadClientTimeout() time.Duration
	SpeechTimeout() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	mediaDir string

	originBaseURL   string
	captionsBaseURL string
	speechBaseURL   string
	ffmpegPath      string
}

// New creates a new EnvConfig with defaults and environment variable overrides.
// A .env file in the current directory is loaded first when present.
func New() (*EnvConfig, error) {
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:            DefaultPort,
		logLevel:        DefaultLogLevel,
		dataDir:         defaultDataDir(),
		mediaDir:        DefaultMediaDir,
		originBaseURL:   DefaultOriginBaseURL,
		captionsBaseURL: DefaultCaptionsBaseURL,
		ffmpegPath:      DefaultFFmpegPath,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if md := os.Getenv(EnvMediaDir); md != "" {
		cfg.mediaDir = md
	}

	if u := os.Getenv(EnvOriginBaseURL); u != "" {
		cfg.originBaseURL = u
	}

	if u := os.Getenv(EnvCaptionsBaseURL); u != "" {
		cfg.captionsBaseURL = u
	}

	cfg.speechBaseURL = os.Getenv(EnvSpeechBaseURL)

	if f := os.Getenv(EnvFFmpegPath); f != "" {
		cfg.ffmpegPath = f
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns the working directory where media artifacts are written
func (c *EnvConfig) MediaDir() string {
	return c.mediaDir
}

// OriginBaseURL returns the base URL of the origin video platform
func (c *EnvConfig) OriginBaseURL() string {
	return c.originBaseURL
}

// CaptionsBaseURL returns the base URL of the caption service
func (c *EnvConfig) CaptionsBaseURL() string {
	return c.captionsBaseURL
}

// SpeechBaseURL returns the base URL of the speech synthesis service,
// or empty when synthesis is not configured.
func (c *EnvConfig) SpeechBaseURL() string {
	return c.speechBaseURL
}

// FFmpegPath returns the ffmpeg binary name or path
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) TranscriptAttemptTimeout() time.Duration {
	return DefaultTranscriptAttemptTimeout
}

func (c *EnvConfig) DownloadClientTimeout() time.Duration {
	return DefaultDownloadClientTimeout
}

func (c *EnvConfig) SpeechTimeout() time.Duration {
	return DefaultSpeechTimeout
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
