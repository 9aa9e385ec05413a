package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexitube/lexitube-ingest/internal/ingest"
	"github.com/lexitube/lexitube-ingest/internal/metrics"
)

// IngestService runs the full pipeline for one submission.
type IngestService interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
}

// ArtifactServer serves stored media artifacts with range support.
type ArtifactServer interface {
	ServeArtifact(w http.ResponseWriter, r *http.Request, name string) error
}

// SpeechSynthesizer turns text into spoken audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice, language string) ([]byte, string, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	IngestService  IngestService
	Repository     ingest.Repository
	ArtifactServer ArtifactServer
	SpeechClient   SpeechSynthesizer
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	StartTime      time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf(":%d", cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// Downloads and clip extraction can hold a request open for
			// minutes, so writes are uncapped.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
