package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexitube/lexitube-ingest/internal/api"
	"github.com/lexitube/lexitube-ingest/internal/artifacts"
	"github.com/lexitube/lexitube-ingest/internal/clip"
	"github.com/lexitube/lexitube-ingest/internal/config"
	"github.com/lexitube/lexitube-ingest/internal/db"
	"github.com/lexitube/lexitube-ingest/internal/ingest"
	"github.com/lexitube/lexitube-ingest/internal/logging"
	"github.com/lexitube/lexitube-ingest/internal/metrics"
	"github.com/lexitube/lexitube-ingest/internal/source"
	"github.com/lexitube/lexitube-ingest/internal/speech"
	"github.com/lexitube/lexitube-ingest/internal/transcript"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.MediaDir(), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting lexitube ingest",
		"version", config.Version,
		"data_dir", cfg.DataDir(),
		"media_dir", cfg.MediaDir(),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := ingest.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}
	logger.Info("auth token ready", "token", logging.SanitizeToken(authToken))

	m := metrics.New()

	origin := source.NewClient(cfg.OriginBaseURL(), cfg.DownloadClientTimeout(), logger)
	captions := transcript.NewHTTPClient(cfg.CaptionsBaseURL(), logger)
	fetcher := transcript.NewFetcher(captions, cfg.TranscriptAttemptTimeout(), logger, m)
	downloader := ingest.NewDownloader(origin, fetcher, cfg.MediaDir(), logger, m)
	splitter := clip.NewSplitter(cfg.FFmpegPath(), logger)
	service := ingest.NewService(downloader, splitter, repo, cfg.MediaDir(), logger, m)
	artifactSrv := artifacts.NewServer(cfg.MediaDir(), logger)

	var speechClient api.SpeechSynthesizer
	if cfg.SpeechBaseURL() != "" {
		speechClient = speech.NewClient(cfg.SpeechBaseURL(), cfg.SpeechTimeout(), logger)
		logger.Info("speech synthesis enabled", "base_url", cfg.SpeechBaseURL())
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		IngestService:  service,
		Repository:     repo,
		ArtifactServer: artifactSrv,
		SpeechClient:   speechClient,
		Metrics:        m,
		Logger:         logger,
		StartTime:      startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo ingest.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
