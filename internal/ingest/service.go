package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lexitube/lexitube-ingest/internal/metrics"
)

const DefaultLanguage = "en"

// MediaDownloader is the download stage contract: full asset plus
// transcript, both on disk when it returns.
type MediaDownloader interface {
	Download(ctx context.Context, videoID, primaryLang, fallbackLang string) (videoPath, transcriptPath string, err error)
}

// ClipSplitter cuts one range out of a downloaded media file.
type ClipSplitter interface {
	Split(ctx context.Context, mediaPath, outPath string, start, duration float64) error
}

// Request is one ingestion submission after JSON decoding.
type Request struct {
	VideoID          string
	VideoURL         string
	Language         string
	FallbackLanguage string
	Ranges           []ClipRange
}

// Service orchestrates one ingestion: validate, resolve, download the
// asset and transcript, then cut all requested clips concurrently.
// Clip failures are all-or-nothing: the first failed range fails the
// whole request.
type Service struct {
	downloader MediaDownloader
	splitter   ClipSplitter
	repo       Repository
	mediaDir   string
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// flight collapses concurrent downloads of the same video so two
	// requests for one identifier never race on the same file.
	flight singleflight.Group
}

func NewService(downloader MediaDownloader, splitter ClipSplitter, repo Repository, mediaDir string, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		downloader: downloader,
		splitter:   splitter,
		repo:       repo,
		mediaDir:   mediaDir,
		logger:     logger,
		metrics:    m,
	}
}

type downloadArtifacts struct {
	videoPath      string
	transcriptPath string
}

// Ingest runs the full pipeline for one request and returns the artifact
// manifest. ClipPaths is aligned positionally with req.Ranges.
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	videoID, err := ResolveVideoID(req.VideoID, req.VideoURL)
	if err != nil {
		return nil, err
	}

	if err := validateRanges(req.Ranges); err != nil {
		return nil, err
	}

	primaryLang := req.Language
	if primaryLang == "" {
		primaryLang = DefaultLanguage
	}
	fallbackLang := req.FallbackLanguage
	if fallbackLang == "" {
		fallbackLang = DefaultLanguage
	}

	record := s.createRecord(ctx, videoID)
	log := s.logger.With("video_id", videoID, "ingest_id", record.ID)
	log.Info("ingestion started", "ranges", len(req.Ranges), "lang", primaryLang, "fallback_lang", fallbackLang)

	if s.metrics != nil {
		s.metrics.IngestStarted()
		defer s.metrics.IngestFinished()
	}

	artifacts, err, shared := s.sharedDownload(ctx, videoID, primaryLang, fallbackLang)
	if err != nil {
		return nil, s.fail(ctx, record, err)
	}
	if shared {
		log.Info("download shared with concurrent request for same video")
	}

	clipPaths, err := s.extractClips(ctx, artifacts.videoPath, req.Ranges)
	if err != nil {
		return nil, s.fail(ctx, record, err)
	}

	s.complete(ctx, record, artifacts, len(clipPaths))
	log.Info("ingestion completed", "clips", len(clipPaths))

	return &Result{
		VideoPath:      artifacts.videoPath,
		TranscriptPath: artifacts.transcriptPath,
		ClipPaths:      clipPaths,
	}, nil
}

func (s *Service) sharedDownload(ctx context.Context, videoID, primaryLang, fallbackLang string) (downloadArtifacts, error, bool) {
	v, err, shared := s.flight.Do(videoID, func() (interface{}, error) {
		videoPath, transcriptPath, err := s.downloader.Download(ctx, videoID, primaryLang, fallbackLang)
		if err != nil {
			return nil, err
		}
		return downloadArtifacts{videoPath: videoPath, transcriptPath: transcriptPath}, nil
	})
	if err != nil {
		return downloadArtifacts{}, err, shared
	}
	return v.(downloadArtifacts), nil, shared
}

// extractClips launches one cut per range and waits for all of them.
// Completion order is irrelevant: each goroutine writes its own slot, so
// the returned slice is positionally aligned with ranges.
func (s *Service) extractClips(ctx context.Context, videoPath string, ranges []ClipRange) ([]string, error) {
	clipPaths := make([]string, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			outPath := ClipPath(videoPath, r.Start, r.Duration)
			if err := s.splitter.Split(gctx, videoPath, outPath, r.Start, r.Duration); err != nil {
				return err
			}
			clipPaths[i] = outPath
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AddClipsExtracted(len(ranges))
	}
	return clipPaths, nil
}

func validateRanges(ranges []ClipRange) error {
	for i, r := range ranges {
		if r.Start < 0 {
			return NewError(KindInvalidRange, fmt.Sprintf("range %d: start must not be negative", i))
		}
		if r.Duration <= 0 {
			return NewError(KindInvalidRange, fmt.Sprintf("range %d: duration must be positive", i))
		}
	}
	return nil
}

func (s *Service) createRecord(ctx context.Context, videoID string) *Record {
	now := time.Now()
	record := &Record{
		ID:        NewID(),
		VideoID:   videoID,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.repo != nil {
		if err := s.repo.CreateIngest(ctx, record); err != nil {
			s.logger.Warn("failed to persist ingest record", "ingest_id", record.ID, "error", err)
		}
	}
	return record
}

func (s *Service) complete(ctx context.Context, record *Record, artifacts downloadArtifacts, clipCount int) {
	if s.metrics != nil {
		s.metrics.IncIngests()
	}
	if s.repo == nil {
		return
	}
	err := s.repo.UpdateIngestResult(ctx, record.ID, artifacts.videoPath, artifacts.transcriptPath, clipCount)
	if err != nil {
		s.logger.Warn("failed to update ingest record", "ingest_id", record.ID, "error", err)
	}
}

func (s *Service) fail(ctx context.Context, record *Record, err error) error {
	kind := KindOf(err)
	s.logger.Error("ingestion failed",
		"ingest_id", record.ID, "video_id", record.VideoID, "kind", string(kind), "error", err)

	if s.metrics != nil {
		s.metrics.IncIngestFailures(string(kind))
	}
	if s.repo != nil {
		if uerr := s.repo.UpdateIngestFailure(ctx, record.ID, string(kind), err.Error()); uerr != nil {
			s.logger.Warn("failed to update ingest record", "ingest_id", record.ID, "error", uerr)
		}
	}
	return err
}
