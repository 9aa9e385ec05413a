package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/lexitube/lexitube-ingest/internal/metrics"
	"github.com/lexitube/lexitube-ingest/internal/source"
	"github.com/lexitube/lexitube-ingest/internal/transcript"
)

// Downloader retrieves the full media asset and the transcript for one
// video. The media stream and the transcript fetch run concurrently; both
// artifacts are on disk before Download returns.
type Downloader struct {
	origin      *source.Client
	transcripts *transcript.Fetcher
	mediaDir    string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

func NewDownloader(origin *source.Client, transcripts *transcript.Fetcher, mediaDir string, logger *slog.Logger, m *metrics.Metrics) *Downloader {
	return &Downloader{
		origin:      origin,
		transcripts: transcripts,
		mediaDir:    mediaDir,
		logger:      logger,
		metrics:     m,
	}
}

// Download streams {videoID}.mp4 and writes {videoID}.json into the
// working directory, overwriting prior artifacts for the same video. A
// failed media stream removes its partial file.
func (d *Downloader) Download(ctx context.Context, videoID, primaryLang, fallbackLang string) (string, string, error) {
	if err := os.MkdirAll(d.mediaDir, 0755); err != nil {
		return "", "", WrapError(KindInternal, "create media dir", err)
	}

	videoPath := VideoPath(d.mediaDir, videoID)
	transcriptPath := TranscriptPath(d.mediaDir, videoID)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.downloadMedia(gctx, videoID, videoPath)
	})

	g.Go(func() error {
		entries, _, err := d.transcripts.Fetch(gctx, videoID, primaryLang, fallbackLang)
		if err != nil {
			return err
		}
		return d.writeTranscript(transcriptPath, entries)
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}

	return videoPath, transcriptPath, nil
}

func (d *Downloader) downloadMedia(ctx context.Context, videoID, videoPath string) error {
	if err := d.origin.Exists(ctx, videoID); err != nil {
		return err
	}

	stream, err := d.origin.Stream(ctx, videoID)
	if err != nil {
		return err
	}
	defer stream.Close()

	file, err := os.Create(videoPath)
	if err != nil {
		return WrapError(KindDownloadFailed, "create media file", err)
	}

	written, err := io.Copy(file, stream)
	closeErr := file.Close()

	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(videoPath)
		return WrapError(KindDownloadFailed, "stream media to disk", err)
	}

	if d.metrics != nil {
		d.metrics.AddDownloadBytes(written)
	}
	d.logger.Info("media downloaded", "video_id", videoID, "path", videoPath, "bytes", written)
	return nil
}

func (d *Downloader) writeTranscript(transcriptPath string, entries []transcript.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return WrapError(KindInternal, "marshal transcript", err)
	}
	if err := os.WriteFile(transcriptPath, data, 0644); err != nil {
		return WrapError(KindInternal, "write transcript file", err)
	}
	d.logger.Info("transcript written", "path", transcriptPath, "entries", len(entries))
	return nil
}
