package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexitube/lexitube-ingest/internal/source"
	"github.com/lexitube/lexitube-ingest/internal/transcript"
)

type fakeCaptionClient struct {
	entries []transcript.Entry
	err     error
}

func (f *fakeCaptionClient) Fetch(ctx context.Context, videoID, lang string) ([]transcript.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func originServer(t *testing.T, mediaBody string, downloadStatus int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/oembed"):
			w.Write([]byte(`{"title":"test"}`))
		case strings.HasPrefix(r.URL.Path, "/download"):
			if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla/5.0") {
				t.Errorf("download request User-Agent = %q, want browser UA", ua)
			}
			if downloadStatus != http.StatusOK {
				w.WriteHeader(downloadStatus)
				return
			}
			w.Write([]byte(mediaBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestDownloader(t *testing.T, srv *httptest.Server, captions transcript.Client, mediaDir string) *Downloader {
	t.Helper()

	logger := testLogger()
	origin := source.NewClient(srv.URL, 5*time.Second, logger)
	fetcher := transcript.NewFetcher(captions, time.Second, logger, nil)
	return NewDownloader(origin, fetcher, mediaDir, logger, nil)
}

func TestDownload_WritesBothArtifacts(t *testing.T) {
	srv := originServer(t, "mp4bytes", http.StatusOK)
	defer srv.Close()

	dir := t.TempDir()
	entries := []transcript.Entry{{Text: "hello world", Start: 0, Duration: 1.5}}
	d := newTestDownloader(t, srv, &fakeCaptionClient{entries: entries}, dir)

	videoPath, transcriptPath, err := d.Download(context.Background(), "abc12345678", "en", "en")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	if videoPath != filepath.Join(dir, "abc12345678.mp4") {
		t.Errorf("videoPath = %q", videoPath)
	}
	media, err := os.ReadFile(videoPath)
	if err != nil {
		t.Fatalf("reading media artifact: %v", err)
	}
	if string(media) != "mp4bytes" {
		t.Errorf("media content = %q, want mp4bytes", media)
	}

	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		t.Fatalf("reading transcript artifact: %v", err)
	}
	var got []transcript.Entry
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("transcript artifact is not valid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hello world" || got[0].Duration != 1.5 {
		t.Errorf("transcript entries = %+v", got)
	}
}

func TestDownload_StreamFailureLeavesNoPartialFile(t *testing.T) {
	srv := originServer(t, "", http.StatusForbidden)
	defer srv.Close()

	dir := t.TempDir()
	entries := []transcript.Entry{{Text: "hi", Start: 0, Duration: 1}}
	d := newTestDownloader(t, srv, &fakeCaptionClient{entries: entries}, dir)

	_, _, err := d.Download(context.Background(), "abc12345678", "en", "en")
	if KindOf(err) != KindDownloadFailed {
		t.Fatalf("KindOf(err) = %q, want download_failed", KindOf(err))
	}

	if _, statErr := os.Stat(filepath.Join(dir, "abc12345678.mp4")); !os.IsNotExist(statErr) {
		t.Error("partial media file must not remain after a failed download")
	}
}

func TestDownload_CaptionsDisabledFailsWholeDownload(t *testing.T) {
	srv := originServer(t, "mp4bytes", http.StatusOK)
	defer srv.Close()

	d := newTestDownloader(t, srv, &fakeCaptionClient{err: transcript.ErrCaptionsDisabled}, t.TempDir())

	_, _, err := d.Download(context.Background(), "abc12345678", "en", "en")
	if KindOf(err) != KindCaptionsDisabled {
		t.Fatalf("KindOf(err) = %q, want captions_disabled", KindOf(err))
	}
}

func TestDownload_TranscriptExhaustionFailsWholeDownload(t *testing.T) {
	srv := originServer(t, "mp4bytes", http.StatusOK)
	defer srv.Close()

	// A nil entry slice from every language means no track exists.
	d := newTestDownloader(t, srv, &fakeCaptionClient{}, t.TempDir())

	_, _, err := d.Download(context.Background(), "abc12345678", "en", "en")
	if KindOf(err) != KindTranscriptUnavailable {
		t.Fatalf("KindOf(err) = %q, want transcript_unavailable", KindOf(err))
	}
}
