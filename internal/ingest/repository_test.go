package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexitube/lexitube-ingest/internal/db"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), testLogger())
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewRepository(database.Conn())
}

func newRecord(videoID string) *Record {
	now := time.Now().UTC().Truncate(time.Second)
	return &Record{
		ID:        NewID(),
		VideoID:   videoID,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := newRecord("abc12345678")
	if err := repo.CreateIngest(ctx, rec); err != nil {
		t.Fatalf("CreateIngest() error = %v", err)
	}

	got, err := repo.GetIngest(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetIngest() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetIngest() returned nil for existing record")
	}
	if got.VideoID != "abc12345678" || got.Status != StatusRunning {
		t.Errorf("record = %+v", got)
	}
	if got.ErrorKind != "" || got.VideoPath != "" {
		t.Errorf("new record should have empty error and paths, got %+v", got)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetIngest(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetIngest() error = %v", err)
	}
	if got != nil {
		t.Fatalf("GetIngest() = %+v, want nil for missing record", got)
	}
}

func TestRepository_UpdateResult(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := newRecord("abc12345678")
	if err := repo.CreateIngest(ctx, rec); err != nil {
		t.Fatalf("CreateIngest() error = %v", err)
	}

	err := repo.UpdateIngestResult(ctx, rec.ID, "videos/abc12345678.mp4", "videos/abc12345678.json", 3)
	if err != nil {
		t.Fatalf("UpdateIngestResult() error = %v", err)
	}

	got, err := repo.GetIngest(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetIngest() error = %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.VideoPath != "videos/abc12345678.mp4" || got.ClipCount != 3 {
		t.Errorf("record = %+v", got)
	}
}

func TestRepository_UpdateFailure(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := newRecord("abc12345678")
	if err := repo.CreateIngest(ctx, rec); err != nil {
		t.Fatalf("CreateIngest() error = %v", err)
	}

	err := repo.UpdateIngestFailure(ctx, rec.ID, string(KindTranscriptUnavailable), "no transcript in any requested language")
	if err != nil {
		t.Fatalf("UpdateIngestFailure() error = %v", err)
	}

	got, err := repo.GetIngest(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetIngest() error = %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.ErrorKind != "transcript_unavailable" {
		t.Errorf("error kind = %q", got.ErrorKind)
	}
}

func TestRepository_ListOrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		rec := newRecord("video_" + string(rune('a'+i)))
		rec.CreatedAt = base.Add(time.Duration(i) * time.Second)
		rec.UpdatedAt = rec.CreatedAt
		if err := repo.CreateIngest(ctx, rec); err != nil {
			t.Fatalf("CreateIngest() error = %v", err)
		}
	}

	records, err := repo.ListIngests(ctx, 2)
	if err != nil {
		t.Fatalf("ListIngests() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListIngests() returned %d records, want 2", len(records))
	}
	if records[0].VideoID != "video_c" {
		t.Errorf("newest record first, got %q", records[0].VideoID)
	}
}

func TestRepository_ConfigRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.GetConfig(ctx, "auth_token")
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if got != "" {
		t.Errorf("GetConfig(missing) = %q, want empty", got)
	}

	if err := repo.SetConfig(ctx, "auth_token", "first"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if err := repo.SetConfig(ctx, "auth_token", "second"); err != nil {
		t.Fatalf("SetConfig() overwrite error = %v", err)
	}

	got, err = repo.GetConfig(ctx, "auth_token")
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if got != "second" {
		t.Errorf("GetConfig() = %q, want second", got)
	}
}
