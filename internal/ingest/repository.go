package ingest

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateIngest(ctx context.Context, record *Record) error
	GetIngest(ctx context.Context, id string) (*Record, error)
	ListIngests(ctx context.Context, limit int) ([]*Record, error)
	UpdateIngestResult(ctx context.Context, id, videoPath, transcriptPath string, clipCount int) error
	UpdateIngestFailure(ctx context.Context, id, errorKind, errorMsg string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateIngest(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingests (id, video_id, status, error_kind, error, video_path, transcript_path, clip_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.VideoID, rec.Status, nullString(rec.ErrorKind), nullString(rec.Error),
		nullString(rec.VideoPath), nullString(rec.TranscriptPath), rec.ClipCount,
		rec.CreatedAt.Format(time.RFC3339), rec.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetIngest(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, video_id, status, error_kind, error, video_path, transcript_path, clip_count, created_at, updated_at
		FROM ingests WHERE id = ?
	`, id)
	return scanIngest(row)
}

func (r *SQLiteRepository) ListIngests(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, video_id, status, error_kind, error, video_path, transcript_path, clip_count, created_at, updated_at
		FROM ingests ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanIngestRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) UpdateIngestResult(ctx context.Context, id, videoPath, transcriptPath string, clipCount int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ingests SET status = ?, video_path = ?, transcript_path = ?, clip_count = ?, error_kind = NULL, error = NULL, updated_at = ?
		WHERE id = ?
	`, StatusCompleted, videoPath, transcriptPath, clipCount, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) UpdateIngestFailure(ctx context.Context, id, errorKind, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ingests SET status = ?, error_kind = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, StatusFailed, errorKind, errorMsg, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngest(row *sql.Row) (*Record, error) {
	rec, err := scanIngestRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func scanIngestRow(row rowScanner) (*Record, error) {
	var rec Record
	var errorKind, errorMsg, videoPath, transcriptPath sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&rec.ID, &rec.VideoID, &rec.Status, &errorKind, &errorMsg,
		&videoPath, &transcriptPath, &rec.ClipCount, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.ErrorKind = errorKind.String
	rec.Error = errorMsg.String
	rec.VideoPath = videoPath.String
	rec.TranscriptPath = transcriptPath.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
