// Package storage keeps a local ledger of form submissions and how their relay went.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"immerseforge-site/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	email_hash     TEXT NOT NULL,
	position       TEXT NOT NULL DEFAULT '',
	notion_page_id TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	last_error     TEXT NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_status_created ON submissions (status, created_at DESC);
`

// Submission is one ledger row. EmailHash never holds the clear address.
type Submission struct {
	ID           string
	Kind         string
	EmailHash    string
	Position     string
	NotionPageID string
	Status       models.SubmissionStatus
	LastError    string
	CreatedAt    time.Time
}

// Store provides SQLite-backed submission persistence.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record upserts a submission row.
func (s *Store) Record(ctx context.Context, sub Submission) error {
	if s == nil || s.db == nil {
		return errors.New("storage is not configured")
	}
	if strings.TrimSpace(sub.ID) == "" {
		return errors.New("submission id is required")
	}
	if sub.Kind == "" {
		return errors.New("submission kind is required")
	}
	if sub.Status == "" {
		return errors.New("submission status is required")
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO submissions (id, kind, email_hash, position, notion_page_id, status, last_error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	notion_page_id = excluded.notion_page_id,
	status = excluded.status,
	last_error = excluded.last_error
`,
		sub.ID,
		sub.Kind,
		sub.EmailHash,
		sub.Position,
		sub.NotionPageID,
		string(sub.Status),
		sub.LastError,
		sub.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// List returns newest-first rows, filtered by status when status is non-empty.
func (s *Store) List(ctx context.Context, status models.SubmissionStatus, limit int) ([]Submission, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage is not configured")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be greater than zero")
	}

	query := `SELECT id, kind, email_hash, position, notion_page_id, status, last_error, created_at FROM submissions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var (
			sub       Submission
			status    string
			createdAt int64
		)
		if err := rows.Scan(&sub.ID, &sub.Kind, &sub.EmailHash, &sub.Position, &sub.NotionPageID, &status, &sub.LastError, &createdAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.Status = models.SubmissionStatus(status)
		sub.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}
