package completion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps completion records in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the completion database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps the check-and-set below serialized inside the process.
	db.SetMaxOpenConns(1)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(pctx, `CREATE TABLE IF NOT EXISTS batch_completion (
  batch_key    TEXT PRIMARY KEY,
  trigger_id   TEXT NOT NULL,
  completed_at TEXT NOT NULL,
  expires_at   INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SetIfAbsent(ctx context.Context, rec Record, now time.Time) (bool, error) {
	if rec.BatchKey == "" {
		return false, ErrEmptyBatchKey
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO batch_completion (batch_key, trigger_id, completed_at, expires_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(batch_key) DO UPDATE SET
  trigger_id = excluded.trigger_id,
  completed_at = excluded.completed_at,
  expires_at = excluded.expires_at
WHERE batch_completion.expires_at <= ?;`,
		rec.BatchKey, rec.TriggerID, rec.CompletedAt.UTC().Format(time.RFC3339Nano), rec.ExpiresAt, now.Unix())
	if err != nil {
		return false, fmt.Errorf("upsert completion record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, batchKey, triggerID string) error {
	const q = `DELETE FROM batch_completion WHERE batch_key = ? AND trigger_id = ?;`
	if _, err := s.db.ExecContext(ctx, q, batchKey, triggerID); err != nil {
		return fmt.Errorf("delete completion record: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
