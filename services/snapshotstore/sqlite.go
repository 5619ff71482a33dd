package snapshotstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps snapshots in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the snapshot database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	// Create data directory if not exists
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	table := `
		CREATE TABLE IF NOT EXISTS snapshots (
			key VARCHAR PRIMARY KEY,
			body BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`
	if _, err := db.Exec(table); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Object, error) {
	var (
		body    []byte
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT body, updated_at FROM snapshots WHERE key = ?`, key).Scan(&body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	return Object{Body: body, UpdatedAt: time.Unix(0, updated)}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, obj Object) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, key, obj.Body, obj.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
