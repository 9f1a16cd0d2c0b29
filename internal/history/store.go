// Package history persists finished transcriptions in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"hotmic/internal/domain"
)

// Entry is one recorded transcription.
type Entry struct {
	ID        int64
	CreatedAt time.Time
	Raw       string
	Final     string
	Engine    string
	Fallback  bool
	Inserted  bool
	Duration  time.Duration
}

// Store implements ports.HistoryStore on SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open creates the database at path if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at INTEGER NOT NULL,
		raw TEXT NOT NULL,
		final TEXT NOT NULL,
		engine TEXT NOT NULL,
		fallback INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Record(ctx context.Context, t domain.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcripts (created_at, raw, final, engine, fallback, inserted, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.now().UnixMilli(), t.Raw, t.Final, t.Engine, t.Fallback, t.Inserted, t.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, raw, final, engine, fallback, inserted, duration_ms
		FROM transcripts
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			createdAt  int64
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &createdAt, &e.Raw, &e.Final, &e.Engine, &e.Fallback, &e.Inserted, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes all but the newest keep entries.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM transcripts
		WHERE id NOT IN (SELECT id FROM transcripts ORDER BY created_at DESC, id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune transcripts: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
