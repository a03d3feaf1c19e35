// Package history persists completed capture sessions to SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed capture session.
type Record struct {
	ID         int64
	SessionID  string
	Transcript string
	Tokens     int
	Failures   int64
	StartedAt  time.Time
	EndedAt    time.Time
}

// Store wraps the SQLite-backed session history.
type Store struct {
	db    *sql.DB
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the history database, creating parent directories and the
// schema as needed.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    transcript TEXT NOT NULL,
    tokens INTEGER NOT NULL,
    failures INTEGER NOT NULL,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_ended ON sessions(ended_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes one completed session. Sessions with empty transcripts are
// recorded too; they show up in history as runs that captured nothing.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if rec.EndedAt.IsZero() {
		rec.EndedAt = s.clock().UTC()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.EndedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(session_id, transcript, tokens, failures, started_at, ended_at)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Transcript, rec.Tokens, rec.Failures,
		rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.EndedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}

	if s.log != nil {
		s.log.Info("session recorded", "session_id", rec.SessionID, "tokens", rec.Tokens)
	}
	return nil
}

// List retrieves up to limit sessions, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, transcript, tokens, failures, started_at, ended_at
		 FROM sessions ORDER BY ended_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var started, ended string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Transcript, &rec.Tokens, &rec.Failures, &started, &ended); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			rec.StartedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339Nano, ended); err == nil {
			rec.EndedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
