// Package archive keeps a SQLite record of processed messages, backing
// the counters shown by /stats.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"solrem/internal/domain"

	_ "modernc.org/sqlite"
)

// Store implements domain.Archive using SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL,
		username    TEXT,
		chat_id     INTEGER NOT NULL,
		message_id  INTEGER NOT NULL,
		path        TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		title       TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_messages_time ON messages(created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_outcome ON messages(outcome);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Record(ctx context.Context, e domain.ArchiveEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (user_id, username, chat_id, message_id, path, outcome, title, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Username, e.ChatID, e.MessageID, e.Path, e.Outcome, e.Title, e.CreatedAt,
	)
	return err
}

func (s *Store) Counts(ctx context.Context) (domain.ArchiveCounts, error) {
	var c domain.ArchiveCounts
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(outcome = 'saved'), 0),
		        COALESCE(SUM(outcome = 'failed'), 0),
		        COALESCE(SUM(outcome = 'denied'), 0)
		 FROM messages`,
	).Scan(&c.Total, &c.Saved, &c.Failed, &c.Denied)
	if err != nil {
		return domain.ArchiveCounts{}, err
	}
	return c, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
