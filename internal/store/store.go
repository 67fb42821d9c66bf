// Package store keeps the prompt history in SQLite.
//
// Only prompts and the shape of their outcome are stored. Analysis results
// are never persisted, so every submit still goes to the backend.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the prompt history. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Entry is one remembered prompt.
type Entry struct {
	Prompt     string
	TrendCount int    // trends returned by the last run
	Status     string // "ready", "empty" or "error"
	Uses       int
	LastUsed   time.Time
}

// Open opens or creates the history database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database lives and dies with its connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prompts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		prompt      TEXT NOT NULL UNIQUE,
		trend_count INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		uses        INTEGER NOT NULL DEFAULT 1,
		last_used   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prompts_last_used ON prompts(last_used DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordPrompt remembers prompt with its outcome. Submitting the same prompt
// again updates the existing row and moves it to the front.
func (s *Store) RecordPrompt(prompt string, trendCount int, status string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("record prompt: empty prompt")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO prompts (prompt, trend_count, status, uses, last_used)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(prompt) DO UPDATE SET
			trend_count = excluded.trend_count,
			status      = excluded.status,
			uses        = prompts.uses + 1,
			last_used   = excluded.last_used
	`, prompt, trendCount, status, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("record prompt: %w", err)
	}
	return nil
}

// RecentPrompts returns up to limit entries, most recently used first.
func (s *Store) RecentPrompts(limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT prompt, trend_count, status, uses, last_used
		FROM prompts
		ORDER BY last_used DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ns int64
		if err := rows.Scan(&e.Prompt, &e.TrendCount, &e.Status, &e.Uses, &ns); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		e.LastUsed = time.Unix(0, ns)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune keeps the keep most recent prompts and deletes the rest,
// returning how many were removed.
func (s *Store) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM prompts WHERE id NOT IN (
			SELECT id FROM prompts ORDER BY last_used DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune prompts: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of remembered prompts.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM prompts").Scan(&n); err != nil {
		return 0, fmt.Errorf("count prompts: %w", err)
	}
	return n, nil
}
