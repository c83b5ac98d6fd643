// Package history keeps a local log of answered questions in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"docqa/internal/domain"
)

// Entry is one stored answer.
type Entry struct {
	ID     string
	Result domain.Result
}

type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if they do not exist.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS answers (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			confidence REAL NOT NULL,
			contexts TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, id string, r domain.Result) error {
	contexts, err := json.Marshal(r.Contexts)
	if err != nil {
		return fmt.Errorf("marshal contexts: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO answers (id, question, answer, confidence, contexts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, r.Question, r.Answer, r.Confidence, string(contexts), r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("save answer %s: %w", id, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, confidence, contexts, created_at
		 FROM answers
		 ORDER BY seq DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			contexts string
		)
		if err := rows.Scan(&e.ID, &e.Result.Question, &e.Result.Answer, &e.Result.Confidence, &contexts, &e.Result.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(contexts), &e.Result.Contexts); err != nil {
			return nil, fmt.Errorf("decode contexts of %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
