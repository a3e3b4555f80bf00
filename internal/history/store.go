// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records every generation attempt in a SQLite database so
// runs can be audited, filtered and exported, and so batch generation can
// skip terms that already succeeded.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// Store manages the history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// started_at holds Unix nanoseconds so ordering and range filters compare
// numerically.
func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS generations (
			id TEXT PRIMARY KEY,
			term TEXT NOT NULL,
			model TEXT,
			status TEXT NOT NULL,
			nodes_created INTEGER NOT NULL DEFAULT 0,
			nodes_updated INTEGER NOT NULL DEFAULT 0,
			edges_created INTEGER NOT NULL DEFAULT 0,
			edges_updated INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_term ON generations(term, started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_status ON generations(status)`,
		`CREATE TABLE IF NOT EXISTS skipped_entries (
			generation_id TEXT NOT NULL REFERENCES generations(id) ON DELETE CASCADE,
			relation TEXT NOT NULL,
			idx INTEGER NOT NULL,
			lemma TEXT,
			code TEXT NOT NULL,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skipped_generation ON skipped_entries(generation_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts one generation attempt and its skipped entries in a
// single transaction. A result without an ID gets a new UUID.
func (s *Store) Record(ctx context.Context, r types.GenerationResult) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO generations (id, term, model, status, nodes_created, nodes_updated,
			edges_created, edges_updated, skipped, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Term, r.Model, string(r.Status),
		r.NodesCreated, r.NodesUpdated, r.EdgesCreated, r.EdgesUpdated,
		len(r.Skipped), r.Error,
		r.StartedAt.UnixNano(), r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting generation %s: %w", r.ID, err)
	}

	if len(r.Skipped) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO skipped_entries (generation_id, relation, idx, lemma, code, reason) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing skipped insert: %w", err)
		}
		defer stmt.Close()
		for _, sk := range r.Skipped {
			if _, err := stmt.ExecContext(ctx, r.ID, string(sk.Relation), sk.Index, sk.Lemma, sk.Code, sk.Reason); err != nil {
				return fmt.Errorf("inserting skipped entry: %w", err)
			}
		}
	}

	return tx.Commit()
}
