package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced by the write paths so callers can decide
// whether a conflict is fatal or just a replay of earlier work.
var (
	// ErrContentConflict means a document id already exists with
	// different PDF bytes. Re-running over the same export must never
	// silently swap the content behind a stored transcription.
	ErrContentConflict = errors.New("document exists with different content")

	// ErrVersionConflict means a transcription with the same
	// (document_id, version) pair already exists.
	ErrVersionConflict = errors.New("transcription version already exists")
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables this pipeline writes to. Statements are
// idempotent so the command can run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id         text PRIMARY KEY,
			mime_type  text NOT NULL,
			content    bytea NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS document_messages (
			id          uuid PRIMARY KEY,
			document_id text NOT NULL REFERENCES documents(id),
			seq         int NOT NULL,
			role        text NOT NULL CHECK (role IN ('user', 'assistant')),
			content     text NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now(),
			UNIQUE (document_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS document_transcriptions (
			id             uuid PRIMARY KEY,
			document_id    text NOT NULL REFERENCES documents(id),
			version        int NOT NULL,
			representation text NOT NULL,
			created_at     timestamptz NOT NULL DEFAULT now(),
			UNIQUE (document_id, version)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
