package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// NextTranscriptionVersion returns max(version)+1 for the document, or 1
// when no transcription exists yet.
func (s *Store) NextTranscriptionVersion(ctx context.Context, docID string) (int, error) {
	var maxVersion int
	err := s.pool.QueryRow(ctx, `
		SELECT coalesce(max(version), 0) FROM document_transcriptions
		WHERE document_id = $1`, docID,
	).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("query max version: %w", err)
	}
	return maxVersion + 1, nil
}

// AddTranscription stores an English document representation at the given
// version. A duplicate (document_id, version) pair returns
// ErrVersionConflict so a concurrent or replayed run can be detected.
func (s *Store) AddTranscription(ctx context.Context, docID string, version int, representation string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO document_transcriptions (id, document_id, version, representation)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), docID, version, representation,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("document %s version %d: %w", docID, version, ErrVersionConflict)
		}
		return fmt.Errorf("insert transcription: %w", err)
	}
	return nil
}

// HasTranscription reports whether the document has at least one stored
// transcription.
func (s *Store) HasTranscription(ctx context.Context, docID string) (bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM document_transcriptions WHERE document_id = $1`, docID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count transcriptions: %w", err)
	}
	return count > 0, nil
}
