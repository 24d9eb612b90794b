package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talentforge/cvtune/internal/chains"
)

// UpsertDocument stores the raw document bytes for a document id.
// Replaying the same document with identical content is a no-op; the same
// id with different content returns ErrContentConflict.
func (s *Store) UpsertDocument(ctx context.Context, docID, mimeType string, content []byte) error {
	var existing []byte
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM documents WHERE id = $1`, docID,
	).Scan(&existing)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = s.pool.Exec(ctx, `
			INSERT INTO documents (id, mime_type, content)
			VALUES ($1, $2, $3)`,
			docID, mimeType, content,
		)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("query document: %w", err)
	}

	if !bytes.Equal(existing, content) {
		return fmt.Errorf("document %s: %w", docID, ErrContentConflict)
	}
	return nil
}

// HasMessages reports whether any chain messages are stored for the
// document. Used as an idempotency guard before appending a chain.
func (s *Store) HasMessages(ctx context.Context, docID string) (bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM document_messages WHERE document_id = $1`, docID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count messages: %w", err)
	}
	return count > 0, nil
}

// AppendMessages writes a document's chain in order inside one
// transaction. The seq column preserves the chain order on read.
func (s *Store) AppendMessages(ctx context.Context, docID string, msgs []chains.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for seq, m := range msgs {
		_, err = tx.Exec(ctx, `
			INSERT INTO document_messages (id, document_id, seq, role, content)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), docID, seq, string(m.Role), m.Content,
		)
		if err != nil {
			return fmt.Errorf("insert message %d: %w", seq, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Messages returns a document's chain in seq order.
func (s *Store) Messages(ctx context.Context, docID string) ([]chains.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, content FROM document_messages
		WHERE document_id = $1
		ORDER BY seq`, docID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []chains.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, chains.Message{Role: chains.Role(role), Content: content})
	}
	return msgs, rows.Err()
}
