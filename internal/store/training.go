package store

import (
	"context"
	"fmt"

	"github.com/talentforge/cvtune/internal/chains"
)

// TrainingPair is everything the dataset builder needs for one document:
// the latest transcription plus the stored chain in order.
type TrainingPair struct {
	DocID          string
	Representation string
	Messages       []chains.Message
}

// QueryTrainingPairs returns one pair per document that has both stored
// messages and at least one transcription, using the highest transcription
// version. Order is stable by document id so dataset builds are
// reproducible.
func (s *Store) QueryTrainingPairs(ctx context.Context) ([]TrainingPair, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, t.representation
		FROM documents d
		JOIN document_transcriptions t ON t.document_id = d.id
		WHERE t.version = (
			SELECT max(version) FROM document_transcriptions
			WHERE document_id = d.id
		)
		AND EXISTS (
			SELECT 1 FROM document_messages WHERE document_id = d.id
		)
		ORDER BY d.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query training pairs: %w", err)
	}
	defer rows.Close()

	var pairs []TrainingPair
	for rows.Next() {
		var p TrainingPair
		if err := rows.Scan(&p.DocID, &p.Representation); err != nil {
			return nil, fmt.Errorf("scan training pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training pairs: %w", err)
	}

	for i := range pairs {
		msgs, err := s.Messages(ctx, pairs[i].DocID)
		if err != nil {
			return nil, fmt.Errorf("load messages for %s: %w", pairs[i].DocID, err)
		}
		pairs[i].Messages = msgs
	}
	return pairs, nil
}
