//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/talentforge/cvtune/internal/chains"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func cleanupDocument(t *testing.T, s *Store, docID string) {
	t.Helper()
	ctx := context.Background()
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM document_transcriptions WHERE document_id = $1", docID)
		s.pool.Exec(ctx, "DELETE FROM document_messages WHERE document_id = $1", docID)
		s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", docID)
	})
}

func TestIntegration_UpsertDocumentIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	docID := "it-" + uuid.New().String()[:8]
	cleanupDocument(t, s, docID)

	content := []byte("%PDF-1.4 test")
	if err := s.UpsertDocument(ctx, docID, "application/pdf", content); err != nil {
		t.Fatalf("UpsertDocument failed: %v", err)
	}

	// Same id, same content: replay is a no-op.
	if err := s.UpsertDocument(ctx, docID, "application/pdf", content); err != nil {
		t.Fatalf("UpsertDocument replay failed: %v", err)
	}

	// Same id, different content: conflict.
	err := s.UpsertDocument(ctx, docID, "application/pdf", []byte("%PDF-1.4 other"))
	if !errors.Is(err, ErrContentConflict) {
		t.Errorf("expected ErrContentConflict, got %v", err)
	}
}

func TestIntegration_MessagesRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	docID := "it-" + uuid.New().String()[:8]
	cleanupDocument(t, s, docID)

	if err := s.UpsertDocument(ctx, docID, "application/pdf", []byte("pdf")); err != nil {
		t.Fatalf("UpsertDocument failed: %v", err)
	}

	has, err := s.HasMessages(ctx, docID)
	if err != nil {
		t.Fatalf("HasMessages failed: %v", err)
	}
	if has {
		t.Fatal("expected no messages before append")
	}

	msgs := []chains.Message{
		{Role: chains.RoleUser, Content: "please review"},
		{Role: chains.RoleAssistant, Content: "detailed review"},
	}
	if err := s.AppendMessages(ctx, docID, msgs); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	has, err = s.HasMessages(ctx, docID)
	if err != nil {
		t.Fatalf("HasMessages failed: %v", err)
	}
	if !has {
		t.Fatal("expected messages after append")
	}

	got, err := s.Messages(ctx, docID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(got) != 2 || got[0].Content != "please review" || got[1].Role != chains.RoleAssistant {
		t.Errorf("messages out of order or wrong: %+v", got)
	}
}

func TestIntegration_AppendMessagesRequiresDocument(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.AppendMessages(ctx, "missing-"+uuid.New().String()[:8], []chains.Message{
		{Role: chains.RoleUser, Content: "orphan"},
	})
	if err == nil {
		t.Fatal("expected foreign key error for missing document")
	}
}

func TestIntegration_TranscriptionVersions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	docID := "it-" + uuid.New().String()[:8]
	cleanupDocument(t, s, docID)

	if err := s.UpsertDocument(ctx, docID, "application/pdf", []byte("pdf")); err != nil {
		t.Fatalf("UpsertDocument failed: %v", err)
	}

	v, err := s.NextTranscriptionVersion(ctx, docID)
	if err != nil {
		t.Fatalf("NextTranscriptionVersion failed: %v", err)
	}
	if v != 1 {
		t.Errorf("expected first version 1, got %d", v)
	}

	if err := s.AddTranscription(ctx, docID, v, "name: Anna"); err != nil {
		t.Fatalf("AddTranscription failed: %v", err)
	}

	// Same version again conflicts.
	err = s.AddTranscription(ctx, docID, v, "name: Anna (retry)")
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	v, err = s.NextTranscriptionVersion(ctx, docID)
	if err != nil {
		t.Fatalf("NextTranscriptionVersion failed: %v", err)
	}
	if v != 2 {
		t.Errorf("expected next version 2, got %d", v)
	}
}

func TestIntegration_QueryTrainingPairsLatestVersion(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	docID := "it-" + uuid.New().String()[:8]
	cleanupDocument(t, s, docID)

	if err := s.UpsertDocument(ctx, docID, "application/pdf", []byte("pdf")); err != nil {
		t.Fatalf("UpsertDocument failed: %v", err)
	}
	if err := s.AppendMessages(ctx, docID, []chains.Message{
		{Role: chains.RoleAssistant, Content: "review"},
	}); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}
	if err := s.AddTranscription(ctx, docID, 1, "old representation"); err != nil {
		t.Fatalf("AddTranscription v1 failed: %v", err)
	}
	if err := s.AddTranscription(ctx, docID, 2, "new representation"); err != nil {
		t.Fatalf("AddTranscription v2 failed: %v", err)
	}

	pairs, err := s.QueryTrainingPairs(ctx)
	if err != nil {
		t.Fatalf("QueryTrainingPairs failed: %v", err)
	}

	var found *TrainingPair
	for i := range pairs {
		if pairs[i].DocID == docID {
			found = &pairs[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("document %s not in training pairs", docID)
	}
	if found.Representation != "new representation" {
		t.Errorf("expected latest transcription, got %q", found.Representation)
	}
	if len(found.Messages) != 1 || found.Messages[0].Content != "review" {
		t.Errorf("unexpected messages: %+v", found.Messages)
	}
}
