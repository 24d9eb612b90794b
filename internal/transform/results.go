package transform

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talentforge/cvtune/internal/chains"
)

// Store is the slice of the record store the transform stage writes to.
type Store interface {
	UpsertDocument(ctx context.Context, docID, mimeType string, content []byte) error
	HasMessages(ctx context.Context, docID string) (bool, error)
	AppendMessages(ctx context.Context, docID string, msgs []chains.Message) error
	NextTranscriptionVersion(ctx context.Context, docID string) (int, error)
	AddTranscription(ctx context.Context, docID string, version int, representation string) error
}

// ProcessOutputLines parses a batch output JSONL file and persists each
// document's translation and transcription, returning the ids that were
// saved. Per-line failures are logged and skipped; one bad line never
// aborts the rest of the batch.
func (r *Runner) ProcessOutputLines(ctx context.Context, data []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	var saved []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var out outputLine
		if err := json.Unmarshal([]byte(line), &out); err != nil {
			r.logger.Error("unparseable output line", "error", err)
			continue
		}
		if out.CustomID == "" {
			r.logger.Error("output line without custom_id")
			continue
		}
		if len(out.Error) > 0 && string(out.Error) != "null" {
			r.logger.Error("batch item failed", "doc_id", out.CustomID, "error", string(out.Error))
			continue
		}
		if len(out.Response.Body.Choices) == 0 {
			r.logger.Error("output line without choices", "doc_id", out.CustomID)
			continue
		}

		var result Result
		if err := json.Unmarshal([]byte(out.Response.Body.Choices[0].Message.Content), &result); err != nil {
			r.logger.Error("failed to parse model output", "doc_id", out.CustomID, "error", err)
			continue
		}

		if err := r.saveResult(ctx, out.CustomID, result); err != nil {
			r.logger.Error("failed to save result", "doc_id", out.CustomID, "error", err)
			continue
		}
		saved = append(saved, out.CustomID)
	}
	if err := scanner.Err(); err != nil {
		return saved, fmt.Errorf("scan output: %w", err)
	}
	return saved, nil
}

// saveResult writes one document's translated chain and transcription.
func (r *Runner) saveResult(ctx context.Context, docID string, result Result) error {
	// Reject representations that are not valid YAML before they reach
	// the store.
	var probe any
	if err := yaml.Unmarshal([]byte(result.DocumentRepresentation), &probe); err != nil {
		return fmt.Errorf("invalid yaml representation: %w", err)
	}

	has, err := r.store.HasMessages(ctx, docID)
	if err != nil {
		return fmt.Errorf("check existing messages: %w", err)
	}
	if has {
		r.logger.Info("messages already stored, skipping re-ingest", "doc_id", docID)
	} else {
		msgs := translatedToChain(result.ConversationTranslation)
		if len(msgs) > 0 {
			if err := r.store.AppendMessages(ctx, docID, msgs); err != nil {
				return fmt.Errorf("append messages: %w", err)
			}
		}
	}

	version, err := r.store.NextTranscriptionVersion(ctx, docID)
	if err != nil {
		return fmt.Errorf("next version: %w", err)
	}
	if err := r.store.AddTranscription(ctx, docID, version, result.DocumentRepresentation); err != nil {
		return fmt.Errorf("add transcription: %w", err)
	}
	return nil
}

// translatedToChain maps model output items to stored messages. The model
// sometimes flips a lone review to role user; a single-item translation is
// always an assistant review, so force it.
func translatedToChain(items []TranslatedMessage) []chains.Message {
	msgs := make([]chains.Message, 0, len(items))
	for _, item := range items {
		role := chains.RoleUser
		if item.Type == "assistant" || len(items) == 1 {
			role = chains.RoleAssistant
		}
		msgs = append(msgs, chains.Message{Role: role, Content: item.Content})
	}
	return msgs
}
