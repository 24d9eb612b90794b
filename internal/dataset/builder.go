package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/talentforge/cvtune/internal/chains"
	"github.com/talentforge/cvtune/internal/store"
)

// Message is one chat turn of a fine-tuning example.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Example is one line of a fine-tuning JSONL file.
type Example struct {
	Messages []Message `json:"messages"`
}

// Build turns training pairs into fine-tuning examples. Documents without
// a transcription or without an assistant turn after trimming are skipped
// and logged. Input order is preserved, so with the store's stable
// document-id order the output is fully deterministic.
func Build(pairs []store.TrainingPair, logger *slog.Logger) []Example {
	var examples []Example

	for _, pair := range pairs {
		if pair.Representation == "" {
			logger.Warn("no transcription for document", "doc_id", pair.DocID)
			continue
		}
		if len(pair.Messages) == 0 {
			logger.Warn("no messages for document", "doc_id", pair.DocID)
			continue
		}

		turns := append([]chains.Message(nil), pair.Messages...)

		// A trailing user turn has no completion to learn from.
		if turns[len(turns)-1].Role == chains.RoleUser {
			turns = turns[:len(turns)-1]
		}

		hasAssistant := false
		for _, m := range turns {
			if m.Role == chains.RoleAssistant {
				hasAssistant = true
				break
			}
		}
		if !hasAssistant {
			logger.Warn("no assistant turn after trimming", "doc_id", pair.DocID)
			continue
		}

		msgs := []Message{
			{Role: "system", Content: reviewSystemPrompt},
			{Role: "user", Content: pair.Representation},
		}
		for _, m := range turns {
			msgs = append(msgs, Message{Role: string(m.Role), Content: m.Content})
		}
		examples = append(examples, Example{Messages: msgs})
	}
	return examples
}

// Split carves out validation examples at a fixed stride derived from
// valFraction (0.2 takes every fifth), keeping both splits deterministic
// for identical inputs. Out-of-range fractions fall back to 0.2.
func Split(examples []Example, valFraction float64) (train, validation []Example) {
	stride := 5
	if valFraction > 0 && valFraction <= 0.5 {
		stride = int(math.Round(1 / valFraction))
	}
	for i, ex := range examples {
		if (i+1)%stride == 0 {
			validation = append(validation, ex)
		} else {
			train = append(train, ex)
		}
	}
	return train, validation
}

// WriteJSONL writes examples one JSON object per line.
func WriteJSONL(path string, examples []Example) error {
	var b strings.Builder
	for _, ex := range examples {
		line, err := json.Marshal(ex)
		if err != nil {
			return fmt.Errorf("marshal example: %w", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}
