package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State tracks batch progress for resumable transform runs. Batch ids stay
// in PendingBatches until their output has been processed, so a later
// save-results run can pick them up.
type State struct {
	StartedAt       time.Time `json:"started_at"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	PendingBatches  []string  `json:"pending_batches"`
	ProcessedDocs   []string  `json:"processed_docs"`
	Errors          []string  `json:"errors"`

	path string // not serialized
}

// LoadState loads the state from disk, or creates a new one.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{
				StartedAt: time.Now().UTC(),
				path:      path,
			}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.path = path
	return &s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// AddBatch records a newly submitted batch id.
func (s *State) AddBatch(batchID string) {
	s.PendingBatches = append(s.PendingBatches, batchID)
}

// RemoveBatch drops a batch id once its output has been handled.
func (s *State) RemoveBatch(batchID string) {
	for i, id := range s.PendingBatches {
		if id == batchID {
			s.PendingBatches = append(s.PendingBatches[:i], s.PendingBatches[i+1:]...)
			return
		}
	}
}

// MarkProcessed records a document whose results landed in the store.
func (s *State) MarkProcessed(docID string) {
	s.ProcessedDocs = append(s.ProcessedDocs, docID)
}

// AddError records a processing error.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}
