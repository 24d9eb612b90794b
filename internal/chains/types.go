package chains

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Role tags a conversation turn. The attachment sender is the candidate
// asking for a review ("user"); everyone else in the thread is a reviewer
// ("assistant").
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged turn inside a chain.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chain is the transient unit between the chain builder and the
// translator: one CV attachment plus all messages linked to it, in
// conversation order.
type Chain struct {
	DocID       string
	PDFFilename string
	Messages    []Message
}

// Record is the persisted per-document form of a chain, the interchange
// format between the build-chains and transform stages.
type Record struct {
	Messages    []Message `json:"messages"`
	PDFFilename string    `json:"pdf_filename"`
}

// Set maps document id to its record.
type Set map[string]Record

// WriteFile stores a chain set as indented JSON.
func WriteFile(path string, set Set) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chains: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write chains: %w", err)
	}
	return nil
}

// LoadFile reads a chain set written by WriteFile.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chains: %w", err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse chains: %w", err)
	}
	return set, nil
}

// ToSet converts built chains into the persisted record form.
func ToSet(cs []Chain) Set {
	set := make(Set, len(cs))
	for _, c := range cs {
		set[c.DocID] = Record{Messages: c.Messages, PDFFilename: c.PDFFilename}
	}
	return set
}

// SortedDocIDs returns the set's document ids in stable order.
func (s Set) SortedDocIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
