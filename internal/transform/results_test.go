package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"testing"

	"github.com/talentforge/cvtune/internal/chains"
)

type fakeStore struct {
	docs           map[string][]byte
	messages       map[string][]chains.Message
	transcriptions map[string][]string
	failAppend     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:           make(map[string][]byte),
		messages:       make(map[string][]chains.Message),
		transcriptions: make(map[string][]string),
	}
}

func (f *fakeStore) UpsertDocument(_ context.Context, docID, _ string, content []byte) error {
	f.docs[docID] = content
	return nil
}

func (f *fakeStore) HasMessages(_ context.Context, docID string) (bool, error) {
	return len(f.messages[docID]) > 0, nil
}

func (f *fakeStore) AppendMessages(_ context.Context, docID string, msgs []chains.Message) error {
	if f.failAppend {
		return fmt.Errorf("append refused")
	}
	f.messages[docID] = append(f.messages[docID], msgs...)
	return nil
}

func (f *fakeStore) NextTranscriptionVersion(_ context.Context, docID string) (int, error) {
	return len(f.transcriptions[docID]) + 1, nil
}

func (f *fakeStore) AddTranscription(_ context.Context, docID string, version int, representation string) error {
	if version != len(f.transcriptions[docID])+1 {
		return fmt.Errorf("unexpected version %d", version)
	}
	f.transcriptions[docID] = append(f.transcriptions[docID], representation)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func outputLineJSON(t *testing.T, docID string, result Result) string {
	t.Helper()
	content, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	line := map[string]any{
		"custom_id": docID,
		"response": map[string]any{
			"body": map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": string(content)}},
				},
			},
		},
	}
	data, err := json.Marshal(line)
	if err != nil {
		t.Fatalf("marshal line: %v", err)
	}
	return string(data)
}

func TestProcessOutputLines_SavesTranslationAndTranscription(t *testing.T) {
	fs := newFakeStore()
	r := NewRunner(fs, nil, nil, Options{}, quietLogger())

	line := outputLineJSON(t, "10", Result{
		DocumentRepresentation: "document:\n  sections: []\n",
		ConversationTranslation: []TranslatedMessage{
			{Type: "user", Content: "please take a look"},
			{Type: "assistant", Content: "the summary is too long"},
		},
	})

	saved, err := r.ProcessOutputLines(context.Background(), []byte(line+"\n"))
	if err != nil {
		t.Fatalf("ProcessOutputLines failed: %v", err)
	}
	if !reflect.DeepEqual(saved, []string{"10"}) {
		t.Errorf("saved = %v", saved)
	}

	want := []chains.Message{
		{Role: chains.RoleUser, Content: "please take a look"},
		{Role: chains.RoleAssistant, Content: "the summary is too long"},
	}
	if !reflect.DeepEqual(fs.messages["10"], want) {
		t.Errorf("messages = %+v", fs.messages["10"])
	}
	if len(fs.transcriptions["10"]) != 1 {
		t.Errorf("transcriptions = %+v", fs.transcriptions["10"])
	}
}

func TestProcessOutputLines_SingleTranslationForcedAssistant(t *testing.T) {
	fs := newFakeStore()
	r := NewRunner(fs, nil, nil, Options{}, quietLogger())

	// The model sometimes tags a lone review as user; it must land as
	// assistant.
	line := outputLineJSON(t, "11", Result{
		DocumentRepresentation: "document: {}\n",
		ConversationTranslation: []TranslatedMessage{
			{Type: "user", Content: "a detailed review"},
		},
	})

	if _, err := r.ProcessOutputLines(context.Background(), []byte(line)); err != nil {
		t.Fatalf("ProcessOutputLines failed: %v", err)
	}
	if got := fs.messages["11"]; len(got) != 1 || got[0].Role != chains.RoleAssistant {
		t.Errorf("expected forced assistant role, got %+v", got)
	}
}

func TestProcessOutputLines_SkipsExistingMessages(t *testing.T) {
	fs := newFakeStore()
	fs.messages["12"] = []chains.Message{{Role: chains.RoleAssistant, Content: "already there"}}
	r := NewRunner(fs, nil, nil, Options{}, quietLogger())

	line := outputLineJSON(t, "12", Result{
		DocumentRepresentation: "document: {}\n",
		ConversationTranslation: []TranslatedMessage{
			{Type: "assistant", Content: "replayed review"},
		},
	})

	saved, err := r.ProcessOutputLines(context.Background(), []byte(line))
	if err != nil {
		t.Fatalf("ProcessOutputLines failed: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved = %v", saved)
	}

	// Messages untouched, but a new transcription version still lands.
	if len(fs.messages["12"]) != 1 || fs.messages["12"][0].Content != "already there" {
		t.Errorf("messages were re-ingested: %+v", fs.messages["12"])
	}
	if len(fs.transcriptions["12"]) != 1 {
		t.Errorf("transcription missing: %+v", fs.transcriptions["12"])
	}
}

func TestProcessOutputLines_RejectsInvalidYAML(t *testing.T) {
	fs := newFakeStore()
	r := NewRunner(fs, nil, nil, Options{}, quietLogger())

	line := outputLineJSON(t, "13", Result{
		DocumentRepresentation: "sections:\n\t- broken tab indent",
		ConversationTranslation: []TranslatedMessage{
			{Type: "assistant", Content: "review"},
		},
	})

	saved, err := r.ProcessOutputLines(context.Background(), []byte(line))
	if err != nil {
		t.Fatalf("ProcessOutputLines failed: %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("invalid yaml should not be saved, got %v", saved)
	}
	if len(fs.transcriptions["13"]) != 0 || len(fs.messages["13"]) != 0 {
		t.Errorf("store written despite invalid yaml")
	}
}

func TestProcessOutputLines_SkipsBadLines(t *testing.T) {
	fs := newFakeStore()
	r := NewRunner(fs, nil, nil, Options{}, quietLogger())

	good := outputLineJSON(t, "14", Result{
		DocumentRepresentation: "document: {}\n",
		ConversationTranslation: []TranslatedMessage{
			{Type: "assistant", Content: "review"},
		},
	})
	input := "not json at all\n" +
		`{"response":{"body":{"choices":[]}}}` + "\n" + // no custom_id
		`{"custom_id":"err","error":{"code":"failed"}}` + "\n" +
		good + "\n"

	saved, err := r.ProcessOutputLines(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("ProcessOutputLines failed: %v", err)
	}
	if !reflect.DeepEqual(saved, []string{"14"}) {
		t.Errorf("saved = %v", saved)
	}
}

func TestTranslatedToChain_Roles(t *testing.T) {
	got := translatedToChain([]TranslatedMessage{
		{Type: "user", Content: "u"},
		{Type: "assistant", Content: "a"},
	})
	want := []chains.Message{
		{Role: chains.RoleUser, Content: "u"},
		{Role: chains.RoleAssistant, Content: "a"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
