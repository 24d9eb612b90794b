package transform

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/talentforge/cvtune/internal/chains"
)

const (
	batchEndpoint    = "/v1/chat/completions"
	completionWindow = "24h"
	maxOutputTokens  = 8000

	// defaultMaxBatchBytes keeps each batch input file well under the
	// service's 200 MB file limit.
	defaultMaxBatchBytes = 50 * 1024 * 1024
)

// responseFormat constrains the model to the Result shape.
var responseFormat = json.RawMessage(`{
	"type": "json_schema",
	"json_schema": {
		"name": "cv_transform_result",
		"strict": true,
		"schema": {
			"type": "object",
			"properties": {
				"document_representation": {
					"type": "string",
					"description": "YAML representation of the CV as a string"
				},
				"conversation_translation": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"type": {"type": "string", "enum": ["assistant", "user"]},
							"content": {"type": "string"}
						},
						"required": ["type", "content"],
						"additionalProperties": false
					}
				}
			},
			"required": ["document_representation", "conversation_translation"],
			"additionalProperties": false
		}
	}
}`)

// BuildBatchLine renders one JSONL request line: the document embedded as
// a data URL plus the chain serialized as JSON for translation.
func BuildBatchLine(docID, pdfFilename string, pdfData []byte, conversation []chains.Message, model string) (string, error) {
	convJSON, err := json.Marshal(conversation)
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}

	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdfData)
	userContent := []contentPart{
		{Type: "file", File: &filePart{Filename: pdfFilename, FileData: dataURL}},
		{Type: "text", Text: string(convJSON)},
	}

	req := batchRequest{
		CustomID: docID,
		Method:   "POST",
		URL:      batchEndpoint,
		Body: requestBody{
			Model: model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userContent},
			},
			ResponseFormat: responseFormat,
			MaxTokens:      maxOutputTokens,
		},
	}

	line, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal batch line: %w", err)
	}
	return string(line), nil
}

// ChunkBatchLines splits lines into chunks whose total byte size, with one
// byte of newline overhead per line, stays under maxBytes. A single
// oversized line still gets its own chunk.
func ChunkBatchLines(lines []string, maxBytes int) [][]string {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBatchBytes
	}

	var chunks [][]string
	var current []string
	size := 0

	for _, line := range lines {
		lineSize := len(line) + 1
		if len(current) > 0 && size+lineSize > maxBytes {
			chunks = append(chunks, current)
			current = nil
			size = 0
		}
		current = append(current, line)
		size += lineSize
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// WriteBatchFile writes lines as a JSONL file with a trailing newline.
func WriteBatchFile(path string, lines []string) error {
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write batch file: %w", err)
	}
	return nil
}
