package transform

import "encoding/json"

// batchRequest is one line of a batch input JSONL file.
type batchRequest struct {
	CustomID string      `json:"custom_id"`
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Body     requestBody `json:"body"`
}

type requestBody struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat json.RawMessage `json:"response_format"`
	MaxTokens      int             `json:"max_tokens"`
}

// chatMessage carries either a plain string (system prompt) or content
// parts (user turn with the document and conversation text).
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type string    `json:"type"`
	Text string    `json:"text,omitempty"`
	File *filePart `json:"file,omitempty"`
}

// filePart embeds document bytes as a data URL.
type filePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

// TranslatedMessage is one conversation item as returned by the model.
// The role lives in the "type" field on the wire.
type TranslatedMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Result is the structured output the model is constrained to return for
// each document.
type Result struct {
	DocumentRepresentation  string              `json:"document_representation"`
	ConversationTranslation []TranslatedMessage `json:"conversation_translation"`
}

// outputLine is one line of a batch output JSONL file.
type outputLine struct {
	CustomID string          `json:"custom_id"`
	Error    json.RawMessage `json:"error"`
	Response struct {
		Body struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"body"`
	} `json:"response"`
}
