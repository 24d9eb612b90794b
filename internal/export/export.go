package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Message is a normalized chat-export message event.
type Message struct {
	ID        int64
	SenderID  string
	Timestamp time.Time
	ReplyTo   int64 // 0 when the event carries no reply reference
	FileName  string
	MimeType  string
	Text      string
}

// rawExport is the top level of a Telegram chat export (result.json).
type rawExport struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Messages []json.RawMessage `json:"messages"`
}

// rawMessage is a single export event. Fields vary by event type, so every
// one of them is optional.
type rawMessage struct {
	ID           int64           `json:"id"`
	Type         string          `json:"type"`
	Date         string          `json:"date"`
	DateUnixtime string          `json:"date_unixtime"`
	FromID       string          `json:"from_id"`
	ReplyTo      *int64          `json:"reply_to_message_id"`
	File         string          `json:"file"`
	FileName     string          `json:"file_name"`
	MimeType     string          `json:"mime_type"`
	TextEntities []rawTextEntity `json:"text_entities"`
}

type rawTextEntity struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// telegramDateLayout is the local-time layout Telegram uses in the "date"
// field when "date_unixtime" is absent.
const telegramDateLayout = "2006-01-02T15:04:05"

// ParseFile reads a Telegram chat export and returns normalized message
// events in file order. Malformed individual events are skipped and logged;
// only a broken top-level document fails the whole call.
func ParseFile(path string, logger *slog.Logger) ([]Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return Parse(data, logger)
}

// Parse decodes raw export bytes. See ParseFile.
func Parse(data []byte, logger *slog.Logger) ([]Message, error) {
	var exp rawExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	msgs := make([]Message, 0, len(exp.Messages))
	skipped := 0
	for _, raw := range exp.Messages {
		var rm rawMessage
		if err := json.Unmarshal(raw, &rm); err != nil {
			skipped++
			logger.Warn("skipping malformed export event", "error", err)
			continue
		}

		// Service events (joins, pins, etc.) carry no conversation content.
		if rm.Type != "message" {
			continue
		}
		if rm.ID == 0 || rm.FromID == "" {
			skipped++
			logger.Warn("skipping export event without id or sender", "id", rm.ID)
			continue
		}

		m := Message{
			ID:        rm.ID,
			SenderID:  rm.FromID,
			Timestamp: parseTimestamp(rm),
			FileName:  rm.FileName,
			MimeType:  rm.MimeType,
			Text:      flattenText(rm.TextEntities),
		}
		if rm.ReplyTo != nil {
			m.ReplyTo = *rm.ReplyTo
		}
		msgs = append(msgs, m)
	}

	logger.Info("export parsed",
		"chat", exp.Name,
		"events", len(exp.Messages),
		"messages", len(msgs),
		"skipped", skipped,
	)

	return msgs, nil
}

func parseTimestamp(rm rawMessage) time.Time {
	if rm.DateUnixtime != "" {
		if sec, err := strconv.ParseInt(rm.DateUnixtime, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	if rm.Date != "" {
		if ts, err := time.Parse(telegramDateLayout, rm.Date); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// flattenText concatenates plain text entities. Blockquote entities are kept
// as markdown quotes so the reviewer's inline citations survive.
func flattenText(entities []rawTextEntity) string {
	var text string
	for _, e := range entities {
		switch e.Type {
		case "plain":
			text += e.Text
		case "blockquote":
			text += "\n> " + e.Text + "\n"
		}
	}
	return text
}
