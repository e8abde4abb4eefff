package models

import (
	"encoding/json"
	"fmt"
)

// Turn roles. System appears only in outbound LLM requests, never in a
// stored transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TimestampLayout is the local date-time format stamped into transcript
// files. It sorts lexically in chronological order.
const TimestampLayout = "2006-01-02 15:04:05"

// Turn is a single conversation entry. Code is set only on assistant turns
// whose reply carried a fenced code block.
//
// On the wire and on disk a turn is a three-element array
// [role, text, code-or-null], so marshalling is hand-written.
type Turn struct {
	Role    string
	Content string
	Code    *string
}

func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{t.Role, t.Content, t.Code})
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	var parts []*string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("turn: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("turn: expected 3 elements, got %d", len(parts))
	}
	if parts[0] == nil || parts[1] == nil {
		return fmt.Errorf("turn: role and text must be strings")
	}
	t.Role = *parts[0]
	t.Content = *parts[1]
	t.Code = parts[2]
	return nil
}

// Transcript is one stored conversation. FirstQuery doubles as the display
// title; the filename is derived from its sanitized form.
type Transcript struct {
	FirstQuery string `json:"first_query"`
	Timestamp  string `json:"timestamp"`
	Messages   []Turn `json:"messages"`
}

// TranscriptEntry pairs a stored transcript with the filename it lives under.
type TranscriptEntry struct {
	Filename string `json:"filename"`
	Transcript
}

// MessageRequest is the JSON body for POST /api/chat/message.
type MessageRequest struct {
	Message string `json:"message"`
}
