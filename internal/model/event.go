package model

import (
	"time"
)

// EventType represents the type of an operational event.
type EventType string

const (
	EventTypeChatCompleted    EventType = "chat.completed"
	EventTypeChatFailed       EventType = "chat.failed"
	EventTypeCompareCompleted EventType = "compare.completed"
	EventTypeMediaUploaded    EventType = "media.uploaded"
)

// Event is published after an operation finishes. It carries metadata only,
// never conversation content or file bytes.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Sequence  uint64         `json:"sequence,omitempty"`
}
