package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/chat-assistant/internal/model"
	"github.com/capitalize-ai/chat-assistant/pkg/metrics"
)

const (
	// StreamName is the name of the assistant events stream.
	StreamName = "ASSISTANT"

	// SubjectPrefix is the prefix for all assistant subjects.
	SubjectPrefix = "assistant"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// StreamConfig returns the configuration of the events stream.
func StreamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024, // 1GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Discard:     jetstream.DiscardOld,
		Description: "Chat assistant operational events",
	}
}

// EnsureStream ensures the events stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	if _, err := js.CreateStream(ctx, StreamConfig()); err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for an event type.
func EventSubject(eventType model.EventType) string {
	return fmt.Sprintf("%s.event.%s", SubjectPrefix, eventType)
}

// EventFilter returns the filter subject matching every event.
func EventFilter() string {
	return SubjectPrefix + ".event.>"
}

// PublishEvent publishes an event to JetStream and records its stream sequence.
func (m *StreamManager) PublishEvent(ctx context.Context, event *model.Event) (uint64, error) {
	subject := EventSubject(event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		metrics.RecordEvent(string(event.Type), "error")
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data, jetstream.WithMsgID(event.ID))
	if err != nil {
		metrics.RecordEvent(string(event.Type), "error")
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.RecordEvent(string(event.Type), "success")
	event.Sequence = ack.Sequence
	return ack.Sequence, nil
}

// IsConnected reports whether the underlying connection is up.
func (m *StreamManager) IsConnected() bool {
	return m.client != nil && m.client.IsConnected()
}
