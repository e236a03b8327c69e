package nats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/chat-assistant/internal/model"
)

func TestEventSubject(t *testing.T) {
	tests := []struct {
		eventType model.EventType
		want      string
	}{
		{model.EventTypeChatCompleted, "assistant.event.chat.completed"},
		{model.EventTypeChatFailed, "assistant.event.chat.failed"},
		{model.EventTypeCompareCompleted, "assistant.event.compare.completed"},
		{model.EventTypeMediaUploaded, "assistant.event.media.uploaded"},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			assert.Equal(t, tt.want, EventSubject(tt.eventType))
		})
	}
	assert.Equal(t, "assistant.event.>", EventFilter())
}

func TestStreamConfigCoversEventSubjects(t *testing.T) {
	cfg := StreamConfig()

	assert.Equal(t, StreamName, cfg.Name)
	assert.Equal(t, []string{"assistant.>"}, cfg.Subjects)
	assert.Equal(t, jetstream.FileStorage, cfg.Storage)
	assert.Positive(t, cfg.MaxAge)
}

func TestStreamManagerNotConnected(t *testing.T) {
	assert.False(t, NewStreamManager(nil).IsConnected())
	assert.False(t, NewStreamManager(&Client{}).IsConnected())
}

func TestCreateTLSConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := createTLSConfig(filepath.Join(dir, "missing.pem"), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CA file")

	bad := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0o600))
	_, err = createTLSConfig(bad, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse CA certificate")
}
