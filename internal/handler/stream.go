package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/chat-assistant/internal/model"
	"github.com/capitalize-ai/chat-assistant/internal/service"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
	"github.com/capitalize-ai/chat-assistant/pkg/metrics"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(svc *service.ChatService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		service: svc,
		logger:  log,
	}
}

// Stream handles POST /chat/stream/
// Emits "token" events while the reply is generated, then "done" or "error".
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conv, err := decodeConversation(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, "chat_stream", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeServiceError(w, r, h.logger, "chat_stream", errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	resp, err := h.service.ChatStream(ctx, conv, func(token string, index int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return sendSSEEvent(w, flusher, "token", &model.TokenEvent{
			Token: token,
			Index: index,
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Info("SSE client disconnected", zap.String("model", conv.Model()))
			return
		}
		body := errorResponse(err)
		h.logger.Error("chat stream failed", zap.String("kind", body.Kind), zap.Error(err))
		metrics.RecordError("chat_stream", body.Kind)
		sendSSEEvent(w, flusher, "error", &body)
		return
	}

	sendSSEEvent(w, flusher, "done", &model.DoneEvent{
		Response: resp.Content,
		Model:    resp.Model,
	})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
