package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/chat-assistant/internal/middleware"
	"github.com/capitalize-ai/chat-assistant/internal/model"
	"github.com/capitalize-ai/chat-assistant/internal/service"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
	"github.com/capitalize-ai/chat-assistant/pkg/metrics"
)

// maxJSONBody bounds conversation bodies.
const maxJSONBody = 10 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse builds the failure body for err.
func errorResponse(err error) model.ErrorResponse {
	resp := model.ErrorResponse{
		Detail: err.Error(),
		Kind:   string(service.KindUpstream),
	}
	var se *service.Error
	if errors.As(err, &se) {
		resp.Kind = string(se.Kind)
		resp.Retryable = se.Retryable
	}
	if resp.Detail == "" {
		resp.Detail = "internal error"
	}
	return resp
}

// writeServiceError logs err and writes the matching failure response.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, op string, err error) {
	resp := errorResponse(err)
	status := statusFor(service.Kind(resp.Kind))

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("kind", resp.Kind),
		zap.Bool("retryable", resp.Retryable),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.Error(err),
	}
	if status < http.StatusInternalServerError {
		log.Warn("request rejected", fields...)
	} else {
		log.Error("request failed", fields...)
	}
	metrics.RecordError(op, resp.Kind)

	writeJSON(w, status, resp)
}

// decodeConversation reads and validates a conversation body.
func decodeConversation(w http.ResponseWriter, r *http.Request) (*model.Conversation, error) {
	var conv model.Conversation

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&conv); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, service.TooLargeError("decode", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, service.ValidationError("decode", errors.New("request body is required"))
		default:
			return nil, service.ValidationError("decode", fmt.Errorf("invalid request body: %w", err))
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, service.ValidationError("decode", errors.New("invalid request body: unexpected data after JSON object"))
	}

	if err := middleware.ValidateConversation(&conv); err != nil {
		return nil, service.ValidationError("validate", err)
	}
	return &conv, nil
}
