// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"github.com/capitalize-ai/chat-assistant/internal/model"
	"github.com/capitalize-ai/chat-assistant/internal/service"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
)

// ChatHandler handles the chat and model comparison endpoints.
type ChatHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		logger:  log,
	}
}

// Chat handles POST /chat/
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	conv, err := decodeConversation(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, "chat", err)
		return
	}

	reply, err := h.service.Chat(r.Context(), conv)
	if err != nil {
		writeServiceError(w, r, h.logger, "chat", err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ChatResponse{Response: reply})
}

// Compare handles POST /compare_models/
func (h *ChatHandler) Compare(w http.ResponseWriter, r *http.Request) {
	conv, err := decodeConversation(w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, "compare", err)
		return
	}

	comparisons, err := h.service.Compare(r.Context(), conv)
	if err != nil {
		writeServiceError(w, r, h.logger, "compare", err)
		return
	}

	writeJSON(w, http.StatusOK, &model.CompareResponse{Comparisons: comparisons})
}
