package handler

import (
	"net/http"

	"github.com/capitalize-ai/chat-assistant/internal/model"
)

// ModelCatalog describes how model identifiers resolve to providers.
type ModelCatalog interface {
	DefaultProvider() string
	Providers() map[string][]string
	Aliases() map[string]string
}

// ModelsHandler handles GET /models.
type ModelsHandler struct {
	catalog ModelCatalog
	compare []string
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(catalog ModelCatalog, compare []string) *ModelsHandler {
	return &ModelsHandler{catalog: catalog, compare: compare}
}

// List handles GET /models
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.ModelsResponse{
		Default:   h.catalog.DefaultProvider(),
		Providers: h.catalog.Providers(),
		Aliases:   h.catalog.Aliases(),
		Compare:   h.compare,
	})
}
