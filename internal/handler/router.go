package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/chat-assistant/internal/middleware"
	"github.com/capitalize-ai/chat-assistant/internal/service"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
)

// RouterConfig holds the HTTP-level settings of the API.
type RouterConfig struct {
	AuthEnabled       bool
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Services are the collaborators the routes delegate to.
type Services struct {
	Chat    *service.ChatService
	Media   *service.MediaService
	Catalog ModelCatalog
	Checks  []ReadinessCheck
}

// NewRouter builds the API router. Every route answers with and without a
// trailing slash.
func NewRouter(cfg RouterConfig, svc Services, log *logger.Logger) http.Handler {
	healthHandler := NewHealthHandler(svc.Checks...)
	chatHandler := NewChatHandler(svc.Chat, log)
	streamHandler := NewStreamHandler(svc.Chat, log)
	mediaHandler := NewMediaHandler(svc.Media, log)
	modelsHandler := NewModelsHandler(svc.Catalog, svc.Chat.CompareModels())

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())
	r.Use(chimiddleware.StripSlashes)

	// Public endpoints
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/models", modelsHandler.List)

	// API routes
	r.Group(func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}
		if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Post("/chat", chatHandler.Chat)
		r.Post("/chat/stream", streamHandler.Stream)
		r.Post("/compare_models", chatHandler.Compare)
		r.Post("/upload_media", mediaHandler.Upload)
	})

	return r
}
