// Package router assembles the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ananta-systems/ai-inbox/internal/http/handlers"
	httpmiddleware "github.com/ananta-systems/ai-inbox/internal/http/middleware"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	ProcessMessage     *handlers.ProcessMessageHandler
	AdminConversations *handlers.AdminConversationsHandler

	InternalAPIKey  string
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.InternalAPIKey(cfg.InternalAPIKey))
		api.Post("/process-message", cfg.ProcessMessage.Handle)
	})

	if cfg.AdminConversations != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/conversations/{userID}", cfg.AdminConversations.GetHistory)
		})
	}

	return r
}
