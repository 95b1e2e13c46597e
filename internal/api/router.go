package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/hoanghai1803/tickerbrief/internal/api/handlers"
	"github.com/hoanghai1803/tickerbrief/internal/blocklist"
	"github.com/hoanghai1803/tickerbrief/internal/config"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(news handlers.NewsRunner, bl *blocklist.Blocklist, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// API sub-router.
	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handlers.Health)

		api.Get("/news", handlers.GetNews(news))

		api.Get("/blocked_domains", handlers.GetBlockedDomains(bl))
		api.Post("/blocked_domains", handlers.AddBlockedDomain(bl))
		api.Delete("/blocked_domains", handlers.RemoveBlockedDomain(bl))
	})

	return r
}
