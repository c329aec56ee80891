package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/dlmaster/internal/api/handler"
	mw "github.com/iconidentify/dlmaster/internal/api/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter. Events may be nil.
type Handlers struct {
	Media  *handler.MediaHandler
	Health *handler.HealthHandler
	UI     *handler.UIHandler
	Events *handler.EventHandler
}

// Options configures cross-cutting router behavior.
type Options struct {
	// APIKey guards /api/v1. When empty those routes are not mounted.
	APIKey         string
	HandlerTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(h Handlers, opts Options) *chi.Mux {
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 6 * time.Minute
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(opts.HandlerTimeout))
	r.Use(mw.CORS)

	// Health endpoints
	r.Get("/health", h.Health.Live)
	r.Get("/ready", h.Health.Ready)

	// Web UI
	r.Get("/", h.UI.Index)
	r.Get("/robots.txt", h.UI.Robots)

	// Lookup and download, rate limited per client
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))

		r.Post("/info", h.Media.Info)
		r.Post("/api/fetch_info", h.Media.Info)
		r.Get("/download", h.Media.Download)
		r.Get("/api/download", h.Media.Download)
	})

	// Operator API (authenticated)
	if opts.APIKey != "" {
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(mw.APIKeyAuth(opts.APIKey))

			r.Get("/stats", h.Health.Stats)
			if h.Events != nil {
				r.Get("/events", h.Events.List)
			}
		})
	}

	return r
}
