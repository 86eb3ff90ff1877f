package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/medic-pro/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/medic-pro/internal/http/middleware"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Sessions           httpmiddleware.SessionVerifier
	AuthHandler        *handlers.AuthHandler
	ClinicHandler      *handlers.ClinicHandler
	ContactHandler     *handlers.ContactHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Optional per-caller limits; nil disables limiting.
	ChatLimiter    *httpmiddleware.RateLimiter
	ContactLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health)
		public.Get("/api/specialties", handlers.Specialties)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.ContactHandler != nil {
			public.With(limit(cfg.ContactLimiter)...).Post("/contact", cfg.ContactHandler.Submit)
		}
		if cfg.AuthHandler != nil {
			public.Route("/auth", func(r chi.Router) {
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/google", cfg.AuthHandler.Google)
				r.Post("/logout", cfg.AuthHandler.Logout)
				if cfg.Sessions != nil {
					r.With(httpmiddleware.RequireSession(cfg.Sessions)).Get("/me", cfg.AuthHandler.Me)
				}
			})
		}
	})

	if cfg.ClinicHandler != nil && cfg.Sessions != nil {
		r.Group(func(api chi.Router) {
			api.Use(httpmiddleware.RequireSession(cfg.Sessions))
			api.Mount("/api/clinic", cfg.ClinicHandler.Routes(limit(cfg.ChatLimiter)...))
		})
	}

	return r
}

func limit(rl *httpmiddleware.RateLimiter) []func(http.Handler) http.Handler {
	if rl == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{httpmiddleware.RateLimit(rl)}
}
