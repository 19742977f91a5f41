package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/brightpath-studio/backoffice/internal/application"
)

// Config is the HTTP adapter's slice of runtime configuration.
type Config struct {
	CookieName     string
	CookieSecure   bool
	AllowedOrigins []string
}

// Handler is the HTTP adapter entrypoint. It depends only on the
// application service; stores and crypto stay behind it.
type Handler struct {
	service *application.Service
	cfg     Config
}

func NewHandler(service *application.Service, cfg Config) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "bp_admin_session"
	}
	return &Handler{service: service, cfg: cfg}
}

// NewRouter registers routes and the middleware stack. All admin routes sit
// behind the session middleware; mutating ones additionally require a
// one-time CSRF token.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   handler.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Csrf-Token", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Post("/public/v1/contact", handler.contact)

	r.Route("/admin/v1", func(r chi.Router) {
		r.Post("/auth/login", handler.login)

		r.Group(func(r chi.Router) {
			r.Use(handler.sessionMiddleware)
			r.Get("/auth/session", handler.sessionInfo)
			r.Get("/auth/csrf-token", handler.csrfToken)
			r.Get("/sessions", handler.listSessions)

			r.Group(func(r chi.Router) {
				r.Use(handler.csrfMiddleware)
				r.Post("/auth/logout", handler.logout)
				r.Post("/auth/password", handler.changePassword)
				r.Delete("/sessions", handler.terminateOtherSessions)
				r.Delete("/sessions/{session_id}", handler.terminateSession)
			})
		})
	})

	return r
}
