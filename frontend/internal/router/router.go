package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itchan-dev/foro/frontend/internal/handler"
	"github.com/itchan-dev/foro/frontend/internal/middleware"
	"github.com/itchan-dev/foro/frontend/internal/setup"
	"github.com/itchan-dev/foro/frontend/templates"
	mw "github.com/itchan-dev/foro/shared/middleware"
	"github.com/itchan-dev/foro/shared/middleware/metrics"
)

// New creates the chi router with all the routes.
// IMPORTANT! the reply limiter is shared by every mutation of one account
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()
	h := deps.Handler
	secure := deps.Public.Server.SecureCookies

	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(mw.SecurityHeadersWithCSP(secure, mw.FrontendCSP))

	r.Get("/healthz", handler.HealthHandler)
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(templates.Static()))))

	// JSON for other clients
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.Public.Server.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         300,
		}))
		r.Get("/foros/{forumID}/arbol", h.TreeAPIHandler)
	})

	// Pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.GenerateCSRFToken(middleware.CSRFConfig{SecureCookies: secure}))
		r.Use(deps.Auth.OptionalAuth())

		r.Get("/", h.RootHandler)
		r.Get("/foros", h.ForumsGetHandler)
		r.Get("/foros/{forumID}", h.ForumGetHandler)
		r.Get("/foros/{forumID}/eventos", h.StreamHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ValidateCSRFToken())

			// expand state is per browser, no account needed
			r.Post("/foros/{forumID}/expandir", h.ToggleAllHandler)
			r.Post("/foros/{forumID}/expandir/{replyID}", h.ToggleExpandHandler)

			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.NeedAuth())
				r.Use(mw.RateLimit(deps.ReplyLimiter, mw.GetAccountOrIP))
				r.Post("/foros/{forumID}/respuestas", h.ReplyPostHandler)
				r.Post("/foros/{forumID}/respuestas/{replyID}/editar", h.ReplyEditHandler)
				r.Post("/foros/{forumID}/respuestas/{replyID}/eliminar", h.ReplyDeleteHandler)
			})
		})
	})

	return r
}
