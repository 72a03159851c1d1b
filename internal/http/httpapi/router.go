package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"portraitstudio/internal/auth"
	"portraitstudio/internal/http/handlers"
	"portraitstudio/internal/middleware"
)

type Options struct {
	// Verifier guards the studio routes; nil leaves them open.
	Verifier       *auth.TokenVerifier
	AllowedOrigins []string
	DefaultLocale  string
	// LoginRateLimit is the number of login attempts per client per minute.
	LoginRateLimit int
}

func NewRouter(app *handlers.App, logger zerolog.Logger, opts Options) http.Handler {
	if opts.LoginRateLimit <= 0 {
		opts.LoginRateLimit = 10
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, app.Hub.Catalog()),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/v1/options", app.Options)

	r.Route("/v1/session", func(r chi.Router) {
		r.Get("/", app.SessionState)
		r.With(middleware.RateLimit(opts.LoginRateLimit, time.Minute)).Post("/login", app.SessionLogin)
		r.Post("/logout", app.SessionLogout)
	})

	r.Group(func(r chi.Router) {
		if opts.Verifier != nil {
			r.Use(middleware.AuthJWT(opts.Verifier), app.RestoreSession)
		}
		r.Route("/v1/studio", func(r chi.Router) {
			r.Get("/", app.StudioState)
			r.Put("/selection/{field}", app.UpdateSelection)
			r.Post("/generate", app.Generate)
			r.Post("/download", app.Download)
		})
		r.Get("/v1/events", app.Events)
	})

	return r
}
