package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"portraitstudio/internal/auth"
	"portraitstudio/internal/infra"
	"portraitstudio/internal/middleware"
	"portraitstudio/internal/notify"
	"portraitstudio/internal/portrait"
)

type App struct {
	Studio *portrait.Orchestrator
	Auth   *auth.Authenticator
	Hub    *notify.Hub
	Logger infra.Logger

	// GenerateTimeout bounds a detached generation; zero means no bound.
	GenerateTimeout time.Duration
	// AllowedOrigins gates WebSocket handshakes. Empty allows same-origin only.
	AllowedOrigins []string
}

func NewApp(studio *portrait.Orchestrator, authenticator *auth.Authenticator, hub *notify.Hub, logger infra.Logger) *App {
	return &App{Studio: studio, Auth: authenticator, Hub: hub, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

// RestoreSession signs the token's user into the session when a verified
// bearer token belongs to someone other than the current user.
func (a *App) RestoreSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := middleware.UserFromContext(r.Context()); u != nil {
			current := a.Auth.Session().State().User
			if current == nil || current.ID != u.ID {
				a.Auth.Session().SignIn(*u)
			}
		}
		next.ServeHTTP(w, r)
	})
}
