package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"portraitstudio/internal/domain"
)

// TokenVerifier turns a bearer token into the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (*domain.User, error)
}

type userKey struct{}

// AuthJWT rejects requests without a valid bearer token and stores the
// token's user in the request context. WebSocket handshakes cannot set
// headers from a browser, so GET requests may pass the token as the
// access_token query parameter.
func AuthJWT(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing authorization")
				return
			}
			user, err := verifier.Verify(token)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if r.Method == http.MethodGet {
		if token := strings.TrimSpace(r.URL.Query().Get("access_token")); token != "" {
			return token, true
		}
	}
	return "", false
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "unauthorized", "message": msg},
	})
}

// UserFromContext returns the verified user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey{}).(*domain.User); ok {
		return u
	}
	return nil
}

// ContextWithUser stores u in ctx. A nil or empty user leaves ctx unchanged.
func ContextWithUser(ctx context.Context, u *domain.User) context.Context {
	if u == nil || u.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, userKey{}, u)
}
