package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portraitstudio/internal/domain"
)

type stubVerifier struct {
	tokens map[string]*domain.User
}

func (v stubVerifier) Verify(token string) (*domain.User, error) {
	if u, ok := v.tokens[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func TestAuthJWT(t *testing.T) {
	verifier := stubVerifier{tokens: map[string]*domain.User{"good": {ID: "u1", Email: "a@example.com"}}}
	var seen *domain.User
	h := AuthJWT(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		method string
		target string
		header string
		status int
	}{
		{name: "bearer header", method: http.MethodPost, target: "/", header: "Bearer good", status: http.StatusNoContent},
		{name: "case insensitive scheme", method: http.MethodPost, target: "/", header: "bearer good", status: http.StatusNoContent},
		{name: "query token on get", method: http.MethodGet, target: "/?access_token=good", status: http.StatusNoContent},
		{name: "query token ignored on post", method: http.MethodPost, target: "/?access_token=good", status: http.StatusUnauthorized},
		{name: "missing", method: http.MethodGet, target: "/", status: http.StatusUnauthorized},
		{name: "wrong scheme", method: http.MethodGet, target: "/", header: "Basic good", status: http.StatusUnauthorized},
		{name: "invalid token", method: http.MethodGet, target: "/", header: "Bearer bad", status: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(tc.method, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusNoContent && (seen == nil || seen.ID != "u1") {
				t.Fatalf("user in context = %#v", seen)
			}
			if tc.status == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"unauthorized"`) {
				t.Fatalf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestContextWithUserIgnoresEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ContextWithUser(req.Context(), &domain.User{})
	if UserFromContext(ctx) != nil {
		t.Fatal("empty user should not be stored")
	}
}
