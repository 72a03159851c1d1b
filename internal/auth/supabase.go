package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"

	"portraitstudio/internal/domain"
)

type passwordSigner interface {
	SignInWithEmailPassword(email, password string) (types.Session, error)
}

// SupabaseProvider logs users in with Supabase email/password auth.
type SupabaseProvider struct {
	client   passwordSigner
	verifier *TokenVerifier
	now      func() time.Time
}

// NewSupabaseProvider creates a Supabase client for the project at url. When
// verifier is non-nil the returned access token is checked before the user
// is trusted.
func NewSupabaseProvider(url, anonKey string, verifier *TokenVerifier) (*SupabaseProvider, error) {
	client, err := supabase.NewClient(url, anonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return newSupabaseProvider(client, verifier), nil
}

func newSupabaseProvider(client passwordSigner, verifier *TokenVerifier) *SupabaseProvider {
	return &SupabaseProvider{client: client, verifier: verifier, now: time.Now}
}

// Login implements Provider. The supabase client has no context support, so
// ctx is only checked before the call.
func (p *SupabaseProvider) Login(ctx context.Context, creds Credentials) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := p.client.SignInWithEmailPassword(creds.Email, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("supabase sign in: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, errors.New("supabase sign in: empty access token")
	}

	user := domain.User{ID: sess.User.ID.String(), Email: sess.User.Email}
	if p.verifier != nil {
		verified, err := p.verifier.Verify(sess.AccessToken)
		if err != nil {
			return nil, err
		}
		user = *verified
	}

	id := &Identity{User: user, AccessToken: sess.AccessToken}
	switch {
	case sess.ExpiresAt > 0:
		id.ExpiresAt = time.Unix(int64(sess.ExpiresAt), 0)
	case sess.ExpiresIn > 0:
		id.ExpiresAt = p.now().Add(time.Duration(sess.ExpiresIn) * time.Second)
	}
	return id, nil
}
