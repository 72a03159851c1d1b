package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portraitstudio/internal/domain"
	"portraitstudio/internal/infra"
)

// ErrInvalidCredentials is returned when an email or password is missing.
var ErrInvalidCredentials = errors.New("email and password are required")

// Credentials is an email/password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// Identity is the outcome of a successful login.
type Identity struct {
	User        domain.User `json:"user"`
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// Provider authenticates credentials against an identity service.
type Provider interface {
	Login(ctx context.Context, creds Credentials) (*Identity, error)
}

// Authenticator drives a Session through a Provider.
type Authenticator struct {
	session  *Session
	provider Provider
	logger   infra.Logger
}

// NewAuthenticator wires session and provider.
func NewAuthenticator(session *Session, provider Provider, logger infra.Logger) *Authenticator {
	return &Authenticator{session: session, provider: provider, logger: logger}
}

// Session returns the session the authenticator publishes to.
func (a *Authenticator) Session() *Session {
	return a.session
}

// Login flags the session as loading, authenticates and signs the user in.
// On failure the previous user is kept.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (*Identity, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	a.session.SetLoading(true)
	id, err := a.provider.Login(ctx, creds)
	if err != nil {
		a.session.SetLoading(false)
		a.logger.Warn().Err(err).Msg("login failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	a.session.SignIn(id.User)
	a.logger.Info().Str("user_id", id.User.ID).Msg("signed in")
	return id, nil
}

// Logout signs the session out.
func (a *Authenticator) Logout() {
	a.session.SignOut()
	a.logger.Info().Msg("signed out")
}
