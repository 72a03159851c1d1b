package domain

import "strings"

// User is the signed-in identity handed over by the identity provider.
// The studio only reads it.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IsZero reports whether the user carries no identity.
func (u User) IsZero() bool {
	return strings.TrimSpace(u.ID) == ""
}
