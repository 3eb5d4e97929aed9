// Package identity adapts the external identity provider. The service never
// sees passwords; it only learns who authenticated.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidCode is returned when the provider rejects an authorization code.
var ErrInvalidCode = errors.New("identity: invalid authorization code")

// Profile is what the provider vouches for after a successful login.
type Profile struct {
	AccountRef string // provider user id, stable across logins
	Email      string
	FirstName  string
	LastName   string
}

// Name joins first and last name, falling back to the email.
func (p Profile) Name() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

type Provider interface {
	// AuthorizationURL is where the browser goes to log in. state is echoed
	// back on the callback.
	AuthorizationURL(state string) (string, error)

	// Authenticate exchanges a callback code for the user's profile.
	Authenticate(ctx context.Context, code string) (Profile, error)
}
