package identity

import (
	"context"
	"net/url"
	"strings"
)

// DevAccountPrefix marks account refs minted without a real provider.
const DevAccountPrefix = "dev|"

// Dev is a stand-in provider for local development. The "code" is the email
// address to log in as, so the callback can be driven by hand:
//
//	/auth/callback?code=val@example.com&state=...
type Dev struct {
	RedirectURI string
}

func (d *Dev) AuthorizationURL(state string) (string, error) {
	u, err := url.Parse(d.RedirectURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *Dev) Authenticate(ctx context.Context, code string) (Profile, error) {
	return DevProfile(code, "")
}

// DevProfile builds the profile the dev provider reports for email.
func DevProfile(email, name string) (Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Profile{}, ErrInvalidCode
	}
	return Profile{
		AccountRef: DevAccountPrefix + email,
		Email:      email,
		FirstName:  strings.TrimSpace(name),
	}, nil
}
