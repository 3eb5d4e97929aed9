package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/workos/workos-go/v6/pkg/usermanagement"
	"github.com/workos/workos-go/v6/pkg/workos_errors"
)

// WorkOS authenticates through WorkOS AuthKit.
type WorkOS struct {
	Client      *usermanagement.Client
	ClientID    string
	RedirectURI string
}

func NewWorkOS(apiKey, clientID, redirectURI string) *WorkOS {
	return &WorkOS{
		Client:      usermanagement.NewClient(apiKey),
		ClientID:    clientID,
		RedirectURI: redirectURI,
	}
}

func (w *WorkOS) AuthorizationURL(state string) (string, error) {
	url, err := w.Client.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    w.ClientID,
		RedirectURI: w.RedirectURI,
		State:       state,
		Provider:    "authkit",
	})
	if err != nil {
		return "", fmt.Errorf("generating authorization URL: %w", err)
	}
	return url.String(), nil
}

// Authenticate exchanges an authorization code. Codes WorkOS refuses map to
// ErrInvalidCode; transport and server failures are returned as they are.
func (w *WorkOS) Authenticate(ctx context.Context, code string) (Profile, error) {
	resp, err := w.Client.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: w.ClientID,
		Code:     code,
	})
	if err != nil {
		if rejected(err) {
			return Profile{}, fmt.Errorf("%w: %v", ErrInvalidCode, err)
		}
		return Profile{}, fmt.Errorf("workos authenticate: %w", err)
	}

	return Profile{
		AccountRef: resp.User.ID,
		Email:      resp.User.Email,
		FirstName:  resp.User.FirstName,
		LastName:   resp.User.LastName,
	}, nil
}

// rejected reports whether WorkOS answered with a 4xx for the code itself.
func rejected(err error) bool {
	var httpErr workos_errors.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code >= http.StatusBadRequest && httpErr.Code < http.StatusInternalServerError
	}

	// Pending-authentication challenges are only parsed out of 4xx bodies.
	switch err.(type) {
	case *workos_errors.EmailVerificationRequiredError,
		*workos_errors.MFAEnrollmentError,
		*workos_errors.MFAChallengeError,
		*workos_errors.OrganizationSelectionRequiredError,
		*workos_errors.SSORequiredError,
		*workos_errors.OrganizationAuthenticationMethodsRequiredError:
		return true
	}
	return false
}
