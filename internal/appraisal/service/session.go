package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/domain"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/identity"
	"github.com/aussiebroadwan/appraisal/pkg/jwtx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
)

// SessionService turns an identity provider login into a session token.
type SessionService struct {
	Users    *UserService
	Provider identity.Provider
	Keys     *jwtx.KeyManager

	Issuer   string
	Audience []string
	TTL      time.Duration

	Now func() time.Time
}

// Session is a freshly minted bearer token.
type Session struct {
	User        domain.User
	AccessToken string
	TokenType   string
	ExpiresIn   int64 // seconds
}

type DevLoginInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=120"`
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return jwtx.DefaultSessionTTL
}

// LoginURL is the provider URL the browser is sent to.
func (s *SessionService) LoginURL(state string) (string, error) {
	return s.Provider.AuthorizationURL(state)
}

// Callback completes a provider login.
func (s *SessionService) Callback(ctx context.Context, code string) (Session, error) {
	log := slogx.FromContext(ctx)

	if code == "" {
		return Session{}, validx.Field("code", "is required")
	}

	profile, err := s.Provider.Authenticate(ctx, code)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCode) {
			log.Warn("identity provider rejected code", slog.Any("error", err))
			return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		log.Error("identity provider failed", slog.Any("error", err))
		return Session{}, err
	}

	return s.login(ctx, profile)
}

// DevLogin signs in as any email without a provider round trip.
func (s *SessionService) DevLogin(ctx context.Context, in DevLoginInput) (Session, error) {
	if err := validx.Struct(in); err != nil {
		return Session{}, err
	}
	profile, err := identity.DevProfile(in.Email, in.Name)
	if err != nil {
		return Session{}, validx.Field("email", "must be a valid email address")
	}
	return s.login(ctx, profile)
}

func (s *SessionService) login(ctx context.Context, p identity.Profile) (Session, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Users.EnsureUser(ctx, p)
	if err != nil {
		return Session{}, err
	}

	ttl := s.ttl()
	claims := jwtx.NewSessionClaims(u.ID, u.Email, u.Name, s.Issuer, s.Audience, ttl, clock(s.Now))
	token, err := s.Keys.Sign(claims)
	if err != nil {
		log.Error("failed to sign session token", slog.Any("error", err))
		return Session{}, err
	}

	log.Info("user signed in", slog.String("user_id", u.ID))

	return Session{
		User:        u,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl / time.Second),
	}, nil
}
