package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/identity"
	"github.com/aussiebroadwan/appraisal/pkg/jwtx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	profile identity.Profile
	err     error
}

func (p *stubProvider) AuthorizationURL(state string) (string, error) {
	return "https://auth.example.com/authorize?state=" + state, nil
}

func (p *stubProvider) Authenticate(ctx context.Context, code string) (identity.Profile, error) {
	return p.profile, p.err
}

func newSessions(t *testing.T, f *fixture, p identity.Provider) *SessionService {
	t.Helper()
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: "appraisal-test"})
	require.NoError(t, err)
	return &SessionService{
		Users:    f.Users,
		Provider: p,
		Keys:     km,
		Issuer:   "appraisal-test",
		TTL:      time.Hour,
	}
}

func TestSessionCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := &stubProvider{profile: identity.Profile{
		AccountRef: "user_01HX", Email: "Val@Example.com", FirstName: "Val", LastName: "Reyes",
	}}
	s := newSessions(t, f, p)

	url, err := s.LoginURL("abc")
	require.NoError(t, err)
	require.Contains(t, url, "state=abc")

	sess, err := s.Callback(ctx, "code-1")
	require.NoError(t, err)
	require.Equal(t, "Bearer", sess.TokenType)
	require.EqualValues(t, 3600, sess.ExpiresIn)
	require.Equal(t, "val@example.com", sess.User.Email)
	require.Equal(t, "Val Reyes", sess.User.Name)

	claims, err := s.Keys.Verifier.Verify(sess.AccessToken)
	require.NoError(t, err)
	require.Equal(t, sess.User.ID, claims.Subject)
	require.Equal(t, "val@example.com", claims.Email)

	// Logging in again maps to the same local user.
	again, err := s.Callback(ctx, "code-2")
	require.NoError(t, err)
	require.Equal(t, sess.User.ID, again.User.ID)

	t.Run("rejected code", func(t *testing.T) {
		p.err = identity.ErrInvalidCode
		defer func() { p.err = nil }()
		_, err := s.Callback(ctx, "bad")
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("provider outage", func(t *testing.T) {
		p.err = errors.New("connection reset")
		defer func() { p.err = nil }()
		_, err := s.Callback(ctx, "code")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := s.Callback(ctx, "")
		_, ok := validx.As(err)
		require.True(t, ok)
	})
}

func TestDevLoginAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := newSessions(t, f, &identity.Dev{RedirectURI: "http://localhost/auth/callback"})

	sess, err := s.DevLogin(ctx, DevLoginInput{Email: "dev@x.com", Name: "Dev"})
	require.NoError(t, err)
	require.Equal(t, "dev|dev@x.com", sess.User.AccountRef)

	_, err = s.DevLogin(ctx, DevLoginInput{Email: "nope"})
	_, ok := validx.As(err)
	require.True(t, ok)

	u, err := f.Users.UpdateProfile(ctx, sess.User.ID, UpdateProfileInput{Phone: ptr("+61400111222")})
	require.NoError(t, err)
	require.Equal(t, "Dev", u.Name)
	require.Equal(t, "+61400111222", u.Phone)

	_, err = f.Users.UpdateProfile(ctx, sess.User.ID, UpdateProfileInput{Phone: ptr("call me")})
	_, ok = validx.As(err)
	require.True(t, ok)

	u, err = f.Users.UpdateProfile(ctx, sess.User.ID, UpdateProfileInput{Phone: ptr("")})
	require.NoError(t, err)
	require.Empty(t, u.Phone)

	_, err = f.Users.Get(ctx, "")
	require.ErrorIs(t, err, ErrUnauthenticated)
}
