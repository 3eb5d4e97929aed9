package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/identity"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/store/drivers/sqlite"
	"github.com/aussiebroadwan/appraisal/pkg/appraisalsdk"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/aussiebroadwan/appraisal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	Client *appraisalsdk.SDKClient
}

func newTestServer(t *testing.T, opts ...func(*Router)) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "appraisal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: "appraisal-test"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := &service.UserService{Store: st}

	// Every test user signs in from 127.0.0.1.
	generous := httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}

	r := NewRouter(keys, "test", st, logger)
	r.DevLogin = true
	r.Limits = httpx.RateLimits{Strict: generous, Moderate: generous, Lenient: generous, Public: generous}
	r.SessionService = &service.SessionService{
		Users:    users,
		Provider: &identity.Dev{RedirectURI: "http://localhost/auth/callback"},
		Keys:     keys,
		Issuer:   "appraisal-test",
	}
	r.UserService = users
	r.OrganizationService = &service.OrganizationService{Store: st}
	r.MembershipService = &service.MembershipService{Store: st, AppURL: "https://app.example.com"}
	r.ClientService = &service.ClientService{Store: st}
	r.OrderService = &service.OrderService{Store: st}
	for _, opt := range opts {
		opt(r)
	}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, Client: appraisalsdk.NewSDKClient(srv.URL)}
}

func (s *testServer) login(t *testing.T, email string) *appraisalsdk.Session {
	t.Helper()
	sess, err := s.Client.DevLogin(context.Background(), appraisalsdk.DevLoginRequest{Email: email})
	require.NoError(t, err)
	return sess
}

// raw performs a request outside the SDK and decodes the envelope.
func (s *testServer) raw(t *testing.T, method, path, token, body string) (*http.Response, appraisalsdk.Envelope[json.RawMessage]) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env appraisalsdk.Envelope[json.RawMessage]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestMembershipLifecycle(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	owner := srv.login(t, "owner@example.com")
	manager := srv.login(t, "a@x.com")

	created, err := owner.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "Harbour Valuations"})
	require.NoError(t, err)
	require.Equal(t, "owner", created.Role)
	orgID := created.Organization.ID

	invite, err := owner.CreateInvite(ctx, orgID, appraisalsdk.CreateInviteRequest{Email: "a@x.com", Role: "manager"})
	require.NoError(t, err)
	require.NotEmpty(t, invite.Token)
	require.Equal(t, "pending", invite.Invitation.Status)
	require.Contains(t, invite.JoinURL, "https://app.example.com/")

	member, err := manager.Join(ctx, orgID, invite.Token)
	require.NoError(t, err)
	require.Equal(t, "manager", member.Role)

	_, err = manager.Join(ctx, orgID, invite.Token)
	require.ErrorIs(t, err, appraisalsdk.ErrExpired)

	perms, err := manager.Permissions(ctx, orgID)
	require.NoError(t, err)
	require.Equal(t, "manager", perms.Role)
	require.Contains(t, perms.Permissions, "members:invite")

	err = owner.Leave(ctx, orgID)
	require.ErrorIs(t, err, appraisalsdk.ErrForbidden)

	me, err := manager.Me(ctx)
	require.NoError(t, err)
	require.NoError(t, owner.TransferOwnership(ctx, orgID, me.ID))

	perms, err = manager.Permissions(ctx, orgID)
	require.NoError(t, err)
	require.Equal(t, "owner", perms.Role)

	members, err := owner.ListMembers(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	invs, err := manager.ListInvitations(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	require.Equal(t, "consumed", invs[0].Status)

	// The former owner is a manager now and can leave.
	require.NoError(t, owner.Leave(ctx, orgID))
	_, err = owner.Permissions(ctx, orgID)
	require.ErrorIs(t, err, appraisalsdk.ErrNotFound)
}

func TestMemberAdministration(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	owner := srv.login(t, "owner@example.com")
	appraiser := srv.login(t, "appraiser@example.com")

	created, err := owner.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "Ridge & Co"})
	require.NoError(t, err)
	orgID := created.Organization.ID

	invite, err := owner.CreateInvite(ctx, orgID, appraisalsdk.CreateInviteRequest{Email: "appraiser@example.com", Role: "appraiser"})
	require.NoError(t, err)
	joined, err := appraiser.Join(ctx, orgID, invite.Token)
	require.NoError(t, err)

	_, err = appraiser.CreateInvite(ctx, orgID, appraisalsdk.CreateInviteRequest{Email: "x@example.com", Role: "appraiser"})
	require.ErrorIs(t, err, appraisalsdk.ErrForbidden)

	_, err = owner.CreateInvite(ctx, orgID, appraisalsdk.CreateInviteRequest{Email: "owner2@example.com", Role: "owner"})
	require.ErrorIs(t, err, appraisalsdk.ErrValidation)

	m, err := owner.ChangeMemberRole(ctx, orgID, joined.UserID, "manager")
	require.NoError(t, err)
	require.Equal(t, "manager", m.Role)

	require.NoError(t, owner.RemoveMember(ctx, orgID, joined.UserID))
	_, err = appraiser.GetOrganization(ctx, orgID)
	require.ErrorIs(t, err, appraisalsdk.ErrForbidden)

	require.NoError(t, owner.DeleteOrganization(ctx, orgID))
	_, err = owner.GetOrganization(ctx, orgID)
	require.ErrorIs(t, err, appraisalsdk.ErrNotFound)
}

func TestOrganizationDirectory(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	owner := srv.login(t, "owner@example.com")

	_, err := owner.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "   "})
	require.ErrorIs(t, err, appraisalsdk.ErrValidation)

	created, err := owner.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "First"})
	require.NoError(t, err)
	_, err = owner.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "Second"})
	require.NoError(t, err)

	list, err := owner.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	name := "First Renamed"
	avatar := "https://cdn.example.com/logo.png"
	org, err := owner.UpdateOrganization(ctx, created.Organization.ID, appraisalsdk.UpdateOrganizationRequest{
		Name:   &name,
		Avatar: &avatar,
	})
	require.NoError(t, err)
	require.Equal(t, name, org.Name)
	require.Equal(t, avatar, org.Avatar)
}

func TestClientsAndOrders(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	owner := srv.login(t, "owner@example.com")
	created, err := owner.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "Harbour Valuations"})
	require.NoError(t, err)
	orgID := created.Organization.ID

	client, err := owner.CreateClient(ctx, orgID, appraisalsdk.ClientRequest{Name: "Westpac", Email: "lending@westpac.example"})
	require.NoError(t, err)

	due := "2026-04-01"
	order, err := owner.CreateOrder(ctx, orgID, appraisalsdk.CreateOrderRequest{
		ClientID: client.ID,
		Property: appraisalsdk.Property{Address: "1 George St", City: "Sydney"},
		DueDate:  &due,
		FeeCents: 55000,
	})
	require.NoError(t, err)
	require.Equal(t, "new", order.Status)
	require.Equal(t, &due, order.DueDate)

	status := "review"
	empty := ""
	order, err = owner.UpdateOrder(ctx, orgID, order.ID, appraisalsdk.UpdateOrderRequest{Status: &status, DueDate: &empty})
	require.NoError(t, err)
	require.Equal(t, "review", order.Status)
	require.Nil(t, order.DueDate)

	orders, err := owner.ListOrders(ctx, orgID, appraisalsdk.OrderListOptions{Status: "review"})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	orders, err = owner.ListOrders(ctx, orgID, appraisalsdk.OrderListOptions{Status: "completed"})
	require.NoError(t, err)
	require.Empty(t, orders)

	clients, err := owner.ListClients(ctx, orgID, appraisalsdk.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, clients, 1)

	_, err = owner.GetOrder(ctx, orgID, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.ErrorIs(t, err, appraisalsdk.ErrNotFound)

	// Another firm cannot see any of it.
	other := srv.login(t, "other@example.com")
	_, err = other.GetClient(ctx, orgID, client.ID)
	require.ErrorIs(t, err, appraisalsdk.ErrForbidden)
}

func TestErrorEnvelope(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.login(t, "owner@example.com")

	t.Run("missing token", func(t *testing.T) {
		resp, env := srv.raw(t, http.MethodGet, "/organization", "", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")
		require.Equal(t, httpx.CodeUnauthenticated, env.Error.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, env := srv.raw(t, http.MethodPost, "/organization", owner.AccessToken(), `{"name":`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, httpx.CodeValidation, env.Error.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		resp, _ := srv.raw(t, http.MethodPost, "/organization", owner.AccessToken(), `{"name":"x","plan":"gold"}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("field details", func(t *testing.T) {
		resp, env := srv.raw(t, http.MethodPost, "/organization", owner.AccessToken(), `{"name":"x","avatar":"not a url"}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, env.Error.Details, "avatar")
	})

	t.Run("bad paging", func(t *testing.T) {
		resp, env := srv.raw(t, http.MethodGet, "/organization/01ARZ3NDEKTSV4RRFFQ69G5FAV/clients?limit=ten", owner.AccessToken(), "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, env.Error.Details, "limit")
	})

	t.Run("unknown organization", func(t *testing.T) {
		resp, env := srv.raw(t, http.MethodGet, "/organization/01ARZ3NDEKTSV4RRFFQ69G5FAV", owner.AccessToken(), "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, httpx.CodeNotFound, env.Error.Code)
		require.Equal(t, "null", string(env.Data))
	})
}

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	noRedirect := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	resp, err := noRedirect.Get(srv.URL + "/auth/login")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == stateCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, state, cookie.Value)

	callback := func(state string, withCookie bool) *http.Response {
		q := url.Values{"code": {"val@example.com"}, "state": {state}}
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/callback?"+q.Encode(), nil)
		require.NoError(t, err)
		if withCookie {
			req.AddCookie(cookie)
		}
		resp, err := noRedirect.Do(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("without cookie", func(t *testing.T) {
		resp := callback(state, false)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("state mismatch", func(t *testing.T) {
		resp := callback("forged", true)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		resp := callback(state, true)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var env appraisalsdk.Envelope[appraisalsdk.SessionResponse]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		require.Equal(t, "Bearer", env.Data.TokenType)
		require.Equal(t, "val@example.com", env.Data.User.Email)

		me, err := srv.Client.NewSession(env.Data.AccessToken, env.Data.ExpiresIn).Me(context.Background())
		require.NoError(t, err)
		require.Equal(t, env.Data.User.ID, me.ID)
	})
}

func TestJoinRateLimitedPerOrganization(t *testing.T) {
	srv := newTestServer(t, func(r *Router) {
		r.Limits.Strict = httpx.RateLimitConfig{Name: "strict", RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	})
	ctx := context.Background()

	owner := srv.login(t, "owner@example.com")
	guesser := srv.login(t, "guesser@example.com")

	first, err := owner.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "Harbour Valuations"})
	require.NoError(t, err)
	second, err := owner.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "Coastal Appraisals"})
	require.NoError(t, err)

	for range 2 {
		_, err = guesser.Join(ctx, first.Organization.ID, "not-a-real-token")
		require.ErrorIs(t, err, appraisalsdk.ErrNotFound)
	}
	_, err = guesser.Join(ctx, first.Organization.ID, "not-a-real-token")
	require.ErrorIs(t, err, appraisalsdk.ErrRateLimited)

	_, err = guesser.Join(ctx, second.Organization.ID, "not-a-real-token")
	require.ErrorIs(t, err, appraisalsdk.ErrNotFound)

	// Dev login shares the strict profile and both sign-ins used it up.
	_, err = srv.Client.DevLogin(ctx, appraisalsdk.DevLoginRequest{Email: "third@example.com"})
	require.ErrorIs(t, err, appraisalsdk.ErrRateLimited)
}

func TestSystemEndpoints(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	live, err := srv.Client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := srv.Client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Signer)

	jwks, err := srv.Client.GetJWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
}

func TestDevLoginNotRegisteredByDefault(t *testing.T) {
	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "appraisal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	keys, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: "appraisal-test"})
	require.NoError(t, err)

	r := NewRouter(keys, "test", st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.ApplyRoutes()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{"email":"a@b.co"}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
