package appraisalsdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestSessionDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/organization/01J/permissions":
			httpx.WriteData(w, http.StatusOK, PermissionsResponse{Role: "manager", Permissions: []string{"members:view"}})
		case "/organization/01J/join":
			httpx.WriteError(w, httpx.CodeExpired, "Invitation has expired", nil)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewSDKClient(srv.URL + "/").NewSession("tok", 60)
	ctx := context.Background()

	perms, err := s.Permissions(ctx, "01J")
	require.NoError(t, err)
	require.Equal(t, "manager", perms.Role)

	_, err = s.Join(ctx, "01J", "token")
	require.ErrorIs(t, err, ErrExpired)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusGone, apiErr.StatusCode)
	require.Equal(t, "Invitation has expired", apiErr.Message)

	// A plain-text 404 still maps onto a code.
	_, err = s.GetOrganization(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListOptionsQuery(t *testing.T) {
	opts := OrderListOptions{ListOptions: ListOptions{Limit: 10}, Status: "review"}
	v := opts.values()
	require.Equal(t, "10", v.Get("limit"))
	require.Empty(t, v.Get("offset"))
	require.Equal(t, "/x?limit=10", withQuery("/x", v))
}
