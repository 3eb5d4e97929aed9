package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/aussiebroadwan/appraisal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestWriteDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteData(rec, http.StatusCreated, map[string]string{"id": "abc"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"data":{"id":"abc"},"error":null}`, rec.Body.String())
}

func TestWriteErrorEnvelope(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{httpx.CodeUnauthenticated, http.StatusUnauthorized},
		{httpx.CodeForbidden, http.StatusForbidden},
		{httpx.CodeValidation, http.StatusBadRequest},
		{httpx.CodeNotFound, http.StatusNotFound},
		{httpx.CodeExpired, http.StatusGone},
		{httpx.CodeConflict, http.StatusConflict},
		{httpx.CodeRateLimited, http.StatusTooManyRequests},
		{httpx.CodeInternal, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			httpx.WriteError(rec, tc.code, "nope", nil)

			require.Equal(t, tc.status, rec.Code)

			var env struct {
				Data  any             `json:"data"`
				Error httpx.ErrorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			require.Nil(t, env.Data)
			require.Equal(t, tc.code, env.Error.Code)
			require.Equal(t, "nope", env.Error.Message)
		})
	}
}

func TestWriteErrorDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteError(rec, httpx.CodeValidation, "Invalid request", map[string]string{"email": "is required"})

	require.JSONEq(t,
		`{"data":null,"error":{"code":"validation_error","message":"Invalid request","details":{"email":"is required"}}}`,
		rec.Body.String(),
	)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	decode := func(raw string) (body, error) {
		var b body
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		err := httpx.DecodeJSON(httptest.NewRecorder(), req, &b)
		return b, err
	}

	b, err := decode(`{"name":"Acme"}`)
	require.NoError(t, err)
	require.Equal(t, "Acme", b.Name)

	_, err = decode(``)
	require.NoError(t, err)

	for _, raw := range []string{`{`, `{"nmae":"x"}`, `{"name":"a"}{"name":"b"}`, `[]`} {
		_, err = decode(raw)
		require.ErrorIs(t, err, httpx.ErrBadJSON, "body %q", raw)
	}
}

func TestAuthnMiddleware(t *testing.T) {
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: "appraisal"})
	require.NoError(t, err)

	var gotUser string
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = httpx.UserIDFromContext(r.Context())
		claims, ok := httpx.ClaimsFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "val@example.com", claims.Email)
		w.WriteHeader(http.StatusNoContent)
	}), httpx.AuthnMiddleware(km.Verifier))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
		require.Contains(t, rec.Body.String(), `"unauthenticated"`)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		tok, err := km.Sign(jwtx.NewSessionClaims("user-9", "val@example.com", "Val", "appraisal", nil, time.Minute, time.Now().UTC()))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "user-9", gotUser)
	})
}
