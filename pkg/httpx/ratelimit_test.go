package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func joinRequest(remote, orgID, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/organization/"+orgID+"/join", nil)
	req.RemoteAddr = remote
	req.SetPathValue("id", orgID)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), CtxKeyUserID, userID))
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	require.Equal(t, "192.168.1.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.2")
	require.Equal(t, "203.0.113.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.1 , 10.0.0.1")
	require.Equal(t, "203.0.113.1", ClientIP(req))
}

func TestRateLimitKeys(t *testing.T) {
	anon := joinRequest("192.168.1.1:1", "org-a", "")
	authed := joinRequest("192.168.1.1:1", "org-a", "user-1")

	require.Equal(t, "ip:192.168.1.1", UserOrIP(anon))
	require.Equal(t, "user:user-1", UserOrIP(authed))

	perOrg := PerPathValue(UserOrIP, "id")
	require.Equal(t, "user:user-1|id:org-a", perOrg(authed))

	empty := PerPathValue(func(*http.Request) string { return "" }, "id")
	require.Empty(t, empty(authed))
}

func TestRateLimit(t *testing.T) {
	cfg := RateLimitConfig{Name: "strict", RequestsPerWindow: 2, Window: time.Minute, Burst: 2}

	t.Run("rejects once the bucket is empty", func(t *testing.T) {
		h := RateLimit(cfg, UserOrIP)(okHandler)

		for range 2 {
			require.Equal(t, http.StatusOK, serve(h, joinRequest("192.168.1.1:1", "org-a", "user-1")).Code)
		}

		rec := serve(h, joinRequest("192.168.1.1:1", "org-a", "user-1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "30", rec.Header().Get("Retry-After"))
		require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), `"code":"rate_limited"`)
		require.Contains(t, rec.Body.String(), `"data":null`)

		// Same address, different user.
		require.Equal(t, http.StatusOK, serve(h, joinRequest("192.168.1.1:1", "org-a", "user-2")).Code)
	})

	t.Run("join buckets are per organization", func(t *testing.T) {
		h := RateLimit(cfg, PerPathValue(UserOrIP, "id"))(okHandler)

		for range 2 {
			require.Equal(t, http.StatusOK, serve(h, joinRequest("192.168.1.1:1", "org-a", "user-1")).Code)
		}
		require.Equal(t, http.StatusTooManyRequests, serve(h, joinRequest("192.168.1.1:1", "org-a", "user-1")).Code)
		require.Equal(t, http.StatusOK, serve(h, joinRequest("192.168.1.1:1", "org-b", "user-1")).Code)
	})

	t.Run("empty key is not limited", func(t *testing.T) {
		h := RateLimit(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
			func(*http.Request) string { return "" })(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, serve(h, joinRequest("192.168.1.1:1", "org-a", "")).Code)
		}
	})
}

func TestBucketsRefillAndSweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := newBuckets(RateLimitConfig{RequestsPerWindow: 1, Window: 10 * time.Second, Burst: 1})
	b.now = func() time.Time { return now }

	_, ok := b.take("a")
	require.True(t, ok)

	wait, ok := b.take("a")
	require.False(t, ok)
	require.InDelta(t, 10, wait.Seconds(), 0.01)

	// A rejected take must not push the refill further out.
	now = now.Add(11 * time.Second)
	_, ok = b.take("a")
	require.True(t, ok)

	_, ok = b.take("b")
	require.True(t, ok)
	require.Equal(t, 2, b.size())

	now = now.Add(2 * time.Minute)
	_, ok = b.take("c")
	require.True(t, ok)
	require.Equal(t, 1, b.size())
}
