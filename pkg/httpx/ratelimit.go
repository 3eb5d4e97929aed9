package httpx

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/appraisal/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is one token bucket profile. Each key gets Burst tokens,
// refilled at RequestsPerWindow per Window.
type RateLimitConfig struct {
	Name              string
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// RateLimits groups the profiles routes are registered under.
type RateLimits struct {
	Strict   RateLimitConfig // sign-in and invite redemption
	Moderate RateLimitConfig // authenticated writes
	Lenient  RateLimitConfig // authenticated reads
	Public   RateLimitConfig // health checks and the JWKS document
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   RateLimitConfig{Name: "strict", RequestsPerWindow: 5, Window: time.Minute, Burst: 5},
		Moderate: RateLimitConfig{Name: "moderate", RequestsPerWindow: 20, Window: time.Minute, Burst: 20},
		Lenient:  RateLimitConfig{Name: "lenient", RequestsPerWindow: 100, Window: time.Minute, Burst: 100},
		Public:   RateLimitConfig{Name: "public", RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000},
	}
}

// KeyFunc names the bucket a request draws from. An empty key skips limiting.
type KeyFunc func(*http.Request) string

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// UserOrIP keys authenticated requests by session subject and anonymous
// ones by address. The prefixes keep the two spaces apart.
func UserOrIP(r *http.Request) string {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + userID
	}
	return "ip:" + ClientIP(r)
}

// PerPathValue narrows base to one value of a route wildcard, so a caller
// hammering one organization does not drain their budget for another.
func PerPathValue(base KeyFunc, name string) KeyFunc {
	return func(r *http.Request) string {
		key := base(r)
		if key == "" {
			return ""
		}
		return key + "|" + name + ":" + r.PathValue(name)
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// buckets holds one limiter per key. Entries idle for a full window are
// refilled anyway, so they are dropped on the next sweep.
type buckets struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	entries   map[string]*bucket
	lastSweep time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*bucket),
	}
}

func (b *buckets) idleAfter() time.Duration {
	return max(b.cfg.Window, time.Minute)
}

// take spends one token for key. When none is available it returns how long
// until one is.
func (b *buckets) take(key string) (time.Duration, bool) {
	now := b.now()

	b.mu.Lock()
	if now.Sub(b.lastSweep) >= b.idleAfter() {
		for k, e := range b.entries {
			if now.Sub(e.seen) >= b.idleAfter() {
				delete(b.entries, k)
			}
		}
		b.lastSweep = now
	}
	e, ok := b.entries[key]
	if !ok {
		e = &bucket{lim: rate.NewLimiter(b.cfg.limit(), b.cfg.Burst)}
		b.entries[key] = e
	}
	e.seen = now
	b.mu.Unlock()

	res := e.lim.ReserveN(now, 1)
	if !res.OK() {
		return b.cfg.Window, false
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return delay, false
	}
	return 0, true
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// RateLimit rejects requests with rate_limited once the bucket selected by
// key is empty.
func RateLimit(cfg RateLimitConfig, key KeyFunc) Middleware {
	return rateLimit(newBuckets(cfg), key)
}

func rateLimit(b *buckets, key KeyFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			wait, ok := b.take(k)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(b.cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", b.cfg.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"profile", b.cfg.Name,
				"key", k,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)

			WriteError(w, CodeRateLimited, "Too many requests. Please try again later.", nil)
		})
	}
}
