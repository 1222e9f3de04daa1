package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RemoteIP is the address of the connected peer. Headers are ignored, so a
// client cannot choose its own value.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ForwardedIP prefers Cloudflare's CF-Connecting-IP header, then the first
// X-Forwarded-For hop, and falls back to RemoteIP. Only meaningful behind a
// proxy that overwrites those headers.
func ForwardedIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return RemoteIP(r)
}

// ByIP keys rate limits on the client address. Proxy headers are read only
// when trustProxy is set.
func ByIP(trustProxy bool) func(*http.Request) string {
	if trustProxy {
		return ForwardedIP
	}
	return RemoteIP
}

type bucket struct {
	hits    int
	resetAt time.Time
}

// RateLimiter counts hits per key in fixed windows. A key gets limit hits
// per window; the window starts at the key's first hit.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow records a hit for key. When the key is over its limit it returns
// false and how long until its window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		rl.buckets[key] = &bucket{hits: 1, resetAt: now.Add(rl.window)}
		return true, 0
	}
	b.hits++
	if b.hits > rl.limit {
		return false, b.resetAt.Sub(now)
	}
	return true, 0
}

// Sweep drops buckets whose window has passed and returns how many it removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	n := 0
	for key, b := range rl.buckets {
		if !now.Before(b.resetAt) {
			delete(rl.buckets, key)
			n++
		}
	}
	return n
}

// RateLimit rejects requests over the limiter's budget with 429 and a
// Retry-After header.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			ok, wait := limiter.Allow(key)
			if !ok {
				secs := int((wait + time.Second - 1) / time.Second)
				if secs < 1 {
					secs = 1
				}
				logger.Warn("rate limited", "key", key, "path", r.URL.Path, "retry_after", secs)
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
