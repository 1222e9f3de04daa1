package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// fakeClock lets tests move a limiter through its windows without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if ok, _ := rl.Allow("key"); !ok {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}

	ok, wait := rl.Allow("key")
	if ok {
		t.Error("6th hit should be denied")
	}
	if wait != time.Minute {
		t.Errorf("wait = %v, want %v", wait, time.Minute)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		rl.Allow("key")
	}
	clock.advance(40 * time.Second)

	ok, wait := rl.Allow("key")
	if ok {
		t.Error("should be blocked within window")
	}
	if wait != 20*time.Second {
		t.Errorf("wait = %v, want 20s", wait)
	}

	clock.advance(20 * time.Second)
	if ok, _ := rl.Allow("key"); !ok {
		t.Error("should be allowed once the window has passed")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)

	rl.Allow("a")
	if ok, _ := rl.Allow("a"); ok {
		t.Error("second hit for a should be denied")
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Error("first hit for b should be allowed")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)

	rl.Allow("old")
	clock.advance(2 * time.Minute)
	rl.Allow("fresh")

	if n := rl.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["old"]; ok {
		t.Error("expired bucket should have been swept")
	}
	if _, ok := rl.buckets["fresh"]; !ok {
		t.Error("live bucket should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)
	keyFunc := func(r *http.Request) string { return "test" }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := RateLimit(rl, keyFunc, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "60" {
		t.Errorf("Retry-After = %q, want %q", ra, "60")
	}
}

func TestRateLimitByIPSeparatesClients(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RateLimit(rl, ByIP(false), logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.1:1234"); code != http.StatusOK {
		t.Errorf("first client: status = %d, want %d", code, http.StatusOK)
	}
	if code := send("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("first client again: status = %d, want %d", code, http.StatusTooManyRequests)
	}
	if code := send("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("second client: status = %d, want %d", code, http.StatusOK)
	}
}

func TestRateLimitIgnoresForwardedHeadersByDefault(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RateLimit(rl, ByIP(false), logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		req.Header.Set("CF-Connecting-IP", "198.51.100."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			passed++
		}
	}
	if passed != 3 {
		t.Errorf("passed = %d, want 3", passed)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.buckets) != 1 {
		t.Errorf("buckets = %d, want 1", len(rl.buckets))
	}
}

func TestByIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		header     map[string]string
		remote     string
		want       string
	}{
		{"remote addr", false, nil, "192.0.2.1:4000", "192.0.2.1"},
		{"no port", false, nil, "192.0.2.1", "192.0.2.1"},
		{"untrusted forwarded", false, map[string]string{"X-Forwarded-For": "203.0.113.5"}, "10.0.0.1:80", "10.0.0.1"},
		{"untrusted cloudflare", false, map[string]string{"CF-Connecting-IP": "198.51.100.7"}, "10.0.0.1:80", "10.0.0.1"},
		{"trusted without headers", true, nil, "192.0.2.1:4000", "192.0.2.1"},
		{"trusted forwarded chain", true, map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"trusted cloudflare wins", true, map[string]string{"CF-Connecting-IP": "198.51.100.7", "X-Forwarded-For": "203.0.113.5"}, "10.0.0.1:80", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := ByIP(tt.trustProxy)(req); got != tt.want {
				t.Errorf("ByIP(%v) = %q, want %q", tt.trustProxy, got, tt.want)
			}
		})
	}
}
