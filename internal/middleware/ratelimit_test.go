package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fixedClock(rl *RateLimiter, start time.Time) *time.Time {
	now := start
	rl.now = func() time.Time { return now }
	return &now
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if ok, _ := rl.Allow("key"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, retry := rl.Allow("key")
	if ok {
		t.Error("6th request should be denied")
	}
	if retry <= 0 || retry > time.Minute {
		t.Errorf("retry = %v, want within the window", retry)
	}

	if ok, _ := rl.Allow("other"); !ok {
		t.Error("other key should have its own budget")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	now := fixedClock(rl, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		rl.Allow("key")
	}
	if ok, _ := rl.Allow("key"); ok {
		t.Error("should be blocked within window")
	}

	*now = now.Add(time.Minute)
	if ok, _ := rl.Allow("key"); !ok {
		t.Error("should be allowed after window ends")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := fixedClock(rl, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	rl.Allow("expired")
	*now = now.Add(2 * time.Minute)
	rl.Allow("active")

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.windows["expired"]; ok {
		t.Error("expired window should have been removed")
	}
	if _, ok := rl.windows["active"]; !ok {
		t.Error("active window should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	handler := RateLimit(rl, RealIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// A spoofed forwarding header does not buy a fresh budget.
	req = httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("spoofed header: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// A different client is not affected.
	req = httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "10.0.0.9:4000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.20:5555"
	if got := RealIP(req); got != "192.168.1.20" {
		t.Errorf("RealIP() = %q, want %q", got, "192.168.1.20")
	}

	req.Header.Set("X-Forwarded-For", "10.0.0.9, 10.0.0.1")
	if got := RealIP(req); got != "192.168.1.20" {
		t.Errorf("RealIP() with header = %q, want %q", got, "192.168.1.20")
	}
}

func TestClientIP(t *testing.T) {
	ip, err := NewClientIP([]string{"127.0.0.1", "10.1.0.0/16"})
	if err != nil {
		t.Fatalf("NewClientIP: %v", err)
	}

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"untrusted peer ignores header", "192.168.1.20:5555", "10.0.0.9", "192.168.1.20"},
		{"trusted peer without header", "127.0.0.1:5555", "", "127.0.0.1"},
		{"trusted peer uses header", "127.0.0.1:5555", "203.0.113.7", "203.0.113.7"},
		{"skips trusted hops", "127.0.0.1:5555", "203.0.113.7, 10.1.4.2", "203.0.113.7"},
		{"spoofed left entry ignored", "127.0.0.1:5555", "1.2.3.4, 203.0.113.7", "203.0.113.7"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		if got := ip.Resolve(req); got != tt.want {
			t.Errorf("%s: Resolve() = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := NewClientIP([]string{"not-an-ip"}); err == nil {
		t.Error("expected error for invalid proxy")
	}
}
