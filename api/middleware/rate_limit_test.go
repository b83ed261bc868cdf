package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (l *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = map[string]int64{}
	}
	l.counts[scope]++
	count := l.counts[scope]
	return count <= limit, count, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitThrottlesPerIP(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit("login", limiter, 2, time.Minute, testMiddlewareLogger())(okHandler())

	fire := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remoteAddr
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := fire("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first request: expected 200 got %d", code)
	}
	if code := fire("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("second request: expected 200 got %d", code)
	}
	if code := fire("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429 got %d", code)
	}

	// A different client keeps its own window.
	if code := fire("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other client: expected 200 got %d", code)
	}
}

func TestRateLimitHonorsForwardedFor(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit("login", limiter, 1, time.Minute, testMiddlewareLogger())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.9")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.counts["login:203.0.113.7"]; !ok {
		t.Fatalf("expected the forwarded client IP in the scope, got %v", limiter.counts)
	}
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	handler := RateLimit("login", limiter, 1, time.Minute, testMiddlewareLogger())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected the request to pass on limiter failure, got %d", resp.Code)
	}
}
