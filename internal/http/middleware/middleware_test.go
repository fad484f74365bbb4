package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

func TestRequestLoggerRecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info")
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPost, "/calls", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	out := buf.String()
	if !strings.Contains(out, `"status":418`) || !strings.Contains(out, `"request_id":"req-123"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestRequestLoggerGeneratesRequestID(t *testing.T) {
	handler := RequestLogger(logging.New("error"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
	if _, _, err := (&statusRecorder{ResponseWriter: rec}).Hijack(); err == nil {
		t.Fatalf("expected hijack to fail on a recorder")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("expected burst of 2 to pass")
	}
	if rl.Allow("a") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.Allow("b") {
		t.Fatalf("expected separate key to have its own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Fatalf("expected bucket to refill after a second")
	}

	now = now.Add(time.Hour)
	rl.Allow("c")
	if _, ok := rl.buckets["b"]; ok {
		t.Fatalf("expected stale bucket to be swept")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(0.5, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/calls", nil))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/calls", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "2" {
		t.Fatalf("expected Retry-After 2, got %q", second.Header().Get("Retry-After"))
	}
}
