package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mediscan/mediscan-api/config"
	"github.com/mediscan/mediscan-api/logging"
)

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"no header keeps remote addr", "", "10.0.0.1:1234", "10.0.0.1:1234"},
		{"single forwarded ip", "203.0.113.7", "10.0.0.1:1234", "203.0.113.7"},
		{"takes first of the chain", "203.0.113.7, 10.0.0.2, 10.0.0.3", "10.0.0.1:1234", "203.0.113.7"},
		{"trims whitespace", "  203.0.113.7  ", "10.0.0.1:1234", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	logging.InitLogger("")

	cfg := &config.Config{MaxRequestBody: 64}
	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	small := httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader("ibuprofen"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, small)
	if rec.Code != http.StatusOK {
		t.Errorf("small body status = %d, want 200", rec.Code)
	}

	large := httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(strings.Repeat("x", 128)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, large)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, want 413", rec.Code)
	}
}

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		path string
		want int64
	}{
		{"/health", 1},
		{"/metrics", 1},
		{"/scan", 60},
		{"/search/ibuprofen", 60},
		{"/reports/export", 30},
		{"/reports", 10},
		{"/reports/r_123", 10},
		{"/anything-else", 10},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if got := getTokenCost(req); got != tt.want {
				t.Errorf("getTokenCost(%s) = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestRateLimiterSeparatesClients(t *testing.T) {
	rl := NewRateLimiter()

	first := rl.getBucket("203.0.113.7")
	second := rl.getBucket("203.0.113.8")
	if first == second {
		t.Error("different clients must get separate buckets")
	}
	if again := rl.getBucket("203.0.113.7"); again != first {
		t.Error("same client must get the same bucket back")
	}
}

func TestRateLimitHandlerExhaustsBucket(t *testing.T) {
	logging.InitLogger("")

	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 600 capacity at 60 tokens per scan gives 10 immediate requests
	var limited bool
	for i := 0; i < 12; i++ {
		req := httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader("ibuprofen"))
		req.RemoteAddr = "198.51.100.42:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code == http.StatusTooManyRequests {
			limited = true
			if rec.Header().Get("Retry-After") == "" {
				t.Error("429 response should carry Retry-After")
			}
			break
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d before exhaustion", rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Remaining") == "" {
			t.Error("successful responses should expose the remaining budget")
		}
	}

	if !limited {
		t.Error("scan flood from one client should eventually hit the limit")
	}
}
