package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func TestGetLimiterPerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 2)

	first := l.GetLimiter("192.0.2.1")
	if l.GetLimiter("192.0.2.1") != first {
		t.Error("same IP must resolve to the same limiter instance")
	}
	if l.GetLimiter("192.0.2.2") == first {
		t.Error("distinct IPs must not share a limiter")
	}
}

func TestMiddlewareEnforcesBurst(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 2)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := l.Middleware(next)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.7:4242"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if i < 2 && w.Code != http.StatusOK {
			t.Fatalf("request %d within burst should pass, got %d", i+1, w.Code)
		}
		if i == 2 && w.Code != http.StatusTooManyRequests {
			t.Fatalf("request %d over burst should be limited, got %d", i+1, w.Code)
		}
	}
}
