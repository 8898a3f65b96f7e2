package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedEngine(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doGet(r *gin.Engine, deviceID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if deviceID != "" {
		req.Header.Set(deviceIDHeader, deviceID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	// rps near zero so tokens do not refill during the test.
	rl := NewRateLimiter(0.0001, 2, KeyByDeviceOrIP())
	r := newLimitedEngine(rl)

	for i := 0; i < 2; i++ {
		if w := doGet(r, "dev-1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d; want 200", i, w.Code)
		}
	}

	w := doGet(r, "dev-1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d; want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("missing Retry-After header")
	}
	body := w.Body.String()
	if !strings.Contains(body, "too_many_requests") || !strings.Contains(body, "request_id") {
		t.Fatalf("unexpected envelope: %s", body)
	}
}

func TestRateLimiter_KeysAreIsolated(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, KeyByDeviceOrIP())
	r := newLimitedEngine(rl)

	if w := doGet(r, "dev-1"); w.Code != http.StatusOK {
		t.Fatalf("dev-1 first request: %d", w.Code)
	}
	if w := doGet(r, "dev-1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("dev-1 should be limited, got %d", w.Code)
	}
	// A different device has its own bucket.
	if w := doGet(r, "dev-2"); w.Code != http.StatusOK {
		t.Fatalf("dev-2 should not share dev-1's bucket, got %d", w.Code)
	}
}

func TestKeyByDeviceOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fn := KeyByDeviceOrIP()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c.Request.Header.Set(deviceIDHeader, "  dev-1  ")
	if got := fn(c); got != "device:dev-1" {
		t.Fatalf("device key = %q", got)
	}

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c2.Request.RemoteAddr = "203.0.113.9:1234"
	if got := fn(c2); got != "ip:203.0.113.9" {
		t.Fatalf("ip fallback key = %q", got)
	}
}

func TestNewRateLimiter_CoercesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByDeviceOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d; want 1", rl.burst)
	}
}
