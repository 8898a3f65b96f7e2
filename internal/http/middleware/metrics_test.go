package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/referral/user/:deviceId", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/referral/user/:deviceId", "200"))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/referral/user/dev-1", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/referral/user/:deviceId", "200"))
	if after-before != 3 {
		t.Fatalf("counter delta = %v; want 3", after-before)
	}
}

func TestMetrics_UnmatchedRouteUsesRawPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))
	if after-before != 1 {
		t.Fatalf("counter delta = %v; want 1", after-before)
	}
}

func TestMetrics_InflightReturnsToZeroDelta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpInflight)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	after := testutil.ToFloat64(httpInflight)
	if after != before {
		t.Fatalf("inflight gauge not balanced: before=%v after=%v", before, after)
	}
}
