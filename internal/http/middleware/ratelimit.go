// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a lightweight, in-memory, token-bucket rate limiter
// with per-identity buckets and opportunistic garbage collection. Each
// /generate call costs real money at the image provider, so the limiter sits
// in front of the API as cost protection rather than authorization.
//
// Notes:
//   - Per-key token buckets use golang.org/x/time/rate.
//   - The identity function is pluggable; the app keys on the X-Device-ID
//     header the mobile client sends, falling back to client IP.
//   - This limiter is process-local. A horizontally scaled deployment would
//     need a distributed limiter to enforce global limits.
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// deviceIDHeader is the client-supplied identity header used to key buckets.
const deviceIDHeader = "X-Device-ID"

// keyFunc selects the identity used to key a rate-limit bucket. It must
// return a stable string for the duration of a request.
type keyFunc func(*gin.Context) string

// KeyByDeviceOrIP returns a keyFunc that prefers the device identity from the
// X-Device-ID request header and falls back to the client IP. Keys are
// prefixed so device and IP namespaces cannot collide.
func KeyByDeviceOrIP() keyFunc {
	return func(c *gin.Context) string {
		if id := strings.TrimSpace(c.GetHeader(deviceIDHeader)); id != "" {
			return "device:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

// visitor holds a single rate limiter and the last time it was seen, so idle
// buckets can be evicted.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter.
//
// Buckets are created on demand in a mutex-guarded map. Idle buckets are
// evicted after a TTL via opportunistic cleanup during lookups to keep memory
// bounded. Safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter constructs a RateLimiter with the given tokens-per-second
// and burst size, keyed by keyFn. burst values <= 0 are coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns (and refreshes) the limiter for key, creating it if
// absent. Every ~5000 lookups it sweeps idle entries first, so an old bucket
// can be evicted even when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		lim := v.limiter
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// Handler returns a Gin middleware that enforces per-key token-bucket limits.
//
// Rejected requests receive:
//
//	HTTP/1.1 429 Too Many Requests
//	{
//	  "request_id": "<uuid>",
//	  "code":       "too_many_requests",
//	  "message":    "rate limit exceeded"
//	}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.keyFn(c)
		lim := rl.getVisitor(key)

		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
