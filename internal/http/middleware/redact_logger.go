// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, a structured HTTP logger that scrubs
// obvious identifiers from request metadata before emitting logs. The mobile
// client identifies devices by UUID and sends that UUID in paths, headers,
// and bodies; raw device identities must never land in log storage.
//
// Design goals:
//   - Default-safe: never logs request or response bodies (which here can be
//     multi-megabyte base64 images anyway)
//   - Redacts UUID-shaped device identifiers and email addresses
//   - Masks sensitive headers (Authorization, Cookie, Set-Cookie, X-Device-ID,
//     plus custom)
//   - Produces structured JSON logs via zerolog
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Api-Key"},
//	}))
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra HTTP header names whose values are fully replaced
// with "[REDACTED]". Matching is case-insensitive and merged with the
// built-in sensitive headers.
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger returns a Gin middleware that logs HTTP requests and
// responses with identifiers scrubbed.
//
// It logs method, route path, query string, status, response size, latency,
// and request headers, applying regex substitution to redact UUID-shaped
// identifiers and email addresses from query strings, the unmatched-route
// path, and header values. Log level follows status (info / warn 4xx /
// error 5xx).
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	// Compile patterns once. The UUID pattern catches device identifiers
	// wherever they appear; email is redacted as generic hygiene.
	uuidRE := regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE := regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)

	redact := func(s string) string {
		if s == "" {
			return s
		}
		out := uuidRE.ReplaceAllString(s, "[REDACTED:device]")
		return emailRE.ReplaceAllString(out, "[REDACTED:email]")
	}

	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"x-device-id":   {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		// Prefer the registered route so path parameters (device ids, codes)
		// never hit the log; redact the raw path when no route matched.
		path := c.FullPath()
		if path == "" {
			path = redact(c.Request.URL.Path)
		}
		safeQuery := redact(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			val := strings.Join(vv, ", ")
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(val)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		size := c.Writer.Size()

		reqID := c.Writer.Header().Get("X-Request-ID")
		if reqID == "" {
			reqID = c.GetHeader("X-Request-ID")
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", size).
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
