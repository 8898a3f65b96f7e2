// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: a structured error envelope, consistent JSON serialization, and
// helpers for common patterns. Success and failure responses keep a uniform
// shape so the mobile client can treat the server counters as authoritative
// on every response, including errors.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmmlabs/holidayhome-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: correlation ID echoed from X-Request-ID, used to match
//     server logs with client-side errors.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable description, safe for display to users.
//   - GenerationsRemaining / TotalGenerated: present only on quota_exhausted
//     responses so the client can reconcile its optimistic local counter.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"referral code not found"`

	GenerationsRemaining *int `json:"generationsRemaining,omitempty"`
	TotalGenerated       *int `json:"totalGenerated,omitempty"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// Server errors (>=500) are logged using the request-scoped logger from
// middleware.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

// failWith is the variant used when the envelope carries extra fields (the
// quota-exhausted counters).
func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
