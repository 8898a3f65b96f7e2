// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes give the
// mobile client a stable, machine-readable taxonomy: it branches on
// quota_exhausted to show the "share to earn more" sheet, on already_claimed /
// self_claim to explain a rejected referral, and treats the generic codes as
// terminal failures.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes (bad_request, not_found, internal_error) mirror common
//     HTTP status semantics.
//   - Business-rule codes carry the specific ledger rule that rejected the
//     request even though the HTTP status is a plain 400.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeQuotaExhausted     = "quota_exhausted"
	ErrCodeSelfClaim          = "self_claim"
	ErrCodeAlreadyClaimed     = "already_claimed"
	ErrCodeUnsupportedProduct = "unsupported_product"
	ErrCodeGenerationFailed   = "generation_failed"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
