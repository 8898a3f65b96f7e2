// Package services defines the business logic for the generation-quota
// ledger, the referral engine, and purchase-credit reconciliation. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; the
// handler layer translates them into HTTP statuses and user-facing messages.
package services

import "errors"

var (
	// ErrInvalidDeviceID is returned when a device id is empty or malformed.
	ErrInvalidDeviceID = errors.New("invalid device id")

	// ErrQuotaExhausted is returned when a device attempts to reserve a
	// generation with none remaining. Callers surface the current counts
	// alongside it so clients can reconcile local state.
	ErrQuotaExhausted = errors.New("no generations remaining")

	// ErrInvalidCredit is returned when a credit amount is not a positive
	// integer.
	ErrInvalidCredit = errors.New("credit amount must be positive")

	// ErrCodeNotFound indicates that the referral code does not exist.
	ErrCodeNotFound = errors.New("referral code not found")

	// ErrSelfClaim is returned when a device attempts to claim its own code.
	ErrSelfClaim = errors.New("cannot claim own referral code")

	// ErrAlreadyClaimed is returned when a device claims a code it has
	// already claimed.
	ErrAlreadyClaimed = errors.New("referral code already claimed")

	// ErrCodeSpaceExhausted is returned when code generation keeps colliding
	// past the retry bound. It implies near-exhaustion of the code space or a
	// store fault and should page someone rather than be retried blindly.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique referral code")

	// ErrUnsupportedProduct is returned when a product id has no configured
	// credit-per-transaction mapping.
	ErrUnsupportedProduct = errors.New("unsupported product id")

	// ErrNoTransactions is returned when a purchase credit request carries an
	// empty transaction batch.
	ErrNoTransactions = errors.New("transaction ids required")
)
