// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the
// PurchaseTransaction model used to apply store credits at most once per
// transaction id.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jmmlabs/holidayhome-backend/internal/domain"
)

// ErrDuplicate indicates that an insert violated a unique constraint: a
// referral code value or device slot already taken, a claim pair already
// recorded, or a purchase transaction already credited.
var ErrDuplicate = errors.New("duplicate")

// InsertPurchaseTransaction durably records transactionID as processed.
// The primary key makes the insert itself the idempotency filter: a
// previously credited transaction returns ErrDuplicate instead of a second
// row, with no separate read-then-write window.
func InsertPurchaseTransaction(ctx context.Context, db *gorm.DB, transactionID, deviceID, productID string) error {
	rec := &domain.PurchaseTransaction{
		TransactionID: transactionID,
		DeviceID:      deviceID,
		ProductID:     productID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// IsDuplicate reports whether err is a unique-constraint violation.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations and
// Postgres phrases them differently, so this sniffs the message in addition
// to gorm.ErrDuplicatedKey.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
