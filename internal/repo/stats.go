// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries over referral claims
// used by the stats endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jmmlabs/holidayhome-backend/internal/domain"
)

// ListClaimTimes returns the claim timestamps for a code, newest first.
// Device identifiers are deliberately not selected: the public code-stats
// endpoint must not expose who claimed.
func ListClaimTimes(ctx context.Context, db *gorm.DB, code string) ([]time.Time, error) {
	var times []time.Time
	err := db.WithContext(ctx).
		Model(&domain.ReferralClaim{}).
		Where("code = ?", code).
		Order("claimed_at desc").
		Pluck("claimed_at", &times).Error
	return times, err
}

// CountClaims returns the number of recorded claims for a code. The claims
// table is the ground truth; ReferralCode.TotalClaims is a denormalized
// counter kept in step inside the claim transaction.
func CountClaims(ctx context.Context, db *gorm.DB, code string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ReferralClaim{}).
		Where("code = ?", code).
		Count(&total).Error
	return total, err
}
