// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for referral codes
// and claims.
//
// Error semantics:
//   - Missing code rows surface as ErrNotFound.
//   - Inserts racing on the unique constraints (code value, one code per
//     device, one claim per (code, claimer) pair) return ErrDuplicate; the
//     service layer translates that into collision retries or the
//     already-claimed business error.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmmlabs/holidayhome-backend/internal/domain"
)

// GetReferralByDevice fetches the code owned by deviceID, or ErrNotFound.
func GetReferralByDevice(ctx context.Context, db *gorm.DB, deviceID string) (*domain.ReferralCode, error) {
	var rc domain.ReferralCode
	err := db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// GetReferralByCode fetches a code row by its value, or ErrNotFound.
func GetReferralByCode(ctx context.Context, db *gorm.DB, code string) (*domain.ReferralCode, error) {
	var rc domain.ReferralCode
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// CreateReferral inserts a new code row for deviceID. The primary key on the
// code value and the unique index on device_id are the authoritative
// collision guards; either violation is reported as ErrDuplicate and the
// caller decides whether to retry with a new code or return the row that won.
func CreateReferral(ctx context.Context, db *gorm.DB, code, deviceID string) (*domain.ReferralCode, error) {
	rc := &domain.ReferralCode{
		Code:        code,
		DeviceID:    deviceID,
		TotalClaims: 0,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rc).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rc, nil
}

// CreateClaim inserts the claim row for (code, claimerDeviceID). A second
// claim by the same device trips the ux_claim_code_device unique index and
// returns ErrDuplicate, which is what makes the at-most-once-per-pair
// invariant hold under concurrent duplicate requests.
func CreateClaim(ctx context.Context, db *gorm.DB, code, claimerDeviceID string) (*domain.ReferralClaim, error) {
	cl := &domain.ReferralClaim{
		ID:              uuid.NewString(),
		Code:            code,
		ClaimerDeviceID: claimerDeviceID,
		ClaimedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(cl).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return cl, nil
}

// IncrementClaims bumps total_claims on the code row by one, atomically.
// Returns ErrNotFound when the code row is missing.
func IncrementClaims(ctx context.Context, db *gorm.DB, code string) error {
	res := db.WithContext(ctx).
		Model(&domain.ReferralCode{}).
		Where("code = ?", code).
		Update("total_claims", gorm.Expr("total_claims + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
