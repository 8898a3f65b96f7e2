// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model,
// i.e. the per-device quota ledger.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition.
//
// Concurrency model: every counter mutation is a single guarded UPDATE using
// column expressions, so concurrent requests for the same device serialize at
// the store and never lose increments to read-modify-write races. Callers
// must not load a row, compute new counts in Go, and write them back.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - ConsumeGeneration returns ErrNoRemaining when the row exists but the
//     quota guard (generations_remaining > 0) rejects the decrement.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jmmlabs/holidayhome-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrNoRemaining is returned by ConsumeGeneration when the device has no
// generations left. The caller distinguishes this from ErrNotFound because
// get-or-create semantics guarantee the row exists by the time quota is
// consumed.
var ErrNoRemaining = errors.New("no generations remaining")

// GetOrCreateUser returns the ledger row for deviceID, inserting a fresh row
// with the given initial grant when the device is seen for the first time.
//
// The insert uses ON CONFLICT (device_id) DO UPDATE SET updated_at so that
// two concurrent first-touches from the same device both succeed and observe
// a single row; there is no check-then-insert window.
func GetOrCreateUser(ctx context.Context, db *gorm.DB, deviceID string, initialGrant int) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		DeviceID:             deviceID,
		GenerationsRemaining: initialGrant,
		TotalGenerated:       0,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": now}),
		}).
		Create(u).Error
	if err != nil {
		return nil, err
	}
	// Re-read so callers always see the persisted counters, not the insert
	// candidate (the upsert leaves existing rows' counters untouched).
	return GetUser(ctx, db, deviceID)
}

// GetUser fetches the ledger row for deviceID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, deviceID string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ConsumeGeneration atomically reserves one generation: remaining − 1,
// total + 1, guarded by remaining > 0 in the same statement. Zero rows
// affected means either the row is missing (ErrNotFound) or the quota is
// exhausted (ErrNoRemaining); the follow-up read disambiguates.
func ConsumeGeneration(ctx context.Context, db *gorm.DB, deviceID string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("device_id = ? AND generations_remaining > 0", deviceID).
		Updates(map[string]interface{}{
			"generations_remaining": gorm.Expr("generations_remaining - 1"),
			"total_generated":       gorm.Expr("total_generated + 1"),
			"updated_at":            time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := GetUser(ctx, db, deviceID); err != nil {
			return err
		}
		return ErrNoRemaining
	}
	return nil
}

// RestoreGeneration compensates a reservation whose external work failed:
// remaining + 1, total untouched. Returns ErrNotFound when the row is
// missing (which get-or-create semantics should make unreachable).
func RestoreGeneration(ctx context.Context, db *gorm.DB, deviceID string) error {
	return creditRemaining(ctx, db, deviceID, 1)
}

// CreditGenerations adds amount to the device's remaining quota. Used by
// referral rewards and purchase credits; total_generated is not touched.
func CreditGenerations(ctx context.Context, db *gorm.DB, deviceID string, amount int) error {
	return creditRemaining(ctx, db, deviceID, amount)
}

func creditRemaining(ctx context.Context, db *gorm.DB, deviceID string, amount int) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("device_id = ?", deviceID).
		Updates(map[string]interface{}{
			"generations_remaining": gorm.Expr("generations_remaining + ?", amount),
			"updated_at":            time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
