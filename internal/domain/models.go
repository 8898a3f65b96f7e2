// Package domain defines the persistence models for the generation-quota
// ledger and the referral program. These types are mapped with GORM and form
// the core data layer of the HolidayHome AI backend.
package domain

import (
	"time"
)

// User is the per-device quota ledger row. The device id is a client-supplied
// opaque identifier (trust-on-first-use); rows are created lazily on first
// reference and never deleted.
//
// Fields:
//   - DeviceID: opaque client identifier, primary key.
//   - GenerationsRemaining: generations the device may still request. Mutated
//     only through atomic column expressions (never read-modify-write).
//   - TotalGenerated: monotonically non-decreasing count of successful
//     generations.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	DeviceID             string    `json:"device_id"             gorm:"type:varchar(128);primaryKey"`
	GenerationsRemaining int       `json:"generations_remaining" gorm:"not null;default:0;check:generations_remaining >= 0"`
	TotalGenerated       int       `json:"total_generated"       gorm:"not null;default:0;check:total_generated >= 0"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ReferralCode binds a shareable 6-character code to the device that issued
// it. A device owns at most one code (first-generated-wins, enforced by the
// unique index on device_id); the code value itself is immutable once created.
//
// Fields:
//   - Code: fixed-length shareable token, primary key. Drawn from a 32-symbol
//     alphabet that excludes visually confusable characters (0, O, 1, I).
//   - DeviceID: owning device; unique so each device holds one code.
//   - TotalClaims: incremented once per distinct successful claim.
//   - CreatedAt: issuance timestamp.
type ReferralCode struct {
	Code        string    `json:"code"         gorm:"type:char(6);primaryKey"`
	DeviceID    string    `json:"device_id"    gorm:"type:varchar(128);not null;uniqueIndex:ux_referral_device"`
	TotalClaims int       `json:"total_claims" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for ReferralCode.
func (ReferralCode) TableName() string { return "referrals" }

// ReferralClaim records a single redemption of a referral code by a device
// other than its issuer. The (code, claimer_device_id) pair is unique: a
// device may claim a given code at most once, and the database constraint is
// the authoritative guard against double claims racing past application-level
// existence checks.
//
// Rows are inserted exactly once per successful claim and never mutated.
type ReferralClaim struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	Code            string    `json:"code"              gorm:"type:char(6);not null;index;uniqueIndex:ux_claim_code_device"`
	ClaimerDeviceID string    `json:"claimer_device_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_claim_code_device"`
	ClaimedAt       time.Time `json:"claimed_at"`

	// Referral is the claimed code. Claims are cascade-deleted if the code
	// row is ever removed.
	Referral ReferralCode `json:"-" gorm:"belongsTo;foreignKey:Code;references:Code;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ReferralClaim.
func (ReferralClaim) TableName() string { return "claims" }
