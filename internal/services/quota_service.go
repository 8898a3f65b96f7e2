// Package services – QuotaService
//
// This file implements the QuotaService, the ledger that owns per-device
// generation counters. It validates device ids, lazily creates ledger rows
// with the configured free grant, and exposes the reservation/compensation
// pair used around the external image call: Consume reserves a generation
// before the call, Restore gives it back when the call fails, and leaving the
// reservation in place is the commit.
//
// All counter mutations go through single-statement guarded updates in the
// repo layer, so concurrent requests for one device are linearized by the
// store rather than by in-process locks.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jmmlabs/holidayhome-backend/internal/repo"

	"github.com/jmmlabs/holidayhome-backend/internal/domain"
)

// maxDeviceIDRunes caps the accepted device id length. Device ids are opaque
// client tokens (UUID-sized in practice); anything longer is hostile input.
const maxDeviceIDRunes = 128

// QuotaService implements the per-device generation ledger.
type QuotaService struct {
	// DB is the GORM handle used for persistence. The handle may be a plain
	// *gorm.DB or a transaction-bound handle.
	DB *gorm.DB

	// InitialGrant is the free quota given to a device on first touch.
	InitialGrant int
}

// NewQuotaService constructs a QuotaService with the given starting grant.
func NewQuotaService(db *gorm.DB, initialGrant int) *QuotaService {
	return &QuotaService{DB: db, InitialGrant: initialGrant}
}

// ValidateDeviceID normalizes and checks a client-supplied device id.
// Returns the trimmed id or ErrInvalidDeviceID.
func ValidateDeviceID(deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" || utf8.RuneCountInString(deviceID) > maxDeviceIDRunes {
		return "", ErrInvalidDeviceID
	}
	return deviceID, nil
}

// GetOrCreate returns the ledger row for deviceID, creating it with the
// initial free grant on first touch. Safe under concurrent first-touch from
// the same device (upsert, not check-then-insert).
func (s *QuotaService) GetOrCreate(ctx context.Context, deviceID string) (*domain.User, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	return repo.GetOrCreateUser(ctx, s.DB, deviceID, s.InitialGrant)
}

// Consume reserves one generation for deviceID ahead of the external image
// call. It guarantees the ledger row exists first, then performs the guarded
// decrement. On exhausted quota it returns the current counters together with
// ErrQuotaExhausted so the transport layer can include them in the 403 body.
func (s *QuotaService) Consume(ctx context.Context, deviceID string) (*domain.User, error) {
	tr := otel.Tracer("services/QuotaService")
	ctx, span := tr.Start(ctx, "Consume",
		trace.WithAttributes(attribute.String("device.id", deviceID)),
	)
	defer span.End()

	u, err := s.GetOrCreate(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	err = repo.ConsumeGeneration(ctx, s.DB, u.DeviceID)
	if errors.Is(err, repo.ErrNoRemaining) {
		return u, ErrQuotaExhausted
	}
	if err != nil {
		return nil, err
	}
	return repo.GetUser(ctx, s.DB, u.DeviceID)
}

// Restore compensates a reservation after the external call failed. It does
// not touch total_generated. A storage failure here leaves the ledger one
// generation short for the device; the caller logs it as a reconciliation
// concern instead of retrying indefinitely.
func (s *QuotaService) Restore(ctx context.Context, deviceID string) error {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return err
	}
	return repo.RestoreGeneration(ctx, s.DB, deviceID)
}

// Credit adds amount generations to deviceID's remaining quota and returns
// the updated counters. Amount must be a positive integer. The ledger row is
// created if the device has never been seen.
func (s *QuotaService) Credit(ctx context.Context, deviceID string, amount int) (*domain.User, error) {
	tr := otel.Tracer("services/QuotaService")
	ctx, span := tr.Start(ctx, "Credit",
		trace.WithAttributes(
			attribute.String("device.id", deviceID),
			attribute.Int("credit.amount", amount),
		),
	)
	defer span.End()

	if amount <= 0 {
		return nil, ErrInvalidCredit
	}
	u, err := s.GetOrCreate(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if err := repo.CreditGenerations(ctx, s.DB, u.DeviceID, amount); err != nil {
		return nil, err
	}
	return repo.GetUser(ctx, s.DB, u.DeviceID)
}

// WithTx returns a copy of the service bound to the given transaction handle.
// The referral and purchase services use this to run ledger mutations inside
// their own atomic units.
func (s *QuotaService) WithTx(tx *gorm.DB) *QuotaService {
	return &QuotaService{DB: tx, InitialGrant: s.InitialGrant}
}
