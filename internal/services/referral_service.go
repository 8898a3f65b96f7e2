// Package services – ReferralService
//
// This file implements the ReferralService, which issues shareable referral
// codes and processes claims. Issuance is idempotent per device; claiming is
// guarded against self-claims and double claims and credits both parties in
// one database transaction, so a partial failure can never record a claim
// without its rewards or vice versa.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// device and code identifiers.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jmmlabs/holidayhome-backend/internal/domain"
	"github.com/jmmlabs/holidayhome-backend/internal/repo"
)

// maxCodeAttempts bounds collision retries during code generation. Ten
// misses in a row against a 32^6 space means the store is unhealthy or the
// space is nearly full; either way we stop and report instead of spinning.
const maxCodeAttempts = 10

// IssuedCode is the result of code issuance: the code plus the share URL the
// client puts behind its share sheet.
type IssuedCode struct {
	Code     string `json:"code"`
	ShareURL string `json:"shareUrl"`
}

// ClaimResult reports a successful claim: what each side earned and who the
// referrer was.
type ClaimResult struct {
	ClaimerReward    int    `json:"claimerReward"`
	ReferrerReward   int    `json:"referrerReward"`
	ReferrerDeviceID string `json:"referrerDeviceId"`
}

// ReferralStats summarizes a device's referral performance together with its
// current quota state.
type ReferralStats struct {
	Code                       string    `json:"code"`
	ShareURL                   string    `json:"shareUrl"`
	TotalReferrals             int       `json:"totalReferrals"`
	DesignsEarnedFromReferrals int       `json:"designsEarnedFromReferrals"`
	GenerationsRemaining       int       `json:"generationsRemaining"`
	TotalGenerated             int       `json:"totalGenerated"`
	CreatedAt                  time.Time `json:"createdAt"`
}

// CodeStats is the public view of a single code: claim volume and timestamps
// only, never claimer device ids.
type CodeStats struct {
	Code        string      `json:"code"`
	CreatedAt   time.Time   `json:"createdAt"`
	TotalClaims int         `json:"totalClaims"`
	ClaimedAt   []time.Time `json:"claimedAt"`
}

// ReferralService implements the referral engine.
type ReferralService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Quota is the ledger used to ensure users exist and to credit rewards.
	Quota *QuotaService

	// Reward is the quota credit granted to each side of a successful claim.
	Reward int
	// BaseURL prefixes issued codes to form share URLs.
	BaseURL string
}

// NewReferralService constructs a ReferralService.
func NewReferralService(db *gorm.DB, quota *QuotaService, reward int, baseURL string) *ReferralService {
	return &ReferralService{DB: db, Quota: quota, Reward: reward, BaseURL: baseURL}
}

// GenerateOrGet returns the device's referral code, creating one on first
// request. Repeated calls return the identical code (first-generated-wins).
//
// New codes are drawn from the unambiguous alphabet and inserted under the
// store's unique constraints: a collision on the code value retries with a
// fresh draw (bounded by maxCodeAttempts); losing a concurrent race on the
// per-device slot returns the row the other request created.
func (s *ReferralService) GenerateOrGet(ctx context.Context, deviceID string) (*IssuedCode, error) {
	tr := otel.Tracer("services/ReferralService")
	ctx, span := tr.Start(ctx, "GenerateOrGet",
		trace.WithAttributes(attribute.String("device.id", deviceID)),
	)
	defer span.End()

	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}

	// The issuing device must exist in the ledger before it can be credited
	// by future claims.
	if _, err := s.Quota.GetOrCreate(ctx, deviceID); err != nil {
		return nil, err
	}

	if rc, err := repo.GetReferralByDevice(ctx, s.DB, deviceID); err == nil {
		return s.issued(rc), nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newReferralCode()
		if err != nil {
			return nil, err
		}
		rc, err := repo.CreateReferral(ctx, s.DB, code, deviceID)
		if err == nil {
			return s.issued(rc), nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, err
		}
		// Duplicate on device_id means a concurrent request already issued
		// this device a code; return that one. Duplicate on the code value
		// is a collision: draw again.
		if rc, derr := repo.GetReferralByDevice(ctx, s.DB, deviceID); derr == nil {
			return s.issued(rc), nil
		}
	}
	return nil, ErrCodeSpaceExhausted
}

// Claim redeems code on behalf of claimerDeviceID and credits both parties.
//
// Semantics and validation:
//   - code must exist; otherwise ErrCodeNotFound.
//   - A device cannot claim its own code; otherwise ErrSelfClaim.
//   - A device can claim a given code at most once; a repeat yields
//     ErrAlreadyClaimed (enforced by the unique claim constraint, so two
//     racing duplicates cannot both succeed).
//
// Concurrency & atomicity: the claim row, the total_claims bump, and both
// reward credits commit as one transaction. Any failure rolls all of it back.
func (s *ReferralService) Claim(ctx context.Context, code, claimerDeviceID string) (*ClaimResult, error) {
	tr := otel.Tracer("services/ReferralService")
	ctx, span := tr.Start(ctx, "Claim",
		trace.WithAttributes(
			attribute.String("referral.code", code),
			attribute.String("device.id", claimerDeviceID),
		),
	)
	defer span.End()

	claimerDeviceID, err := ValidateDeviceID(claimerDeviceID)
	if err != nil {
		return nil, err
	}
	if code = normalizeCode(code); code == "" {
		return nil, ErrCodeNotFound
	}

	var result *ClaimResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rc, err := repo.GetReferralByCode(ctx, tx, code)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrCodeNotFound
			}
			return err
		}
		if rc.DeviceID == claimerDeviceID {
			return ErrSelfClaim
		}

		ledger := s.Quota.WithTx(tx)
		if _, err := ledger.GetOrCreate(ctx, claimerDeviceID); err != nil {
			return err
		}
		if _, err := ledger.GetOrCreate(ctx, rc.DeviceID); err != nil {
			return err
		}

		if _, err := repo.CreateClaim(ctx, tx, code, claimerDeviceID); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrAlreadyClaimed
			}
			return err
		}
		if err := repo.IncrementClaims(ctx, tx, code); err != nil {
			return err
		}
		if err := repo.CreditGenerations(ctx, tx, claimerDeviceID, s.Reward); err != nil {
			return err
		}
		if err := repo.CreditGenerations(ctx, tx, rc.DeviceID, s.Reward); err != nil {
			return err
		}

		result = &ClaimResult{
			ClaimerReward:    s.Reward,
			ReferrerReward:   s.Reward,
			ReferrerDeviceID: rc.DeviceID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stats reports the device's referral performance and current quota state.
// Returns ErrCodeNotFound when the device has never generated a code.
func (s *ReferralService) Stats(ctx context.Context, deviceID string) (*ReferralStats, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	rc, err := repo.GetReferralByDevice(ctx, s.DB, deviceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	st := &ReferralStats{
		Code:                       rc.Code,
		ShareURL:                   s.BaseURL + rc.Code,
		TotalReferrals:             rc.TotalClaims,
		DesignsEarnedFromReferrals: rc.TotalClaims * s.Reward,
		CreatedAt:                  rc.CreatedAt,
	}
	// Quota fields are best effort: a code can predate the ledger row when
	// state was migrated, in which case the counts report zero.
	if u, err := repo.GetUser(ctx, s.DB, deviceID); err == nil {
		st.GenerationsRemaining = u.GenerationsRemaining
		st.TotalGenerated = u.TotalGenerated
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	return st, nil
}

// StatsByCode reports the public view of a code: creation time, claim count,
// and claim timestamps. Claimer identities are withheld.
func (s *ReferralService) StatsByCode(ctx context.Context, code string) (*CodeStats, error) {
	if code = normalizeCode(code); code == "" {
		return nil, ErrCodeNotFound
	}
	rc, err := repo.GetReferralByCode(ctx, s.DB, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	times, err := repo.ListClaimTimes(ctx, s.DB, code)
	if err != nil {
		return nil, err
	}
	return &CodeStats{
		Code:        rc.Code,
		CreatedAt:   rc.CreatedAt,
		TotalClaims: rc.TotalClaims,
		ClaimedAt:   times,
	}, nil
}

func (s *ReferralService) issued(rc *domain.ReferralCode) *IssuedCode {
	return &IssuedCode{Code: rc.Code, ShareURL: s.BaseURL + rc.Code}
}
