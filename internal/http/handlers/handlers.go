// Handler wiring.
//
// This file declares the service contracts the HTTP layer consumes and the
// Handlers aggregate bound to them. Handlers are transport-thin: they
// validate and normalize inputs, delegate to the application services, and
// translate service sentinel errors into HTTP responses.
package handlers

import (
	"context"

	"github.com/jmmlabs/holidayhome-backend/internal/domain"
	"github.com/jmmlabs/holidayhome-backend/internal/gemini"
	"github.com/jmmlabs/holidayhome-backend/internal/products"
	"github.com/jmmlabs/holidayhome-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// QuotaService defines the per-device generation ledger operations consumed
// by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type QuotaService interface {
	// GetOrCreate returns the ledger row, creating it on first touch.
	GetOrCreate(ctx context.Context, deviceID string) (*domain.User, error)
	// Consume reserves one generation ahead of the external image call.
	Consume(ctx context.Context, deviceID string) (*domain.User, error)
	// Restore compensates a reservation whose external call failed.
	Restore(ctx context.Context, deviceID string) error
}

// ReferralService defines referral issuance, claiming, and stats operations.
type ReferralService interface {
	// GenerateOrGet returns the device's code, issuing one on first request.
	GenerateOrGet(ctx context.Context, deviceID string) (*services.IssuedCode, error)
	// Claim redeems a code for a claimer and credits both parties.
	Claim(ctx context.Context, code, claimerDeviceID string) (*services.ClaimResult, error)
	// Stats reports a device's referral performance.
	Stats(ctx context.Context, deviceID string) (*services.ReferralStats, error)
	// StatsByCode reports the public view of a single code.
	StatsByCode(ctx context.Context, code string) (*services.CodeStats, error)
}

// PurchaseService defines purchase-credit reconciliation.
type PurchaseService interface {
	// Credit applies product credits at most once per transaction id.
	Credit(ctx context.Context, deviceID, productID string, transactionIDs []string) (*services.CreditOutcome, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for generation, referrals, and purchase
// credits. It depends on abstract service interfaces plus the injected image
// client, keeping transport concerns separate from business logic.
type Handlers struct {
	quotaSvc    QuotaService
	referralSvc ReferralService
	purchaseSvc PurchaseService

	image   gemini.Client
	catalog *products.Catalog
}

// New constructs a Handlers instance bound to the given services and the
// external image client.
func New(quota QuotaService, referral ReferralService, purchase PurchaseService, image gemini.Client, catalog *products.Catalog) *Handlers {
	return &Handlers{
		quotaSvc:    quota,
		referralSvc: referral,
		purchaseSvc: purchase,
		image:       image,
		catalog:     catalog,
	}
}
