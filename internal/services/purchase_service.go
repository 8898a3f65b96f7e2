// Package services – PurchaseService
//
// This file implements the PurchaseService, which reconciles in-app-purchase
// receipts into quota credits. The store SDK re-delivers the full receipt
// batch on every app launch, so the whole operation is built to be idempotent
// per transaction id: the processed-transaction insert is the filter, it runs
// in the same database transaction as the credit, and replays are a pure
// no-op returning the current counters.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jmmlabs/holidayhome-backend/internal/repo"
)

// CreditOutcome reports the result of a purchase reconciliation call.
type CreditOutcome struct {
	CreditedTransactions int `json:"creditedTransactions"`
	CreditedAmount       int `json:"creditedAmount"`
	GenerationsRemaining int `json:"generationsRemaining"`
	TotalGenerated       int `json:"totalGenerated"`
}

// PurchaseService applies product credits at most once per store transaction.
type PurchaseService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Quota is the ledger credited for newly seen transactions.
	Quota *QuotaService

	// Credits maps product ids to the quota credit granted per transaction.
	// Products absent from the map are rejected with ErrUnsupportedProduct.
	Credits map[string]int
}

// NewPurchaseService constructs a PurchaseService with the given
// product→credit mapping.
func NewPurchaseService(db *gorm.DB, quota *QuotaService, credits map[string]int) *PurchaseService {
	return &PurchaseService{DB: db, Quota: quota, Credits: credits}
}

// Credit reconciles a batch of store transaction ids for deviceID/productID.
//
// Semantics:
//   - deviceID and productID must be present; transactionIDs must contain at
//     least one non-blank id (ErrInvalidDeviceID / ErrUnsupportedProduct /
//     ErrNoTransactions otherwise).
//   - Each transaction id is credited exactly once, ever. Already-processed
//     ids are skipped; a batch of only replays returns creditedTransactions=0,
//     creditedAmount=0 and unchanged counters.
//   - The processed-transaction inserts and the quota credit commit as one
//     transaction, so a crash between the two cannot double-credit a retry.
func (s *PurchaseService) Credit(ctx context.Context, deviceID, productID string, transactionIDs []string) (*CreditOutcome, error) {
	tr := otel.Tracer("services/PurchaseService")
	ctx, span := tr.Start(ctx, "Credit",
		trace.WithAttributes(
			attribute.String("device.id", deviceID),
			attribute.String("product.id", productID),
			attribute.Int("transactions.submitted", len(transactionIDs)),
		),
	)
	defer span.End()

	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrUnsupportedProduct
	}
	perTransaction, ok := s.Credits[productID]
	if !ok || perTransaction <= 0 {
		return nil, ErrUnsupportedProduct
	}
	ids := dedupeIDs(transactionIDs)
	if len(ids) == 0 {
		return nil, ErrNoTransactions
	}

	var out *CreditOutcome
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.Quota.WithTx(tx)
		if _, err := ledger.GetOrCreate(ctx, deviceID); err != nil {
			return err
		}

		credited := 0
		for _, id := range ids {
			err := repo.InsertPurchaseTransaction(ctx, tx, id, deviceID, productID)
			if errors.Is(err, repo.ErrDuplicate) {
				continue
			}
			if err != nil {
				return err
			}
			credited++
		}

		amount := credited * perTransaction
		if amount > 0 {
			if err := repo.CreditGenerations(ctx, tx, deviceID, amount); err != nil {
				return err
			}
		}
		u, err := repo.GetUser(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		out = &CreditOutcome{
			CreditedTransactions: credited,
			CreditedAmount:       amount,
			GenerationsRemaining: u.GenerationsRemaining,
			TotalGenerated:       u.TotalGenerated,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("transactions.credited", out.CreditedTransactions))
	return out, nil
}

// dedupeIDs trims, drops blanks, and removes in-batch repeats while keeping
// submission order. The store has been seen delivering the same id twice in
// one batch.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
