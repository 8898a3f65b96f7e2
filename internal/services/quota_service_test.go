package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jmmlabs/holidayhome-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.ReferralCode{},
		&domain.ReferralClaim{},
		&domain.PurchaseTransaction{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestValidateDeviceID(t *testing.T) {
	if _, err := ValidateDeviceID(""); !errors.Is(err, ErrInvalidDeviceID) {
		t.Fatalf("empty id: expected ErrInvalidDeviceID, got %v", err)
	}
	if _, err := ValidateDeviceID("   "); !errors.Is(err, ErrInvalidDeviceID) {
		t.Fatalf("blank id: expected ErrInvalidDeviceID, got %v", err)
	}
	if _, err := ValidateDeviceID(strings.Repeat("x", 129)); !errors.Is(err, ErrInvalidDeviceID) {
		t.Fatalf("oversized id: expected ErrInvalidDeviceID, got %v", err)
	}

	got, err := ValidateDeviceID("  dev-1  ")
	if err != nil || got != "dev-1" {
		t.Fatalf("expected trimmed id, got %q err %v", got, err)
	}
	// 128 runes exactly is still accepted.
	if _, err := ValidateDeviceID(strings.Repeat("x", 128)); err != nil {
		t.Fatalf("128-rune id rejected: %v", err)
	}
}

func TestQuota_GetOrCreate_GrantsOnceOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db, 3)
	ctx := context.Background()

	u, err := svc.GetOrCreate(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if u.GenerationsRemaining != 3 || u.TotalGenerated != 0 {
		t.Fatalf("unexpected fresh row: %+v", u)
	}

	again, err := svc.GetOrCreate(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if again.GenerationsRemaining != 3 {
		t.Fatalf("repeat touch must not re-grant: %+v", again)
	}
}

func TestQuota_Consume_DecrementsUntilExhausted(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db, 2)
	ctx := context.Background()

	u, err := svc.Consume(ctx, "dev-1")
	if err != nil {
		t.Fatalf("consume 1: %v", err)
	}
	if u.GenerationsRemaining != 1 || u.TotalGenerated != 1 {
		t.Fatalf("unexpected counters after consume 1: %+v", u)
	}
	if u, err = svc.Consume(ctx, "dev-1"); err != nil {
		t.Fatalf("consume 2: %v", err)
	}
	if u.GenerationsRemaining != 0 || u.TotalGenerated != 2 {
		t.Fatalf("unexpected counters after consume 2: %+v", u)
	}

	// Third consume is rejected but still returns the current counters for
	// the 403 body.
	u, err = svc.Consume(ctx, "dev-1")
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if u == nil || u.GenerationsRemaining != 0 || u.TotalGenerated != 2 {
		t.Fatalf("exhausted consume must report current counters: %+v", u)
	}
}

func TestQuota_Consume_InvalidDeviceID(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db, 3)

	if _, err := svc.Consume(context.Background(), "   "); !errors.Is(err, ErrInvalidDeviceID) {
		t.Fatalf("expected ErrInvalidDeviceID, got %v", err)
	}
}

func TestQuota_RestoreSymmetry(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db, 3)
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "dev-1"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := svc.Restore(ctx, "dev-1"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	u, err := svc.GetOrCreate(ctx, "dev-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if u.GenerationsRemaining != 3 {
		t.Fatalf("restore must return the reserved generation: %+v", u)
	}
	if u.TotalGenerated != 1 {
		t.Fatalf("restore must not rewind total_generated: %+v", u)
	}
}

func TestQuota_Credit(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db, 3)
	ctx := context.Background()

	// Invalid amounts rejected up front.
	if _, err := svc.Credit(ctx, "dev-1", 0); !errors.Is(err, ErrInvalidCredit) {
		t.Fatalf("expected ErrInvalidCredit for 0, got %v", err)
	}
	if _, err := svc.Credit(ctx, "dev-1", -5); !errors.Is(err, ErrInvalidCredit) {
		t.Fatalf("expected ErrInvalidCredit for negative, got %v", err)
	}

	// Crediting an unseen device creates the ledger row first.
	u, err := svc.Credit(ctx, "dev-new", 10)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if u.GenerationsRemaining != 13 {
		t.Fatalf("expected grant 3 + credit 10 = 13, got %+v", u)
	}
}

func TestQuota_WithTx_BindsHandle(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db, 3)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		ledger := svc.WithTx(tx)
		if ledger.DB != tx {
			t.Fatalf("WithTx must bind the transaction handle")
		}
		if ledger.InitialGrant != svc.InitialGrant {
			t.Fatalf("WithTx must carry the grant")
		}
		_, err := ledger.GetOrCreate(ctx, "dev-tx")
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if _, err := svc.GetOrCreate(ctx, "dev-tx"); err != nil {
		t.Fatalf("row not visible after commit: %v", err)
	}
}
