// Package domain defines the persistence models for the generation-quota
// ledger and the referral program. This file contains the processed-purchase
// record used to apply in-app-purchase credits at most once per store
// transaction.
package domain

import "time"

// PurchaseTransaction is the durable record of a store transaction whose
// quota credit has already been applied. The primary key on TransactionID
// guarantees at-most-once credit application even when the store SDK
// re-delivers the same receipt batch on every app launch: the insert and the
// credit run in one database transaction, so a duplicate submission either
// sees the row and credits nothing, or loses the insert race and rolls back.
type PurchaseTransaction struct {
	TransactionID string    `json:"transaction_id" gorm:"type:varchar(191);primaryKey"`
	DeviceID      string    `json:"device_id"      gorm:"type:varchar(128);not null;index"`
	ProductID     string    `json:"product_id"     gorm:"type:varchar(128);not null"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for PurchaseTransaction.
func (PurchaseTransaction) TableName() string { return "purchase_transactions" }
