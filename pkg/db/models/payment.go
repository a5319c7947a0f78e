package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/enums"
)

// Payment tracks the monetary lifecycle of exactly one order. The unique
// index on OrderID is what enforces the one-payment-per-order invariant
// under concurrent creates.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Method          enums.PaymentMethod `gorm:"column:method;not null"`
	Status          enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	AmountCents     int                 `gorm:"column:amount_cents;not null"`
	TransactionCode string              `gorm:"column:transaction_code;not null;uniqueIndex"`
	GatewayTxnID    *string             `gorm:"column:gateway_txn_id"`
	GatewayResponse *string             `gorm:"column:gateway_response"`
	FailureReason   *string             `gorm:"column:failure_reason"`
	QRCode          *string             `gorm:"column:qr_code"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
