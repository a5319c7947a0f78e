package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/enums"
)

// BankTransaction is one inbound gateway notification, appended once per
// gateway transaction id. Rows are immutable after ingestion except for
// Processed and the extracted OrderNumber.
type BankTransaction struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayTxnID   string                  `gorm:"column:gateway_txn_id;not null;uniqueIndex"`
	BankName       string                  `gorm:"column:bank_name;not null"`
	TransactedAt   time.Time               `gorm:"column:transacted_at;not null"`
	AccountNumber  string                  `gorm:"column:account_number;not null"`
	CounterAccount *string                 `gorm:"column:counter_account"`
	Direction      enums.TransferDirection `gorm:"column:direction;not null"`
	AmountCents    int                     `gorm:"column:amount_cents;not null"`
	BalanceCents   *int                    `gorm:"column:balance_cents"`
	Memo           string                  `gorm:"column:memo;not null;default:''"`
	ReferenceCode  *string                 `gorm:"column:reference_code"`
	RawPayload     string                  `gorm:"column:raw_payload;not null;default:''"`
	OrderNumber    *int64                  `gorm:"column:order_number;index"`
	Processed      bool                    `gorm:"column:processed;not null;default:false"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
