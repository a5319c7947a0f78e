package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db/models"
)

// Repository defines the persistence surface of the bank transaction ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, record *models.BankTransaction) (*models.BankTransaction, error)
	FindByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*models.BankTransaction, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository constructs a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

// Insert appends one ledger row. The unique index on gateway_txn_id is the
// authoritative idempotency guard.
func (r *gormRepository) Insert(ctx context.Context, record *models.BankTransaction) (*models.BankTransaction, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindByGatewayTxnID looks up a ledger row by the gateway's identifier.
func (r *gormRepository) FindByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*models.BankTransaction, error) {
	var record models.BankTransaction
	if err := r.db.WithContext(ctx).Where("gateway_txn_id = ?", gatewayTxnID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkProcessed flips the processed flag once reconciliation succeeds.
func (r *gormRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.BankTransaction{}).
		Where("id = ?", id).
		Update("processed", true).Error
}
