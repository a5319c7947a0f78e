package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository constructs a payment repository bound to the provided DB.
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

// Create inserts a new payment; the unique index on order_id rejects a second
// payment for the same order.
func (r *gormRepository) Create(ctx context.Context, record *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindByID loads one payment by primary key.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var record models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByOrderID loads the payment attached to an order.
func (r *gormRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var record models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ExpirePendingBefore expires payments stuck in PENDING since the cutoff.
// The fulfillment status of the owning orders is deliberately untouched.
func (r *gormRepository) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("status = ? AND created_at < ?", enums.PaymentStatusPending, cutoff).
		Update("status", enums.PaymentStatusExpired)
	return res.RowsAffected, res.Error
}

// UpdateFields applies a partial column update to one payment.
func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(fields).Error
}
