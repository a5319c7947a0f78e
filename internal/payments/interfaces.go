package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the payment service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
}
