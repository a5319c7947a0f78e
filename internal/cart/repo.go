package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
)

// Repository exposes persistence operations for cart staging data.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActive loads the active cart for the customer/restaurant pair, with
// items and their add-ons.
func (r *Repository) FindActive(ctx context.Context, customerID, restaurantID uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.created_at ASC") }).
		Preload("Items.AddOns").
		Where("customer_id = ? AND restaurant_id = ? AND status = ?", customerID, restaurantID, enums.CartStatusActive).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIDAndCustomer returns a cart restricted to the owning customer.
func (r *Repository) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.created_at ASC") }).
		Preload("Items.AddOns").
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new cart.
func (r *Repository) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// SaveTotals persists the denormalized totals columns.
func (r *Repository) SaveTotals(ctx context.Context, record *models.Cart) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"subtotal_cents": record.SubtotalCents,
			"total_cents":    record.TotalCents,
			"item_count":     record.ItemCount,
		}).Error
}

// CreateItem inserts a cart item together with its add-ons.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SaveItem persists an existing item and replaces its add-on rows.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_item_id = ?", item.ID).Delete(&models.CartItemAddOn{}).Error; err != nil {
		return err
	}

	addOns := item.AddOns
	item.AddOns = nil
	if err := tx.Omit("AddOns").Save(item).Error; err != nil {
		item.AddOns = addOns
		return err
	}
	item.AddOns = addOns

	if len(addOns) == 0 {
		return nil
	}
	for i := range addOns {
		addOns[i].ID = uuid.New()
		addOns[i].CartItemID = item.ID
	}
	return tx.Create(&addOns).Error
}

// DeleteItem removes one cart item; add-ons cascade.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// DeleteItems removes every item in a cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// ExpireActiveBefore retires active carts untouched since the cutoff. The
// timestamp gate makes a concurrent user mutation win over the sweep.
func (r *Repository) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("status = ? AND updated_at < ?", enums.CartStatusActive, cutoff).
		Update("status", enums.CartStatusExpired)
	return res.RowsAffected, res.Error
}

// PurgeExpiredBefore physically deletes long-expired carts; items cascade.
func (r *Repository) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", enums.CartStatusExpired, cutoff).
		Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

// UpdateStatus moves a cart to a new lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", id).
		Update("status", status).Error
}
