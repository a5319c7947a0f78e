package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is the frozen line-item snapshot copied from a cart item at
// checkout. Catalog edits or deletions after creation never touch it.
type OrderItem struct {
	ID             uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID    `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID     uuid.UUID    `gorm:"column:menu_item_id;type:uuid;not null"`
	Name           string       `gorm:"column:name;not null"`
	Description    *string      `gorm:"column:description"`
	Category       *string      `gorm:"column:category"`
	ImageURL       *string      `gorm:"column:image_url"`
	UnitPriceCents int          `gorm:"column:unit_price_cents;not null"`
	Quantity       int          `gorm:"column:quantity;not null"`
	Instructions   *string      `gorm:"column:instructions"`
	SubtotalCents  int          `gorm:"column:subtotal_cents;not null"`
	TotalCents     int          `gorm:"column:total_cents;not null"`
	AddOns         []OrderAddOn `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderAddOn mirrors a cart add-on snapshot onto the placed order.
type OrderAddOn struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID    uuid.UUID `gorm:"column:order_item_id;type:uuid;not null;index"`
	AddOnID        uuid.UUID `gorm:"column:add_on_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	Description    *string   `gorm:"column:description"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	TotalCents     int       `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
