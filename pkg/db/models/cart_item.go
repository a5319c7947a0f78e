package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a line in a cart. Name/description/category/image/price are
// copied from the menu item at add-time and stay frozen afterwards.
type CartItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	MenuItemID     uuid.UUID       `gorm:"column:menu_item_id;type:uuid;not null"`
	Name           string          `gorm:"column:name;not null"`
	Description    *string         `gorm:"column:description"`
	Category       *string         `gorm:"column:category"`
	ImageURL       *string         `gorm:"column:image_url"`
	UnitPriceCents int             `gorm:"column:unit_price_cents;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	Instructions   *string         `gorm:"column:instructions"`
	SubtotalCents  int             `gorm:"column:subtotal_cents;not null"`
	TotalCents     int             `gorm:"column:total_cents;not null"`
	AddOns         []CartItemAddOn `gorm:"foreignKey:CartItemID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItemAddOn is a priced extra attached to a cart line, snapshotted from
// the catalog add-on.
type CartItemAddOn struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartItemID     uuid.UUID `gorm:"column:cart_item_id;type:uuid;not null;index"`
	AddOnID        uuid.UUID `gorm:"column:add_on_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	Description    *string   `gorm:"column:description"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	TotalCents     int       `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
