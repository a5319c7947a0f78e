package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is the live catalog entry. Cart/order rows copy its fields at
// add-time; they never reference it for pricing after that.
type MenuItem struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID   `gorm:"column:restaurant_id;type:uuid;not null;index"`
	Name         string      `gorm:"column:name;not null"`
	Description  *string     `gorm:"column:description"`
	Category     *string     `gorm:"column:category"`
	ImageURL     *string     `gorm:"column:image_url"`
	PriceCents   int         `gorm:"column:price_cents;not null"`
	Available    bool        `gorm:"column:available;not null;default:true"`
	AddOns       []MenuAddOn `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// MenuAddOn is an optional extra declared on a menu item. MaxQuantity nil
// means uncapped.
type MenuAddOn struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MenuItemID  uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	PriceCents  int       `gorm:"column:price_cents;not null"`
	Available   bool      `gorm:"column:available;not null;default:true"`
	MaxQuantity *int      `gorm:"column:max_quantity"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
