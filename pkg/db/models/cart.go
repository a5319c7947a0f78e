package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/enums"
)

// Cart is the mutable staging aggregate for one customer/restaurant pair.
// Totals are denormalized and recomputed inside every mutating transaction;
// readers never derive them.
type Cart struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;index"`
	RestaurantID  uuid.UUID        `gorm:"column:restaurant_id;type:uuid;not null"`
	Status        enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	SubtotalCents int              `gorm:"column:subtotal_cents;not null;default:0"`
	TotalCents    int              `gorm:"column:total_cents;not null;default:0"`
	ItemCount     int              `gorm:"column:item_count;not null;default:0"`
	Items         []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
