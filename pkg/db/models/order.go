package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/enums"
	"github.com/plateful/plateful-backend/pkg/types"
)

// Order is the immutable-at-creation record produced by cart checkout.
// OrderNumber is the business reference embedded in bank-transfer memos
// (DH<number>); PickupCode is the customer-facing verification token.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64               `gorm:"column:order_number;autoIncrement;uniqueIndex"`
	PickupCode        string              `gorm:"column:pickup_code;not null;uniqueIndex"`
	CustomerID        uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	RestaurantID      uuid.UUID           `gorm:"column:restaurant_id;type:uuid;not null;index"`
	Status            enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	DeliveryAddress   *types.Address      `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	DeliveryPoint     *types.GeoPoint     `gorm:"column:delivery_point;type:jsonb;serializer:json"`
	PreferredPickupAt *time.Time          `gorm:"column:preferred_pickup_at"`
	EstimatedReadyAt  *time.Time          `gorm:"column:estimated_ready_at"`
	ActualReadyAt     *time.Time          `gorm:"column:actual_ready_at"`
	PickedUpAt        *time.Time          `gorm:"column:picked_up_at"`
	SubtotalCents     int                 `gorm:"column:subtotal_cents;not null;default:0"`
	DeliveryFeeCents  int                 `gorm:"column:delivery_fee_cents;not null;default:0"`
	ServiceFeeCents   int                 `gorm:"column:service_fee_cents;not null;default:0"`
	DiscountCents     int                 `gorm:"column:discount_cents;not null;default:0"`
	TotalCents        int                 `gorm:"column:total_cents;not null;default:0"`
	Instructions      *string             `gorm:"column:instructions"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment           *Payment            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
