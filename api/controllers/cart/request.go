package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/types"
)

type addOnSelectionRequest struct {
	AddOnID  uuid.UUID `json:"add_on_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

type addItemRequest struct {
	MenuItemID   uuid.UUID               `json:"menu_item_id" validate:"required"`
	Quantity     int                     `json:"quantity" validate:"required,min=1"`
	Instructions *string                 `json:"instructions"`
	AddOns       []addOnSelectionRequest `json:"add_ons" validate:"dive"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type checkoutRequest struct {
	PreferredPickupAt *time.Time      `json:"preferred_pickup_at"`
	Instructions      *string         `json:"instructions"`
	DeliveryAddress   *types.Address  `json:"delivery_address"`
	DeliveryPoint     *types.GeoPoint `json:"delivery_point"`
}
