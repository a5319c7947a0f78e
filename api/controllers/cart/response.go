package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/db/models"
)

type cartAddOnView struct {
	ID             uuid.UUID `json:"id"`
	AddOnID        uuid.UUID `json:"add_on_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	TotalCents     int       `json:"total_cents"`
}

type cartItemView struct {
	ID             uuid.UUID       `json:"id"`
	MenuItemID     uuid.UUID       `json:"menu_item_id"`
	Name           string          `json:"name"`
	UnitPriceCents int             `json:"unit_price_cents"`
	Quantity       int             `json:"quantity"`
	Instructions   *string         `json:"instructions,omitempty"`
	SubtotalCents  int             `json:"subtotal_cents"`
	TotalCents     int             `json:"total_cents"`
	AddOns         []cartAddOnView `json:"add_ons"`
}

type cartView struct {
	ID            uuid.UUID      `json:"id"`
	RestaurantID  uuid.UUID      `json:"restaurant_id"`
	Status        string         `json:"status"`
	SubtotalCents int            `json:"subtotal_cents"`
	TotalCents    int            `json:"total_cents"`
	ItemCount     int            `json:"item_count"`
	Items         []cartItemView `json:"items"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// checkoutReceipt is the slim order summary returned after conversion.
type checkoutReceipt struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	PickupCode  string    `json:"pickup_code"`
	Status      string    `json:"status"`
	TotalCents  int       `json:"total_cents"`
}

func newCartView(record *models.Cart) cartView {
	items := make([]cartItemView, 0, len(record.Items))
	for _, item := range record.Items {
		addOns := make([]cartAddOnView, 0, len(item.AddOns))
		for _, addOn := range item.AddOns {
			addOns = append(addOns, cartAddOnView{
				ID:             addOn.ID,
				AddOnID:        addOn.AddOnID,
				Name:           addOn.Name,
				UnitPriceCents: addOn.UnitPriceCents,
				Quantity:       addOn.Quantity,
				TotalCents:     addOn.TotalCents,
			})
		}
		items = append(items, cartItemView{
			ID:             item.ID,
			MenuItemID:     item.MenuItemID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			Instructions:   item.Instructions,
			SubtotalCents:  item.SubtotalCents,
			TotalCents:     item.TotalCents,
			AddOns:         addOns,
		})
	}

	return cartView{
		ID:            record.ID,
		RestaurantID:  record.RestaurantID,
		Status:        string(record.Status),
		SubtotalCents: record.SubtotalCents,
		TotalCents:    record.TotalCents,
		ItemCount:     record.ItemCount,
		Items:         items,
		UpdatedAt:     record.UpdatedAt,
	}
}

func newCheckoutReceipt(record *models.Order) checkoutReceipt {
	return checkoutReceipt{
		OrderID:     record.ID,
		OrderNumber: record.OrderNumber,
		PickupCode:  record.PickupCode,
		Status:      string(record.Status),
		TotalCents:  record.TotalCents,
	}
}
