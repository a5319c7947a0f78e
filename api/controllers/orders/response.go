package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/pagination"
	"github.com/plateful/plateful-backend/pkg/types"
)

type orderAddOnView struct {
	AddOnID        uuid.UUID `json:"add_on_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	TotalCents     int       `json:"total_cents"`
}

type orderItemView struct {
	ID             uuid.UUID        `json:"id"`
	MenuItemID     uuid.UUID        `json:"menu_item_id"`
	Name           string           `json:"name"`
	UnitPriceCents int              `json:"unit_price_cents"`
	Quantity       int              `json:"quantity"`
	Instructions   *string          `json:"instructions,omitempty"`
	SubtotalCents  int              `json:"subtotal_cents"`
	TotalCents     int              `json:"total_cents"`
	AddOns         []orderAddOnView `json:"add_ons"`
}

type paymentSummaryView struct {
	ID              uuid.UUID `json:"id"`
	Method          string    `json:"method"`
	Status          string    `json:"status"`
	AmountCents     int       `json:"amount_cents"`
	TransactionCode string    `json:"transaction_code"`
}

type orderView struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       int64               `json:"order_number"`
	PickupCode        string              `json:"pickup_code"`
	RestaurantID      uuid.UUID           `json:"restaurant_id"`
	Status            string              `json:"status"`
	PaymentStatus     string              `json:"payment_status"`
	DeliveryAddress   *types.Address      `json:"delivery_address,omitempty"`
	DeliveryPoint     *types.GeoPoint     `json:"delivery_point,omitempty"`
	PreferredPickupAt *time.Time          `json:"preferred_pickup_at,omitempty"`
	EstimatedReadyAt  *time.Time          `json:"estimated_ready_at,omitempty"`
	ActualReadyAt     *time.Time          `json:"actual_ready_at,omitempty"`
	PickedUpAt        *time.Time          `json:"picked_up_at,omitempty"`
	SubtotalCents     int                 `json:"subtotal_cents"`
	DeliveryFeeCents  int                 `json:"delivery_fee_cents"`
	ServiceFeeCents   int                 `json:"service_fee_cents"`
	DiscountCents     int                 `json:"discount_cents"`
	TotalCents        int                 `json:"total_cents"`
	Instructions      *string             `json:"instructions,omitempty"`
	Items             []orderItemView     `json:"items"`
	Payment           *paymentSummaryView `json:"payment,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type orderPageView struct {
	Orders     []orderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func newOrderView(record *models.Order) orderView {
	items := make([]orderItemView, 0, len(record.Items))
	for _, item := range record.Items {
		addOns := make([]orderAddOnView, 0, len(item.AddOns))
		for _, addOn := range item.AddOns {
			addOns = append(addOns, orderAddOnView{
				AddOnID:        addOn.AddOnID,
				Name:           addOn.Name,
				UnitPriceCents: addOn.UnitPriceCents,
				Quantity:       addOn.Quantity,
				TotalCents:     addOn.TotalCents,
			})
		}
		items = append(items, orderItemView{
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

	view := orderView{
		ID:                record.ID,
		OrderNumber:       record.OrderNumber,
		PickupCode:        record.PickupCode,
		RestaurantID:      record.RestaurantID,
		Status:            string(record.Status),
		PaymentStatus:     string(record.PaymentStatus),
		DeliveryAddress:   record.DeliveryAddress,
		DeliveryPoint:     record.DeliveryPoint,
		PreferredPickupAt: record.PreferredPickupAt,
		EstimatedReadyAt:  record.EstimatedReadyAt,
		ActualReadyAt:     record.ActualReadyAt,
		PickedUpAt:        record.PickedUpAt,
		SubtotalCents:     record.SubtotalCents,
		DeliveryFeeCents:  record.DeliveryFeeCents,
		ServiceFeeCents:   record.ServiceFeeCents,
		DiscountCents:     record.DiscountCents,
		TotalCents:        record.TotalCents,
		Instructions:      record.Instructions,
		Items:             items,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
	if record.Payment != nil {
		view.Payment = &paymentSummaryView{
			ID:              record.Payment.ID,
			Method:          string(record.Payment.Method),
			Status:          string(record.Payment.Status),
			AmountCents:     record.Payment.AmountCents,
			TransactionCode: record.Payment.TransactionCode,
		}
	}
	return view
}

func newOrderPageView(records []models.Order, next *pagination.Cursor) orderPageView {
	views := make([]orderView, 0, len(records))
	for i := range records {
		views = append(views, newOrderView(&records[i]))
	}
	page := orderPageView{Orders: views}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page
}
