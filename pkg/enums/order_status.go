package enums

import "fmt"

// OrderStatus describes the fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusPickedUp,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// IsValid reports whether the value matches the canonical order status enum.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts the raw string to OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderAction names a requested fulfillment transition.
type OrderAction string

const (
	OrderActionConfirm       OrderAction = "confirm"
	OrderActionStartPrepare  OrderAction = "start_preparing"
	OrderActionMarkReady     OrderAction = "mark_ready"
	OrderActionMarkPickedUp  OrderAction = "mark_picked_up"
	OrderActionComplete      OrderAction = "complete"
	OrderActionCancel        OrderAction = "cancel"
)

var validOrderActions = []OrderAction{
	OrderActionConfirm,
	OrderActionStartPrepare,
	OrderActionMarkReady,
	OrderActionMarkPickedUp,
	OrderActionComplete,
	OrderActionCancel,
}

// IsValid reports whether the value matches the canonical order action enum.
func (a OrderAction) IsValid() bool {
	for _, candidate := range validOrderActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOrderAction converts the raw string to OrderAction.
func ParseOrderAction(value string) (OrderAction, error) {
	for _, candidate := range validOrderActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order action %q", value)
}
