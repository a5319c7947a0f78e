package orders

import (
	"github.com/plateful/plateful-backend/pkg/enums"
)

type transitionKey struct {
	from   enums.OrderStatus
	action enums.OrderAction
}

// transitions is the declarative fulfillment edge table: a missing entry
// means the action is illegal from that status. Cancellation is blocked only
// while the kitchen is actively working (PREPARING/READY).
var transitions = map[transitionKey]enums.OrderStatus{
	{enums.OrderStatusPending, enums.OrderActionConfirm}:        enums.OrderStatusConfirmed,
	{enums.OrderStatusConfirmed, enums.OrderActionStartPrepare}: enums.OrderStatusPreparing,
	{enums.OrderStatusPreparing, enums.OrderActionMarkReady}:    enums.OrderStatusReady,
	{enums.OrderStatusReady, enums.OrderActionMarkPickedUp}:     enums.OrderStatusPickedUp,
	{enums.OrderStatusPickedUp, enums.OrderActionComplete}:      enums.OrderStatusCompleted,

	{enums.OrderStatusPending, enums.OrderActionCancel}:   enums.OrderStatusCancelled,
	{enums.OrderStatusConfirmed, enums.OrderActionCancel}: enums.OrderStatusCancelled,
	{enums.OrderStatusPickedUp, enums.OrderActionCancel}:  enums.OrderStatusCancelled,
	{enums.OrderStatusCompleted, enums.OrderActionCancel}: enums.OrderStatusCancelled,
	{enums.OrderStatusCancelled, enums.OrderActionCancel}: enums.OrderStatusCancelled,
}

// NextStatus resolves the target status for an action, reporting whether the
// edge exists.
func NextStatus(from enums.OrderStatus, action enums.OrderAction) (enums.OrderStatus, bool) {
	next, ok := transitions[transitionKey{from: from, action: action}]
	return next, ok
}

// CanBeModified reports whether the order still accepts changes such as a
// pickup-time update or payment creation.
func CanBeModified(status enums.OrderStatus) bool {
	return status == enums.OrderStatusPending || status == enums.OrderStatusConfirmed
}
