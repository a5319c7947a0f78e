package cart

import (
	"github.com/plateful/plateful-backend/pkg/db/models"
)

// recomputeItem refreshes the denormalized line totals from quantity, unit
// price and add-ons. Totals are recomputed inside every mutating transaction
// so readers never observe stale values.
func recomputeItem(item *models.CartItem) {
	item.SubtotalCents = item.UnitPriceCents * item.Quantity
	total := item.SubtotalCents
	for i := range item.AddOns {
		addOn := &item.AddOns[i]
		addOn.TotalCents = addOn.UnitPriceCents * addOn.Quantity
		total += addOn.TotalCents
	}
	item.TotalCents = total
}

// recomputeCart refreshes cart-level totals from its loaded items.
func recomputeCart(record *models.Cart) {
	subtotal := 0
	count := 0
	for i := range record.Items {
		recomputeItem(&record.Items[i])
		subtotal += record.Items[i].TotalCents
		count += record.Items[i].Quantity
	}
	record.SubtotalCents = subtotal
	record.TotalCents = subtotal
	record.ItemCount = count
}
