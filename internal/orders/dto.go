package orders

import (
	"github.com/google/uuid"
)

// OpenOrderInput starts a draft order for a table.
type OpenOrderInput struct {
	TableID uuid.UUID
}

// AddLineInput adds quantity units of a menu item to a draft or placed
// order. Adding the same menu item again merges into the existing line.
type AddLineInput struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int
}

// Totals is the recomputed money summary of an order.
type Totals struct {
	SubtotalCents int `json:"subtotal_cents"`
	TaxCents      int `json:"tax_cents"`
	TotalCents    int `json:"total_cents"`
}
