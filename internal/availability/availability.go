package availability

import (
	"github.com/shopspring/decimal"

	"github.com/mesapos/mesa-backend/pkg/db/models"
	pkgerrors "github.com/mesapos/mesa-backend/pkg/errors"
	"github.com/mesapos/mesa-backend/pkg/types"
)

// Reasons reported when a menu item cannot be served.
const (
	ReasonMarkedUnavailable = "marked_unavailable"
	ReasonInsufficientStock = "insufficient_stock"
)

// Result is the outcome of a stock check for one requested quantity of a
// menu item. Shortfalls is populated only for ReasonInsufficientStock.
type Result struct {
	Available  bool              `json:"available"`
	Reason     string            `json:"reason,omitempty"`
	Shortfalls []types.Shortfall `json:"shortfalls,omitempty"`
}

// RefsFor returns the stock pools serving an item would draw from. Untracked
// items return nil; recipe items return one ref per ingredient; directly
// tracked items return their own menu-item ref.
func RefsFor(item *models.MenuItem) []types.ItemRef {
	if item == nil || !item.HasInventoryTracking {
		return nil
	}
	if len(item.Usage) > 0 {
		refs := make([]types.ItemRef, 0, len(item.Usage))
		for _, usage := range item.Usage {
			refs = append(refs, types.SharedRef(usage.InventoryItemID))
		}
		return refs
	}
	return []types.ItemRef{types.MenuItemRef(item.ID)}
}

// RequiredFor returns the quantity each stock pool must supply to serve qty
// units of the item.
func RequiredFor(item *models.MenuItem, qty int) map[types.ItemRef]decimal.Decimal {
	required := map[types.ItemRef]decimal.Decimal{}
	if item == nil || !item.HasInventoryTracking || qty <= 0 {
		return required
	}
	n := decimal.NewFromInt(int64(qty))
	if len(item.Usage) > 0 {
		for _, usage := range item.Usage {
			ref := types.SharedRef(usage.InventoryItemID)
			required[ref] = required[ref].Add(usage.QuantityUsed.Mul(n))
		}
		return required
	}
	required[types.MenuItemRef(item.ID)] = item.DecrementPerOrder.Mul(n)
	return required
}

// Check reports whether qty units of the item can be served given the
// current stocks. It never mutates anything; callers re-check under the
// deduction guard before committing.
func Check(item *models.MenuItem, qty int, stocks map[types.ItemRef]decimal.Decimal) (Result, error) {
	if item == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "menu item required")
	}
	if qty <= 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if !item.HasInventoryTracking {
		return Result{Available: true}, nil
	}
	if !item.InventoryAvailable {
		return Result{Available: false, Reason: ReasonMarkedUnavailable}, nil
	}

	var shortfalls []types.Shortfall
	for ref, need := range RequiredFor(item, qty) {
		have := stocks[ref]
		if have.LessThan(need) {
			shortfalls = append(shortfalls, types.Shortfall{Ref: ref, Have: have, Need: need})
		}
	}
	if len(shortfalls) > 0 {
		return Result{Available: false, Reason: ReasonInsufficientStock, Shortfalls: shortfalls}, nil
	}
	return Result{Available: true}, nil
}
