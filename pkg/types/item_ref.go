package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesapos/mesa-backend/pkg/enums"
)

// ItemRef is a tagged reference to a stock counter: either a shared
// inventory item or a menu item that tracks its own quantity. The zero value
// is invalid. ItemRef is comparable and safe to use as a map key.
type ItemRef struct {
	Kind enums.ItemRefKind `json:"kind"`
	ID   uuid.UUID         `json:"id"`
}

// SharedRef builds a reference to a shared inventory item.
func SharedRef(id uuid.UUID) ItemRef {
	return ItemRef{Kind: enums.ItemRefKindShared, ID: id}
}

// MenuItemRef builds a reference to a menu item's own stock counter.
func MenuItemRef(id uuid.UUID) ItemRef {
	return ItemRef{Kind: enums.ItemRefKindMenuItemDirect, ID: id}
}

// Valid reports whether the reference carries a known kind and a non-nil id.
func (r ItemRef) Valid() bool {
	return r.Kind.IsValid() && r.ID != uuid.Nil
}

// String renders the reference as "<kind>:<id>", the format accepted by
// ParseItemRef and used in inventory snapshot query params.
func (r ItemRef) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// ParseItemRef parses the "<kind>:<id>" wire format.
func ParseItemRef(value string) (ItemRef, error) {
	kindRaw, idRaw, ok := strings.Cut(value, ":")
	if !ok {
		return ItemRef{}, fmt.Errorf("invalid item ref %q (want <kind>:<id>)", value)
	}
	kind, err := enums.ParseItemRefKind(kindRaw)
	if err != nil {
		return ItemRef{}, err
	}
	id, err := uuid.Parse(idRaw)
	if err != nil {
		return ItemRef{}, fmt.Errorf("invalid item ref id %q: %w", idRaw, err)
	}
	return ItemRef{Kind: kind, ID: id}, nil
}

// Shortfall is the gap between the quantity an order line needs from one
// stock counter and the quantity available.
type Shortfall struct {
	Ref  ItemRef         `json:"ref"`
	Have decimal.Decimal `json:"have"`
	Need decimal.Decimal `json:"need"`
}
