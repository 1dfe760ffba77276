package enums

import "fmt"

// ItemRefKind selects which stock counter an inventory reference points at:
// a shared inventory item or a menu item tracking its own quantity.
type ItemRefKind string

const (
	ItemRefKindShared         ItemRefKind = "shared"
	ItemRefKindMenuItemDirect ItemRefKind = "menu_item_direct"
)

var validItemRefKinds = []ItemRefKind{
	ItemRefKindShared,
	ItemRefKindMenuItemDirect,
}

// String implements fmt.Stringer.
func (k ItemRefKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ItemRefKind.
func (k ItemRefKind) IsValid() bool {
	for _, candidate := range validItemRefKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseItemRefKind converts raw input into an ItemRefKind.
func ParseItemRefKind(value string) (ItemRefKind, error) {
	for _, candidate := range validItemRefKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item ref kind %q", value)
}
