package models

import (
	"time"

	"github.com/google/uuid"
)

// DeductionClaim marks that inventory for one order line has been deducted.
// The unique (order_id, menu_item_id) pair is the idempotency guard: a second
// deduction attempt for the same line hits the constraint and is skipped.
type DeductionClaim struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_deduction_claims_order_item"`
	MenuItemID uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null;uniqueIndex:uq_deduction_claims_order_item"`
	Quantity   int       `gorm:"column:quantity;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
