package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesapos/mesa-backend/pkg/enums"
)

// InventoryTransaction is an append-only ledger row recording one signed
// stock movement against a shared ingredient or a directly tracked menu item.
type InventoryTransaction struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ItemRefKind    enums.ItemRefKind `gorm:"column:item_ref_kind;type:item_ref_kind;not null"`
	ItemRefID      uuid.UUID         `gorm:"column:item_ref_id;type:uuid;not null"`
	QuantityChange decimal.Decimal   `gorm:"column:quantity_change;type:numeric(12,3);not null"`
	Reason         string            `gorm:"column:reason;not null"`
	OrderID        *uuid.UUID        `gorm:"column:order_id;type:uuid"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}
