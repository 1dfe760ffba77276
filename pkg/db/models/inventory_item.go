package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a shared stock pool (ingredient) consumed by menu items.
type InventoryItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Unit             string          `gorm:"column:unit;not null"`
	CurrentStock     decimal.Decimal `gorm:"column:current_stock;type:numeric(12,3);not null"`
	MinStockLevel    decimal.Decimal `gorm:"column:min_stock_level;type:numeric(12,3);not null"`
	MaxStockLevel    decimal.Decimal `gorm:"column:max_stock_level;type:numeric(12,3);not null"`
	CostPerUnitCents int             `gorm:"column:cost_per_unit_cents;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
