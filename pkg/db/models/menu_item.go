package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is the sellable catalog entry. Inventory behavior depends on
// HasInventoryTracking: tracked items either consume shared ingredients
// (Usage non-empty) or decrement their own StockQty directly.
type MenuItem struct {
	ID                   uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string           `gorm:"column:name;not null"`
	Category             string           `gorm:"column:category;not null;default:''"`
	PriceCents           int              `gorm:"column:price_cents;not null"`
	IsActive             bool             `gorm:"column:is_active;not null;default:true"`
	HasInventoryTracking bool             `gorm:"column:has_inventory_tracking;not null;default:false"`
	InventoryAvailable   bool             `gorm:"column:inventory_available;not null;default:true"`
	StockQty             decimal.Decimal  `gorm:"column:stock_qty;type:numeric(12,3);not null"`
	DecrementPerOrder    decimal.Decimal  `gorm:"column:decrement_per_order;type:numeric(12,3);not null"`
	Usage                []InventoryUsage `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// InventoryUsage maps a menu item to one shared ingredient it consumes per unit sold.
type InventoryUsage struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	MenuItemID      uuid.UUID       `gorm:"column:menu_item_id;type:uuid;not null;uniqueIndex:uq_inventory_usages_pair"`
	InventoryItemID uuid.UUID       `gorm:"column:inventory_item_id;type:uuid;not null;uniqueIndex:uq_inventory_usages_pair"`
	QuantityUsed    decimal.Decimal `gorm:"column:quantity_used;type:numeric(12,3);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
