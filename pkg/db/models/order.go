package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesapos/mesa-backend/pkg/enums"
)

// Order is one dine-in ticket tied to a table for its whole lifecycle.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	TableID       uuid.UUID         `gorm:"column:table_id;type:uuid;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'draft'"`
	SubtotalCents int               `gorm:"column:subtotal_cents;not null;default:0"`
	TaxCents      int               `gorm:"column:tax_cents;not null;default:0"`
	TotalCents    int               `gorm:"column:total_cents;not null;default:0"`
	OrderDate     time.Time         `gorm:"column:order_date;type:date;not null"`
	PaidAt        *time.Time        `gorm:"column:paid_at"`
	CancelledAt   *time.Time        `gorm:"column:cancelled_at"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem captures the snapshot of one menu item line within an order.
type OrderItem struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID              uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_order_items_order_menu_item"`
	MenuItemID           uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null;uniqueIndex:uq_order_items_order_menu_item"`
	Name                 string    `gorm:"column:name;not null"`
	PriceAtAdditionCents int       `gorm:"column:price_at_addition_cents;not null"`
	Quantity             int       `gorm:"column:quantity;not null"`
	KOTPrinted           bool      `gorm:"column:kot_printed;not null;default:false"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
