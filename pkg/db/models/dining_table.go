package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesapos/mesa-backend/pkg/enums"
)

// DiningTable tracks floor occupancy. CurrentOrderID is set exactly when
// Status is occupied.
type DiningTable struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Label          string            `gorm:"column:label;not null;uniqueIndex:uq_dining_tables_label"`
	Seats          int               `gorm:"column:seats;not null;default:2"`
	Status         enums.TableStatus `gorm:"column:status;type:table_status;not null;default:'available'"`
	CurrentOrderID *uuid.UUID        `gorm:"column:current_order_id;type:uuid"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
