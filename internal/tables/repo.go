package tables

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/pkg/db/models"
	"github.com/mesapos/mesa-backend/pkg/enums"
)

// Repository manages persistence for dining tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, id uuid.UUID) (*models.DiningTable, error)
	List(ctx context.Context) ([]models.DiningTable, error)
	Occupy(ctx context.Context, tableID, orderID uuid.UUID) (bool, error)
	Release(ctx context.Context, tableID, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tables repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.DiningTable, error) {
	var table models.DiningTable
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *repository) List(ctx context.Context) ([]models.DiningTable, error) {
	var tables []models.DiningTable
	if err := r.db.WithContext(ctx).Order("label ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// Occupy claims the table for orderID in a single conditional UPDATE. It
// succeeds when the table is free or already held by the same order, so a
// replayed placement is a no-op rather than a conflict.
func (r *repository) Occupy(ctx context.Context, tableID, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DiningTable{}).
		Where("id = ? AND (status = ? OR current_order_id = ?)", tableID, enums.TableStatusAvailable, orderID).
		Updates(map[string]any{
			"status":           enums.TableStatusOccupied,
			"current_order_id": orderID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release frees the table only when orderID still holds it.
func (r *repository) Release(ctx context.Context, tableID, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DiningTable{}).
		Where("id = ? AND current_order_id = ?", tableID, orderID).
		Updates(map[string]any{
			"status":           enums.TableStatusAvailable,
			"current_order_id": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
