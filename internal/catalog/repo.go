package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/pkg/db/models"
)

// Repository manages persistence for the menu catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	FindMenuItems(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error)
	ListActive(ctx context.Context) ([]models.MenuItem, error)
	SetInventoryAvailable(ctx context.Context, id uuid.UUID, available bool) error
	MarkUnavailableIfDepleted(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).
		Preload("Usage").
		Where("id = ?", id).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindMenuItems(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).
		Preload("Usage").
		Where("id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).
		Preload("Usage").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) SetInventoryAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ?", id).
		Update("inventory_available", available).Error
}

// MarkUnavailableIfDepleted flips inventory_available off when the item's own
// stock can no longer cover a single serving. Single statement so it is safe
// inside the deduction transaction.
func (r *repository) MarkUnavailableIfDepleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ? AND has_inventory_tracking = ? AND stock_qty < decrement_per_order", id, true).
		Update("inventory_available", false).Error
}
