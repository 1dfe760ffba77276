package deduction

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/pkg/db/models"
)

// Repository manages persistence for deduction claims.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateClaim(ctx context.Context, claim *models.DeductionClaim) error
	FindClaimsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.DeductionClaim, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a deduction claim repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateClaim(ctx context.Context, claim *models.DeductionClaim) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *repository) FindClaimsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.DeductionClaim, error) {
	var claims []models.DeductionClaim
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}
