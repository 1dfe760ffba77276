package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/internal/deduction"
	"github.com/mesapos/mesa-backend/pkg/db/models"
	"github.com/mesapos/mesa-backend/pkg/types"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Find(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindLine(ctx context.Context, lineID uuid.UUID) (*models.OrderItem, error)
	CreateLine(ctx context.Context, line *models.OrderItem) error
	UpdateLine(ctx context.Context, lineID uuid.UUID, updates map[string]any) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	MarkLinesPrinted(ctx context.Context, orderID uuid.UUID) error
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ListOpen(ctx context.Context) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type deductionEngine interface {
	DeductOrder(ctx context.Context, orderID uuid.UUID, lines []deduction.Line) (*deduction.Summary, error)
}

type tableSynchronizer interface {
	Get(ctx context.Context, id uuid.UUID) (*models.DiningTable, error)
	Occupy(ctx context.Context, tx *gorm.DB, tableID, orderID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, tableID, orderID uuid.UUID) error
}

type stockReader interface {
	StocksFor(ctx context.Context, refs []types.ItemRef) (map[types.ItemRef]decimal.Decimal, error)
}
