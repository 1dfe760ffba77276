package tables

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/pkg/db/models"
	pkgerrors "github.com/mesapos/mesa-backend/pkg/errors"
	"github.com/mesapos/mesa-backend/pkg/metrics"
)

// Service synchronizes table occupancy with the order lifecycle. Occupy and
// Release run on the caller's transaction so they commit together with the
// order status change.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.DiningTable, error)
	List(ctx context.Context) ([]models.DiningTable, error)
	Occupy(ctx context.Context, tx *gorm.DB, tableID, orderID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, tableID, orderID uuid.UUID) error
}

type service struct {
	repo    Repository
	metrics *metrics.InventoryMetrics
}

// NewService wires a tables service. Metrics may be nil.
func NewService(repo Repository, m *metrics.InventoryMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tables repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.DiningTable, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	table, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}
	return table, nil
}

func (s *service) List(ctx context.Context) ([]models.DiningTable, error) {
	tables, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables")
	}
	return tables, nil
}

func (s *service) Occupy(ctx context.Context, tx *gorm.DB, tableID, orderID uuid.UUID) error {
	if tableID == uuid.Nil || orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "table id and order id required")
	}

	repo := s.repo.WithTx(tx)
	claimed, err := repo.Occupy(ctx, tableID, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "occupy table")
	}
	if claimed {
		return nil
	}

	table, err := repo.Find(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
	}

	s.metrics.IncTableConflict()
	details := map[string]any{"table_id": tableID.String()}
	if table.CurrentOrderID != nil {
		details["held_by_order_id"] = table.CurrentOrderID.String()
	}
	return pkgerrors.New(pkgerrors.CodeTableConflict, "table is occupied by another order").
		WithDetails(details)
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, tableID, orderID uuid.UUID) error {
	if tableID == uuid.Nil || orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "table id and order id required")
	}

	// released==false means the table was already free or re-claimed by a
	// newer order; both are fine on replayed releases.
	if _, err := s.repo.WithTx(tx).Release(ctx, tableID, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release table")
	}
	return nil
}
