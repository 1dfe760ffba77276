package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/pkg/db/models"
	pkgerrors "github.com/mesapos/mesa-backend/pkg/errors"
	"github.com/mesapos/mesa-backend/pkg/types"
)

// Movement reasons recorded on ledger rows.
const (
	ReasonOrderDeduction = "order_deduction"
	ReasonManualRestock  = "manual_restock"
	ReasonAdjustment     = "adjustment"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines stock ledger operations.
type Service interface {
	GetStock(ctx context.Context, ref types.ItemRef) (decimal.Decimal, error)
	StocksFor(ctx context.Context, refs []types.ItemRef) (map[types.ItemRef]decimal.Decimal, error)
	ApplyDelta(ctx context.Context, tx *gorm.DB, input ApplyDeltaInput) (*models.InventoryTransaction, error)
	ManualRestock(ctx context.Context, input RestockInput) (*models.InventoryTransaction, error)
	Snapshot(ctx context.Context) (*StockSnapshot, error)
	History(ctx context.Context, ref types.ItemRef, limit int) ([]models.InventoryTransaction, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// ApplyDeltaInput is one signed stock movement applied inside the caller's
// transaction.
type ApplyDeltaInput struct {
	Ref     types.ItemRef
	Delta   decimal.Decimal
	Reason  string
	OrderID *uuid.UUID
}

// RestockInput captures a manual stock correction outside the order flow.
type RestockInput struct {
	Ref      types.ItemRef
	Quantity decimal.Decimal
	Reason   string
}

// StockSnapshot is a point-in-time read of every stock pool.
type StockSnapshot struct {
	Ingredients      []models.InventoryItem `json:"ingredients"`
	TrackedMenuItems []models.MenuItem      `json:"tracked_menu_items"`
}

// NewService wires a ledger service with the provided repository and
// transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetStock(ctx context.Context, ref types.ItemRef) (decimal.Decimal, error) {
	if !ref.Valid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "item ref required")
	}
	stock, err := s.repo.GetStock(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "stock pool not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	return stock, nil
}

func (s *service) StocksFor(ctx context.Context, refs []types.ItemRef) (map[types.ItemRef]decimal.Decimal, error) {
	for _, ref := range refs {
		if !ref.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ref required")
		}
	}
	stocks, err := s.repo.GetStocks(ctx, refs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stocks")
	}
	return stocks, nil
}

// ApplyDelta applies one guarded movement and appends the matching ledger
// row. It runs on the caller's transaction so an order-level rollback also
// discards the movement.
func (s *service) ApplyDelta(ctx context.Context, tx *gorm.DB, input ApplyDeltaInput) (*models.InventoryTransaction, error) {
	if !input.Ref.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ref required")
	}
	if input.Delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	repo := s.repo.WithTx(tx)
	applied, err := repo.ApplyDelta(ctx, input.Ref, input.Delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply stock delta")
	}
	if !applied {
		have, err := repo.GetStock(ctx, input.Ref)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock pool not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"ref":  input.Ref.String(),
				"have": have.String(),
				"need": input.Delta.Neg().String(),
			})
	}

	txn := &models.InventoryTransaction{
		ItemRefKind:    input.Ref.Kind,
		ItemRefID:      input.Ref.ID,
		QuantityChange: input.Delta,
		Reason:         input.Reason,
		OrderID:        input.OrderID,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return txn, nil
}

func (s *service) ManualRestock(ctx context.Context, input RestockInput) (*models.InventoryTransaction, error) {
	if !input.Ref.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ref required")
	}
	if input.Quantity.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	}
	reason := input.Reason
	if reason == "" {
		if input.Quantity.IsPositive() {
			reason = ReasonManualRestock
		} else {
			reason = ReasonAdjustment
		}
	}

	var out *models.InventoryTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn, err := s.ApplyDelta(ctx, tx, ApplyDeltaInput{
			Ref:    input.Ref,
			Delta:  input.Quantity,
			Reason: reason,
		})
		if err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Snapshot(ctx context.Context) (*StockSnapshot, error) {
	ingredients, err := s.repo.ListInventoryItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ingredients")
	}
	tracked, err := s.repo.ListTrackedMenuItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tracked menu items")
	}
	return &StockSnapshot{Ingredients: ingredients, TrackedMenuItems: tracked}, nil
}

func (s *service) History(ctx context.Context, ref types.ItemRef, limit int) ([]models.InventoryTransaction, error) {
	if !ref.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ref required")
	}
	txns, err := s.repo.ListTransactionsByRef(ctx, ref, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return txns, nil
}
