package deduction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/internal/availability"
	"github.com/mesapos/mesa-backend/internal/catalog"
	"github.com/mesapos/mesa-backend/internal/ledger"
	"github.com/mesapos/mesa-backend/pkg/db"
	"github.com/mesapos/mesa-backend/pkg/db/models"
	pkgerrors "github.com/mesapos/mesa-backend/pkg/errors"
	"github.com/mesapos/mesa-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Line is one order line submitted for deduction.
type Line struct {
	MenuItemID uuid.UUID
	Quantity   int
}

// LineResult reports what happened to one line.
type LineResult struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
	Applied    bool      `json:"applied"`
	Skipped    bool      `json:"skipped"`
}

// Summary aggregates the per-line outcomes of one deduction run.
type Summary struct {
	OrderID uuid.UUID    `json:"order_id"`
	Applied int          `json:"applied"`
	Skipped int          `json:"skipped"`
	Results []LineResult `json:"results"`
}

// Engine deducts inventory for an order exactly once per line.
type Engine interface {
	DeductOrder(ctx context.Context, orderID uuid.UUID, lines []Line) (*Summary, error)
}

type engine struct {
	claims  Repository
	catalog catalog.Repository
	ledger  ledger.Service
	tx      txRunner
	metrics *metrics.InventoryMetrics
}

var errAlreadyClaimed = errors.New("line already claimed")

// NewEngine builds the deduction engine with the required dependencies.
// Metrics may be nil.
func NewEngine(claims Repository, cat catalog.Repository, led ledger.Service, tx txRunner, m *metrics.InventoryMetrics) (Engine, error) {
	if claims == nil {
		return nil, fmt.Errorf("claim repository required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if led == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &engine{claims: claims, catalog: cat, ledger: led, tx: tx, metrics: m}, nil
}

// DeductOrder applies stock movements for every line of an order. Each line
// runs in its own transaction with the claim insert as the first statement,
// so a line is either fully deducted and claimed, or untouched. Lines already
// claimed by a previous run are skipped. An insufficient stock error aborts
// the run; lines committed before it stay claimed, and a retry resumes from
// the failed line.
func (e *engine) DeductOrder(ctx context.Context, orderID uuid.UUID, lines []Line) (*Summary, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	summary := &Summary{OrderID: orderID}
	for _, line := range lines {
		if line.MenuItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return e.deductLine(ctx, tx, orderID, line)
		})
		switch {
		case err == nil:
			summary.Applied++
			summary.Results = append(summary.Results, LineResult{MenuItemID: line.MenuItemID, Quantity: line.Quantity, Applied: true})
		case errors.Is(err, errAlreadyClaimed):
			summary.Skipped++
			summary.Results = append(summary.Results, LineResult{MenuItemID: line.MenuItemID, Quantity: line.Quantity, Skipped: true})
		default:
			return nil, err
		}
	}
	return summary, nil
}

func (e *engine) deductLine(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, line Line) error {
	claim := &models.DeductionClaim{
		OrderID:    orderID,
		MenuItemID: line.MenuItemID,
		Quantity:   line.Quantity,
	}
	if err := e.claims.WithTx(tx).CreateClaim(ctx, claim); err != nil {
		if db.IsUniqueViolation(err, "uq_deduction_claims_order_item") {
			e.metrics.IncSkipped(kindUnknown)
			return errAlreadyClaimed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deduction claim")
	}

	item, err := e.catalog.WithTx(tx).FindMenuItem(ctx, line.MenuItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}

	kind := lineKind(item)
	for ref, need := range availability.RequiredFor(item, line.Quantity) {
		if _, err := e.ledger.ApplyDelta(ctx, tx, ledger.ApplyDeltaInput{
			Ref:     ref,
			Delta:   need.Neg(),
			Reason:  ledger.ReasonOrderDeduction,
			OrderID: &orderID,
		}); err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
				e.metrics.IncInsufficient(kind)
			}
			return err
		}
	}

	if kind == kindDirect {
		if err := e.catalog.WithTx(tx).MarkUnavailableIfDepleted(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item availability")
		}
	}

	e.metrics.IncApplied(kind)
	return nil
}

const (
	kindUntracked = "untracked"
	kindRecipe    = "recipe"
	kindDirect    = "direct"
	kindUnknown   = "unknown"
)

func lineKind(item *models.MenuItem) string {
	switch {
	case item == nil || !item.HasInventoryTracking:
		return kindUntracked
	case len(item.Usage) > 0:
		return kindRecipe
	default:
		return kindDirect
	}
}
