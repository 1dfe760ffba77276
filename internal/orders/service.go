package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/internal/availability"
	"github.com/mesapos/mesa-backend/internal/catalog"
	"github.com/mesapos/mesa-backend/internal/deduction"
	"github.com/mesapos/mesa-backend/pkg/db/models"
	"github.com/mesapos/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesapos/mesa-backend/pkg/errors"
)

// Service drives the order lifecycle: draft orders accumulate lines, placing
// pins the table, completing deducts inventory and records payment, and
// cancelling frees the table without restocking.
type Service interface {
	Open(ctx context.Context, input OpenOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOpen(ctx context.Context) ([]models.Order, error)
	AddLine(ctx context.Context, input AddLineInput) (*models.Order, error)
	UpdateLineQuantity(ctx context.Context, orderID, lineID uuid.UUID, quantity int) (*models.Order, error)
	RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.Order, error)
	MarkKOTPrinted(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Place(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo       Repository
	catalog    catalog.Repository
	stocks     stockReader
	engine     deductionEngine
	tables     tableSynchronizer
	tx         txRunner
	taxRateBPS int
}

// NewService builds an order service with the required dependencies.
// taxRateBPS is the tax rate in basis points applied on order subtotals.
func NewService(repo Repository, cat catalog.Repository, stocks stockReader, engine deductionEngine, tbl tableSynchronizer, tx txRunner, taxRateBPS int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stocks == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	if engine == nil {
		return nil, fmt.Errorf("deduction engine required")
	}
	if tbl == nil {
		return nil, fmt.Errorf("table synchronizer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if taxRateBPS < 0 {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	return &service{
		repo:       repo,
		catalog:    cat,
		stocks:     stocks,
		engine:     engine,
		tables:     tbl,
		tx:         tx,
		taxRateBPS: taxRateBPS,
	}, nil
}

func (s *service) Open(ctx context.Context, input OpenOrderInput) (*models.Order, error) {
	if input.TableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	if _, err := s.tables.Get(ctx, input.TableID); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:        uuid.New(),
		TableID:   input.TableID,
		Status:    enums.OrderStatusDraft,
		OrderDate: time.Now().UTC().Truncate(24 * time.Hour),
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.load(ctx, s.repo, orderID)
}

func (s *service) ListOpen(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open orders")
	}
	return orders, nil
}

func (s *service) AddLine(ctx context.Context, input AddLineInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.MenuItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	item, err := s.catalog.FindMenuItem(ctx, input.MenuItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if !item.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item is inactive")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeOrderTerminal, "order can no longer be edited")
		}

		newQty := input.Quantity
		var existing *models.OrderItem
		for i := range order.Items {
			if order.Items[i].MenuItemID == input.MenuItemID {
				existing = &order.Items[i]
				newQty += existing.Quantity
				break
			}
		}

		if err := s.checkAvailability(ctx, item, newQty); err != nil {
			return err
		}

		if existing != nil {
			if err := repo.UpdateLine(ctx, existing.ID, map[string]any{"quantity": newQty}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order line")
			}
			existing.Quantity = newQty
		} else {
			line := &models.OrderItem{
				OrderID:              order.ID,
				MenuItemID:           item.ID,
				Name:                 item.Name,
				PriceAtAdditionCents: item.PriceCents,
				Quantity:             input.Quantity,
			}
			if err := repo.CreateLine(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line")
			}
			order.Items = append(order.Items, *line)
		}

		return s.applyEdit(ctx, repo, order)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, input.OrderID)
}

// UpdateLineQuantity sets an existing line to an exact quantity. Dropping a
// line to zero goes through RemoveLine instead.
func (s *service) UpdateLineQuantity(ctx context.Context, orderID, lineID uuid.UUID, quantity int) (*models.Order, error) {
	if orderID == uuid.Nil || lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and line id required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeOrderTerminal, "order can no longer be edited")
		}

		line, err := repo.FindLine(ctx, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line")
		}
		if line.OrderID != order.ID {
			return pkgerrors.New(pkgerrors.CodeValidation, "line does not belong to order")
		}

		item, err := s.catalog.WithTx(tx).FindMenuItem(ctx, line.MenuItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
		}
		if err := s.checkAvailability(ctx, item, quantity); err != nil {
			return err
		}

		if err := repo.UpdateLine(ctx, lineID, map[string]any{"quantity": quantity}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order line")
		}
		for i := range order.Items {
			if order.Items[i].ID == lineID {
				order.Items[i].Quantity = quantity
			}
		}

		return s.applyEdit(ctx, repo, order)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, orderID)
}

func (s *service) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and line id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeOrderTerminal, "order can no longer be edited")
		}

		line, err := repo.FindLine(ctx, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line")
		}
		if line.OrderID != order.ID {
			return pkgerrors.New(pkgerrors.CodeValidation, "line does not belong to order")
		}

		if err := repo.DeleteLine(ctx, lineID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order line")
		}
		kept := order.Items[:0]
		for _, item := range order.Items {
			if item.ID != lineID {
				kept = append(kept, item)
			}
		}
		order.Items = kept

		return s.applyEdit(ctx, repo, order)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, orderID)
}

// Place deducts inventory and transitions a draft order to placed. Deduction
// runs before the status change in per-line transactions, so a failed
// placement leaves the order a draft and a retry only deducts the lines that
// have no claim yet. Placing an already placed order is a no-op so a replayed
// request succeeds.
func (s *service) Place(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusPlaced {
		return order, nil
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeOrderTerminal, "order can no longer be placed")
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyOrder, "order has no lines")
	}

	lines := make([]deduction.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, deduction.Line{MenuItemID: item.MenuItemID, Quantity: item.Quantity})
	}
	if _, err := s.engine.DeductOrder(ctx, order.ID, lines); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.tables.Occupy(ctx, tx, order.TableID, order.ID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Update(ctx, order.ID, map[string]any{"status": enums.OrderStatusPlaced}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, orderID)
}

// MarkKOTPrinted records that the kitchen ticket for every pending line went
// out. The flag never resets; a re-placed order only prints lines added since.
func (s *service) MarkKOTPrinted(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPlaced {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only placed orders have kitchen tickets")
	}

	if err := s.repo.MarkLinesPrinted(ctx, orderID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark lines printed")
	}
	return s.load(ctx, s.repo, orderID)
}

// Complete marks the order paid and frees its table. Inventory moved when the
// order was placed, so completion is a pure status transition. Completing an
// already paid order is a no-op so a replayed request succeeds.
func (s *service) Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusPaid {
		return order, nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeOrderTerminal, "order is cancelled")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := s.repo.WithTx(tx).Update(ctx, order.ID, map[string]any{
			"status":  enums.OrderStatusPaid,
			"paid_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		return s.tables.Release(ctx, tx, order.TableID, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, orderID)
}

// Cancel voids the order and frees its table. Stock already deducted stays
// deducted; corrections go through manual restock so the movement ledger
// keeps the full story.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return nil
		}
		if order.Status == enums.OrderStatusPaid {
			return pkgerrors.New(pkgerrors.CodeOrderTerminal, "paid order cannot be cancelled")
		}

		now := time.Now().UTC()
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		return s.tables.Release(ctx, tx, order.TableID, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, orderID)
}

func (s *service) load(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.Find(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) checkAvailability(ctx context.Context, item *models.MenuItem, qty int) error {
	stocks, err := s.stocks.StocksFor(ctx, availability.RefsFor(item))
	if err != nil {
		return err
	}
	res, err := availability.Check(item, qty, stocks)
	if err != nil {
		return err
	}
	if res.Available {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "menu item is not available").
		WithDetails(map[string]any{
			"reason":     res.Reason,
			"shortfalls": res.Shortfalls,
		})
}

// applyEdit recomputes totals and, when the order was already placed, drops
// it back to draft so the kitchen sees the change only after a re-place.
func (s *service) applyEdit(ctx context.Context, repo Repository, order *models.Order) error {
	totals := s.computeTotals(order.Items)
	updates := map[string]any{
		"subtotal_cents": totals.SubtotalCents,
		"tax_cents":      totals.TaxCents,
		"total_cents":    totals.TotalCents,
	}
	if order.Status == enums.OrderStatusPlaced {
		updates["status"] = enums.OrderStatusDraft
	}
	if err := repo.Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order totals")
	}
	return nil
}

func (s *service) computeTotals(items []models.OrderItem) Totals {
	subtotal := 0
	for _, item := range items {
		subtotal += item.PriceAtAdditionCents * item.Quantity
	}
	tax := subtotal * s.taxRateBPS / 10000
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}
