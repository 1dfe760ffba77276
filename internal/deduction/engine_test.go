package deduction

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/internal/catalog"
	"github.com/mesapos/mesa-backend/internal/ledger"
	"github.com/mesapos/mesa-backend/pkg/db/models"
	pkgerrors "github.com/mesapos/mesa-backend/pkg/errors"
	"github.com/mesapos/mesa-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func TestDeductOrderRecipeHappyPath(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	eng, led := newTestEngine(t, db)
	ctx := context.Background()

	tea := seedIngredient(t, db, "tea leaves", 10)
	chai := seedRecipeItem(t, db, "masala chai", map[uuid.UUID]string{tea: "1"})
	orderID := uuid.New()

	summary, err := eng.DeductOrder(ctx, orderID, []Line{{MenuItemID: chai, Quantity: 3}})
	if err != nil {
		t.Fatalf("deduct order: %v", err)
	}
	if summary.Applied != 1 || summary.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	stock, err := led.GetStock(ctx, types.SharedRef(tea))
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if !stock.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected stock 7, got %s", stock)
	}

	txns, err := led.History(ctx, types.SharedRef(tea), 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txns) != 1 || txns[0].Reason != ledger.ReasonOrderDeduction {
		t.Fatalf("unexpected ledger rows: %+v", txns)
	}
}

func TestDeductOrderIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	eng, led := newTestEngine(t, db)
	ctx := context.Background()

	tea := seedIngredient(t, db, "tea leaves", 10)
	chai := seedRecipeItem(t, db, "masala chai", map[uuid.UUID]string{tea: "1"})
	orderID := uuid.New()
	lines := []Line{{MenuItemID: chai, Quantity: 3}}

	if _, err := eng.DeductOrder(ctx, orderID, lines); err != nil {
		t.Fatalf("first deduction: %v", err)
	}
	summary, err := eng.DeductOrder(ctx, orderID, lines)
	if err != nil {
		t.Fatalf("second deduction: %v", err)
	}
	if summary.Applied != 0 || summary.Skipped != 1 {
		t.Fatalf("expected rerun to skip, got %+v", summary)
	}

	stock, err := led.GetStock(ctx, types.SharedRef(tea))
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if !stock.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected stock 7 after rerun, got %s", stock)
	}
}

func TestDeductOrderPartialFailureResumes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	eng, led := newTestEngine(t, db)
	ctx := context.Background()

	tea := seedIngredient(t, db, "tea leaves", 10)
	salmon := seedIngredient(t, db, "salmon", 2)
	chai := seedRecipeItem(t, db, "masala chai", map[uuid.UUID]string{tea: "1"})
	grill := seedRecipeItem(t, db, "grilled salmon", map[uuid.UUID]string{salmon: "1"})
	orderID := uuid.New()
	lines := []Line{
		{MenuItemID: chai, Quantity: 2},
		{MenuItemID: grill, Quantity: 3},
	}

	_, err := eng.DeductOrder(ctx, orderID, lines)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// first line committed, second untouched
	teaStock, _ := led.GetStock(ctx, types.SharedRef(tea))
	if !teaStock.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected tea stock 8, got %s", teaStock)
	}
	salmonStock, _ := led.GetStock(ctx, types.SharedRef(salmon))
	if !salmonStock.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected salmon stock untouched, got %s", salmonStock)
	}

	if err := db.Model(&models.InventoryItem{}).
		Where("id = ?", salmon).
		Update("current_stock", decimal.NewFromInt(5)).Error; err != nil {
		t.Fatalf("restock salmon: %v", err)
	}

	summary, err := eng.DeductOrder(ctx, orderID, lines)
	if err != nil {
		t.Fatalf("retry deduction: %v", err)
	}
	if summary.Applied != 1 || summary.Skipped != 1 {
		t.Fatalf("expected retry to skip claimed line, got %+v", summary)
	}
	teaStock, _ = led.GetStock(ctx, types.SharedRef(tea))
	if !teaStock.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected tea stock still 8, got %s", teaStock)
	}
	salmonStock, _ = led.GetStock(ctx, types.SharedRef(salmon))
	if !salmonStock.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected salmon stock 2 after retry, got %s", salmonStock)
	}
}

func TestDeductOrderDirectDepletionMarksUnavailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	eng, _ := newTestEngine(t, db)
	ctx := context.Background()

	water := models.MenuItem{
		ID:                   uuid.New(),
		Name:                 "bottled water",
		PriceCents:           150,
		IsActive:             true,
		HasInventoryTracking: true,
		InventoryAvailable:   true,
		StockQty:             decimal.NewFromInt(2),
		DecrementPerOrder:    decimal.NewFromInt(1),
	}
	if err := db.Create(&water).Error; err != nil {
		t.Fatalf("seed menu item: %v", err)
	}

	if _, err := eng.DeductOrder(ctx, uuid.New(), []Line{{MenuItemID: water.ID, Quantity: 2}}); err != nil {
		t.Fatalf("deduct order: %v", err)
	}

	var reloaded models.MenuItem
	if err := db.First(&reloaded, "id = ?", water.ID).Error; err != nil {
		t.Fatalf("reload menu item: %v", err)
	}
	if !reloaded.StockQty.Equal(decimal.Zero) {
		t.Fatalf("expected stock 0, got %s", reloaded.StockQty)
	}
	if reloaded.InventoryAvailable {
		t.Fatal("expected item to be marked unavailable at zero stock")
	}
}

func TestDeductOrderUntrackedItem(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	eng, _ := newTestEngine(t, db)
	ctx := context.Background()

	special := models.MenuItem{ID: uuid.New(), Name: "daily special", PriceCents: 900, IsActive: true}
	if err := db.Create(&special).Error; err != nil {
		t.Fatalf("seed menu item: %v", err)
	}

	summary, err := eng.DeductOrder(ctx, uuid.New(), []Line{{MenuItemID: special.ID, Quantity: 4}})
	if err != nil {
		t.Fatalf("deduct order: %v", err)
	}
	if summary.Applied != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var count int64
	if err := db.Model(&models.InventoryTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no stock movements for untracked item, got %d", count)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:deduction_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.MenuItem{},
		&models.InventoryUsage{},
		&models.InventoryItem{},
		&models.InventoryTransaction{},
		&models.DeductionClaim{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB) (Engine, ledger.Service) {
	t.Helper()
	runner := gormTxRunner{db: db}
	led, err := ledger.NewService(ledger.NewRepository(db), runner)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	eng, err := NewEngine(NewRepository(db), catalog.NewRepository(db), led, runner, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng, led
}

func seedIngredient(t *testing.T, db *gorm.DB, name string, stock int64) uuid.UUID {
	t.Helper()
	item := models.InventoryItem{
		ID:           uuid.New(),
		Name:         name,
		Unit:         "unit",
		CurrentStock: decimal.NewFromInt(stock),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed ingredient %s: %v", name, err)
	}
	return item.ID
}

func seedRecipeItem(t *testing.T, db *gorm.DB, name string, usage map[uuid.UUID]string) uuid.UUID {
	t.Helper()
	item := models.MenuItem{
		ID:                   uuid.New(),
		Name:                 name,
		PriceCents:           500,
		IsActive:             true,
		HasInventoryTracking: true,
		InventoryAvailable:   true,
		DecrementPerOrder:    decimal.NewFromInt(1),
	}
	for ingredientID, qty := range usage {
		item.Usage = append(item.Usage, models.InventoryUsage{
			ID:              uuid.New(),
			InventoryItemID: ingredientID,
			QuantityUsed:    decimal.RequireFromString(qty),
		})
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed menu item %s: %v", name, err)
	}
	return item.ID
}
