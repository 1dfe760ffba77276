package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/internal/catalog"
	"github.com/mesapos/mesa-backend/internal/deduction"
	"github.com/mesapos/mesa-backend/internal/ledger"
	"github.com/mesapos/mesa-backend/internal/orders"
	"github.com/mesapos/mesa-backend/internal/tables"
	"github.com/mesapos/mesa-backend/pkg/config"
	"github.com/mesapos/mesa-backend/pkg/db/models"
	"github.com/mesapos/mesa-backend/pkg/enums"
	"github.com/mesapos/mesa-backend/pkg/logger"
)

type routerFixture struct {
	db      *gorm.DB
	handler http.Handler
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		&models.Order{},
		&models.OrderItem{},
		&models.DiningTable{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runner := gormTxRunner{db: db}
	led, err := ledger.NewService(ledger.NewRepository(db), runner)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	tbl, err := tables.NewService(tables.NewRepository(db), nil)
	if err != nil {
		t.Fatalf("tables service: %v", err)
	}
	cat := catalog.NewRepository(db)
	eng, err := deduction.NewEngine(deduction.NewRepository(db), cat, led, runner, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	svc, err := orders.NewService(orders.NewRepository(db), cat, led, eng, tbl, runner, 0)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}

	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})

	handler := NewRouter(cfg, logg, nil, nil, nil, svc, led, tbl, cat)
	return &routerFixture{db: db, handler: handler}
}

func (f *routerFixture) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %s: %v", rec.Body.String(), err)
	}
	return envelope.Data
}

func TestHealthLive(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Mesa-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)

	table := models.DiningTable{ID: uuid.New(), Label: "T1", Seats: 4, Status: enums.TableStatusAvailable}
	if err := f.db.Create(&table).Error; err != nil {
		t.Fatalf("seed table: %v", err)
	}
	ingredient := models.InventoryItem{ID: uuid.New(), Name: "tea leaves", Unit: "g", CurrentStock: decimal.NewFromInt(10)}
	if err := f.db.Create(&ingredient).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	item := models.MenuItem{
		ID:                   uuid.New(),
		Name:                 "masala chai",
		PriceCents:           500,
		IsActive:             true,
		HasInventoryTracking: true,
		InventoryAvailable:   true,
		DecrementPerOrder:    decimal.NewFromInt(1),
		Usage: []models.InventoryUsage{
			{ID: uuid.New(), InventoryItemID: ingredient.ID, QuantityUsed: decimal.NewFromInt(1)},
		},
	}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("seed menu item: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"table_id": table.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open order: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	orderID := decodeData(t, rec)["ID"].(string)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/lines", orderID), map[string]any{
		"menu_item_id": item.ID,
		"quantity":     2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/place", orderID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("place: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if status := decodeData(t, rec)["Status"].(string); status != string(enums.OrderStatusPlaced) {
		t.Fatalf("expected placed, got %s", status)
	}

	var stock models.InventoryItem
	if err := f.db.First(&stock, "id = ?", ingredient.ID).Error; err != nil {
		t.Fatalf("reload ingredient: %v", err)
	}
	if !stock.CurrentStock.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected stock 8 after place, got %s", stock.CurrentStock)
	}

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/complete", orderID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if status := decodeData(t, rec)["Status"].(string); status != string(enums.OrderStatusPaid) {
		t.Fatalf("expected paid, got %s", status)
	}

	var freed models.DiningTable
	if err := f.db.First(&freed, "id = ?", table.ID).Error; err != nil {
		t.Fatalf("reload table: %v", err)
	}
	if freed.Status != enums.TableStatusAvailable {
		t.Fatalf("expected table released, got %s", freed.Status)
	}
}

func TestAddLineRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"table_id": uuid.New(), "surprise": true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetOrderRejectsBadID(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListTablesEmpty(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/tables", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}
