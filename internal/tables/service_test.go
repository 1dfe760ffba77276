package tables

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/pkg/db/models"
	"github.com/mesapos/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesapos/mesa-backend/pkg/errors"
)

func TestOccupyAndRelease(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	tableID := seedTable(t, db, "T1")
	orderID := uuid.New()

	if err := svc.Occupy(ctx, db, tableID, orderID); err != nil {
		t.Fatalf("occupy: %v", err)
	}
	table, err := svc.Get(ctx, tableID)
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if table.Status != enums.TableStatusOccupied {
		t.Fatalf("expected occupied, got %s", table.Status)
	}
	if table.CurrentOrderID == nil || *table.CurrentOrderID != orderID {
		t.Fatalf("expected current order %s, got %v", orderID, table.CurrentOrderID)
	}

	if err := svc.Release(ctx, db, tableID, orderID); err != nil {
		t.Fatalf("release: %v", err)
	}
	table, err = svc.Get(ctx, tableID)
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if table.Status != enums.TableStatusAvailable || table.CurrentOrderID != nil {
		t.Fatalf("expected available table, got %+v", table)
	}
}

func TestOccupyConflict(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	tableID := seedTable(t, db, "T2")
	holder := uuid.New()
	intruder := uuid.New()

	if err := svc.Occupy(ctx, db, tableID, holder); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	err := svc.Occupy(ctx, db, tableID, intruder)
	if !pkgerrors.HasCode(err, pkgerrors.CodeTableConflict) {
		t.Fatalf("expected table conflict, got %v", err)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["held_by_order_id"] != holder.String() {
		t.Fatalf("expected holder in details, got %v", typed.Details())
	}
}

func TestOccupySameOrderIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	tableID := seedTable(t, db, "T3")
	orderID := uuid.New()

	if err := svc.Occupy(ctx, db, tableID, orderID); err != nil {
		t.Fatalf("occupy: %v", err)
	}
	if err := svc.Occupy(ctx, db, tableID, orderID); err != nil {
		t.Fatalf("repeat occupy: %v", err)
	}
}

func TestReleaseByStaleOrderKeepsHolder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	tableID := seedTable(t, db, "T4")
	holder := uuid.New()
	stale := uuid.New()

	if err := svc.Occupy(ctx, db, tableID, holder); err != nil {
		t.Fatalf("occupy: %v", err)
	}
	if err := svc.Release(ctx, db, tableID, stale); err != nil {
		t.Fatalf("stale release: %v", err)
	}

	table, err := svc.Get(ctx, tableID)
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if table.Status != enums.TableStatusOccupied {
		t.Fatalf("expected table to stay occupied, got %s", table.Status)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:tables_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.DiningTable{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedTable(t *testing.T, db *gorm.DB, label string) uuid.UUID {
	t.Helper()
	table := models.DiningTable{
		ID:     uuid.New(),
		Label:  label,
		Seats:  4,
		Status: enums.TableStatusAvailable,
	}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("seed table %s: %v", label, err)
	}
	return table.ID
}
