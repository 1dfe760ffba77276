package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesapos/mesa-backend/pkg/db/models"
	"github.com/mesapos/mesa-backend/pkg/enums"
	"github.com/mesapos/mesa-backend/pkg/types"
)

// Repository manages persistence for stock pools and the movement ledger.
// Both shared ingredients and directly tracked menu items are addressed
// through types.ItemRef.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	ListTransactionsByRef(ctx context.Context, ref types.ItemRef, limit int) ([]models.InventoryTransaction, error)
	ListTransactionsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryTransaction, error)
	GetStock(ctx context.Context, ref types.ItemRef) (decimal.Decimal, error)
	GetStocks(ctx context.Context, refs []types.ItemRef) (map[types.ItemRef]decimal.Decimal, error)
	ApplyDelta(ctx context.Context, ref types.ItemRef, delta decimal.Decimal) (bool, error)
	FindInventoryItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListInventoryItems(ctx context.Context) ([]models.InventoryItem, error)
	ListTrackedMenuItems(ctx context.Context) ([]models.MenuItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactionsByRef(ctx context.Context, ref types.ItemRef, limit int) ([]models.InventoryTransaction, error) {
	var txns []models.InventoryTransaction
	q := r.db.WithContext(ctx).
		Where("item_ref_kind = ? AND item_ref_id = ?", ref.Kind, ref.ID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListTransactionsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryTransaction, error) {
	var txns []models.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) GetStock(ctx context.Context, ref types.ItemRef) (decimal.Decimal, error) {
	stocks, err := r.GetStocks(ctx, []types.ItemRef{ref})
	if err != nil {
		return decimal.Zero, err
	}
	stock, ok := stocks[ref]
	if !ok {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	return stock, nil
}

type stockRow struct {
	ID    uuid.UUID       `gorm:"column:id"`
	Stock decimal.Decimal `gorm:"column:stock"`
}

func (r *repository) GetStocks(ctx context.Context, refs []types.ItemRef) (map[types.ItemRef]decimal.Decimal, error) {
	stocks := make(map[types.ItemRef]decimal.Decimal, len(refs))
	if len(refs) == 0 {
		return stocks, nil
	}

	var sharedIDs, directIDs []uuid.UUID
	for _, ref := range refs {
		switch ref.Kind {
		case enums.ItemRefKindShared:
			sharedIDs = append(sharedIDs, ref.ID)
		case enums.ItemRefKindMenuItemDirect:
			directIDs = append(directIDs, ref.ID)
		}
	}

	if len(sharedIDs) > 0 {
		var rows []stockRow
		if err := r.db.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Select("id, current_stock AS stock").
			Where("id IN ?", sharedIDs).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			stocks[types.SharedRef(row.ID)] = row.Stock
		}
	}

	if len(directIDs) > 0 {
		var rows []stockRow
		if err := r.db.WithContext(ctx).
			Model(&models.MenuItem{}).
			Select("id, stock_qty AS stock").
			Where("id IN ?", directIDs).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			stocks[types.MenuItemRef(row.ID)] = row.Stock
		}
	}

	return stocks, nil
}

// ApplyDelta adds delta to the referenced stock pool in a single guarded
// UPDATE. It returns false when the row is missing or the resulting stock
// would go negative; the caller decides whether that is a hard failure.
func (r *repository) ApplyDelta(ctx context.Context, ref types.ItemRef, delta decimal.Decimal) (bool, error) {
	var res *gorm.DB
	switch ref.Kind {
	case enums.ItemRefKindShared:
		res = r.db.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("id = ? AND current_stock + ? >= 0", ref.ID, delta).
			Update("current_stock", gorm.Expr("current_stock + ?", delta))
	case enums.ItemRefKindMenuItemDirect:
		res = r.db.WithContext(ctx).
			Model(&models.MenuItem{}).
			Where("id = ? AND stock_qty + ? >= 0", ref.ID, delta).
			Update("stock_qty", gorm.Expr("stock_qty + ?", delta))
	default:
		return false, gorm.ErrRecordNotFound
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindInventoryItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListInventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListTrackedMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).
		Where("has_inventory_tracking = ?", true).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
