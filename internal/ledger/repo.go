package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaeats/mesa-backend/pkg/db/models"
	"github.com/mesaeats/mesa-backend/pkg/pagination"
)

// Repository manages persistence for stock transactions. Rows are
// append-only; there is no update or delete surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.StockTransaction) error
	ListByInventoryRecord(ctx context.Context, q InventoryQuery) ([]models.StockTransaction, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockTransaction, error)
	// ListChronological returns every transaction for a record oldest first,
	// used by ledger replay.
	ListChronological(ctx context.Context, recordID uuid.UUID) ([]models.StockTransaction, error)
}

// InventoryQuery filters the per-record transaction listing. Results are
// returned newest first; Cursor continues a previous page.
type InventoryQuery struct {
	InventoryRecordID uuid.UUID
	From              *time.Time
	To                *time.Time
	Cursor            *pagination.Cursor
	Limit             int
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

func (r *repository) Create(ctx context.Context, txn *models.StockTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListByInventoryRecord(ctx context.Context, q InventoryQuery) ([]models.StockTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("inventory_record_id = ?", q.InventoryRecordID)

	if q.From != nil {
		query = query.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("created_at <= ?", *q.To)
	}
	if q.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID,
		)
	}

	var rows []models.StockTransaction
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockTransaction, error) {
	var rows []models.StockTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListChronological(ctx context.Context, recordID uuid.UUID) ([]models.StockTransaction, error) {
	var rows []models.StockTransaction
	err := r.db.WithContext(ctx).
		Where("inventory_record_id = ?", recordID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
