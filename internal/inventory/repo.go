package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaeats/mesa-backend/pkg/db/models"
)

// Repository manages persistence for inventory records. Quantity updates go
// through UpdateQuantities, which enforces the optimistic version check.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByKey(ctx context.Context, restaurantID uuid.UUID, barcode string) (*models.InventoryRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error)
	Create(ctx context.Context, record *models.InventoryRecord) error
	// UpdateQuantities writes the stock counters guarded by expectedVersion.
	// It returns false without error when another writer won the race.
	UpdateQuantities(ctx context.Context, record *models.InventoryRecord, expectedVersion int64) (bool, error)
	ListActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.InventoryRecord, error)
	ListActiveRestaurantIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByKey(ctx context.Context, restaurantID uuid.UUID, barcode string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND barcode = ?", restaurantID, barcode).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) Create(ctx context.Context, record *models.InventoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) UpdateQuantities(ctx context.Context, record *models.InventoryRecord, expectedVersion int64) (bool, error) {
	updates := map[string]any{
		"current_stock":   record.CurrentStock,
		"reserved_stock":  record.ReservedStock,
		"available_stock": record.AvailableStock,
		"version":         expectedVersion + 1,
		"updated_at":      time.Now(),
	}
	if record.LastRestocked != nil {
		updates["last_restocked"] = *record.LastRestocked
	}

	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ? AND version = ?", record.ID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	record.Version = expectedVersion + 1
	return true, nil
}

func (r *repository) ListActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND is_active = ?", restaurantID, true).
		Order("barcode ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListActiveRestaurantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("is_active = ?", true).
		Distinct("restaurant_id").
		Order("restaurant_id ASC").
		Pluck("restaurant_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
