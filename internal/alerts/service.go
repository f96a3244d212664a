package alerts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesaeats/mesa-backend/internal/inventory"
	"github.com/mesaeats/mesa-backend/pkg/db/models"
	"github.com/mesaeats/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
)

// StockAlert is a derived signal, computed from inventory state on demand
// and never persisted.
type StockAlert struct {
	InventoryRecordID uuid.UUID                `json:"inventoryRecordId"`
	RestaurantID      uuid.UUID                `json:"restaurantId"`
	Barcode           string                   `json:"barcode"`
	ProductID         uuid.UUID                `json:"productId"`
	Type              enums.StockAlertType     `json:"type"`
	Severity          enums.StockAlertSeverity `json:"severity"`
	CurrentStock      int                      `json:"currentStock"`
	MinStockLevel     int                      `json:"minStockLevel"`
}

// Service derives stock alerts from inventory levels.
type Service interface {
	ScanRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]StockAlert, error)
}

type service struct {
	repo inventory.Repository
}

// NewService wires an alert service over the inventory repository.
func NewService(repo inventory.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

// ScanRestaurant evaluates every active record for one restaurant. Reserved
// stock does not influence alerting; only physical stock does.
func (s *service) ScanRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]StockAlert, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}

	records, err := s.repo.ListActiveByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing inventory records")
	}

	alerts := make([]StockAlert, 0)
	for _, record := range records {
		if alert, ok := Evaluate(record); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

// Evaluate derives the alert for a single record, if any.
func Evaluate(record models.InventoryRecord) (StockAlert, bool) {
	alert := StockAlert{
		InventoryRecordID: record.ID,
		RestaurantID:      record.RestaurantID,
		Barcode:           record.Barcode,
		ProductID:         record.ProductID,
		CurrentStock:      record.CurrentStock,
		MinStockLevel:     record.MinStockLevel,
	}
	switch {
	case record.CurrentStock == 0:
		alert.Type = enums.StockAlertTypeOutOfStock
		alert.Severity = enums.StockAlertSeverityCritical
		return alert, true
	case record.CurrentStock <= record.MinStockLevel:
		alert.Type = enums.StockAlertTypeLowStock
		alert.Severity = enums.StockAlertSeverityHigh
		return alert, true
	default:
		return StockAlert{}, false
	}
}
