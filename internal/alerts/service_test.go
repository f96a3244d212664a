package alerts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesaeats/mesa-backend/internal/inventory"
	"github.com/mesaeats/mesa-backend/pkg/db/models"
	"github.com/mesaeats/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:alerts_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryRecord{}); err != nil {
		t.Fatalf("migrate inventory records: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, restaurantID uuid.UUID, barcode string, current, minLevel int, active bool) models.InventoryRecord {
	t.Helper()
	record := models.InventoryRecord{
		ID:             uuid.New(),
		RestaurantID:   restaurantID,
		Barcode:        barcode,
		ProductID:      uuid.New(),
		CurrentStock:   current,
		AvailableStock: current,
		MinStockLevel:  minLevel,
		MaxStockLevel:  50,
		IsActive:       active,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func TestScanRestaurant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(inventory.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	restaurantID := uuid.New()

	seedRecord(t, db, restaurantID, "barcode-empty", 0, 5, true)
	seedRecord(t, db, restaurantID, "barcode-low", 3, 5, true)
	seedRecord(t, db, restaurantID, "barcode-boundary", 5, 5, true)
	seedRecord(t, db, restaurantID, "barcode-healthy", 20, 5, true)
	seedRecord(t, db, restaurantID, "barcode-inactive", 0, 5, false)
	seedRecord(t, db, uuid.New(), "barcode-elsewhere", 0, 5, true)

	alerts, err := svc.ScanRestaurant(context.Background(), restaurantID)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d: %+v", len(alerts), alerts)
	}

	byBarcode := make(map[string]StockAlert, len(alerts))
	for _, alert := range alerts {
		byBarcode[alert.Barcode] = alert
	}

	empty := byBarcode["barcode-empty"]
	if empty.Type != enums.StockAlertTypeOutOfStock || empty.Severity != enums.StockAlertSeverityCritical {
		t.Fatalf("unexpected out-of-stock alert: %+v", empty)
	}
	low := byBarcode["barcode-low"]
	if low.Type != enums.StockAlertTypeLowStock || low.Severity != enums.StockAlertSeverityHigh {
		t.Fatalf("unexpected low-stock alert: %+v", low)
	}
	// current == min counts as low stock.
	boundary := byBarcode["barcode-boundary"]
	if boundary.Type != enums.StockAlertTypeLowStock {
		t.Fatalf("unexpected boundary alert: %+v", boundary)
	}
}

func TestScanRestaurantValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(inventory.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.ScanRestaurant(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEvaluateHealthy(t *testing.T) {
	t.Parallel()

	_, ok := Evaluate(models.InventoryRecord{CurrentStock: 10, MinStockLevel: 5})
	if ok {
		t.Fatal("healthy record must not alert")
	}
}
