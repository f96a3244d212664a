package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesaeats/mesa-backend/internal/catalog"
	"github.com/mesaeats/mesa-backend/internal/ledger"
	"github.com/mesaeats/mesa-backend/pkg/config"
	dbpkg "github.com/mesaeats/mesa-backend/pkg/db"
	"github.com/mesaeats/mesa-backend/pkg/db/models"
	"github.com/mesaeats/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/outbox"
)

type testEnv struct {
	svc    Service
	db     *gorm.DB
	ledger ledger.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(
		&models.Product{},
		&models.InventoryRecord{},
		&models.StockTransaction{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(ServiceParams{
		DB:      dbpkg.FromGorm(gdb),
		Repo:    NewRepository(gdb),
		Ledger:  ledger.NewRepository(gdb),
		Catalog: catalog.NewRepository(gdb),
		Outbox:  outbox.NewService(outbox.NewRepository(gdb), nil),
		Config: config.InventoryConfig{
			ConflictRetries: 5,
			ConflictBackoff: time.Millisecond,
			DefaultMinStock: 5,
			DefaultMaxStock: 100,
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gdb))
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	return &testEnv{svc: svc, db: gdb, ledger: ledgerSvc}
}

func seedProduct(t *testing.T, db *gorm.DB, barcode string) models.Product {
	t.Helper()
	product := models.Product{
		ID:        uuid.New(),
		Barcode:   barcode,
		Name:      "Tomato Sauce 500g",
		Brand:     "Del Valle",
		Unit:      "jar",
		BasePrice: decimal.NewFromFloat(4.25),
		CostPrice: decimal.NewFromFloat(2.75),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedRecord(t *testing.T, db *gorm.DB, restaurantID uuid.UUID, product models.Product, current, reserved, minLevel int) models.InventoryRecord {
	t.Helper()
	record := models.InventoryRecord{
		ID:             uuid.New(),
		RestaurantID:   restaurantID,
		Barcode:        product.Barcode,
		ProductID:      product.ID,
		CurrentStock:   current,
		ReservedStock:  reserved,
		AvailableStock: current - reserved,
		MinStockLevel:  minLevel,
		MaxStockLevel:  100,
		CostPrice:      product.CostPrice,
		SellingPrice:   product.BasePrice,
		IsActive:       true,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func reloadRecord(t *testing.T, db *gorm.DB, id uuid.UUID) models.InventoryRecord {
	t.Helper()
	var record models.InventoryRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if !record.InvariantHolds() {
		t.Fatalf("stock invariant violated: %+v", record)
	}
	return record
}

func countTransactions(t *testing.T, db *gorm.DB, recordID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.StockTransaction{}).Where("inventory_record_id = ?", recordID).Count(&n).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}

func countOutboxEvents(t *testing.T, db *gorm.DB, recordID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", recordID).Count(&n).Error; err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	return n
}

func TestReserveMovesAvailableToReserved(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000011")
	record := seedRecord(t, env.db, restaurantID, product, 10, 0, 2)

	result, err := env.svc.Reserve(ctx, ReservationInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     3,
		OrderID:      uuid.New(),
		UserID:       uuid.New(),
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if result.Record.CurrentStock != 10 || result.Record.ReservedStock != 3 || result.Record.AvailableStock != 7 {
		t.Fatalf("unexpected record state: %+v", result.Record)
	}
	if result.Transaction.Type != enums.StockTransactionTypeReserved || result.Transaction.Quantity != 3 {
		t.Fatalf("unexpected ledger row: %+v", result.Transaction)
	}
	if result.Transaction.PreviousStock != 0 || result.Transaction.NewStock != 3 {
		t.Fatalf("unexpected reserved snapshots: %+v", result.Transaction)
	}

	stored := reloadRecord(t, env.db, record.ID)
	if stored.Version != 1 {
		t.Fatalf("expected version bump, got %d", stored.Version)
	}
	if n := countTransactions(t, env.db, record.ID); n != 1 {
		t.Fatalf("expected 1 ledger row, got %d", n)
	}
	if n := countOutboxEvents(t, env.db, record.ID); n != 1 {
		t.Fatalf("expected 1 outbox event, got %d", n)
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000028")
	record := seedRecord(t, env.db, restaurantID, product, 5, 3, 2)

	_, err := env.svc.Reserve(ctx, ReservationInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     3,
		OrderID:      uuid.New(),
		UserID:       uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	stored := reloadRecord(t, env.db, record.ID)
	if stored.ReservedStock != 3 || stored.AvailableStock != 2 || stored.Version != 0 {
		t.Fatalf("failed reserve must not mutate: %+v", stored)
	}
	if n := countTransactions(t, env.db, record.ID); n != 0 {
		t.Fatalf("failed reserve must not append ledger rows, got %d", n)
	}
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	orderID := uuid.New()
	userID := uuid.New()
	product := seedProduct(t, env.db, "7500000000035")
	record := seedRecord(t, env.db, restaurantID, product, 8, 0, 2)

	input := ReservationInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     5,
		OrderID:      orderID,
		UserID:       userID,
	}
	if _, err := env.svc.Reserve(ctx, input); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := env.svc.Release(ctx, input); err != nil {
		t.Fatalf("release: %v", err)
	}

	stored := reloadRecord(t, env.db, record.ID)
	if stored.CurrentStock != 8 || stored.ReservedStock != 0 || stored.AvailableStock != 8 {
		t.Fatalf("round trip must restore quantities: %+v", stored)
	}
	if n := countTransactions(t, env.db, record.ID); n != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", n)
	}
}

func TestReleaseClampsOverRelease(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000042")
	record := seedRecord(t, env.db, restaurantID, product, 10, 2, 2)

	result, err := env.svc.Release(ctx, ReservationInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     6,
		OrderID:      uuid.New(),
		UserID:       uuid.New(),
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if result.Record.ReservedStock != 0 || result.Record.AvailableStock != 10 {
		t.Fatalf("expected clamp to zero: %+v", result.Record)
	}
	// The ledger keeps the requested quantity so the caller's bug is visible.
	if result.Transaction.Quantity != 6 {
		t.Fatalf("expected requested quantity on ledger row, got %d", result.Transaction.Quantity)
	}
	if result.Transaction.PreviousStock != 2 || result.Transaction.NewStock != 0 {
		t.Fatalf("unexpected reserved snapshots: %+v", result.Transaction)
	}
	reloadRecord(t, env.db, record.ID)
}

func TestCommitSaleDecrementsBoth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000059")
	record := seedRecord(t, env.db, restaurantID, product, 10, 4, 2)

	result, err := env.svc.CommitSale(ctx, ReservationInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     4,
		OrderID:      uuid.New(),
		UserID:       uuid.New(),
	})
	if err != nil {
		t.Fatalf("commit sale: %v", err)
	}
	if result.Record.CurrentStock != 6 || result.Record.ReservedStock != 0 || result.Record.AvailableStock != 6 {
		t.Fatalf("unexpected record state: %+v", result.Record)
	}
	if result.Transaction.Type != enums.StockTransactionTypeOut {
		t.Fatalf("expected OUT ledger row, got %s", result.Transaction.Type)
	}
	if result.Transaction.PreviousStock != 10 || result.Transaction.NewStock != 6 {
		t.Fatalf("unexpected current snapshots: %+v", result.Transaction)
	}
	reloadRecord(t, env.db, record.ID)
}

func TestCommitSaleWithoutReservation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000066")
	record := seedRecord(t, env.db, restaurantID, product, 10, 2, 2)

	_, err := env.svc.CommitSale(ctx, ReservationInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     5,
		OrderID:      uuid.New(),
		UserID:       uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientReserved {
		t.Fatalf("expected insufficient reserved stock, got %v", err)
	}

	stored := reloadRecord(t, env.db, record.ID)
	if stored.CurrentStock != 10 || stored.ReservedStock != 2 {
		t.Fatalf("failed commit must not mutate: %+v", stored)
	}
}

func TestRestockIncrementsCurrent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000073")
	record := seedRecord(t, env.db, restaurantID, product, 3, 1, 2)

	result, err := env.svc.Restock(ctx, RestockInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     12,
		UserID:       uuid.New(),
	})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if result.Record.CurrentStock != 15 || result.Record.ReservedStock != 1 || result.Record.AvailableStock != 14 {
		t.Fatalf("unexpected record state: %+v", result.Record)
	}
	if result.Record.LastRestocked == nil {
		t.Fatal("expected last restocked timestamp")
	}
	if result.Transaction.Type != enums.StockTransactionTypeIn || result.Transaction.Reason != enums.StockReasonRestock {
		t.Fatalf("unexpected ledger row: %+v", result.Transaction)
	}
	reloadRecord(t, env.db, record.ID)
}

func TestRestockCreatesRecordFromCatalog(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000080")

	result, err := env.svc.Restock(ctx, RestockInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     20,
		UserID:       uuid.New(),
	})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if result.Record.ProductID != product.ID {
		t.Fatalf("expected product binding, got %+v", result.Record)
	}
	if result.Record.CurrentStock != 20 || result.Record.AvailableStock != 20 {
		t.Fatalf("unexpected created state: %+v", result.Record)
	}
	if result.Record.MinStockLevel != 5 || result.Record.MaxStockLevel != 100 {
		t.Fatalf("expected configured defaults, got %+v", result.Record)
	}
	if !result.Record.SellingPrice.Equal(product.BasePrice) {
		t.Fatalf("expected catalog selling price, got %s", result.Record.SellingPrice)
	}
	if n := countTransactions(t, env.db, result.Record.ID); n != 1 {
		t.Fatalf("expected 1 ledger row, got %d", n)
	}
	if n := countOutboxEvents(t, env.db, result.Record.ID); n != 1 {
		t.Fatalf("expected 1 outbox event, got %d", n)
	}
}

func TestRestockUnknownBarcode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.svc.Restock(context.Background(), RestockInput{
		RestaurantID: uuid.New(),
		Barcode:      "0000000000000",
		Quantity:     5,
		UserID:       uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInactiveRecordRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000097")
	record := seedRecord(t, env.db, restaurantID, product, 10, 0, 2)
	if err := env.db.Model(&models.InventoryRecord{}).Where("id = ?", record.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate record: %v", err)
	}

	_, err := env.svc.Reserve(ctx, ReservationInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     1,
		OrderID:      uuid.New(),
		UserID:       uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for inactive record, got %v", err)
	}
}

func TestReserveValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cases := []ReservationInput{
		{Barcode: "b", Quantity: 1, OrderID: uuid.New(), UserID: uuid.New()},
		{RestaurantID: uuid.New(), Quantity: 1, OrderID: uuid.New(), UserID: uuid.New()},
		{RestaurantID: uuid.New(), Barcode: "b", Quantity: 0, OrderID: uuid.New(), UserID: uuid.New()},
		{RestaurantID: uuid.New(), Barcode: "b", Quantity: -2, OrderID: uuid.New(), UserID: uuid.New()},
		{RestaurantID: uuid.New(), Barcode: "b", Quantity: 1, UserID: uuid.New()},
		{RestaurantID: uuid.New(), Barcode: "b", Quantity: 1, OrderID: uuid.New()},
	}
	for _, input := range cases {
		_, err := env.svc.Reserve(context.Background(), input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

// The full lifecycle: restock 10, two competing reservations, one sale, one
// cancellation. Quantities and the replayed ledger must agree at the end.
func TestReservationLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	userID := uuid.New()
	orderA := uuid.New()
	orderB := uuid.New()
	product := seedProduct(t, env.db, "7500000000103")

	restocked, err := env.svc.Restock(ctx, RestockInput{
		RestaurantID: restaurantID,
		Barcode:      product.Barcode,
		Quantity:     10,
		UserID:       userID,
	})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	recordID := restocked.Record.ID

	if _, err := env.svc.Reserve(ctx, ReservationInput{
		RestaurantID: restaurantID, Barcode: product.Barcode, Quantity: 3, OrderID: orderA, UserID: userID,
	}); err != nil {
		t.Fatalf("reserve order a: %v", err)
	}
	if _, err := env.svc.Reserve(ctx, ReservationInput{
		RestaurantID: restaurantID, Barcode: product.Barcode, Quantity: 4, OrderID: orderB, UserID: userID,
	}); err != nil {
		t.Fatalf("reserve order b: %v", err)
	}

	mid := reloadRecord(t, env.db, recordID)
	if mid.CurrentStock != 10 || mid.ReservedStock != 7 || mid.AvailableStock != 3 {
		t.Fatalf("unexpected mid state: %+v", mid)
	}

	if _, err := env.svc.CommitSale(ctx, ReservationInput{
		RestaurantID: restaurantID, Barcode: product.Barcode, Quantity: 3, OrderID: orderA, UserID: userID,
	}); err != nil {
		t.Fatalf("commit order a: %v", err)
	}
	if _, err := env.svc.Release(ctx, ReservationInput{
		RestaurantID: restaurantID, Barcode: product.Barcode, Quantity: 4, OrderID: orderB, UserID: userID,
	}); err != nil {
		t.Fatalf("release order b: %v", err)
	}

	final := reloadRecord(t, env.db, recordID)
	if final.CurrentStock != 7 || final.ReservedStock != 0 || final.AvailableStock != 7 {
		t.Fatalf("unexpected final state: %+v", final)
	}

	if n := countTransactions(t, env.db, recordID); n != 5 {
		t.Fatalf("expected 5 ledger rows, got %d", n)
	}
	if n := countOutboxEvents(t, env.db, recordID); n != 5 {
		t.Fatalf("expected 5 outbox events, got %d", n)
	}

	replayed, err := env.ledger.Replay(ctx, recordID)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.CurrentStock != final.CurrentStock ||
		replayed.ReservedStock != final.ReservedStock ||
		replayed.AvailableStock != final.AvailableStock {
		t.Fatalf("replay drifted from stored state: %+v vs %+v", replayed, final)
	}
}
