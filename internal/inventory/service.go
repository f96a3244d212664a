package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/mesaeats/mesa-backend/internal/catalog"
	"github.com/mesaeats/mesa-backend/internal/ledger"
	"github.com/mesaeats/mesa-backend/pkg/config"
	dbpkg "github.com/mesaeats/mesa-backend/pkg/db"
	"github.com/mesaeats/mesa-backend/pkg/db/models"
	"github.com/mesaeats/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/logger"
	"github.com/mesaeats/mesa-backend/pkg/metrics"
	"github.com/mesaeats/mesa-backend/pkg/outbox"
)

// Service is the reservation manager: the single write path for inventory
// quantities. Every mutation runs in one transaction that updates the
// counters, appends exactly one ledger row and queues one outbox event.
type Service interface {
	GetRecord(ctx context.Context, restaurantID uuid.UUID, barcode string) (*models.InventoryRecord, error)
	GetRecordByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error)
	Reserve(ctx context.Context, input ReservationInput) (*MutationResult, error)
	Release(ctx context.Context, input ReservationInput) (*MutationResult, error)
	CommitSale(ctx context.Context, input ReservationInput) (*MutationResult, error)
	Restock(ctx context.Context, input RestockInput) (*MutationResult, error)
}

// errVersionConflict signals that another writer bumped the record version
// between our read and write. The retry loop treats it as transient.
var errVersionConflict = errors.New("inventory version conflict")

// ServiceParams bundles the reservation manager dependencies.
type ServiceParams struct {
	DB      *dbpkg.Client
	Repo    Repository
	Ledger  ledger.Repository
	Catalog catalog.Repository
	Outbox  *outbox.Service
	Logger  *logger.Logger
	Metrics *metrics.InventoryMetrics
	Config  config.InventoryConfig
	Clock   func() time.Time
}

type service struct {
	db      *dbpkg.Client
	repo    Repository
	ledger  ledger.Repository
	catalog catalog.Repository
	outbox  *outbox.Service
	logg    *logger.Logger
	metrics *metrics.InventoryMetrics
	cfg     config.InventoryConfig
	clock   func() time.Time
}

// NewService wires the reservation manager.
func NewService(p ServiceParams) (Service, error) {
	if p.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if p.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if p.Config.ConflictRetries <= 0 {
		p.Config.ConflictRetries = 5
	}
	if p.Config.ConflictBackoff <= 0 {
		p.Config.ConflictBackoff = 10 * time.Millisecond
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	return &service{
		db:      p.DB,
		repo:    p.Repo,
		ledger:  p.Ledger,
		catalog: p.Catalog,
		outbox:  p.Outbox,
		logg:    p.Logger,
		metrics: p.Metrics,
		cfg:     p.Config,
		clock:   p.Clock,
	}, nil
}

func (s *service) GetRecord(ctx context.Context, restaurantID uuid.UUID, barcode string) (*models.InventoryRecord, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	record, err := s.repo.FindByKey(ctx, restaurantID, barcode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory record")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no inventory record for barcode %s", barcode))
	}
	return record, nil
}

func (s *service) GetRecordByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory record id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory record")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	return record, nil
}

// Reserve moves quantity from available into reserved. Current stock does
// not change; the goods stay on the shelf until the sale commits.
func (s *service) Reserve(ctx context.Context, input ReservationInput) (*MutationResult, error) {
	if err := validateReservation(input); err != nil {
		return nil, err
	}
	reason := input.Reason
	if reason == "" {
		reason = enums.StockReasonReservation
	}

	return s.mutate(ctx, "reserve", func(tx *gorm.DB) (*MutationResult, error) {
		record, err := s.loadForUpdate(ctx, tx, input.RestaurantID, input.Barcode)
		if err != nil {
			return nil, err
		}
		if input.Quantity > record.AvailableStock {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("requested %d, available %d", input.Quantity, record.AvailableStock)).
				WithDetails(map[string]int{
					"requested": input.Quantity,
					"available": record.AvailableStock,
				})
		}

		expected := record.Version
		previous := record.ReservedStock
		record.ReservedStock += input.Quantity
		record.AvailableStock = record.CurrentStock - record.ReservedStock

		txn := s.newTransaction(record, enums.StockTransactionTypeReserved, input.Quantity, previous, record.ReservedStock, reason, &input.OrderID, input.UserID)
		return s.persist(ctx, tx, record, expected, txn, enums.EventStockReserved, input.UserID)
	})
}

// Release returns reserved quantity to available. Quantities beyond the
// outstanding reservation are clamped so repeated cancellations of the same
// order stay harmless; the ledger row still records the requested quantity.
func (s *service) Release(ctx context.Context, input ReservationInput) (*MutationResult, error) {
	if err := validateReservation(input); err != nil {
		return nil, err
	}
	reason := input.Reason
	if reason == "" {
		reason = enums.StockReasonCancellation
	}

	return s.mutate(ctx, "release", func(tx *gorm.DB) (*MutationResult, error) {
		record, err := s.loadForUpdate(ctx, tx, input.RestaurantID, input.Barcode)
		if err != nil {
			return nil, err
		}

		released := input.Quantity
		if released > record.ReservedStock {
			released = record.ReservedStock
			if s.logg != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"order_id":  input.OrderID.String(),
					"requested": input.Quantity,
					"reserved":  record.ReservedStock,
				}), "release clamped to outstanding reservation")
			}
		}

		expected := record.Version
		previous := record.ReservedStock
		record.ReservedStock -= released
		record.AvailableStock = record.CurrentStock - record.ReservedStock

		txn := s.newTransaction(record, enums.StockTransactionTypeReleased, input.Quantity, previous, record.ReservedStock, reason, &input.OrderID, input.UserID)
		return s.persist(ctx, tx, record, expected, txn, enums.EventStockReleased, input.UserID)
	})
}

// CommitSale finalizes a reservation: both current and reserved stock drop
// by the sold quantity, so available stock is unchanged.
func (s *service) CommitSale(ctx context.Context, input ReservationInput) (*MutationResult, error) {
	if err := validateReservation(input); err != nil {
		return nil, err
	}
	reason := input.Reason
	if reason == "" {
		reason = enums.StockReasonSale
	}

	return s.mutate(ctx, "commit_sale", func(tx *gorm.DB) (*MutationResult, error) {
		record, err := s.loadForUpdate(ctx, tx, input.RestaurantID, input.Barcode)
		if err != nil {
			return nil, err
		}
		if input.Quantity > record.ReservedStock {
			// A commit without a matching reservation is a caller sequencing
			// bug, not normal contention. Log it loudly.
			if s.logg != nil {
				s.logg.Error(s.logg.WithFields(ctx, map[string]any{
					"order_id":  input.OrderID.String(),
					"requested": input.Quantity,
					"reserved":  record.ReservedStock,
				}), "commit without matching reservation", nil)
			}
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientReserved,
				fmt.Sprintf("requested %d, reserved %d", input.Quantity, record.ReservedStock)).
				WithDetails(map[string]int{
					"requested": input.Quantity,
					"reserved":  record.ReservedStock,
				})
		}

		expected := record.Version
		previous := record.CurrentStock
		record.CurrentStock -= input.Quantity
		record.ReservedStock -= input.Quantity
		record.AvailableStock = record.CurrentStock - record.ReservedStock

		txn := s.newTransaction(record, enums.StockTransactionTypeOut, input.Quantity, previous, record.CurrentStock, reason, &input.OrderID, input.UserID)
		return s.persist(ctx, tx, record, expected, txn, enums.EventStockSold, input.UserID)
	})
}

// Restock receives a delivery. The first delivery for a barcode creates the
// inventory record from the catalog entry with the configured stock levels.
func (s *service) Restock(ctx context.Context, input RestockInput) (*MutationResult, error) {
	if err := validateRestock(input); err != nil {
		return nil, err
	}
	reason := input.Reason
	if reason == "" {
		reason = enums.StockReasonRestock
	}

	return s.mutate(ctx, "restock", func(tx *gorm.DB) (*MutationResult, error) {
		record, err := s.repo.WithTx(tx).FindByKey(ctx, input.RestaurantID, input.Barcode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory record")
		}
		if record == nil {
			return s.createFromDelivery(ctx, tx, input, reason)
		}
		if !record.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "inventory record is inactive")
		}

		now := s.clock()
		expected := record.Version
		previous := record.CurrentStock
		record.CurrentStock += input.Quantity
		record.AvailableStock = record.CurrentStock - record.ReservedStock
		record.LastRestocked = &now

		txn := s.newTransaction(record, enums.StockTransactionTypeIn, input.Quantity, previous, record.CurrentStock, reason, nil, input.UserID)
		return s.persist(ctx, tx, record, expected, txn, enums.EventStockRestocked, input.UserID)
	})
}

func (s *service) createFromDelivery(ctx context.Context, tx *gorm.DB, input RestockInput, reason string) (*MutationResult, error) {
	product, err := s.catalog.FindByBarcode(ctx, input.Barcode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog lookup failed")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no product for barcode %s", input.Barcode))
	}

	now := s.clock()
	record := &models.InventoryRecord{
		ID:             uuid.New(),
		RestaurantID:   input.RestaurantID,
		Barcode:        input.Barcode,
		ProductID:      product.ID,
		CurrentStock:   input.Quantity,
		ReservedStock:  0,
		AvailableStock: input.Quantity,
		MinStockLevel:  s.cfg.DefaultMinStock,
		MaxStockLevel:  s.cfg.DefaultMaxStock,
		CostPrice:      product.CostPrice,
		SellingPrice:   product.BasePrice,
		IsActive:       true,
		LastRestocked:  &now,
	}
	if input.CostPrice != nil {
		record.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		record.SellingPrice = *input.SellingPrice
	}

	if err := s.repo.WithTx(tx).Create(ctx, record); err != nil {
		// A concurrent first delivery for the same key loses the unique
		// index race; retry reloads the winner's row.
		if dbpkg.IsUniqueViolation(err, "ux_inventory_restaurant_barcode") {
			return nil, errVersionConflict
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating inventory record")
	}

	txn := s.newTransaction(record, enums.StockTransactionTypeIn, input.Quantity, 0, record.CurrentStock, reason, nil, input.UserID)
	if err := s.ledger.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending stock transaction")
	}
	if err := s.emit(ctx, tx, record, txn, enums.EventStockRestocked, input.UserID); err != nil {
		return nil, err
	}
	return &MutationResult{Record: *record, Transaction: *txn}, nil
}

// mutate runs one reservation manager operation with bounded retries on
// version conflicts. Business precondition failures are never retried.
func (s *service) mutate(ctx context.Context, op string, fn func(tx *gorm.DB) (*MutationResult, error)) (*MutationResult, error) {
	start := time.Now()
	var result *MutationResult

	backoff := retry.WithMaxRetries(uint64(s.cfg.ConflictRetries), retry.NewExponential(s.cfg.ConflictBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			res, err := fn(tx)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
		if errors.Is(txErr, errVersionConflict) {
			s.metrics.IncConflict(op)
			return retry.RetryableError(txErr)
		}
		return txErr
	})

	s.metrics.ObserveDuration(op, time.Since(start))
	if err != nil {
		if errors.Is(err, errVersionConflict) {
			err = pkgerrors.Wrap(pkgerrors.CodeStockContention, err,
				fmt.Sprintf("%s retries exhausted after %d attempts", op, s.cfg.ConflictRetries+1))
		}
		s.metrics.IncOutcome(op, outcomeLabel(err))
		return nil, err
	}

	s.metrics.IncOutcome(op, "success")
	return result, nil
}

func (s *service) loadForUpdate(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, barcode string) (*models.InventoryRecord, error) {
	record, err := s.repo.WithTx(tx).FindByKey(ctx, restaurantID, barcode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory record")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no inventory record for barcode %s", barcode))
	}
	if !record.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "inventory record is inactive")
	}
	return record, nil
}

func (s *service) persist(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, expectedVersion int64, txn *models.StockTransaction, eventType enums.OutboxEventType, userID uuid.UUID) (*MutationResult, error) {
	ok, err := s.repo.WithTx(tx).UpdateQuantities(ctx, record, expectedVersion)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating inventory quantities")
	}
	if !ok {
		return nil, errVersionConflict
	}
	if err := s.ledger.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending stock transaction")
	}
	if err := s.emit(ctx, tx, record, txn, eventType, userID); err != nil {
		return nil, err
	}
	return &MutationResult{Record: *record, Transaction: *txn}, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, txn *models.StockTransaction, eventType enums.OutboxEventType, userID uuid.UUID) error {
	if s.outbox == nil {
		return nil
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateInventoryRecord,
		AggregateID:   record.ID,
		Actor:         &outbox.ActorRef{UserID: userID, RestaurantID: &record.RestaurantID},
		Data: stockEventData{
			RestaurantID:   record.RestaurantID,
			Barcode:        record.Barcode,
			ProductID:      record.ProductID,
			OrderID:        txn.OrderID,
			Quantity:       txn.Quantity,
			CurrentStock:   record.CurrentStock,
			ReservedStock:  record.ReservedStock,
			AvailableStock: record.AvailableStock,
			Reason:         txn.Reason,
		},
		Version: 1,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing outbox event")
	}
	return nil
}

func (s *service) newTransaction(record *models.InventoryRecord, txnType enums.StockTransactionType, quantity, previous, next int, reason string, orderID *uuid.UUID, userID uuid.UUID) *models.StockTransaction {
	return &models.StockTransaction{
		ID:                uuid.New(),
		InventoryRecordID: record.ID,
		ProductID:         record.ProductID,
		RestaurantID:      record.RestaurantID,
		Type:              txnType,
		Quantity:          quantity,
		PreviousStock:     previous,
		NewStock:          next,
		Reason:            reason,
		OrderID:           orderID,
		UserID:            userID,
		CreatedAt:         s.clock(),
	}
}

func validateReservation(input ReservationInput) error {
	if input.RestaurantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}
	if strings.TrimSpace(input.Barcode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return nil
}

func validateRestock(input RestockInput) error {
	if input.RestaurantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}
	if strings.TrimSpace(input.Barcode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return nil
}

func outcomeLabel(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "error"
	}
	return strings.ToLower(string(typed.Code()))
}
