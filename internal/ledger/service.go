package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesaeats/mesa-backend/pkg/db/models"
	"github.com/mesaeats/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/pagination"
)

// Service exposes the read side of the stock transaction ledger. Writes go
// through the reservation manager, which appends rows inside its own
// transactions via Repository.WithTx.
type Service interface {
	QueryByInventory(ctx context.Context, input QueryByInventoryInput) (*TransactionPage, error)
	QueryByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockTransaction, error)
	Replay(ctx context.Context, recordID uuid.UUID) (*ReplayResult, error)
	Reconcile(ctx context.Context, record models.InventoryRecord) (*ReconciliationReport, error)
}

// QueryByInventoryInput filters a per-record transaction listing.
type QueryByInventoryInput struct {
	InventoryRecordID uuid.UUID
	From              *time.Time
	To                *time.Time
	Limit             int
	Cursor            string
}

// TransactionPage is one page of ledger rows plus the cursor for the next.
type TransactionPage struct {
	Transactions []models.StockTransaction
	NextCursor   string
}

// ReplayResult holds quantities reconstructed purely from ledger rows.
type ReplayResult struct {
	CurrentStock     int
	ReservedStock    int
	AvailableStock   int
	TransactionCount int
}

// ReconciliationReport compares replayed quantities against the stored record.
type ReconciliationReport struct {
	InventoryRecordID uuid.UUID
	Replayed          ReplayResult
	StoredCurrent     int
	StoredReserved    int
	StoredAvailable   int
	Consistent        bool
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) QueryByInventory(ctx context.Context, input QueryByInventoryInput) (*TransactionPage, error) {
	if input.InventoryRecordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory record id is required")
	}
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "time range end precedes start")
	}

	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	rows, err := s.repo.ListByInventoryRecord(ctx, InventoryQuery{
		InventoryRecordID: input.InventoryRecordID,
		From:              input.From,
		To:                input.To,
		Cursor:            cursor,
		Limit:             pagination.LimitWithBuffer(input.Limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing stock transactions")
	}

	page := &TransactionPage{Transactions: rows}
	if len(rows) > limit {
		page.Transactions = rows[:limit]
		last := page.Transactions[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) QueryByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockTransaction, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	rows, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing order transactions")
	}
	return rows, nil
}

// Replay folds the full ledger for a record into quantities. The fold mirrors
// the reservation manager mutations: IN raises current, OUT lowers both
// current and reserved, RESERVED raises reserved, RELEASED lowers reserved
// with the same clamp at zero the live path applies.
func (s *service) Replay(ctx context.Context, recordID uuid.UUID) (*ReplayResult, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory record id is required")
	}

	rows, err := s.repo.ListChronological(ctx, recordID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replaying stock transactions")
	}

	result := &ReplayResult{TransactionCount: len(rows)}
	for _, row := range rows {
		switch row.Type {
		case enums.StockTransactionTypeIn:
			result.CurrentStock += row.Quantity
		case enums.StockTransactionTypeOut:
			result.CurrentStock -= row.Quantity
			result.ReservedStock -= row.Quantity
			if result.ReservedStock < 0 {
				result.ReservedStock = 0
			}
		case enums.StockTransactionTypeReserved:
			result.ReservedStock += row.Quantity
		case enums.StockTransactionTypeReleased:
			result.ReservedStock -= row.Quantity
			if result.ReservedStock < 0 {
				result.ReservedStock = 0
			}
		}
	}
	result.AvailableStock = result.CurrentStock - result.ReservedStock
	return result, nil
}

func (s *service) Reconcile(ctx context.Context, record models.InventoryRecord) (*ReconciliationReport, error) {
	replayed, err := s.Replay(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return &ReconciliationReport{
		InventoryRecordID: record.ID,
		Replayed:          *replayed,
		StoredCurrent:     record.CurrentStock,
		StoredReserved:    record.ReservedStock,
		StoredAvailable:   record.AvailableStock,
		Consistent: replayed.CurrentStock == record.CurrentStock &&
			replayed.ReservedStock == record.ReservedStock &&
			replayed.AvailableStock == record.AvailableStock,
	}, nil
}
