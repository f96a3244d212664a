package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	ledgersvc "github.com/mesaeats/mesa-backend/internal/ledger"
	"github.com/mesaeats/mesa-backend/pkg/db/models"
	"github.com/mesaeats/mesa-backend/pkg/enums"
)

type testLedgerService struct {
	queryByInventoryFn func(ctx context.Context, input ledgersvc.QueryByInventoryInput) (*ledgersvc.TransactionPage, error)
	queryByOrderFn     func(ctx context.Context, orderID uuid.UUID) ([]models.StockTransaction, error)
	reconcileFn        func(ctx context.Context, record models.InventoryRecord) (*ledgersvc.ReconciliationReport, error)
}

func (s *testLedgerService) QueryByInventory(ctx context.Context, input ledgersvc.QueryByInventoryInput) (*ledgersvc.TransactionPage, error) {
	if s.queryByInventoryFn != nil {
		return s.queryByInventoryFn(ctx, input)
	}
	return &ledgersvc.TransactionPage{}, nil
}

func (s *testLedgerService) QueryByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockTransaction, error) {
	if s.queryByOrderFn != nil {
		return s.queryByOrderFn(ctx, orderID)
	}
	return nil, nil
}

func (s *testLedgerService) Replay(ctx context.Context, recordID uuid.UUID) (*ledgersvc.ReplayResult, error) {
	return &ledgersvc.ReplayResult{}, nil
}

func (s *testLedgerService) Reconcile(ctx context.Context, record models.InventoryRecord) (*ledgersvc.ReconciliationReport, error) {
	if s.reconcileFn != nil {
		return s.reconcileFn(ctx, record)
	}
	return &ledgersvc.ReconciliationReport{}, nil
}

func TestInventoryTransactionsPassesFilters(t *testing.T) {
	recordID := uuid.New()
	var got ledgersvc.QueryByInventoryInput
	svc := &testLedgerService{
		queryByInventoryFn: func(ctx context.Context, input ledgersvc.QueryByInventoryInput) (*ledgersvc.TransactionPage, error) {
			got = input
			return &ledgersvc.TransactionPage{
				Transactions: []models.StockTransaction{{
					ID:                uuid.New(),
					InventoryRecordID: recordID,
					Type:              enums.StockTransactionTypeIn,
					Quantity:          10,
				}},
				NextCursor: "next",
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/inventory/"+recordID.String()+"/transactions?limit=10&from=2026-08-01T00:00:00Z&cursor=abc", nil)
	req = addRouteParam(req, "recordID", recordID.String())

	resp := httptest.NewRecorder()
	InventoryTransactions(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.InventoryRecordID != recordID || got.Limit != 10 || got.Cursor != "abc" {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.From == nil || !got.From.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", got.From)
	}
	if got.To != nil {
		t.Fatalf("expected nil to, got %v", got.To)
	}

	var envelope struct {
		Data struct {
			Transactions []stockTransactionResponse `json:"transactions"`
			NextCursor   string                     `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.NextCursor != "next" || len(envelope.Data.Transactions) != 1 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestInventoryTransactionsRejectsBadTimestamp(t *testing.T) {
	recordID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/"+recordID.String()+"/transactions?from=yesterday", nil)
	req = addRouteParam(req, "recordID", recordID.String())

	resp := httptest.NewRecorder()
	InventoryTransactions(&testLedgerService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestInventoryTransactionsRejectsOversizedLimit(t *testing.T) {
	recordID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/"+recordID.String()+"/transactions?limit=5000", nil)
	req = addRouteParam(req, "recordID", recordID.String())

	resp := httptest.NewRecorder()
	InventoryTransactions(&testLedgerService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestInventoryReconciliation(t *testing.T) {
	recordID := uuid.New()
	record := models.InventoryRecord{ID: recordID, CurrentStock: 7, AvailableStock: 7, IsActive: true}

	inv := &testInventoryService{
		getRecordByIDFn: func(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
			if id != recordID {
				t.Fatalf("unexpected id %s", id)
			}
			return &record, nil
		},
	}
	svc := &testLedgerService{
		reconcileFn: func(ctx context.Context, rec models.InventoryRecord) (*ledgersvc.ReconciliationReport, error) {
			return &ledgersvc.ReconciliationReport{
				InventoryRecordID: rec.ID,
				Replayed:          ledgersvc.ReplayResult{CurrentStock: 7, AvailableStock: 7, TransactionCount: 5},
				StoredCurrent:     7,
				StoredAvailable:   7,
				Consistent:        true,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/"+recordID.String()+"/reconciliation", nil)
	req = addRouteParam(req, "recordID", recordID.String())

	resp := httptest.NewRecorder()
	InventoryReconciliation(inv, svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data reconciliationResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data.Consistent || envelope.Data.Replayed.TransactionCount != 5 {
		t.Fatalf("unexpected report %+v", envelope.Data)
	}
}

func TestOrderTransactions(t *testing.T) {
	orderID := uuid.New()
	svc := &testLedgerService{
		queryByOrderFn: func(ctx context.Context, oid uuid.UUID) ([]models.StockTransaction, error) {
			if oid != orderID {
				t.Fatalf("unexpected order %s", oid)
			}
			return []models.StockTransaction{
				{Type: enums.StockTransactionTypeReserved, Quantity: 3, OrderID: &orderID},
				{Type: enums.StockTransactionTypeOut, Quantity: 3, OrderID: &orderID},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/transactions", nil)
	req = addRouteParam(req, "orderID", orderID.String())

	resp := httptest.NewRecorder()
	OrderTransactions(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Transactions []stockTransactionResponse `json:"transactions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Transactions) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(envelope.Data.Transactions))
	}
}
