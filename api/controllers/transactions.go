package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesaeats/mesa-backend/api/responses"
	"github.com/mesaeats/mesa-backend/api/validators"
	inventorysvc "github.com/mesaeats/mesa-backend/internal/inventory"
	ledgersvc "github.com/mesaeats/mesa-backend/internal/ledger"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/logger"
	"github.com/mesaeats/mesa-backend/pkg/pagination"
)

// InventoryTransactions pages through one record's ledger, newest first.
// Supports an optional from/to time range and an opaque cursor.
func InventoryTransactions(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory record id"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.QueryByInventory(r.Context(), ledgersvc.QueryByInventoryInput{
			InventoryRecordID: recordID,
			From:              from,
			To:                to,
			Limit:             limit,
			Cursor:            r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"transactions": toStockTransactionResponses(page.Transactions),
			"next_cursor":  page.NextCursor,
		})
	}
}

// InventoryReconciliation replays the record's full ledger and compares the
// reconstructed quantities against the stored counters.
func InventoryReconciliation(inv inventorysvc.Service, svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inv == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation unavailable"))
			return
		}

		recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory record id"))
			return
		}

		record, err := inv.GetRecordByID(r.Context(), recordID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Reconcile(r.Context(), *record)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reconciliationResponse{
			InventoryRecordID: report.InventoryRecordID,
			Replayed: replayedQuantities{
				CurrentStock:     report.Replayed.CurrentStock,
				ReservedStock:    report.Replayed.ReservedStock,
				AvailableStock:   report.Replayed.AvailableStock,
				TransactionCount: report.Replayed.TransactionCount,
			},
			StoredCurrent:   report.StoredCurrent,
			StoredReserved:  report.StoredReserved,
			StoredAvailable: report.StoredAvailable,
			Consistent:      report.Consistent,
		})
	}
}

type replayedQuantities struct {
	CurrentStock     int `json:"current_stock"`
	ReservedStock    int `json:"reserved_stock"`
	AvailableStock   int `json:"available_stock"`
	TransactionCount int `json:"transaction_count"`
}

type reconciliationResponse struct {
	InventoryRecordID uuid.UUID          `json:"inventory_record_id"`
	Replayed          replayedQuantities `json:"replayed"`
	StoredCurrent     int                `json:"stored_current"`
	StoredReserved    int                `json:"stored_reserved"`
	StoredAvailable   int                `json:"stored_available"`
	Consistent        bool               `json:"consistent"`
}
