package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaeats/mesa-backend/api/responses"
	"github.com/mesaeats/mesa-backend/api/validators"
	inventorysvc "github.com/mesaeats/mesa-backend/internal/inventory"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/logger"
)

// InventoryRecordFetch returns one restaurant's stock position for a barcode.
func InventoryRecordFetch(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		restaurantID, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id"))
			return
		}

		barcode := chi.URLParam(r, "barcode")

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithRestaurantID(ctx, restaurantID.String())
			ctx = logg.WithBarcode(ctx, barcode)
		}

		record, err := svc.GetRecord(ctx, restaurantID, barcode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toInventoryRecordResponse(*record))
	}
}

type restockRequest struct {
	Quantity     int     `json:"quantity" validate:"required,min=1"`
	UserID       string  `json:"user_id" validate:"required,uuid"`
	Reason       string  `json:"reason,omitempty"`
	CostPrice    *string `json:"cost_price,omitempty"`
	SellingPrice *string `json:"selling_price,omitempty"`
}

func (req restockRequest) toInput(restaurantID uuid.UUID, barcode string) (inventorysvc.RestockInput, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return inventorysvc.RestockInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	input := inventorysvc.RestockInput{
		RestaurantID: restaurantID,
		Barcode:      barcode,
		Quantity:     req.Quantity,
		UserID:       userID,
		Reason:       req.Reason,
	}

	if req.CostPrice != nil {
		price, err := decimal.NewFromString(*req.CostPrice)
		if err != nil {
			return inventorysvc.RestockInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cost price")
		}
		input.CostPrice = &price
	}
	if req.SellingPrice != nil {
		price, err := decimal.NewFromString(*req.SellingPrice)
		if err != nil {
			return inventorysvc.RestockInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid selling price")
		}
		input.SellingPrice = &price
	}

	return input, nil
}

// InventoryRestock applies an inbound delivery to a restaurant's stock.
// The first delivery for an unknown barcode creates the record from the
// catalog entry.
func InventoryRestock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		restaurantID, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id"))
			return
		}

		barcode := chi.URLParam(r, "barcode")

		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(restaurantID, barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithRestaurantID(ctx, restaurantID.String())
			ctx = logg.WithBarcode(ctx, barcode)
		}

		result, err := svc.Restock(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"record":      toInventoryRecordResponse(result.Record),
			"transaction": toStockTransactionResponse(result.Transaction),
		})
	}
}
