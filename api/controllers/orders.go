package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesaeats/mesa-backend/api/responses"
	"github.com/mesaeats/mesa-backend/api/validators"
	checkoutsvc "github.com/mesaeats/mesa-backend/internal/checkout"
	ledgersvc "github.com/mesaeats/mesa-backend/internal/ledger"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/logger"
)

type orderLineRequest struct {
	Barcode  string `json:"barcode" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type reserveOrderRequest struct {
	RestaurantID string             `json:"restaurant_id" validate:"required,uuid"`
	OrderID      string             `json:"order_id" validate:"required,uuid"`
	UserID       string             `json:"user_id" validate:"required,uuid"`
	Items        []orderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type orderActionRequest struct {
	RestaurantID string             `json:"restaurant_id" validate:"required,uuid"`
	UserID       string             `json:"user_id" validate:"required,uuid"`
	Items        []orderLineRequest `json:"items" validate:"required,min=1,dive"`
}

func toOrderInput(restaurantID, orderID, userID string, items []orderLineRequest) (checkoutsvc.OrderInput, error) {
	rid, err := uuid.Parse(restaurantID)
	if err != nil {
		return checkoutsvc.OrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id")
	}
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return checkoutsvc.OrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return checkoutsvc.OrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	lines := make([]checkoutsvc.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, checkoutsvc.LineItem{Barcode: item.Barcode, Quantity: item.Quantity})
	}

	return checkoutsvc.OrderInput{
		RestaurantID: rid,
		OrderID:      oid,
		UserID:       uid,
		Items:        lines,
	}, nil
}

// OrderReserve places holds for every line of an order, or none of them.
func OrderReserve(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload reserveOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toOrderInput(payload.RestaurantID, payload.OrderID, payload.UserID, payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, input.OrderID.String())
		}

		result, err := svc.ReserveOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func orderAction(
	logg *logger.Logger,
	action func(ctx context.Context, input checkoutsvc.OrderInput) (*checkoutsvc.OrderResult, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		var payload orderActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toOrderInput(payload.RestaurantID, orderID, payload.UserID, payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, input.OrderID.String())
		}

		result, err := action(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// OrderFulfill converts an order's reservations into committed sales.
func OrderFulfill(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "checkout service unavailable")
	}
	return orderAction(logg, svc.FulfillOrder)
}

// OrderCancel releases an order's reservations. Safe to repeat.
func OrderCancel(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "checkout service unavailable")
	}
	return orderAction(logg, svc.CancelOrder)
}

// OrderTransactions lists every ledger row attributed to an order, oldest
// first.
func OrderTransactions(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}

		transactions, err := svc.QueryByOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"order_id":     orderID,
			"transactions": toStockTransactionResponses(transactions),
		})
	}
}

func serviceUnavailable(logg *logger.Logger, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, msg))
	}
}
