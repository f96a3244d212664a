package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesaeats/mesa-backend/api/responses"
	alertsvc "github.com/mesaeats/mesa-backend/internal/alerts"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/logger"
)

// LowStockAlerts evaluates a restaurant's active inventory and returns the
// records at or below their minimum stock level. Alerts are derived on
// read, never stored.
func LowStockAlerts(svc alertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		restaurantID, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithRestaurantID(ctx, restaurantID.String())
		}

		alerts, err := svc.ScanRestaurant(ctx, restaurantID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"restaurant_id": restaurantID,
			"alerts":        alerts,
		})
	}
}
