package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaeats/mesa-backend/api/responses"
	catalogsvc "github.com/mesaeats/mesa-backend/internal/catalog"
	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
	"github.com/mesaeats/mesa-backend/pkg/logger"
)

type productResponse struct {
	ID        uuid.UUID       `json:"id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	Unit      string          `json:"unit"`
	BasePrice decimal.Decimal `json:"base_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CatalogBarcodeLookup resolves a scanned barcode to its catalog product.
func CatalogBarcodeLookup(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		barcode := chi.URLParam(r, "barcode")

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBarcode(ctx, barcode)
		}

		product, err := svc.LookupBarcode(ctx, barcode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, productResponse{
			ID:        product.ID,
			Barcode:   product.Barcode,
			Name:      product.Name,
			Brand:     product.Brand,
			Unit:      product.Unit,
			BasePrice: product.BasePrice,
			CostPrice: product.CostPrice,
			CreatedAt: product.CreatedAt,
			UpdatedAt: product.UpdatedAt,
		})
	}
}
