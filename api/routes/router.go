package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesaeats/mesa-backend/api/controllers"
	"github.com/mesaeats/mesa-backend/api/middleware"
	alertsvc "github.com/mesaeats/mesa-backend/internal/alerts"
	catalogsvc "github.com/mesaeats/mesa-backend/internal/catalog"
	checkoutsvc "github.com/mesaeats/mesa-backend/internal/checkout"
	inventorysvc "github.com/mesaeats/mesa-backend/internal/inventory"
	ledgersvc "github.com/mesaeats/mesa-backend/internal/ledger"
	"github.com/mesaeats/mesa-backend/pkg/config"
	"github.com/mesaeats/mesa-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router hands to controllers. Callers may
// leave the pingers nil to skip the matching readiness check.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        pinger
	Redis     pinger
	PubSub    pinger
	Inventory inventorysvc.Service
	Checkout  checkoutsvc.Service
	Ledger    ledgersvc.Service
	Alerts    alertsvc.Service
	Catalog   catalogsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis, deps.PubSub))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/reserve", controllers.OrderReserve(deps.Checkout, logg))
			r.Post("/{orderID}/fulfill", controllers.OrderFulfill(deps.Checkout, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(deps.Checkout, logg))
			r.Get("/{orderID}/transactions", controllers.OrderTransactions(deps.Ledger, logg))
		})

		r.Route("/restaurants/{restaurantID}", func(r chi.Router) {
			r.Get("/inventory/{barcode}", controllers.InventoryRecordFetch(deps.Inventory, logg))
			r.Post("/inventory/{barcode}/restock", controllers.InventoryRestock(deps.Inventory, logg))
			r.Get("/alerts/low-stock", controllers.LowStockAlerts(deps.Alerts, logg))
		})

		r.Route("/inventory/{recordID}", func(r chi.Router) {
			r.Get("/transactions", controllers.InventoryTransactions(deps.Ledger, logg))
			r.Get("/reconciliation", controllers.InventoryReconciliation(deps.Inventory, deps.Ledger, logg))
		})

		r.Get("/catalog/barcode/{barcode}", controllers.CatalogBarcodeLookup(deps.Catalog, logg))
	})

	return r
}
