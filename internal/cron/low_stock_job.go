package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mesaeats/mesa-backend/internal/alerts"
	"github.com/mesaeats/mesa-backend/internal/inventory"
	"github.com/mesaeats/mesa-backend/pkg/enums"
	"github.com/mesaeats/mesa-backend/pkg/logger"
	"github.com/mesaeats/mesa-backend/pkg/outbox"
)

// txRunner is the transactional surface jobs need from pkg/db.Client.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LowStockJobParams configure the low-stock scan job.
type LowStockJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Inventory inventory.Repository
	Alerts    alerts.Service
	Outbox    *outbox.Service
}

// NewLowStockJob builds the job that scans every restaurant for stock alerts
// and emits inventory.low_stock events for the critical ones.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &lowStockJob{
		logg:      params.Logger,
		db:        params.DB,
		inventory: params.Inventory,
		alerts:    params.Alerts,
		outbox:    params.Outbox,
	}, nil
}

type lowStockJob struct {
	logg      *logger.Logger
	db        txRunner
	inventory inventory.Repository
	alerts    alerts.Service
	outbox    *outbox.Service
}

func (j *lowStockJob) Name() string { return "low-stock-scan" }

// Run scans restaurant by restaurant so one broken restaurant cannot stall
// the rest; per-restaurant failures are aggregated and reported at the end.
func (j *lowStockJob) Run(ctx context.Context) error {
	restaurantIDs, err := j.inventory.ListActiveRestaurantIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing restaurants: %w", err)
	}

	var errs error
	scanned, emitted := 0, 0
	for _, restaurantID := range restaurantIDs {
		found, err := j.alerts.ScanRestaurant(ctx, restaurantID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("restaurant %s: %w", restaurantID, err))
			continue
		}
		scanned++

		for _, alert := range found {
			if alert.Severity != enums.StockAlertSeverityCritical {
				continue
			}
			err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
				return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventInventoryLow,
					AggregateType: enums.AggregateInventoryRecord,
					AggregateID:   alert.InventoryRecordID,
					Data:          alert,
					Version:       1,
				})
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("restaurant %s barcode %s: %w", restaurantID, alert.Barcode, err))
				continue
			}
			emitted++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"restaurants_scanned": scanned,
		"events_emitted":      emitted,
	})
	j.logg.Info(logCtx, "low stock scan complete")
	return errs
}
