package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryRecord tracks physical stock for one barcode at one restaurant.
// Invariant for every committed row: available_stock == current_stock - reserved_stock,
// and all three counters are non-negative. Mutations go through the
// reservation manager only; rows are soft-disabled, never deleted, so ledger
// entries stay attributable.
type InventoryRecord struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RestaurantID  uuid.UUID `gorm:"column:restaurant_id;type:uuid;not null;uniqueIndex:ux_inventory_restaurant_barcode"`
	Barcode       string    `gorm:"column:barcode;not null;uniqueIndex:ux_inventory_restaurant_barcode"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	CurrentStock  int       `gorm:"column:current_stock;not null;default:0"`
	ReservedStock int       `gorm:"column:reserved_stock;not null;default:0"`
	// AvailableStock is denormalized for query paths; the reservation
	// manager keeps it equal to current_stock - reserved_stock.
	AvailableStock int             `gorm:"column:available_stock;not null;default:0"`
	MinStockLevel  int             `gorm:"column:min_stock_level;not null;default:0"`
	MaxStockLevel  int             `gorm:"column:max_stock_level;not null;default:0"`
	CostPrice      decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`
	SellingPrice   decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	// Version is the optimistic concurrency counter compared at write time.
	Version       int64      `gorm:"column:version;not null;default:0"`
	LastRestocked *time.Time `gorm:"column:last_restocked"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the record id when the caller left it empty.
func (r *InventoryRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// InvariantHolds reports whether the three stock counters satisfy the
// core accounting identity.
func (r InventoryRecord) InvariantHolds() bool {
	return r.AvailableStock == r.CurrentStock-r.ReservedStock &&
		r.CurrentStock >= 0 && r.ReservedStock >= 0 && r.AvailableStock >= 0
}
