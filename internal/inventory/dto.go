package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaeats/mesa-backend/pkg/db/models"
)

// ReservationInput identifies one stock movement tied to an order.
type ReservationInput struct {
	RestaurantID uuid.UUID
	Barcode      string
	Quantity     int
	OrderID      uuid.UUID
	UserID       uuid.UUID
	// Reason overrides the default reason code recorded on the ledger row.
	Reason string
}

// RestockInput describes an inbound stock delivery. Prices are only consulted
// when the delivery creates the inventory record; afterwards pricing is
// managed separately.
type RestockInput struct {
	RestaurantID uuid.UUID
	Barcode      string
	Quantity     int
	UserID       uuid.UUID
	Reason       string
	CostPrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
}

// MutationResult carries the post-mutation record plus the ledger row the
// mutation appended.
type MutationResult struct {
	Record      models.InventoryRecord
	Transaction models.StockTransaction
}

// stockEventData is the outbox payload shared by all stock events.
type stockEventData struct {
	RestaurantID   uuid.UUID  `json:"restaurantId"`
	Barcode        string     `json:"barcode"`
	ProductID      uuid.UUID  `json:"productId"`
	OrderID        *uuid.UUID `json:"orderId,omitempty"`
	Quantity       int        `json:"quantity"`
	CurrentStock   int        `json:"currentStock"`
	ReservedStock  int        `json:"reservedStock"`
	AvailableStock int        `json:"availableStock"`
	Reason         string     `json:"reason"`
}
