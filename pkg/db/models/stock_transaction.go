package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaeats/mesa-backend/pkg/enums"
)

// StockTransaction records one immutable stock mutation. Rows are append-only:
// the audit trail is the only way past inventory state can be reconstructed.
// PreviousStock/NewStock snapshot the counter the entry mutates:
// current_stock for IN/OUT entries, reserved_stock for RESERVED/RELEASED.
type StockTransaction struct {
	ID                uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	InventoryRecordID uuid.UUID                  `gorm:"column:inventory_record_id;type:uuid;not null;index:ix_stock_transactions_record"`
	ProductID         uuid.UUID                  `gorm:"column:product_id;type:uuid;not null"`
	RestaurantID      uuid.UUID                  `gorm:"column:restaurant_id;type:uuid;not null"`
	Type              enums.StockTransactionType `gorm:"column:type;type:stock_transaction_type_enum;not null"`
	Quantity          int                        `gorm:"column:quantity;not null"`
	PreviousStock     int                        `gorm:"column:previous_stock;not null"`
	NewStock          int                        `gorm:"column:new_stock;not null"`
	Reason            string                     `gorm:"column:reason;not null"`
	OrderID           *uuid.UUID                 `gorm:"column:order_id;type:uuid;index:ix_stock_transactions_order"`
	UserID            uuid.UUID                  `gorm:"column:user_id;type:uuid;not null"`
	CreatedAt         time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the row id when the caller left it empty.
func (t *StockTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
