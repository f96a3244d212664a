package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaeats/mesa-backend/pkg/db/models"
)

type inventoryRecordResponse struct {
	ID             uuid.UUID       `json:"id"`
	RestaurantID   uuid.UUID       `json:"restaurant_id"`
	Barcode        string          `json:"barcode"`
	ProductID      uuid.UUID       `json:"product_id"`
	CurrentStock   int             `json:"current_stock"`
	ReservedStock  int             `json:"reserved_stock"`
	AvailableStock int             `json:"available_stock"`
	MinStockLevel  int             `json:"min_stock_level"`
	MaxStockLevel  int             `json:"max_stock_level"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	IsActive       bool            `json:"is_active"`
	Version        int64           `json:"version"`
	LastRestocked  *time.Time      `json:"last_restocked,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toInventoryRecordResponse(record models.InventoryRecord) inventoryRecordResponse {
	return inventoryRecordResponse{
		ID:             record.ID,
		RestaurantID:   record.RestaurantID,
		Barcode:        record.Barcode,
		ProductID:      record.ProductID,
		CurrentStock:   record.CurrentStock,
		ReservedStock:  record.ReservedStock,
		AvailableStock: record.AvailableStock,
		MinStockLevel:  record.MinStockLevel,
		MaxStockLevel:  record.MaxStockLevel,
		CostPrice:      record.CostPrice,
		SellingPrice:   record.SellingPrice,
		IsActive:       record.IsActive,
		Version:        record.Version,
		LastRestocked:  record.LastRestocked,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

type stockTransactionResponse struct {
	ID                uuid.UUID  `json:"id"`
	InventoryRecordID uuid.UUID  `json:"inventory_record_id"`
	ProductID         uuid.UUID  `json:"product_id"`
	RestaurantID      uuid.UUID  `json:"restaurant_id"`
	Type              string     `json:"type"`
	Quantity          int        `json:"quantity"`
	PreviousStock     int        `json:"previous_stock"`
	NewStock          int        `json:"new_stock"`
	Reason            string     `json:"reason"`
	OrderID           *uuid.UUID `json:"order_id,omitempty"`
	UserID            uuid.UUID  `json:"user_id"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toStockTransactionResponse(txn models.StockTransaction) stockTransactionResponse {
	return stockTransactionResponse{
		ID:                txn.ID,
		InventoryRecordID: txn.InventoryRecordID,
		ProductID:         txn.ProductID,
		RestaurantID:      txn.RestaurantID,
		Type:              string(txn.Type),
		Quantity:          txn.Quantity,
		PreviousStock:     txn.PreviousStock,
		NewStock:          txn.NewStock,
		Reason:            txn.Reason,
		OrderID:           txn.OrderID,
		UserID:            txn.UserID,
		CreatedAt:         txn.CreatedAt,
	}
}

func toStockTransactionResponses(txns []models.StockTransaction) []stockTransactionResponse {
	out := make([]stockTransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toStockTransactionResponse(txn))
	}
	return out
}
