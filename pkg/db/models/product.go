package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the canonical catalog descriptor resolved from a scanned
// barcode. Owned by the catalog collaborator; read-only for the
// inventory core.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Barcode   string          `gorm:"column:barcode;not null;uniqueIndex:ux_products_barcode"`
	Name      string          `gorm:"column:name;not null"`
	Brand     string          `gorm:"column:brand"`
	Unit      string          `gorm:"column:unit;not null;default:'unit'"`
	BasePrice decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	CostPrice decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the product id when the caller left it empty.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
