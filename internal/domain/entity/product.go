package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable item and its stock on hand.
// Prices are in the base currency.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Code          string          `gorm:"size:100;unique;not null" json:"code"`
	Quantity      int             `gorm:"not null;default:0" json:"quantity"`
	QuantityAlert int             `gorm:"default:0" json:"quantity_alert"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"purchase_price"`
	SellingPrice  decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0" json:"selling_price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// IsLowStock reports whether stock is at or below the alert threshold
func (p *Product) IsLowStock() bool {
	return p.QuantityAlert > 0 && p.Quantity <= p.QuantityAlert
}

// StockLevel is a product's stock as observed after a write
type StockLevel struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}
