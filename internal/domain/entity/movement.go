package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement records one signed change to a product's stock.
type StockMovement struct {
	ID          uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	ProductID   uuid.UUID              `gorm:"type:uuid;not null;index" json:"product_id"`
	Type        enum.StockMovementType `gorm:"size:20;not null" json:"type"`
	Delta       int                    `gorm:"not null" json:"delta"`
	Reason      string                 `gorm:"size:255" json:"reason,omitempty"`
	ReferenceID *uuid.UUID             `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	OperatorID  uuid.UUID              `gorm:"type:uuid;not null" json:"operator_id"`
	CreatedAt   time.Time              `gorm:"not null;index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

// CashMovement is an entry in the cash ledger. Amount is signed, in the base
// currency: positive for inflows, negative for outflows.
type CashMovement struct {
	ID          uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	Type        enum.CashMovementType `gorm:"size:20;not null" json:"type"`
	Amount      decimal.Decimal       `gorm:"type:numeric(18,6);not null" json:"amount"`
	Description string                `gorm:"size:255" json:"description,omitempty"`
	ReferenceID *uuid.UUID            `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	OperatorID  uuid.UUID             `gorm:"type:uuid;not null" json:"operator_id"`
	CreatedAt   time.Time             `gorm:"not null;index" json:"created_at"`
}

func (m *CashMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (CashMovement) TableName() string {
	return "cash_movements"
}
