package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExchangeRate is an immutable record of how many quoted units buy one base unit.
// The newest record by CreatedAt is the current rate.
type ExchangeRate struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Rate        decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"rate"`
	CreatedByID *uuid.UUID      `gorm:"type:uuid;index" json:"created_by_id,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"created_at"`

	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

func (r *ExchangeRate) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}
