package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StandardCustomerName is the display name of the seeded walk-in customer
const StandardCustomerName = "Standard Customer"

// Customer represents a buyer. Exactly one customer has IsStandard set and is
// used when a sale names no customer.
type Customer struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	DocumentNumber *string        `gorm:"size:50;unique" json:"document_number,omitempty"`
	Email          *string        `gorm:"size:255" json:"email,omitempty"`
	Phone          *string        `gorm:"size:50" json:"phone,omitempty"`
	Address        *string        `gorm:"type:text" json:"address,omitempty"`
	IsStandard     bool           `gorm:"not null;default:false;index" json:"is_standard"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
