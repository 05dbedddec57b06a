package request

import "github.com/shopspring/decimal"

// CreateExchangeRateRequest records a new rate: quoted units per base unit
type CreateExchangeRateRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

// AddCartItemRequest adds one unit of a product to the checkout
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
}

// SetCartQuantityRequest sets a cart line quantity; zero removes it
type SetCartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// SetUnitPriceRequest overrides a quoted unit price
type SetUnitPriceRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SelectPaymentRequest chooses the payment method of a checkout
type SelectPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// EditSaleItemRequest is one desired line of an edited sale. UnitPrice is
// quoted at the sale's rate snapshot.
type EditSaleItemRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// EditSaleRequest is the complete desired line set of a sale
type EditSaleRequest struct {
	Items []EditSaleItemRequest `json:"items" binding:"dive"`
}

// SaleFilterRequest represents sale list filters
type SaleFilterRequest struct {
	CustomerID    string `form:"customer_id" binding:"omitempty,uuid"`
	OperatorID    string `form:"operator_id" binding:"omitempty,uuid"`
	PaymentMethod string `form:"payment_method"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
	Page          int    `form:"page"`
	PerPage       int    `form:"per_page"`
}

// RecordCashRequest is a manual cash ledger entry in the base currency
type RecordCashRequest struct {
	Type        string          `json:"type" binding:"required,oneof=income expense"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=255"`
}
