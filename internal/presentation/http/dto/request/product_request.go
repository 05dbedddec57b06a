package request

import "github.com/shopspring/decimal"

// CreateProductRequest represents a product creation request. Prices are in
// the base currency.
type CreateProductRequest struct {
	Name          string          `json:"name" binding:"required,min=2,max=255"`
	Code          string          `json:"code" binding:"omitempty,max=100"`
	Quantity      int             `json:"quantity" binding:"min=0"`
	QuantityAlert int             `json:"quantity_alert" binding:"min=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
}

// UpdateProductRequest represents a product update request. Stock is changed
// through stock movements only.
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=2,max=255"`
	Code          *string          `json:"code" binding:"omitempty,min=1,max=100"`
	QuantityAlert *int             `json:"quantity_alert" binding:"omitempty,min=0"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
}

// AdjustStockRequest represents a manual stock movement
type AdjustStockRequest struct {
	Type     string `json:"type" binding:"required,oneof=manual_in manual_out"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Reason   string `json:"reason" binding:"max=255"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search    string `form:"search"`
	LowStock  bool   `form:"low_stock"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}
