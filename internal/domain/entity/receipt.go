package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptHeader holds the store header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
}

// ReceiptLine is one product line, priced in the quoted currency.
type ReceiptLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Receipt is a value object built from a sale at finalization or print time.
// It is not persisted.
type Receipt struct {
	Header         ReceiptHeader   `json:"header"`
	ReceiptNo      string          `json:"receipt_no"`
	Date           time.Time       `json:"date"`
	Operator       string          `json:"operator,omitempty"`
	Customer       string          `json:"customer,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	Lines          []ReceiptLine   `json:"lines"`
	Rate           decimal.Decimal `json:"rate"`
	TotalQuoted    decimal.Decimal `json:"total_quoted"`
	TotalBase      decimal.Decimal `json:"total_base"`
	BaseCurrency   string          `json:"base_currency"`
	QuotedCurrency string          `json:"quoted_currency"`
}
