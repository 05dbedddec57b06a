package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/shopspring/decimal"
)

var (
	ErrCartLineNotFound = errors.New("product is not in the cart")
	ErrNegativePrice    = errors.New("unit price cannot be negative")
)

// StockShortage reports that a product cannot supply the requested quantity.
type StockShortage struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *StockShortage) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

// CartItem is one transient line of the cart. UnitPrice is in the quoted
// currency and AvailableStock is the stock seen when the product was added.
type CartItem struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	AvailableStock int             `json:"available_stock"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return currency.LineTotal(i.Quantity, i.UnitPrice)
}

// Cart is an ordered collection of lines, at most one per product.
// It is not safe for concurrent use.
type Cart struct {
	lines []CartItem
}

func NewCart() *Cart {
	return &Cart{}
}

// TaxRate is applied to the subtotal. No tax is charged.
const TaxRate = 0

// Add puts one unit of product in the cart, priced at its selling price
// converted with rate. A product already in the cart has its quantity raised
// by one instead.
func (c *Cart) Add(product *Product, rate decimal.Decimal) error {
	if idx := c.indexOf(product.ID); idx >= 0 {
		line := &c.lines[idx]
		if line.Quantity >= line.AvailableStock {
			return &StockShortage{ProductID: product.ID, Name: product.Name, Requested: line.Quantity + 1, Available: line.AvailableStock}
		}
		line.Quantity++
		return nil
	}

	if product.Quantity <= 0 {
		return &StockShortage{ProductID: product.ID, Name: product.Name, Requested: 1, Available: product.Quantity}
	}

	price, err := currency.ToQuoted(product.SellingPrice, rate)
	if err != nil {
		return err
	}

	c.lines = append(c.lines, CartItem{
		ProductID:      product.ID,
		Name:           product.Name,
		AvailableStock: product.Quantity,
		Quantity:       1,
		UnitPrice:      price,
	})
	return nil
}

// SetQuantity clamps qty to [0, available stock] and returns the applied
// value. Zero removes the line.
func (c *Cart) SetQuantity(productID uuid.UUID, qty int) (int, error) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return 0, ErrCartLineNotFound
	}

	line := &c.lines[idx]
	if qty > line.AvailableStock {
		qty = line.AvailableStock
	}
	if qty <= 0 {
		c.removeAt(idx)
		return 0, nil
	}
	line.Quantity = qty
	return qty, nil
}

func (c *Cart) SetUnitPrice(productID uuid.UUID, price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrCartLineNotFound
	}
	c.lines[idx].UnitPrice = price
	return nil
}

func (c *Cart) Remove(productID uuid.UUID) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrCartLineNotFound
	}
	c.removeAt(idx)
	return nil
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []CartItem {
	out := make([]CartItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal is the quoted-currency sum of all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Total applies TaxRate to the subtotal.
func (c *Cart) Total() decimal.Decimal {
	sub := c.Subtotal()
	return sub.Add(sub.Mul(decimal.NewFromInt(TaxRate)))
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
}
