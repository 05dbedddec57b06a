package entity

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/shopspring/decimal"
)

func newProduct(name string, stock int, price string) *Product {
	return &Product{
		ID:           uuid.New(),
		Name:         name,
		Quantity:     stock,
		SellingPrice: decimal.RequireFromString(price),
	}
}

func TestCartAddConvertsPrice(t *testing.T) {
	cart := NewCart()
	p := newProduct("Soap", 5, "0.5")

	if err := cart.Add(p, decimal.NewFromInt(2000)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	lines := cart.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if !lines[0].UnitPrice.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected quoted price 1000, got %s", lines[0].UnitPrice)
	}
	if lines[0].Quantity != 1 || lines[0].AvailableStock != 5 {
		t.Fatalf("unexpected line: %+v", lines[0])
	}
}

func TestCartAddSameProductIncrements(t *testing.T) {
	cart := NewCart()
	p := newProduct("Soap", 2, "1")
	rate := decimal.NewFromInt(10)

	for i := 0; i < 2; i++ {
		if err := cart.Add(p, rate); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}
	if cart.Len() != 1 || cart.Lines()[0].Quantity != 2 {
		t.Fatalf("expected one line at quantity 2, got %+v", cart.Lines())
	}

	err := cart.Add(p, rate)
	var shortage *StockShortage
	if !errors.As(err, &shortage) {
		t.Fatalf("expected StockShortage, got %v", err)
	}
	if shortage.Available != 2 {
		t.Fatalf("expected available 2, got %d", shortage.Available)
	}
}

func TestCartAddOutOfStock(t *testing.T) {
	cart := NewCart()
	var shortage *StockShortage
	if err := cart.Add(newProduct("Gone", 0, "1"), decimal.NewFromInt(1)); !errors.As(err, &shortage) {
		t.Fatalf("expected StockShortage, got %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatal("cart should stay empty")
	}
}

func TestCartAddRejectsMissingRate(t *testing.T) {
	cart := NewCart()
	if err := cart.Add(newProduct("Soap", 1, "1"), decimal.Zero); !errors.Is(err, currency.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestCartSetQuantityClamps(t *testing.T) {
	cart := NewCart()
	p := newProduct("Soap", 3, "1")
	_ = cart.Add(p, decimal.NewFromInt(1))

	got, err := cart.SetQuantity(p.ID, 10)
	if err != nil || got != 3 {
		t.Fatalf("expected clamp to 3, got %d (%v)", got, err)
	}

	got, err = cart.SetQuantity(p.ID, 0)
	if err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (%v)", got, err)
	}
	if !cart.IsEmpty() {
		t.Fatal("quantity 0 should remove the line")
	}

	if _, err := cart.SetQuantity(p.ID, 1); !errors.Is(err, ErrCartLineNotFound) {
		t.Fatalf("expected ErrCartLineNotFound, got %v", err)
	}
}

func TestCartSetUnitPrice(t *testing.T) {
	cart := NewCart()
	p := newProduct("Soap", 3, "1")
	_ = cart.Add(p, decimal.NewFromInt(1))

	if err := cart.SetUnitPrice(p.ID, decimal.NewFromInt(-1)); !errors.Is(err, ErrNegativePrice) {
		t.Fatalf("expected ErrNegativePrice, got %v", err)
	}
	if err := cart.SetUnitPrice(p.ID, decimal.Zero); err != nil {
		t.Fatalf("zero price should be accepted: %v", err)
	}
}

func TestCartSubtotalAndOrder(t *testing.T) {
	cart := NewCart()
	a := newProduct("A", 5, "2")
	b := newProduct("B", 5, "3")
	rate := decimal.NewFromInt(10)
	_ = cart.Add(a, rate)
	_ = cart.Add(b, rate)
	_, _ = cart.SetQuantity(a.ID, 2)

	if !cart.Subtotal().Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected subtotal 70, got %s", cart.Subtotal())
	}
	if !cart.Total().Equal(cart.Subtotal()) {
		t.Fatal("total should equal subtotal with zero tax")
	}

	if err := cart.Remove(a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	lines := cart.Lines()
	if len(lines) != 1 || lines[0].ProductID != b.ID {
		t.Fatalf("unexpected lines after remove: %+v", lines)
	}

	cart.Clear()
	if cart.Len() != 0 {
		t.Fatal("Clear should empty the cart")
	}
}
