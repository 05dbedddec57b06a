package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/pkg/apperror"
)

func TestFinalizeConvertsAndTakesStock(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "2000")
	p := f.product(t, "SOAP", 5, "0.5")

	result, err := f.sales.Finalize(context.Background(), &FinalizeInput{
		OperatorID:    f.operator.ID,
		PaymentMethod: enum.PaymentCash,
		Lines:         []FinalizeLine{{ProductID: p.ID, Quantity: 2, UnitPrice: dec("1000")}},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if !result.Sale.Total.Equal(dec("1")) {
		t.Fatalf("expected total 1, got %s", result.Sale.Total)
	}
	if !result.Sale.RateSnapshot.Equal(dec("2000")) {
		t.Fatalf("expected rate snapshot 2000, got %s", result.Sale.RateSnapshot)
	}
	if result.Sale.CustomerID == nil || *result.Sale.CustomerID != f.standard.ID {
		t.Fatalf("expected standard customer, got %v", result.Sale.CustomerID)
	}
	if got := f.stock(t, p.ID); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
	if len(result.StockLevels) != 1 || result.StockLevels[0].Quantity != 3 {
		t.Fatalf("unexpected stock levels %+v", result.StockLevels)
	}

	items, err := f.itemRepo.GetBySaleID(context.Background(), result.Sale.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one stored item, got %d (%v)", len(items), err)
	}
	if !items[0].UnitPrice.Equal(dec("0.5")) || items[0].Quantity != 2 {
		t.Fatalf("unexpected stored item %+v", items[0])
	}

	r := result.Receipt
	if len(r.Lines) != 1 || !r.Lines[0].UnitPrice.Equal(dec("1000")) || !r.TotalQuoted.Equal(dec("2000")) {
		t.Fatalf("unexpected receipt %+v", r)
	}
	if r.Customer != entity.StandardCustomerName || r.Operator != f.operator.Name {
		t.Fatalf("unexpected receipt parties %q %q", r.Customer, r.Operator)
	}

	balance, err := f.cashRepo.Balance(context.Background())
	if err != nil || !balance.Equal(dec("1")) {
		t.Fatalf("expected cash balance 1, got %s (%v)", balance, err)
	}
}

func TestFinalizeWithoutRateWritesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "SOAP", 5, "0.5")

	_, err := f.sales.Finalize(context.Background(), &FinalizeInput{
		OperatorID:    f.operator.ID,
		PaymentMethod: enum.PaymentCash,
		Lines:         []FinalizeLine{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1000")}},
	})
	if !apperror.HasCode(err, http.StatusPreconditionFailed) {
		t.Fatalf("expected 412, got %v", err)
	}
	if n := f.count(t, &entity.Sale{}); n != 0 {
		t.Fatalf("expected no sales, got %d", n)
	}
	if got := f.stock(t, p.ID); got != 5 {
		t.Fatalf("stock changed to %d", got)
	}
}

func TestFinalizeInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "10")
	a := f.product(t, "A", 5, "1")
	b := f.product(t, "B", 1, "1")

	_, err := f.sales.Finalize(context.Background(), &FinalizeInput{
		OperatorID:    f.operator.ID,
		PaymentMethod: enum.PaymentCard,
		Lines: []FinalizeLine{
			{ProductID: a.ID, Quantity: 2, UnitPrice: dec("10")},
			{ProductID: b.ID, Quantity: 3, UnitPrice: dec("10")},
		},
	})
	appErr := apperror.GetAppError(err)
	if appErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	if len(appErr.Errors) != 1 || appErr.Errors[0].Field != b.ID.String() {
		t.Fatalf("expected one shortage for B, got %+v", appErr.Errors)
	}
	if f.stock(t, a.ID) != 5 || f.stock(t, b.ID) != 1 {
		t.Fatalf("stock not restored: a=%d b=%d", f.stock(t, a.ID), f.stock(t, b.ID))
	}
	if n := f.count(t, &entity.Sale{}); n != 0 {
		t.Fatalf("expected no sales, got %d", n)
	}
	if n := f.count(t, &entity.SaleItem{}); n != 0 {
		t.Fatalf("expected no sale items, got %d", n)
	}
	if n := f.count(t, &entity.StockMovement{}); n != 0 {
		t.Fatalf("expected no movements, got %d", n)
	}
}

func TestFinalizeValidation(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "10")
	p := f.product(t, "A", 5, "1")

	cases := map[string]*FinalizeInput{
		"empty cart": {OperatorID: f.operator.ID, PaymentMethod: enum.PaymentCash},
		"no payment": {OperatorID: f.operator.ID, Lines: []FinalizeLine{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1")}}},
		"disabled":   {OperatorID: f.operator.ID, PaymentMethod: enum.PaymentMobile, Lines: []FinalizeLine{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("1")}}},
		"zero qty":   {OperatorID: f.operator.ID, PaymentMethod: enum.PaymentCash, Lines: []FinalizeLine{{ProductID: p.ID, Quantity: 0, UnitPrice: dec("1")}}},
	}
	for name, input := range cases {
		if _, err := f.sales.Finalize(context.Background(), input); !apperror.HasCode(err, http.StatusUnprocessableEntity) {
			t.Fatalf("%s: expected 422, got %v", name, err)
		}
	}
	if f.stock(t, p.ID) != 5 {
		t.Fatalf("validation failure changed stock")
	}
}

func TestFinalizeUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "10")
	p := f.product(t, "A", 5, "1")
	missing := uuid.New()

	_, err := f.sales.Finalize(context.Background(), &FinalizeInput{
		OperatorID:    f.operator.ID,
		CustomerID:    &missing,
		PaymentMethod: enum.PaymentCash,
		Lines:         []FinalizeLine{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("10")}},
	})
	if !apperror.HasCode(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "4")
	a := f.product(t, "A", 5, "1")
	b := f.product(t, "B", 5, "2")

	result, err := f.sales.Finalize(context.Background(), &FinalizeInput{
		OperatorID:    f.operator.ID,
		PaymentMethod: enum.PaymentCash,
		Lines: []FinalizeLine{
			{ProductID: a.ID, Quantity: 2, UnitPrice: dec("4")},
			{ProductID: b.ID, Quantity: 5, UnitPrice: dec("8")},
		},
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if f.stock(t, b.ID) != 0 {
		t.Fatalf("expected B sold out")
	}

	if err := f.sales.DeleteSale(context.Background(), result.Sale.ID, f.operator.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.stock(t, a.ID) != 5 || f.stock(t, b.ID) != 5 {
		t.Fatalf("stock not restored: a=%d b=%d", f.stock(t, a.ID), f.stock(t, b.ID))
	}
	if n := f.count(t, &entity.SaleItem{}); n != 0 {
		t.Fatalf("expected items deleted, got %d", n)
	}
	if _, err := f.sales.GetSale(context.Background(), result.Sale.ID); !apperror.HasCode(err, http.StatusNotFound) {
		t.Fatalf("expected sale gone, got %v", err)
	}
	balance, _ := f.cashRepo.Balance(context.Background())
	if !balance.IsZero() {
		t.Fatalf("expected cash reversed, balance %s", balance)
	}

	if err := f.sales.DeleteSale(context.Background(), result.Sale.ID, f.operator.ID); !apperror.HasCode(err, http.StatusNotFound) {
		t.Fatalf("expected 404 on second delete, got %v", err)
	}
}

func TestConcurrentFinalizeSellsLastUnitOnce(t *testing.T) {
	f := newFixture(t)
	f.setRate(t, "10")
	p := f.product(t, "LAST", 1, "1")

	const buyers = 2
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.sales.Finalize(context.Background(), &FinalizeInput{
				OperatorID:    f.operator.ID,
				PaymentMethod: enum.PaymentCash,
				Lines:         []FinalizeLine{{ProductID: p.ID, Quantity: 1, UnitPrice: dec("10")}},
			})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var ok, short int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.HasCode(err, http.StatusConflict):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("expected one sale and one shortage, got %d and %d", ok, short)
	}
	if f.stock(t, p.ID) != 0 {
		t.Fatalf("expected stock 0, got %d", f.stock(t, p.ID))
	}
	if n := f.count(t, &entity.Sale{}); n != 1 {
		t.Fatalf("expected one sale row, got %d", n)
	}
}
