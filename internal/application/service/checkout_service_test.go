package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/application/session"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/shopspring/decimal"
)

type fakeFinalizer struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	started chan struct{}
	err     error
}

func (f *fakeFinalizer) Finalize(_ context.Context, input *FinalizeInput) (*FinalizeResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FinalizeResult{Sale: &entity.Sale{ID: uuid.New(), OperatorID: input.OperatorID, PaymentMethod: input.PaymentMethod}}, nil
}

func (f *fakeFinalizer) PaymentEnabled(p enum.PaymentMethod) bool { return p == enum.PaymentCash }

func (f *fakeFinalizer) PaymentMethods() []enum.PaymentMethod {
	return []enum.PaymentMethod{enum.PaymentCash}
}

type fakeProducts map[uuid.UUID]*entity.Product

func (f fakeProducts) GetProduct(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFoundError("Product")
}

type fakeCustomers struct{ standard *entity.Customer }

func (f fakeCustomers) Resolve(_ context.Context, input *ResolveCustomerInput) (*entity.Customer, error) {
	if input.ID == nil && input.DocumentNumber == "" {
		return f.standard, nil
	}
	return nil, apperror.NewNotFoundError("Customer")
}

type fakeRate struct{ rate *entity.ExchangeRate }

func (f fakeRate) Current(_ context.Context) (*entity.ExchangeRate, error) {
	if f.rate == nil {
		return nil, apperror.NewNotFoundError("Exchange rate")
	}
	return f.rate, nil
}

func newCheckout(t *testing.T, fin *fakeFinalizer, sessions *session.Manager) (*CheckoutService, *entity.Product) {
	t.Helper()
	p := &entity.Product{ID: uuid.New(), Name: "Soap", Quantity: 2, SellingPrice: decimal.RequireFromString("0.5")}
	svc := NewCheckoutService(
		fin,
		fakeProducts{p.ID: p},
		fakeCustomers{standard: &entity.Customer{ID: uuid.New(), Name: entity.StandardCustomerName, IsStandard: true}},
		fakeRate{rate: &entity.ExchangeRate{Rate: decimal.NewFromInt(2000)}},
		sessions,
	)
	t.Cleanup(svc.Close)
	return svc, p
}

func TestCheckoutStateMachine(t *testing.T) {
	fin := &fakeFinalizer{}
	svc, p := newCheckout(t, fin, nil)
	sid, op := uuid.New(), uuid.New()
	ctx := context.Background()

	view, err := svc.View(sid, op)
	if err != nil || view.State != StateEmptyCart {
		t.Fatalf("expected EMPTY_CART, got %+v (%v)", view, err)
	}

	view, err = svc.AddItem(ctx, sid, op, p.ID)
	if err != nil || view.State != StateItemsSelected {
		t.Fatalf("expected ITEMS_SELECTED, got %+v (%v)", view, err)
	}
	if !view.Lines[0].UnitPrice.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected quoted price 1000, got %s", view.Lines[0].UnitPrice)
	}

	if _, err := svc.Submit(ctx, sid, op); !apperror.HasCode(err, http.StatusUnprocessableEntity) {
		t.Fatalf("expected 422 before customer and payment, got %v", err)
	}
	if fin.calls != 0 {
		t.Fatalf("finalizer called on invalid checkout")
	}

	view, err = svc.ResolveCustomer(ctx, sid, op, &ResolveCustomerInput{})
	if err != nil || view.State != StateCustomerResolved {
		t.Fatalf("expected CUSTOMER_RESOLVED, got %+v (%v)", view, err)
	}

	if _, err := svc.SelectPayment(sid, op, enum.PaymentCard); !apperror.HasCode(err, http.StatusUnprocessableEntity) {
		t.Fatalf("expected disabled payment rejected, got %v", err)
	}
	view, err = svc.SelectPayment(sid, op, enum.PaymentCash)
	if err != nil || view.State != StatePaymentSelected {
		t.Fatalf("expected PAYMENT_SELECTED, got %+v (%v)", view, err)
	}

	if _, err := svc.Submit(ctx, sid, op); err != nil {
		t.Fatalf("submit: %v", err)
	}
	view, _ = svc.View(sid, op)
	if view.State != StateCompleted || len(view.Lines) != 0 || view.Customer != nil || view.PaymentMethod != "" {
		t.Fatalf("expected cleared COMPLETED checkout, got %+v", view)
	}

	view, _ = svc.AddItem(ctx, sid, op, p.ID)
	if view.State != StateItemsSelected {
		t.Fatalf("expected a new cart after completion, got %s", view.State)
	}
}

func TestCheckoutFailedSubmitKeepsCart(t *testing.T) {
	fin := &fakeFinalizer{err: apperror.ErrNoExchangeRate}
	svc, p := newCheckout(t, fin, nil)
	sid, op := uuid.New(), uuid.New()
	ctx := context.Background()

	svc.AddItem(ctx, sid, op, p.ID)
	svc.ResolveCustomer(ctx, sid, op, &ResolveCustomerInput{})
	svc.SelectPayment(sid, op, enum.PaymentCash)

	if _, err := svc.Submit(ctx, sid, op); !errors.Is(err, apperror.ErrNoExchangeRate) {
		t.Fatalf("expected rate error, got %v", err)
	}
	view, _ := svc.View(sid, op)
	if view.State != StateFailed || len(view.Lines) != 1 || view.LastError == "" {
		t.Fatalf("expected FAILED with cart kept, got %+v", view)
	}

	view, _ = svc.SetQuantity(sid, op, p.ID, 2)
	if view.State != StatePaymentSelected {
		t.Fatalf("expected edit to clear FAILED, got %s", view.State)
	}
}

func TestCheckoutRejectsConcurrentSubmit(t *testing.T) {
	fin := &fakeFinalizer{release: make(chan struct{}), started: make(chan struct{}, 1)}
	svc, p := newCheckout(t, fin, nil)
	sid, op := uuid.New(), uuid.New()
	ctx := context.Background()

	svc.AddItem(ctx, sid, op, p.ID)
	svc.ResolveCustomer(ctx, sid, op, &ResolveCustomerInput{})
	svc.SelectPayment(sid, op, enum.PaymentCash)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, sid, op)
		done <- err
	}()
	<-fin.started

	if _, err := svc.Submit(ctx, sid, op); !errors.Is(err, apperror.ErrSubmitInProgress) {
		t.Fatalf("expected submit in progress, got %v", err)
	}
	if view, _ := svc.View(sid, op); view.State != StateSubmitting {
		t.Fatalf("expected SUBMITTING, got %s", view.State)
	}
	if _, err := svc.AddItem(ctx, sid, op, p.ID); !errors.Is(err, apperror.ErrSubmitInProgress) {
		t.Fatalf("expected cart locked while submitting, got %v", err)
	}

	close(fin.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if fin.calls != 1 {
		t.Fatalf("expected one finalize call, got %d", fin.calls)
	}
}

func TestCheckoutStockAndRateErrors(t *testing.T) {
	svc, p := newCheckout(t, &fakeFinalizer{}, nil)
	sid, op := uuid.New(), uuid.New()
	ctx := context.Background()

	svc.AddItem(ctx, sid, op, p.ID)
	svc.AddItem(ctx, sid, op, p.ID)
	if _, err := svc.AddItem(ctx, sid, op, p.ID); !apperror.HasCode(err, http.StatusConflict) {
		t.Fatalf("expected 409 past available stock, got %v", err)
	}

	if _, err := svc.View(sid, uuid.New()); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected another operator forbidden, got %v", err)
	}

	noRate := NewCheckoutService(&fakeFinalizer{}, fakeProducts{p.ID: p}, fakeCustomers{}, fakeRate{}, nil)
	if _, err := noRate.AddItem(ctx, uuid.New(), op, p.ID); !errors.Is(err, apperror.ErrNoExchangeRate) {
		t.Fatalf("expected no rate error, got %v", err)
	}
}

func TestCheckoutDiscardedWhenSessionEnds(t *testing.T) {
	sessions := session.NewManager(30 * time.Millisecond)
	defer sessions.Close()
	svc, p := newCheckout(t, &fakeFinalizer{}, sessions)
	ctx := context.Background()
	op := uuid.New()

	ended, _ := sessions.Start(op)
	svc.AddItem(ctx, ended, op, p.ID)
	if err := sessions.End(ended); err != nil {
		t.Fatalf("end: %v", err)
	}
	if svc.Active() != 0 {
		t.Fatalf("expected checkout discarded on logout")
	}

	idle, _ := sessions.Start(op)
	svc.AddItem(ctx, idle, op, p.ID)
	deadline := time.Now().Add(time.Second)
	for svc.Active() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("checkout not discarded after idle expiry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
