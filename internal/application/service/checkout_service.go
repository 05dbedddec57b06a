package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/application/session"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/shopspring/decimal"
)

// CheckoutState is the position of a checkout in the finalization workflow
type CheckoutState string

const (
	StateEmptyCart        CheckoutState = "EMPTY_CART"
	StateItemsSelected    CheckoutState = "ITEMS_SELECTED"
	StateCustomerResolved CheckoutState = "CUSTOMER_RESOLVED"
	StatePaymentSelected  CheckoutState = "PAYMENT_SELECTED"
	StateSubmitting       CheckoutState = "SUBMITTING"
	StateCompleted        CheckoutState = "COMPLETED"
	StateFailed           CheckoutState = "FAILED"
)

// SaleFinalizer commits a checkout
type SaleFinalizer interface {
	Finalize(ctx context.Context, input *FinalizeInput) (*FinalizeResult, error)
	PaymentEnabled(p enum.PaymentMethod) bool
	PaymentMethods() []enum.PaymentMethod
}

// ProductLookup loads a product for the cart
type ProductLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
}

// CustomerResolver finds the customer of a sale
type CustomerResolver interface {
	Resolve(ctx context.Context, input *ResolveCustomerInput) (*entity.Customer, error)
}

// DisplayRate supplies the rate used to price cart lines
type DisplayRate interface {
	Current(ctx context.Context) (*entity.ExchangeRate, error)
}

type checkout struct {
	mu         sync.Mutex
	operatorID uuid.UUID
	cart       *entity.Cart
	customer   *entity.Customer
	payment    enum.PaymentMethod
	submitting bool
	outcome    CheckoutState
	lastError  string
}

func (c *checkout) state() CheckoutState {
	switch {
	case c.submitting:
		return StateSubmitting
	case c.outcome != "":
		return c.outcome
	case c.cart.IsEmpty():
		return StateEmptyCart
	case c.customer == nil:
		return StateItemsSelected
	case c.payment == "":
		return StateCustomerResolved
	default:
		return StatePaymentSelected
	}
}

// touch clears a previous outcome once the operator changes the checkout again
func (c *checkout) touch() error {
	if c.submitting {
		return apperror.ErrSubmitInProgress
	}
	c.outcome = ""
	c.lastError = ""
	return nil
}

// CheckoutView is the checkout as shown to the operator
type CheckoutView struct {
	State          CheckoutState        `json:"state"`
	Lines          []entity.CartItem    `json:"lines"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	TaxRate        int                  `json:"tax_rate"`
	Total          decimal.Decimal      `json:"total"`
	Customer       *entity.Customer     `json:"customer,omitempty"`
	PaymentMethod  enum.PaymentMethod   `json:"payment_method,omitempty"`
	PaymentMethods []enum.PaymentMethod `json:"payment_methods"`
	LastError      string               `json:"last_error,omitempty"`
}

// CheckoutService keeps one checkout per operator session
type CheckoutService struct {
	sales     SaleFinalizer
	products  ProductLookup
	customers CustomerResolver
	rates     DisplayRate

	mu          sync.Mutex
	checkouts   map[uuid.UUID]*checkout
	unsubscribe func()
}

// NewCheckoutService creates a checkout service. When sessions is non-nil the
// checkout of an ended or expired session is discarded.
func NewCheckoutService(
	sales SaleFinalizer,
	products ProductLookup,
	customers CustomerResolver,
	rates DisplayRate,
	sessions *session.Manager,
) *CheckoutService {
	s := &CheckoutService{
		sales:     sales,
		products:  products,
		customers: customers,
		rates:     rates,
		checkouts: make(map[uuid.UUID]*checkout),
	}
	if sessions != nil {
		s.unsubscribe = sessions.Subscribe(s.onSessionEvent)
	}
	return s
}

// Close detaches the service from session events
func (s *CheckoutService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *CheckoutService) onSessionEvent(ev session.Event) {
	if ev.Type == session.EventEnded || ev.Type == session.EventExpired {
		if s.Discard(ev.SessionID) {
			log.Printf("Discarded checkout of %s session %s", ev.Type, ev.SessionID.String()[:8])
		}
	}
}

// Discard drops the checkout of a session. It reports whether one existed.
func (s *CheckoutService) Discard(sessionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.checkouts[sessionID]
	delete(s.checkouts, sessionID)
	return ok
}

// Active returns the number of open checkouts
func (s *CheckoutService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checkouts)
}

func (s *CheckoutService) get(sessionID, operatorID uuid.UUID) (*checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checkouts[sessionID]
	if !ok {
		c = &checkout{operatorID: operatorID, cart: entity.NewCart()}
		s.checkouts[sessionID] = c
	}
	if c.operatorID != operatorID {
		return nil, apperror.ErrForbidden
	}
	return c, nil
}

func (s *CheckoutService) view(c *checkout) *CheckoutView {
	return &CheckoutView{
		State:          c.state(),
		Lines:          c.cart.Lines(),
		Subtotal:       c.cart.Subtotal(),
		TaxRate:        entity.TaxRate,
		Total:          c.cart.Total(),
		Customer:       c.customer,
		PaymentMethod:  c.payment,
		PaymentMethods: s.sales.PaymentMethods(),
		LastError:      c.lastError,
	}
}

// withCheckout locks the session's checkout and runs fn on it
func (s *CheckoutService) withCheckout(sessionID, operatorID uuid.UUID, fn func(c *checkout) error) (*CheckoutView, error) {
	c, err := s.get(sessionID, operatorID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if fn != nil {
		if err := fn(c); err != nil {
			return nil, err
		}
	}
	return s.view(c), nil
}

// View returns the current checkout
func (s *CheckoutService) View(sessionID, operatorID uuid.UUID) (*CheckoutView, error) {
	return s.withCheckout(sessionID, operatorID, nil)
}

// AddItem adds one unit of a product, priced at the current display rate.
func (s *CheckoutService) AddItem(ctx context.Context, sessionID, operatorID, productID uuid.UUID) (*CheckoutView, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	rate, err := s.rates.Current(ctx)
	if err != nil {
		if apperror.HasCode(err, http.StatusNotFound) {
			return nil, apperror.ErrNoExchangeRate
		}
		return nil, err
	}

	return s.withCheckout(sessionID, operatorID, func(c *checkout) error {
		if err := c.touch(); err != nil {
			return err
		}
		return cartError(c.cart.Add(product, rate.Rate))
	})
}

// SetQuantity clamps qty to the line's available stock; zero removes the line.
func (s *CheckoutService) SetQuantity(sessionID, operatorID, productID uuid.UUID, qty int) (*CheckoutView, error) {
	return s.withCheckout(sessionID, operatorID, func(c *checkout) error {
		if err := c.touch(); err != nil {
			return err
		}
		_, err := c.cart.SetQuantity(productID, qty)
		return cartError(err)
	})
}

// SetUnitPrice overrides a line's quoted unit price
func (s *CheckoutService) SetUnitPrice(sessionID, operatorID, productID uuid.UUID, price decimal.Decimal) (*CheckoutView, error) {
	return s.withCheckout(sessionID, operatorID, func(c *checkout) error {
		if err := c.touch(); err != nil {
			return err
		}
		return cartError(c.cart.SetUnitPrice(productID, price))
	})
}

func (s *CheckoutService) RemoveItem(sessionID, operatorID, productID uuid.UUID) (*CheckoutView, error) {
	return s.withCheckout(sessionID, operatorID, func(c *checkout) error {
		if err := c.touch(); err != nil {
			return err
		}
		return cartError(c.cart.Remove(productID))
	})
}

// Clear empties the cart and forgets customer and payment
func (s *CheckoutService) Clear(sessionID, operatorID uuid.UUID) (*CheckoutView, error) {
	return s.withCheckout(sessionID, operatorID, func(c *checkout) error {
		if err := c.touch(); err != nil {
			return err
		}
		c.cart.Clear()
		c.customer = nil
		c.payment = ""
		return nil
	})
}

// ResolveCustomer attaches a customer. With no id or document the standard
// customer is used.
func (s *CheckoutService) ResolveCustomer(ctx context.Context, sessionID, operatorID uuid.UUID, input *ResolveCustomerInput) (*CheckoutView, error) {
	customer, err := s.customers.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.withCheckout(sessionID, operatorID, func(c *checkout) error {
		if err := c.touch(); err != nil {
			return err
		}
		c.customer = customer
		return nil
	})
}

// SelectPayment chooses an enabled payment method
func (s *CheckoutService) SelectPayment(sessionID, operatorID uuid.UUID, method enum.PaymentMethod) (*CheckoutView, error) {
	if !method.IsValid() || !s.sales.PaymentEnabled(method) {
		return nil, apperror.NewFieldValidationError("payment_method", "Payment method is not enabled")
	}
	return s.withCheckout(sessionID, operatorID, func(c *checkout) error {
		if err := c.touch(); err != nil {
			return err
		}
		c.payment = method
		return nil
	})
}

// Submit finalizes the checkout. A second submit while one is running fails
// with a conflict. On success the cart, customer and payment are cleared; on
// failure they are kept so the operator can retry.
func (s *CheckoutService) Submit(ctx context.Context, sessionID, operatorID uuid.UUID) (*FinalizeResult, error) {
	c, err := s.get(sessionID, operatorID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, apperror.ErrSubmitInProgress
	}
	if err := submitPreconditions(c); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	lines := c.cart.Lines()
	customerID := c.customer.ID
	input := &FinalizeInput{
		OperatorID:    operatorID,
		CustomerID:    &customerID,
		PaymentMethod: c.payment,
		Lines:         make([]FinalizeLine, 0, len(lines)),
	}
	for _, line := range lines {
		input.Lines = append(input.Lines, FinalizeLine{ProductID: line.ProductID, Quantity: line.Quantity, UnitPrice: line.UnitPrice})
	}
	c.submitting = true
	c.outcome = ""
	c.mu.Unlock()

	result, err := s.sales.Finalize(ctx, input)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		c.outcome = StateFailed
		c.lastError = err.Error()
		return nil, err
	}
	c.cart.Clear()
	c.customer = nil
	c.payment = ""
	c.outcome = StateCompleted
	return result, nil
}

func submitPreconditions(c *checkout) error {
	var errs []apperror.FieldError
	if c.cart.IsEmpty() {
		errs = append(errs, apperror.FieldError{Field: "items", Message: "Cart is empty"})
	}
	if c.customer == nil {
		errs = append(errs, apperror.FieldError{Field: "customer", Message: "Customer has not been resolved"})
	}
	if c.payment == "" {
		errs = append(errs, apperror.FieldError{Field: "payment_method", Message: "Payment method is required"})
	}
	if len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}
	return nil
}

// cartError maps cart failures to API errors
func cartError(err error) error {
	if err == nil {
		return nil
	}
	var shortage *entity.StockShortage
	switch {
	case errors.As(err, &shortage):
		return apperror.NewInsufficientStockError([]apperror.FieldError{
			shortageField(shortage.ProductID, shortage.Name, shortage.Requested, shortage.Available),
		})
	case errors.Is(err, entity.ErrCartLineNotFound):
		return apperror.NewNotFoundError("Cart line")
	case errors.Is(err, entity.ErrNegativePrice):
		return apperror.NewFieldValidationError("unit_price", "Unit price cannot be negative")
	case errors.Is(err, currency.ErrInvalidRate):
		return apperror.ErrNoExchangeRate
	default:
		return err
	}
}
