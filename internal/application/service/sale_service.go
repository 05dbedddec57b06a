package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// StockChecker answers whether a product can supply more units
type StockChecker interface {
	CheckStock(ctx context.Context, productID uuid.UUID, requestedDelta int) (*StockCheck, error)
}

// RateSource supplies the rate used to convert money at the point of sale
type RateSource interface {
	CurrentForSale(ctx context.Context) (decimal.Decimal, error)
}

// SaleService finalizes, edits and deletes sales. Every write path runs in a
// single transaction.
type SaleService struct {
	tx           repository.Transactor
	saleRepo     repository.SaleRepository
	saleItemRepo repository.SaleItemRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	movementRepo repository.StockMovementRepository
	cashRepo     repository.CashMovementRepository
	rates        RateSource
	stock        StockChecker
	payments     enum.PaymentMethodSet
	receipt      ReceiptOptions
	now          func() time.Time
}

// SaleRepositories groups the storage dependencies of SaleService
type SaleRepositories struct {
	Sales     repository.SaleRepository
	SaleItems repository.SaleItemRepository
	Products  repository.ProductRepository
	Customers repository.CustomerRepository
	Users     repository.UserRepository
	Movements repository.StockMovementRepository
	Cash      repository.CashMovementRepository
}

// NewSaleService creates a new sale service
func NewSaleService(
	tx repository.Transactor,
	repos SaleRepositories,
	rates RateSource,
	stock StockChecker,
	payments enum.PaymentMethodSet,
	receipt ReceiptOptions,
) *SaleService {
	return &SaleService{
		tx:           tx,
		saleRepo:     repos.Sales,
		saleItemRepo: repos.SaleItems,
		productRepo:  repos.Products,
		customerRepo: repos.Customers,
		userRepo:     repos.Users,
		movementRepo: repos.Movements,
		cashRepo:     repos.Cash,
		rates:        rates,
		stock:        stock,
		payments:     payments,
		receipt:      receipt,
		now:          utcNow,
	}
}

// PaymentMethods returns the enabled payment methods
func (s *SaleService) PaymentMethods() []enum.PaymentMethod {
	return s.payments.List()
}

// PaymentEnabled reports whether the checkout accepts p
func (s *SaleService) PaymentEnabled(p enum.PaymentMethod) bool {
	return s.payments.Enabled(p)
}

// FinalizeLine is a cart line. UnitPrice is in the quoted currency.
type FinalizeLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// FinalizeInput represents a sale ready to be committed
type FinalizeInput struct {
	OperatorID    uuid.UUID
	CustomerID    *uuid.UUID
	PaymentMethod enum.PaymentMethod
	Lines         []FinalizeLine
}

// FinalizeResult is a committed sale with its receipt and the stock left
// on each sold product.
type FinalizeResult struct {
	Sale        *entity.Sale        `json:"sale"`
	Receipt     *entity.Receipt     `json:"receipt"`
	StockLevels []entity.StockLevel `json:"stock_levels"`
}

func (s *SaleService) validateFinalize(input *FinalizeInput) error {
	var errs []apperror.FieldError
	if len(input.Lines) == 0 {
		errs = append(errs, apperror.FieldError{Field: "items", Message: "Cart is empty"})
	}
	if input.PaymentMethod == "" {
		errs = append(errs, apperror.FieldError{Field: "payment_method", Message: "Payment method is required"})
	} else if !input.PaymentMethod.IsValid() || !s.payments.Enabled(input.PaymentMethod) {
		errs = append(errs, apperror.FieldError{Field: "payment_method", Message: fmt.Sprintf("Payment method %q is not enabled", input.PaymentMethod)})
	}
	for i, line := range input.Lines {
		if line.Quantity <= 0 {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "Quantity must be greater than zero"})
		}
		if line.UnitPrice.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("items[%d].unit_price", i), Message: "Unit price cannot be negative"})
		}
	}
	if len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}
	return nil
}

// Finalize commits a sale. The rate is fetched fresh from storage; without a
// valid rate nothing is written. Stock is taken with the conditional
// decrement, so a short product rolls the whole sale back.
func (s *SaleService) Finalize(ctx context.Context, input *FinalizeInput) (*FinalizeResult, error) {
	if err := s.validateFinalize(input); err != nil {
		return nil, err
	}

	rate, err := s.rates.CurrentForSale(ctx)
	if err != nil {
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	operator, err := s.userRepo.GetByID(ctx, input.OperatorID)
	if err != nil {
		return nil, err
	}
	if operator == nil {
		return nil, apperror.NewNotFoundError("Operator")
	}

	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	items := make([]entity.SaleItem, 0, len(input.Lines))
	decrements := make(map[uuid.UUID]int)
	for _, line := range input.Lines {
		product, ok := productMap[line.ProductID]
		if !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", line.ProductID))
		}
		base, err := currency.ToBase(line.UnitPrice, rate)
		if err != nil {
			return nil, apperror.ErrNoExchangeRate
		}
		items = append(items, entity.SaleItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: currency.RoundBase(base),
			Product:   product,
		})
		decrements[line.ProductID] += line.Quantity
	}

	soldAt := s.now()
	sale := &entity.Sale{
		OperatorID:    input.OperatorID,
		CustomerID:    &customer.ID,
		PaymentMethod: input.PaymentMethod,
		Total:         entity.ComputeTotal(items),
		RateSnapshot:  rate,
		SoldAt:        soldAt,
	}

	var levels []entity.StockLevel
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.takeStock(ctx, decrements, productMap); err != nil {
			return err
		}

		if err := s.saleRepo.Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		for i := range items {
			items[i].SaleID = sale.ID
		}
		if err := s.saleItemRepo.CreateBatch(ctx, items); err != nil {
			return fmt.Errorf("create sale items: %w", err)
		}

		movements := make([]entity.StockMovement, 0, len(decrements))
		for _, id := range productIDsInOrder(items) {
			movements = append(movements, s.stockMovement(id, enum.StockMovementSale, -decrements[id], "Sale", sale.ID, input.OperatorID))
		}
		if err := s.movementRepo.CreateBatch(ctx, movements); err != nil {
			return fmt.Errorf("record stock movements: %w", err)
		}

		if sale.PaymentMethod == enum.PaymentCash {
			if err := s.postCash(ctx, enum.CashMovementSale, sale.Total, "Cash sale", sale.ID, input.OperatorID); err != nil {
				return err
			}
		}

		levels, err = s.stockLevels(ctx, productIDsInOrder(items))
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, level := range levels {
		if p, ok := productMap[level.ProductID]; ok {
			p.Quantity = level.Quantity
		}
	}
	sale.Items = items
	sale.Customer = customer
	sale.Operator = operator

	return &FinalizeResult{
		Sale:        sale,
		Receipt:     BuildReceipt(sale, s.receipt),
		StockLevels: levels,
	}, nil
}

// GetSale returns a sale with items, customer and operator
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

// GetReceipt rebuilds the receipt of a persisted sale
func (s *SaleService) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildReceipt(sale, s.receipt), nil
}

// ListSales returns sales newest first
func (s *SaleService) ListSales(ctx context.Context, params *repository.SaleFilterParams) (*pagination.PaginatedResult[entity.Sale], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	sales, total, err := s.saleRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(sales, params.Pagination, total), nil
}

// CheckStock reports whether requestedDelta more units of a product are available
func (s *SaleService) CheckStock(ctx context.Context, productID uuid.UUID, requestedDelta int) (*StockCheck, error) {
	return s.stock.CheckStock(ctx, productID, requestedDelta)
}

// DeleteSale removes a sale and returns every unit to stock.
func (s *SaleService) DeleteSale(ctx context.Context, saleID, operatorID uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}

		items, err := s.saleItemRepo.GetBySaleID(ctx, saleID)
		if err != nil {
			return err
		}

		increments := make(map[uuid.UUID]int)
		for _, item := range items {
			increments[item.ProductID] += item.Quantity
		}
		if err := s.productRepo.AtomicIncrementBatch(ctx, increments); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}

		movements := make([]entity.StockMovement, 0, len(increments))
		for _, id := range productIDsInOrder(items) {
			movements = append(movements, s.stockMovement(id, enum.StockMovementSaleDelete, increments[id], "Sale deleted", saleID, operatorID))
		}
		if err := s.movementRepo.CreateBatch(ctx, movements); err != nil {
			return fmt.Errorf("record stock movements: %w", err)
		}

		if err := s.saleItemRepo.DeleteBySaleID(ctx, saleID); err != nil {
			return fmt.Errorf("delete sale items: %w", err)
		}
		if err := s.saleRepo.Delete(ctx, saleID); err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}

		if sale.PaymentMethod == enum.PaymentCash && !sale.Total.IsZero() {
			return s.postCash(ctx, enum.CashMovementSaleDelete, sale.Total.Neg(), "Sale deleted", saleID, operatorID)
		}
		return nil
	})
}

func (s *SaleService) resolveCustomer(ctx context.Context, id *uuid.UUID) (*entity.Customer, error) {
	if id != nil {
		customer, err := s.customerRepo.GetByID(ctx, *id)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, apperror.NewNotFoundError("Customer")
		}
		return customer, nil
	}

	customer, err := s.customerRepo.GetStandard(ctx)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.ErrNoStandardCustomer
	}
	return customer, nil
}

// takeStock applies decrements and turns a shortage into a 409 naming each
// short product with its available quantity.
func (s *SaleService) takeStock(ctx context.Context, decrements map[uuid.UUID]int, products map[uuid.UUID]*entity.Product) error {
	failed, err := s.productRepo.AtomicDecrementBatch(ctx, decrements)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if len(failed) == 0 {
		return nil
	}

	available, err := s.productRepo.GetStocks(ctx, failed)
	if err != nil {
		return err
	}
	shortages := make([]apperror.FieldError, 0, len(failed))
	for _, id := range failed {
		name := id.String()
		if p, ok := products[id]; ok && p != nil {
			name = p.Name
		}
		shortages = append(shortages, shortageField(id, name, decrements[id], available[id]))
	}
	return apperror.NewInsufficientStockError(shortages)
}

func (s *SaleService) stockLevels(ctx context.Context, ids []uuid.UUID) ([]entity.StockLevel, error) {
	stocks, err := s.productRepo.GetStocks(ctx, ids)
	if err != nil {
		return nil, err
	}
	levels := make([]entity.StockLevel, 0, len(ids))
	for _, id := range ids {
		levels = append(levels, entity.StockLevel{ProductID: id, Quantity: stocks[id]})
	}
	return levels, nil
}

func (s *SaleService) stockMovement(productID uuid.UUID, t enum.StockMovementType, delta int, reason string, saleID, operatorID uuid.UUID) entity.StockMovement {
	ref := saleID
	return entity.StockMovement{
		ProductID:   productID,
		Type:        t,
		Delta:       delta,
		Reason:      reason,
		ReferenceID: &ref,
		OperatorID:  operatorID,
		CreatedAt:   s.now(),
	}
}

func (s *SaleService) postCash(ctx context.Context, t enum.CashMovementType, amount decimal.Decimal, description string, saleID, operatorID uuid.UUID) error {
	ref := saleID
	if err := s.cashRepo.Create(ctx, &entity.CashMovement{
		Type:        t,
		Amount:      amount,
		Description: description,
		ReferenceID: &ref,
		OperatorID:  operatorID,
		CreatedAt:   s.now(),
	}); err != nil {
		return fmt.Errorf("post cash movement: %w", err)
	}
	return nil
}

// productIDsInOrder returns the distinct product ids of items in first-seen order
func productIDsInOrder(items []entity.SaleItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
