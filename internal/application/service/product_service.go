package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/sangkips/duka-pos/pkg/utils"
	"github.com/shopspring/decimal"
)

// ProductService handles product-related operations
type ProductService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	tx           repository.Transactor
	now          func() time.Time
}

// NewProductService creates a new product service
func NewProductService(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	tx repository.Transactor,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		tx:           tx,
		now:          utcNow,
	}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name          string
	Code          string
	Quantity      int
	QuantityAlert int
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
}

func validateProductFields(name string, qtyAlert int, purchase, selling decimal.Decimal) []apperror.FieldError {
	var errs []apperror.FieldError
	if strings.TrimSpace(name) == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if qtyAlert < 0 {
		errs = append(errs, apperror.FieldError{Field: "quantity_alert", Message: "Alert threshold cannot be negative"})
	}
	if purchase.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: "purchase_price", Message: "Price cannot be negative"})
	}
	if selling.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: "selling_price", Message: "Price cannot be negative"})
	}
	return errs
}

// CreateProduct creates a new product. Opening stock is set directly here;
// stock only changes through movements afterwards.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	errs := validateProductFields(input.Name, input.QuantityAlert, input.PurchasePrice, input.SellingPrice)
	if input.Quantity < 0 {
		errs = append(errs, apperror.FieldError{Field: "quantity", Message: "Quantity cannot be negative"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = utils.GenerateProductCode()
	}

	existing, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Product code already exists")
	}

	product := &entity.Product{
		Name:          strings.TrimSpace(input.Name),
		Code:          code,
		Quantity:      input.Quantity,
		QuantityAlert: input.QuantityAlert,
		PurchasePrice: input.PurchasePrice,
		SellingPrice:  input.SellingPrice,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts returns a paginated list of products
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(products, params.Pagination, total), nil
}

// UpdateProductInput represents the update product input. Nil fields are left unchanged.
type UpdateProductInput struct {
	ID            uuid.UUID
	Name          *string
	Code          *string
	QuantityAlert *int
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
}

// UpdateProduct updates product details. Stock is not editable here.
func (s *ProductService) UpdateProduct(ctx context.Context, input *UpdateProductInput) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.QuantityAlert != nil {
		product.QuantityAlert = *input.QuantityAlert
	}
	if input.PurchasePrice != nil {
		product.PurchasePrice = *input.PurchasePrice
	}
	if input.SellingPrice != nil {
		product.SellingPrice = *input.SellingPrice
	}
	if input.Code != nil && strings.TrimSpace(*input.Code) != product.Code {
		code := strings.TrimSpace(*input.Code)
		existing, err := s.productRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewConflictError("Product code already exists")
		}
		product.Code = code
	}

	if errs := validateProductFields(product.Name, product.QuantityAlert, product.PurchasePrice, product.SellingPrice); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// StockCheck is the answer to whether a product can supply more units
type StockCheck struct {
	ProductID  uuid.UUID `json:"product_id"`
	Requested  int       `json:"requested"`
	Available  int       `json:"available"`
	Sufficient bool      `json:"sufficient"`
}

// CheckStock reports whether requestedDelta more units can be taken from
// stock. A non-positive delta is always sufficient.
func (s *ProductService) CheckStock(ctx context.Context, productID uuid.UUID, requestedDelta int) (*StockCheck, error) {
	available, found, err := s.productRepo.GetStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NewNotFoundError("Product")
	}
	return &StockCheck{
		ProductID:  productID,
		Requested:  requestedDelta,
		Available:  available,
		Sufficient: requestedDelta <= 0 || available >= requestedDelta,
	}, nil
}

// AdjustStockInput represents a manual stock movement
type AdjustStockInput struct {
	ProductID  uuid.UUID
	OperatorID uuid.UUID
	Type       enum.StockMovementType
	Quantity   int
	Reason     string
}

// AdjustStock posts a manual_in or manual_out movement and returns the new stock.
func (s *ProductService) AdjustStock(ctx context.Context, input *AdjustStockInput) (*entity.StockLevel, error) {
	if !input.Type.IsManual() {
		return nil, apperror.NewFieldValidationError("type", "Type must be manual_in or manual_out")
	}
	if input.Quantity <= 0 {
		return nil, apperror.NewFieldValidationError("quantity", "Quantity must be greater than zero")
	}

	product, err := s.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	delta := input.Quantity
	if input.Type == enum.StockMovementManualOut {
		delta = -input.Quantity
	}

	var level *entity.StockLevel
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if delta > 0 {
			if err := s.productRepo.AtomicIncrementBatch(ctx, map[uuid.UUID]int{product.ID: delta}); err != nil {
				return err
			}
		} else {
			failed, err := s.productRepo.AtomicDecrementBatch(ctx, map[uuid.UUID]int{product.ID: -delta})
			if err != nil {
				return err
			}
			if len(failed) > 0 {
				available, _, err := s.productRepo.GetStock(ctx, product.ID)
				if err != nil {
					return err
				}
				return apperror.NewInsufficientStockError([]apperror.FieldError{
					shortageField(product.ID, product.Name, -delta, available),
				})
			}
		}

		if err := s.movementRepo.CreateBatch(ctx, []entity.StockMovement{{
			ProductID:  product.ID,
			Type:       input.Type,
			Delta:      delta,
			Reason:     strings.TrimSpace(input.Reason),
			OperatorID: input.OperatorID,
			CreatedAt:  s.now(),
		}}); err != nil {
			return err
		}

		qty, _, err := s.productRepo.GetStock(ctx, product.ID)
		if err != nil {
			return err
		}
		level = &entity.StockLevel{ProductID: product.ID, Quantity: qty}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

// ListMovements returns the stock history of a product, newest first
func (s *ProductService) ListMovements(ctx context.Context, productID uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.StockMovement], error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	params.Validate()
	movements, total, err := s.movementRepo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(movements, params, total), nil
}

// shortageField formats one insufficient-stock entry
func shortageField(productID uuid.UUID, name string, requested, available int) apperror.FieldError {
	return apperror.FieldError{
		Field:   productID.String(),
		Message: fmt.Sprintf("%s: requested %d, available %d", name, requested, available),
	}
}
