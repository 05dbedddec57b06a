package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/enum"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	// GetWithDetails loads items with their products, the customer and the operator
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination    *pagination.PaginationParams
	CustomerID    *uuid.UUID
	OperatorID    *uuid.UUID
	PaymentMethod *enum.PaymentMethod
	StartDate     *time.Time
	EndDate       *time.Time
}

// SaleItemRepository defines the interface for sale item data operations
type SaleItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.SaleItem) error
	GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleItem, error)
	// Update persists quantity and unit price
	Update(ctx context.Context, item *entity.SaleItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySaleID(ctx context.Context, saleID uuid.UUID) error
}
