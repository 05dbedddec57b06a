package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// StockMovementRepository records stock changes. Rows are append only.
type StockMovementRepository interface {
	CreateBatch(ctx context.Context, movements []entity.StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, params *pagination.PaginationParams) ([]entity.StockMovement, int64, error)
	ListByReference(ctx context.Context, referenceID uuid.UUID) ([]entity.StockMovement, error)
}

// CashMovementRepository records cash ledger entries. Rows are append only.
type CashMovementRepository interface {
	Create(ctx context.Context, movement *entity.CashMovement) error
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.CashMovement, int64, error)
	// Balance sums every amount in the ledger
	Balance(ctx context.Context) (decimal.Decimal, error)
	ListByReference(ctx context.Context, referenceID uuid.UUID) ([]entity.CashMovement, error)
}
