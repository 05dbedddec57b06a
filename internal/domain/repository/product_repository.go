package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/pkg/pagination"
)

// ProductRepository defines the interface for product data operations.
// Stock changes on sale paths must go through the atomic batch methods.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	// GetByIDs retrieves multiple products by their IDs in a single query (prevents N+1)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// Update persists everything except quantity
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, params *ProductFilterParams) ([]entity.Product, int64, error)
	// GetStock returns the current quantity. Missing products return (0, false, nil).
	GetStock(ctx context.Context, id uuid.UUID) (int, bool, error)
	// GetStocks returns current quantities keyed by product id
	GetStocks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
	// SetStock overwrites the quantity. Admin corrections only.
	SetStock(ctx context.Context, id uuid.UUID, quantity int) error
	// AtomicDecrementBatch decrements stock for every product only where
	// quantity >= amount. If any product is short nothing is changed and the
	// short ids are returned with a nil error.
	AtomicDecrementBatch(ctx context.Context, decrements map[uuid.UUID]int) (failedIDs []uuid.UUID, err error)
	// AtomicIncrementBatch increments stock for multiple products (returns, edits, deletions).
	AtomicIncrementBatch(ctx context.Context, increments map[uuid.UUID]int) error
}

// ProductFilterParams contains filtering parameters for product queries
type ProductFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	LowStock   bool
	SortBy     string
	SortOrder  string
}
