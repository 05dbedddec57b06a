package repository

import (
	"context"

	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/pkg/pagination"
)

// ExchangeRateRepository is insert and read only. Records are never updated.
type ExchangeRateRepository interface {
	Create(ctx context.Context, rate *entity.ExchangeRate) error
	// GetLatest returns the newest record, or nil when none exists
	GetLatest(ctx context.Context) (*entity.ExchangeRate, error)
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.ExchangeRate, int64, error)
}
