package repository

import (
	"context"
	"errors"

	"github.com/sangkips/duka-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"gorm.io/gorm"
)

type exchangeRateRepository struct {
	db *gorm.DB
}

// NewExchangeRateRepository creates a new exchange rate repository
func NewExchangeRateRepository(db *gorm.DB) domainRepo.ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

func (r *exchangeRateRepository) Create(ctx context.Context, rate *entity.ExchangeRate) error {
	return conn(ctx, r.db).Create(rate).Error
}

func (r *exchangeRateRepository) GetLatest(ctx context.Context) (*entity.ExchangeRate, error) {
	var rate entity.ExchangeRate
	err := conn(ctx, r.db).Order("created_at DESC").First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rate, err
}

func (r *exchangeRateRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.ExchangeRate, int64, error) {
	var rates []entity.ExchangeRate
	var total int64

	query := conn(ctx, r.db).Model(&entity.ExchangeRate{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params)).
		Preload("CreatedBy").
		Order("created_at DESC").
		Find(&rates).Error

	return rates, total, err
}
