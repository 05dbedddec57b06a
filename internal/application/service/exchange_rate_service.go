package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/duka-pos/internal/domain/entity"
	"github.com/sangkips/duka-pos/internal/domain/repository"
	"github.com/sangkips/duka-pos/internal/infrastructure/cache"
	"github.com/sangkips/duka-pos/pkg/apperror"
	"github.com/sangkips/duka-pos/pkg/currency"
	"github.com/sangkips/duka-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ExchangeRateService reads and records exchange rates
type ExchangeRateService struct {
	rateRepo  repository.ExchangeRateRepository
	rateCache cache.RateCache
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewExchangeRateService creates a new exchange rate service
func NewExchangeRateService(
	rateRepo repository.ExchangeRateRepository,
	rateCache cache.RateCache,
	cacheTTL time.Duration,
) *ExchangeRateService {
	if rateCache == nil {
		rateCache = cache.NoopRateCache{}
	}
	return &ExchangeRateService{
		rateRepo:  rateRepo,
		rateCache: rateCache,
		cacheTTL:  cacheTTL,
		now:       utcNow,
	}
}

// GetLatestRate returns the newest stored record, or nil when there is none.
func (s *ExchangeRateService) GetLatestRate(ctx context.Context) (*entity.ExchangeRate, error) {
	return s.rateRepo.GetLatest(ctx)
}

// Current returns the rate for display. It may be served from the cache and
// must not be used to convert money.
func (s *ExchangeRateService) Current(ctx context.Context) (*entity.ExchangeRate, error) {
	if rate, ok, err := s.rateCache.Get(ctx); err != nil {
		log.Printf("rate cache read failed: %v", err)
	} else if ok {
		return rate, nil
	}

	rate, err := s.rateRepo.GetLatest(ctx)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, apperror.NewNotFoundError("Exchange rate")
	}

	if err := s.rateCache.Set(ctx, rate, s.cacheTTL); err != nil {
		log.Printf("rate cache write failed: %v", err)
	}
	return rate, nil
}

// CurrentForSale reads the newest rate from storage, bypassing the cache.
// A missing or non-positive rate is a configuration error.
func (s *ExchangeRateService) CurrentForSale(ctx context.Context) (decimal.Decimal, error) {
	rate, err := s.rateRepo.GetLatest(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if rate == nil || !currency.ValidRate(rate.Rate) {
		return decimal.Zero, apperror.ErrNoExchangeRate
	}
	return rate.Rate, nil
}

// CreateExchangeRateInput represents a new rate entry
type CreateExchangeRateInput struct {
	Rate       decimal.Decimal
	OperatorID uuid.UUID
}

// Create records a new rate, which becomes current immediately.
func (s *ExchangeRateService) Create(ctx context.Context, input *CreateExchangeRateInput) (*entity.ExchangeRate, error) {
	// stored as numeric(18,6); round first so the cached copy matches storage
	value := currency.RoundRate(input.Rate)
	if !currency.ValidRate(value) {
		return nil, apperror.NewFieldValidationError("rate", "Rate must be greater than zero")
	}

	operatorID := input.OperatorID
	rate := &entity.ExchangeRate{
		Rate:        value,
		CreatedByID: &operatorID,
		CreatedAt:   s.now(),
	}
	if err := s.rateRepo.Create(ctx, rate); err != nil {
		return nil, err
	}

	if err := s.rateCache.Set(ctx, rate, s.cacheTTL); err != nil {
		log.Printf("rate cache refresh failed, invalidating: %v", err)
		_ = s.rateCache.Invalidate(ctx)
	}
	return rate, nil
}

// History returns rates newest first
func (s *ExchangeRateService) History(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.ExchangeRate], error) {
	params.Validate()
	rates, total, err := s.rateRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(rates, params, total), nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
