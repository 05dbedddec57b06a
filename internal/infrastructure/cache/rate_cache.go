package cache

import (
	"context"
	"time"

	"github.com/sangkips/duka-pos/internal/domain/entity"
)

// RateCacheKey is the single key under which the current rate is cached
const RateCacheKey = "duka:exchange_rate:current"

// RateCache holds the display copy of the current exchange rate.
// The point-of-sale path never reads from it.
type RateCache interface {
	Get(ctx context.Context) (*entity.ExchangeRate, bool, error)
	Set(ctx context.Context, rate *entity.ExchangeRate, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopRateCache struct{}

func (NoopRateCache) Get(_ context.Context) (*entity.ExchangeRate, bool, error) {
	return nil, false, nil
}

func (NoopRateCache) Set(_ context.Context, _ *entity.ExchangeRate, _ time.Duration) error {
	return nil
}

func (NoopRateCache) Invalidate(_ context.Context) error {
	return nil
}
