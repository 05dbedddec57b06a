package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/sangkips/duka-pos/internal/domain/entity"
)

type RedisRateCache struct {
	client *redis.Client
}

func NewRedisRateCache(addr string, password string, db int) *RedisRateCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisRateCache{client: client}
}

func (c *RedisRateCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisRateCache) Close() error {
	return c.client.Close()
}

func (c *RedisRateCache) Get(ctx context.Context) (*entity.ExchangeRate, bool, error) {
	val, err := c.client.Get(ctx, RateCacheKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rate entity.ExchangeRate
	if err := json.Unmarshal([]byte(val), &rate); err != nil {
		return nil, false, err
	}
	return &rate, true, nil
}

func (c *RedisRateCache) Set(ctx context.Context, rate *entity.ExchangeRate, ttl time.Duration) error {
	if rate == nil {
		return nil
	}
	payload, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, RateCacheKey, payload, ttl).Err()
}

func (c *RedisRateCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, RateCacheKey).Err()
}
