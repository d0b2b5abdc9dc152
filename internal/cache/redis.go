// Package cache caches the static unit reference list in Redis.
// Availability is never cached: every range check reads current store
// state so two callers cannot act on stale windows.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rsolheim/unitbooking/config"
	"github.com/rsolheim/unitbooking/internal/domain"
)

type RedisCache struct {
	client   *redis.Client
	unitsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, unitsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		unitsTTL: unitsTTL,
	}
}

func (c *RedisCache) GetUnits(ctx context.Context) ([]domain.Unit, error) {
	data, err := c.client.Get(ctx, unitsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var units []domain.Unit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, err
	}
	return units, nil
}

func (c *RedisCache) SetUnits(ctx context.Context, units []domain.Unit) error {
	payload, err := json.Marshal(units)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, unitsKey(), payload, c.unitsTTL).Err()
}

func unitsKey() string {
	return "cache:units"
}
