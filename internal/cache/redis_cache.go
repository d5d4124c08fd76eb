package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"optipos/internal/model"
)

type RedisPriceListCache struct {
	client *redis.Client
}

func NewRedisPriceListCache(addr string, password string, db int) *RedisPriceListCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisPriceListCache{client: client}
}

func (c *RedisPriceListCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisPriceListCache) Close() error {
	return c.client.Close()
}

func (c *RedisPriceListCache) Get(ctx context.Context, key string) ([]model.PriceCategory, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var categories []model.PriceCategory
	if err := json.Unmarshal([]byte(val), &categories); err != nil {
		return nil, false, err
	}
	return categories, true, nil
}

func (c *RedisPriceListCache) Set(ctx context.Context, key string, value []model.PriceCategory, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisPriceListCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
