package cache

import (
	"context"
	"time"

	"optipos/internal/model"
)

// PriceListCache caches the assembled category→subcategory→item tree, the
// most frequently read and most expensive catalog query.
type PriceListCache interface {
	Get(ctx context.Context, key string) ([]model.PriceCategory, bool, error)
	Set(ctx context.Context, key string, value []model.PriceCategory, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NoopPriceListCache is used when no Redis instance is configured
type NoopPriceListCache struct{}

func (NoopPriceListCache) Get(_ context.Context, _ string) ([]model.PriceCategory, bool, error) {
	return nil, false, nil
}

func (NoopPriceListCache) Set(_ context.Context, _ string, _ []model.PriceCategory, _ time.Duration) error {
	return nil
}

func (NoopPriceListCache) Delete(_ context.Context, _ string) error {
	return nil
}
