package sqlstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-escrow/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const orderCacheKeyPrefix = "go-escrow::order::v1"

// CachedOrderStore layers read-through caching over an order store. Writes
// go straight to the base store and invalidate the cached entry, so a read
// after a settlement always observes the terminal status.
type CachedOrderStore struct {
	base  core.OrderStore
	cache repositorycache.CacheService
}

func NewCachedOrderStore(base core.OrderStore, cacheService repositorycache.CacheService) (*CachedOrderStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base order store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: order cache service is required")
	}
	return &CachedOrderStore{base: base, cache: cacheService}, nil
}

// OrderCacheKey returns the deterministic cache key for an order read:
// go-escrow::order::v1::<id>.
func OrderCacheKey(id uint64) string {
	return orderCacheKeyPrefix + "::" + strconv.FormatUint(id, 10)
}

func (s *CachedOrderStore) Create(ctx context.Context, order core.Order) (core.Order, error) {
	if s == nil || s.base == nil {
		return core.Order{}, fmt.Errorf("sqlstore: cached order store is not configured")
	}
	return s.base.Create(ctx, order)
}

func (s *CachedOrderStore) Get(ctx context.Context, id uint64) (core.Order, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Order{}, fmt.Errorf("sqlstore: cached order store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, OrderCacheKey(id), func(ctx context.Context) (core.Order, error) {
		return s.base.Get(ctx, id)
	})
}

func (s *CachedOrderStore) UpdateStatus(ctx context.Context, id uint64, from, to core.OrderStatus) (core.Order, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Order{}, fmt.Errorf("sqlstore: cached order store is not configured")
	}
	updated, err := s.base.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return core.Order{}, err
	}
	if err := s.cache.Delete(ctx, OrderCacheKey(id)); err != nil {
		return core.Order{}, err
	}
	return updated, nil
}

// List always hits the base store; list shapes are unbounded and the cache
// only keys single orders.
func (s *CachedOrderStore) List(ctx context.Context, input core.ListOrdersInput) ([]core.Order, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached order store is not configured")
	}
	return s.base.List(ctx, input)
}
