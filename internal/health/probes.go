package health

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourkin666/server-go/internal/cache"
	"github.com/yourkin666/server-go/internal/store"
)

// SentinelKeyPrefix and SentinelValue define the cache round-trip probe. Each
// invocation appends a fresh id to the prefix so concurrent checks never read
// or delete each other's sentinel.
const (
	SentinelKeyPrefix = "health_check_test"
	SentinelValue     = "ok"
)

// StoreChecker probes the persistent store with a trivial query.
type StoreChecker struct {
	name  string
	store store.Store
}

var _ Checker = (*StoreChecker)(nil)

func NewStoreChecker(name string, s store.Store) *StoreChecker {
	return &StoreChecker{name: name, store: s}
}

func (c *StoreChecker) Name() string { return c.name }

func (c *StoreChecker) Kind() string { return c.store.Kind() }

func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := c.store.Probe(ctx); err != nil {
		return Unhealthy("store probe failed", err)
	}
	return Healthy("store reachable")
}

// CacheChecker writes a sentinel, reads it back, compares and deletes it.
// All three steps must succeed and the value must match exactly.
type CacheChecker struct {
	name  string
	cache cache.Cache
}

var _ Checker = (*CacheChecker)(nil)

func NewCacheChecker(name string, c cache.Cache) *CacheChecker {
	return &CacheChecker{name: name, cache: c}
}

func (c *CacheChecker) Name() string { return c.name }

func (c *CacheChecker) Kind() string { return c.cache.Kind() }

func (c *CacheChecker) Check(ctx context.Context) Result {
	key := SentinelKeyPrefix + ":" + uuid.NewString()

	if err := c.cache.Insert(ctx, key, SentinelValue); err != nil {
		return Unhealthy("cache insert failed", err)
	}

	value, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		_ = c.cache.Remove(ctx, key)
		return Unhealthy("cache get failed", err)
	case !ok:
		return Unhealthy("cache lost sentinel", ErrValueMissing)
	case value != SentinelValue:
		_ = c.cache.Remove(ctx, key)
		return Unhealthy("cache returned wrong sentinel",
			fmt.Errorf("%w: got %q, want %q", ErrValueMismatch, value, SentinelValue))
	}

	if err := c.cache.Remove(ctx, key); err != nil {
		return Unhealthy("cache remove failed", err)
	}
	return Healthy("cache round trip ok")
}
