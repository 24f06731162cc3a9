package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// StoreLimiter applies fixed-window limits through a ulule/limiter store.
type StoreLimiter struct {
	Store limiter.Store
}

// NewMemoryLimiter keeps counters in process memory.
func NewMemoryLimiter(prefix string) StoreLimiter {
	return StoreLimiter{Store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})}
}

// NewRedisLimiter keeps counters in Redis so limits hold across instances.
func NewRedisLimiter(client *redis.Client, prefix string) (StoreLimiter, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return StoreLimiter{}, err
	}
	return StoreLimiter{Store: store}, nil
}

// Allow counts one event for key against max per window.
func (l StoreLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if l.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lim := limiter.New(l.Store, limiter.Rate{Period: window, Limit: int64(max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}
