package ratelimit

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultPrefix namespaces limiter keys in the backing store.
const DefaultPrefix = "ratelimit"

// NewStore returns a Redis backed limiter store, or an in-process store when rdb is nil.
func NewStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	opts := limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute}
	if rdb == nil {
		return memory.NewStoreWithOptions(opts), nil
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, opts)
	if err != nil {
		return nil, fmt.Errorf("redis limiter store: %w", err)
	}
	return store, nil
}

// NewLimiter builds a limiter allowing perMinute requests per key each minute.
func NewLimiter(store limiter.Store, perMinute int) *limiter.Limiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return limiter.New(store, limiter.Rate{Period: time.Minute, Limit: int64(perMinute)})
}
