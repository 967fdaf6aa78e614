package cachedresults

import (
	"context"
	"errors"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocachestore "github.com/eko/gocache/store/go_cache/v4"
	redisstore "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/config"
	"github.com/travigo/livetreinen/pkg/metrics"
)

// Cache is a string key/value store with per entry expiry. Values are serialised JSON.
// Entries never live longer than config.MaxCacheTTL and the latest write always wins.
type Cache struct {
	Cache *cache.Cache[string]

	stats      *Stats
	defaultTTL time.Duration
}

func New(cacheStore store.StoreInterface, defaultTTL time.Duration) *Cache {
	return &Cache{
		Cache:      cache.New[string](cacheStore),
		stats:      NewStats(),
		defaultTTL: defaultTTL,
	}
}

func NewRedisCache(client *redis.Client, defaultTTL time.Duration) *Cache {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(defaultTTL))

	return New(redisStore, defaultTTL)
}

// NewMemoryCache keeps entries inside the process, used when no Redis is configured
func NewMemoryCache(defaultTTL time.Duration) *Cache {
	client := gocache.New(defaultTTL, 10*time.Minute)

	return New(gocachestore.NewGoCache(client), defaultTTL)
}

func (c *Cache) Stats() *Stats {
	return c.stats
}

// Get reports a missing entry and a failing store the same way, as absent
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.Cache.Get(ctx, key)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Cache lookup returned no value")
		return "", false
	}

	return value, true
}

func (c *Cache) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.Cache.Set(ctx, key, value, store.WithExpiration(c.boundTTL(ttl)))
}

func (c *Cache) Remove(ctx context.Context, key string) error {
	return c.Cache.Delete(ctx, key)
}

func (c *Cache) RemoveAll(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if err := c.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Cache) boundTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if ttl > config.MaxCacheTTL {
		ttl = config.MaxCacheTTL
	}

	return ttl
}

func (c *Cache) recordHit() {
	c.stats.hits.Add(1)
	metrics.CacheLookups.WithLabelValues("hit").Inc()
}

func (c *Cache) recordMiss() {
	c.stats.misses.Add(1)
	metrics.CacheLookups.WithLabelValues("miss").Inc()
}

func (c *Cache) recordError() {
	c.stats.errors.Add(1)
	metrics.CacheFetchErrors.Inc()
}
