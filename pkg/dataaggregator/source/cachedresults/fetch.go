package cachedresults

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// GetOrFetch returns the cached value for key when present and decodable, otherwise
// it calls fetch and caches the result for ttl. Failed fetches are never cached.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if cached, ok := c.Get(ctx, key); ok {
		var value T
		err := json.Unmarshal([]byte(cached), &value)
		if err == nil {
			c.recordHit()
			log.Debug().Str("key", key).Msg("Data retrieved from cache")

			return value, nil
		}

		log.Warn().Err(err).Str("key", key).Msg("Failed to decode cached data, fetching again")
	}

	c.recordMiss()

	value, err := fetch(ctx)
	if err != nil {
		c.recordError()
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to encode data for cache")
		return value, nil
	}

	if err := c.Put(ctx, key, string(encoded), ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to write data to cache")
	} else {
		log.Debug().Str("key", key).Str("ttl", c.boundTTL(ttl).String()).Msg("Data cached")
	}

	return value, nil
}
