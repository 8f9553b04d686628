package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a small JSON cache on redis used for dashboard aggregates.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

// GetJSON loads the cached value into dst. The second return value reports
// whether the key was present.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.R.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores the value under key with the cache TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key, raw, c.TTL).Err()
}

// Invalidate drops the key. Missing keys are not an error.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.R.Del(ctx, key).Err()
}
