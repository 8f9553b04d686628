package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist marks revoked token ids in redis until their natural expiry.
type Denylist struct {
	R *redis.Client
}

func denyKey(tokenID string) string {
	return "auth:deny:" + tokenID
}

// Revoke marks the token id revoked until it would have expired anyway.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.R.Set(ctx, denyKey(tokenID), "1", ttl).Err()
}

// Contains reports whether the token id has been revoked.
func (d *Denylist) Contains(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.R.Exists(ctx, denyKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
