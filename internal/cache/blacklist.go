package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by writes that need Redis when none is configured.
var ErrUnavailable = errors.New("redis not configured")

// Revoke blacklists a token id until ttl elapses.
func Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil {
		return ErrUnavailable
	}
	if ttl <= 0 {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was blacklisted. Without Redis nothing is.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
