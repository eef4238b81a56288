package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionDenylistPrefix = "hackauth:revoked:"

// RedisSessionDenylist remembers terminated access tokens by jti until they
// would have expired anyway.
type RedisSessionDenylist struct {
	client *redis.Client
}

func NewRedisSessionDenylist(client *redis.Client) *RedisSessionDenylist {
	return &RedisSessionDenylist{client: client}
}

func (d *RedisSessionDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, sessionDenylistPrefix+jti, "1", ttl).Err()
}

func (d *RedisSessionDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.client.Get(ctx, sessionDenylistPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
