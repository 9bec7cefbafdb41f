package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist tracks revoked token IDs until they would have expired anyway.
type TokenDenylist interface {
	Deny(ctx context.Context, tokenID string, ttl time.Duration) error
	IsDenied(ctx context.Context, tokenID string) (bool, error)
}

const denylistKeyPrefix = "auth:denylist:"

type redisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist builds a Redis-backed denylist.
func NewRedisDenylist(client *redis.Client) TokenDenylist {
	return &redisDenylist{client: client}
}

func (d *redisDenylist) Deny(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistKeyPrefix+tokenID, "1", ttl).Err()
}

func (d *redisDenylist) IsDenied(ctx context.Context, tokenID string) (bool, error) {
	res, err := d.client.Exists(ctx, denylistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return res > 0, nil
}
