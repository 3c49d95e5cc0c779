package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CartCache caches rendered carts under cart:{user_id}. Mutations only ever
// invalidate; the next read repopulates with the fixed TTL.
type CartCache struct{ RDB *redis.Client }

func (c *CartCache) Get(ctx context.Context, userID string) ([]byte, bool, error) {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyCart, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *CartCache) Set(ctx context.Context, userID string, body []byte) error {
	return c.RDB.Set(ctx, fmt.Sprintf(KeyCart, userID), body, TTLCart).Err()
}

func (c *CartCache) Invalidate(ctx context.Context, userID string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyCart, userID)).Err()
}
