package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotter stores the cart as JSON under cart:<session>. A zero TTL
// keeps the key until it is overwritten.
type RedisSnapshotter struct {
	client  redis.Cmdable
	session string
	ttl     time.Duration
}

func NewRedisSnapshotter(client redis.Cmdable, session string, ttl time.Duration) *RedisSnapshotter {
	return &RedisSnapshotter{client: client, session: session, ttl: ttl}
}

func (r *RedisSnapshotter) Load(ctx context.Context) ([]LineItem, error) {
	data, err := r.client.Get(ctx, cartKey(r.session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

func (r *RedisSnapshotter) Save(ctx context.Context, items []LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(r.session), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cartKey(session string) string {
	return fmt.Sprintf("cart:%s", session)
}
