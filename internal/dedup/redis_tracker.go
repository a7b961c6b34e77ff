package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// RedisTracker is a Tracker backed by Redis, for deployments that want the
// dedup window to survive restarts. Entries expire after the configured TTL
// instead of FIFO eviction.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisTracker creates a RedisTracker with the given entry TTL.
func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	if client == nil {
		panic("dedup: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisTracker{
		client: client,
		ttl:    ttl,
		prefix: "processed:",
	}
}

// AlreadyProcessed checks whether messageID is present and unexpired.
func (t *RedisTracker) AlreadyProcessed(ctx context.Context, messageID string) (bool, error) {
	n, err := t.client.Exists(ctx, t.prefix+messageID).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: check processed: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed inserts messageID with the configured TTL, returning false
// if it already existed.
func (t *RedisTracker) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	inserted, err := t.client.SetNX(ctx, t.prefix+messageID, "1", t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: mark processed: %w", err)
	}
	return inserted, nil
}
