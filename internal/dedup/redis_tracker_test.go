package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTracker(t *testing.T, ttl time.Duration) (*RedisTracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTracker(client, ttl), mr
}

func TestRedisTrackerMarkAndCheck(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newRedisTracker(t, time.Hour)

	processed, err := tracker.AlreadyProcessed(ctx, "wamid.1")
	require.NoError(t, err)
	assert.False(t, processed)

	inserted, err := tracker.MarkProcessed(ctx, "wamid.1")
	require.NoError(t, err)
	assert.True(t, inserted)

	processed, err = tracker.AlreadyProcessed(ctx, "wamid.1")
	require.NoError(t, err)
	assert.True(t, processed)

	inserted, err = tracker.MarkProcessed(ctx, "wamid.1")
	require.NoError(t, err)
	assert.False(t, inserted, "second mark should report already present")
}

func TestRedisTrackerEntriesExpire(t *testing.T) {
	ctx := context.Background()
	tracker, mr := newRedisTracker(t, time.Minute)

	_, err := tracker.MarkProcessed(ctx, "wamid.expiring")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	processed, err := tracker.AlreadyProcessed(ctx, "wamid.expiring")
	require.NoError(t, err)
	assert.False(t, processed, "entry should expire after TTL")
}

func TestRedisTrackerPropagatesErrors(t *testing.T) {
	ctx := context.Background()
	tracker, mr := newRedisTracker(t, time.Minute)
	mr.Close()

	if _, err := tracker.AlreadyProcessed(ctx, "wamid.1"); err == nil {
		t.Error("expected error when redis is unreachable")
	}
	if _, err := tracker.MarkProcessed(ctx, "wamid.1"); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}
