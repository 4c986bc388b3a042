//go:build integration

package memory

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestRedis(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	key := "intel:test:discoveries"
	require.NoError(t, client.Del(context.Background(), key).Err())
	return NewRedisStoreWithClient(client, key)
}

func TestIntegration_RedisStore(t *testing.T) {
	store := getTestRedis(t)
	defer store.Close()
	mem := New(store, Options{})
	ctx := context.Background()

	saved, err := mem.Save(ctx, record("NovelCo", "NovelCo"))
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = mem.Save(ctx, record("novelco inc", "NovelCo Inc"))
	require.NoError(t, err)
	assert.False(t, saved)

	_, err = mem.Save(ctx, record("Zynthex Labs", "Zynthex Labs"))
	require.NoError(t, err)

	all, err := mem.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "NovelCo", all[0].CanonicalName)

	rec, err := mem.Lookup(ctx, "ZYNTHEX LABS")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Zynthex Labs", rec.CanonicalName)
}
