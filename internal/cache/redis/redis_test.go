package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests require a running Redis. Set CATALOG_TEST_REDIS_ADDR
// (e.g. "localhost:6379") to enable them.
func testClient(t *testing.T) *goredis.Client {
	t.Helper()

	addr := os.Getenv("CATALOG_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CATALOG_TEST_REDIS_ADDR not set; skipping Redis integration test")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func TestCache_ReadThroughAndInvalidate(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	// Unique prefix per run so parallel CI jobs do not collide.
	c := New[string](client, "catalogtest:"+uuid.New().String())

	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "desk", nil
	}

	got, err := c.Get(ctx, "product:1", time.Minute, []string{"Product"}, compute)
	require.NoError(t, err)
	assert.Equal(t, "desk", got)

	_, err = c.Get(ctx, "product:1", time.Minute, []string{"Product"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx, "Product"))

	_, err = c.Get(ctx, "product:1", time.Minute, []string{"Product"}, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "invalidation must force a recompute")

	require.NoError(t, c.Clear(ctx))
}

func TestCache_TTLExpiry(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	c := New[int](client, "catalogtest:"+uuid.New().String())

	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, err := c.Get(ctx, "k", time.Second, nil, compute)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	got, err := c.Get(ctx, "k", time.Second, nil, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	require.NoError(t, c.Clear(ctx))
}
