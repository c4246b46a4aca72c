package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tuckshop-au/tuckshop/internal/auth/kv"
)

// setupRedisContainer starts a disposable redis server and returns a Store
// wired to it. Tests are skipped when Docker is unavailable.
func setupRedisContainer(t *testing.T) *Store {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker unavailable, skipping redis driver tests: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{
		Addr: fmt.Sprintf("%s:%s", host, mappedPort.Port()),
	})
	require.NoError(t, client.Ping(ctx).Err())

	store := NewFromClient(client)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Redis(t *testing.T) {
	s := setupRedisContainer(t)
	ctx := context.Background()

	t.Run("set get delete", func(t *testing.T) {
		require.NoError(t, s.SetWithTTL(ctx, "k1", "v1", time.Minute))

		v, err := s.Get(ctx, "k1")
		require.NoError(t, err)
		require.Equal(t, "v1", v)

		require.NoError(t, s.Delete(ctx, "k1"))

		_, err = s.Get(ctx, "k1")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("take consumes key", func(t *testing.T) {
		require.NoError(t, s.SetWithTTL(ctx, "take1", "v", time.Minute))

		v, err := s.Take(ctx, "take1")
		require.NoError(t, err)
		require.Equal(t, "v", v)

		_, err = s.Take(ctx, "take1")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("increment keeps initial window", func(t *testing.T) {
		n, err := s.Increment(ctx, "attempts1", time.Minute)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)

		n, err = s.Increment(ctx, "attempts1", time.Minute)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		ttl, err := s.client.TTL(ctx, "attempts1").Result()
		require.NoError(t, err)
		require.Greater(t, ttl, time.Duration(0), "counter must carry a TTL")
	})

	t.Run("short ttl expires", func(t *testing.T) {
		require.NoError(t, s.SetWithTTL(ctx, "short1", "v", 200*time.Millisecond))

		time.Sleep(400 * time.Millisecond)

		_, err := s.Get(ctx, "short1")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("sets", func(t *testing.T) {
		require.NoError(t, s.AddToSet(ctx, "sess1", "a", time.Minute))
		require.NoError(t, s.AddToSet(ctx, "sess1", "b", time.Minute))

		members, err := s.SetMembers(ctx, "sess1")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"a", "b"}, members)

		require.NoError(t, s.RemoveFromSet(ctx, "sess1", "a"))

		members, err = s.SetMembers(ctx, "sess1")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"b"}, members)
	})

	t.Run("prefix ops", func(t *testing.T) {
		require.NoError(t, s.SetWithTTL(ctx, "bl:aaa", "1", time.Minute))
		require.NoError(t, s.SetWithTTL(ctx, "bl:bbb", "1", time.Minute))
		require.NoError(t, s.SetWithTTL(ctx, "other:ccc", "1", time.Minute))

		n, err := s.CountPrefix(ctx, "bl:")
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		require.NoError(t, s.DeletePrefix(ctx, "bl:"))

		n, err = s.CountPrefix(ctx, "bl:")
		require.NoError(t, err)
		require.Zero(t, n)

		_, err = s.Get(ctx, "other:ccc")
		require.NoError(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})
}
