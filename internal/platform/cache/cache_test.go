package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Versioned {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "test", time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	key, err := c.BuildKey(ctx, "list", "all")
	require.NoError(t, err)
	require.Equal(t, "test:list:all:v1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []string{"DDV2500001"}, nil
	}

	var first, second []string
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, []string{"DDV2500001"}, second)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestBumpChangesKeys(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	before, err := c.BuildKey(ctx, "x")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.BuildKey(ctx, "x")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestNilClientCallsLoaderEveryTime(t *testing.T) {
	ctx := context.Background()
	c := NewVersioned(nil, "noop", time.Minute)
	calls := 0
	var out map[string]int
	for i := 0; i < 2; i++ {
		require.NoError(t, c.FetchJSON(ctx, "k", &out, func(context.Context) (any, error) {
			calls++
			return map[string]int{"n": calls}, nil
		}))
	}
	require.Equal(t, 2, calls)
	require.Equal(t, 2, out["n"])
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := New(context.Background(), addr)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = New(context.Background(), addr)
	require.ErrorContains(t, err, "platform/cache: ping")
}
