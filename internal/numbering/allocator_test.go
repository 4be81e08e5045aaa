package numbering

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisAllocator(t *testing.T, opts ...Option) (*Allocator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAllocator(NewRedisStore(client), opts...), mr
}

func fixedClock(year int) Option {
	return WithClock(func() time.Time {
		return time.Date(year, time.March, 1, 10, 0, 0, 0, time.UTC)
	})
}

func TestAllocateSequentialIsGapFree(t *testing.T) {
	alloc, _ := newRedisAllocator(t)
	ctx := context.Background()

	for want := int64(1); want <= 100; want++ {
		got, err := alloc.Allocate(ctx, 2025, FamilyRequest)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestAllocateConcurrentNeverRepeats(t *testing.T) {
	alloc, _ := newRedisAllocator(t)
	ctx := context.Background()

	const workers = 64
	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, workers)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := alloc.Allocate(ctx, 2025, FamilyQuotation)
			assert.NoError(t, err)
			mu.Lock()
			seen[seq] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		require.Contains(t, seen, i)
	}
}

func TestScopesAreIndependent(t *testing.T) {
	alloc, _ := newRedisAllocator(t)
	ctx := context.Background()

	a, err := alloc.Allocate(ctx, 2025, FamilyRequest)
	require.NoError(t, err)
	b, err := alloc.Allocate(ctx, 2025, FamilyQuotation)
	require.NoError(t, err)
	c, err := alloc.Allocate(ctx, 2026, FamilyRequest)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1}, []int64{a, b, c})
}

func TestNextFormatsPerFamily(t *testing.T) {
	alloc, mr := newRedisAllocator(t, fixedClock(2025))
	ctx := context.Background()
	require.NoError(t, mr.Set("seq:devis:2025", "6"))

	num, err := alloc.Next(ctx, FamilyRequest)
	require.NoError(t, err)
	assert.Equal(t, "DDV2500007", num)

	num, err = alloc.Next(ctx, FamilyQuotation)
	require.NoError(t, err)
	assert.Equal(t, "DV2025-000001", num)

	num, err = alloc.Next(ctx, FamilyReclamation)
	require.NoError(t, err)
	assert.Equal(t, "R2500001", num)

	_, err = alloc.Next(ctx, "invoice")
	require.ErrorIs(t, err, ErrUnknownFamily)
}

func TestPreviewNextDoesNotAllocate(t *testing.T) {
	alloc, _ := newRedisAllocator(t, fixedClock(2025))
	ctx := context.Background()

	preview, err := alloc.PreviewNext(ctx, FamilyQuotation)
	require.NoError(t, err)
	assert.Equal(t, "DV2025-000001", preview)

	again, err := alloc.PreviewNext(ctx, FamilyQuotation)
	require.NoError(t, err)
	assert.Equal(t, preview, again)

	num, err := alloc.Next(ctx, FamilyQuotation)
	require.NoError(t, err)
	assert.Equal(t, preview, num)

	preview, err = alloc.PreviewNext(ctx, FamilyQuotation)
	require.NoError(t, err)
	assert.Equal(t, "DV2025-000002", preview)
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingStore) Current(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestStorageFailureIsWrapped(t *testing.T) {
	alloc := NewAllocator(failingStore{})
	_, err := alloc.Next(context.Background(), FamilyRequest)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = alloc.PreviewNext(context.Background(), FamilyQuotation)
	require.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestAllocationCounterMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	alloc, _ := newRedisAllocator(t, WithRegisterer(reg))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := alloc.Allocate(ctx, 2025, FamilyRequest)
		require.NoError(t, err)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(alloc.allocated.WithLabelValues(FamilyRequest)))
}
