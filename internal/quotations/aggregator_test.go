package quotations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joulek/Backend-mtr/internal/platform/cache"
	"github.com/joulek/Backend-mtr/internal/specrequests"
)

func numbersOf(refs []RequestRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Number)
	}
	return out
}

func TestListUnconvertedExcludesLinkedNumbers(t *testing.T) {
	requests := &fakeRequests{}
	store := &fakeStore{}
	owner := uuid.New()
	linked := requests.add(specrequests.KindCompression, "DDV250001", owner)
	requests.add(specrequests.KindTraction, "DDV250002", owner)

	store.items = append(store.items, Quotation{
		Number:              "DV2025-000001",
		SourceRequestNumber: "DDV259999",
		Links:               []Link{{RequestID: uuid.New(), RequestNumber: "ddv250001"}},
	})

	agg := NewAggregator(requests, store, nil, nil)
	refs, err := agg.ListUnconverted(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"DDV250002"}, numbersOf(refs))
	assert.NotContains(t, numbersOf(refs), linked.Number)
}

func TestListUnconvertedExcludesBySourceAndLinkIDs(t *testing.T) {
	requests := &fakeRequests{}
	store := &fakeStore{}
	owner := uuid.New()
	bySource := requests.add(specrequests.KindWire, "DDV250003", owner)
	byLink := requests.add(specrequests.KindGrid, "DDV250004", owner)
	requests.add(specrequests.KindOther, "DDV250005", owner)

	store.items = append(store.items,
		Quotation{Number: "DV2025-000001", SourceRequestID: bySource.ID},
		Quotation{Number: "DV2025-000002", SourceRequestID: uuid.New(), Links: []Link{{RequestID: byLink.ID, RequestNumber: "OLD-REF"}}},
	)

	refs, err := NewAggregator(requests, store, nil, nil).ListUnconverted(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"DDV250005"}, numbersOf(refs))
	assert.Equal(t, specrequests.KindOther, refs[0].Kind)
}

func TestListUnconvertedDedupSortAndBlankNumbers(t *testing.T) {
	requests := &fakeRequests{}
	owner := uuid.New()
	requests.add(specrequests.KindOther, "DDV2500010", owner)
	first := requests.add(specrequests.KindCompression, "DDV2500002", owner)
	requests.add(specrequests.KindTorsion, "DDV2500002", owner)
	requests.add(specrequests.KindWire, "  ", owner)
	requests.add(specrequests.KindTraction, "DDV2500001", owner)

	refs, err := NewAggregator(requests, &fakeStore{}, nil, nil).ListUnconverted(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"DDV2500001", "DDV2500002", "DDV2500010"}, numbersOf(refs))
	assert.Equal(t, first.ID, refs[1].ID)
	assert.Equal(t, specrequests.KindCompression, refs[1].Kind)
}

func TestListUnconvertedFilterAndLimit(t *testing.T) {
	requests := &fakeRequests{}
	owner := uuid.New()
	for i := 1; i <= 12; i++ {
		requests.add(specrequests.KindCompression, fmt.Sprintf("DDV25%05d", i), owner)
	}
	agg := NewAggregator(requests, &fakeStore{}, nil, nil)

	refs, err := agg.ListUnconverted(context.Background(), "ddv250001", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"DDV2500010", "DDV2500011", "DDV2500012"}, numbersOf(refs))

	refs, err = agg.ListUnconverted(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, refs, 5)
	assert.Equal(t, "DDV2500001", refs[0].Number)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultUnconvertedLimit, ClampLimit(0))
	assert.Equal(t, DefaultUnconvertedLimit, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, MaxUnconvertedLimit, ClampLimit(MaxUnconvertedLimit+1))
}

func TestListUnconvertedEmpty(t *testing.T) {
	refs, err := NewAggregator(&fakeRequests{}, &fakeStore{}, nil, nil).ListUnconverted(context.Background(), "", 0)
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestListUnconvertedPropagatesSearchErrors(t *testing.T) {
	requests := &fakeRequests{err: errors.New("connection refused")}
	_, err := NewAggregator(requests, &fakeStore{}, nil, nil).ListUnconverted(context.Background(), "", 0)
	require.Error(t, err)
}

func TestListUnconvertedCachedUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	requests := &fakeRequests{}
	owner := uuid.New()
	requests.add(specrequests.KindCompression, "DDV2500001", owner)
	agg := NewAggregator(requests, &fakeStore{}, cache.NewVersioned(client, "unconverted-test", time.Minute), nil)
	ctx := context.Background()

	refs, err := agg.ListUnconverted(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	requests.add(specrequests.KindCompression, "DDV2500002", owner)
	refs, err = agg.ListUnconverted(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	agg.Invalidate(ctx)
	refs, err = agg.ListUnconverted(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"DDV2500001", "DDV2500002"}, numbersOf(refs))
}

func TestListUnconvertedFallsBackWhenCacheDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	requests := &fakeRequests{}
	requests.add(specrequests.KindGrid, "DDV2500007", uuid.New())
	agg := NewAggregator(requests, &fakeStore{}, cache.NewVersioned(client, "down", time.Minute), nil)

	refs, err := agg.ListUnconverted(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"DDV2500007"}, numbersOf(refs))
}
