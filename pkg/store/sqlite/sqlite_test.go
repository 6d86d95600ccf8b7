package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracegen/tracegen/pkg/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	assert.True(t, s.HealthCheck(context.Background()))
}

func TestAddAndFetchRecentRoundTrips(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	rec := store.Record{
		TraceID:       "trace-1",
		RootService:   "checkout",
		RootOperation: "POST /cart",
		ScenarioName:  "checkout-flow",
		StatusOK:      false,
		ErrorType:     "timeout",
		SpanCount:     3,
		Duration:      250 * time.Millisecond,
		Timestamp:     time.Unix(1700000000, 0),
	}
	require.NoError(t, s.Add(ctx, rec))

	recs, err := s.FetchRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.TraceID, recs[0].TraceID)
	assert.Equal(t, rec.RootService, recs[0].RootService)
	assert.Equal(t, rec.ErrorType, recs[0].ErrorType)
	assert.Equal(t, rec.SpanCount, recs[0].SpanCount)
	assert.Equal(t, rec.Duration, recs[0].Duration)
	assert.False(t, recs[0].StatusOK)
	assert.True(t, recs[0].Timestamp.Equal(rec.Timestamp.UTC()))
}

func TestFetchRecentOrdersNewestFirstAndRespectsLimit(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Add(ctx, store.Record{TraceID: string(rune('a' + i))}))
	}

	recs, err := s.FetchRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "e", recs[0].TraceID)
	assert.Equal(t, "d", recs[1].TraceID)
}

func TestFetchRecentDefaultsLimitWhenNonPositive(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, store.Record{TraceID: "a"}))

	recs, err := s.FetchRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestAddStampsTimestampWhenZero(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, store.Record{TraceID: "a"}))

	recs, err := s.FetchRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Timestamp.IsZero())
}

func TestGetServiceNamesSortedAndDeduped(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, store.Record{RootService: "checkout"}))
	require.NoError(t, s.Add(ctx, store.Record{RootService: "payments"}))
	require.NoError(t, s.Add(ctx, store.Record{RootService: "checkout"}))

	names, err := s.GetServiceNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"checkout", "payments"}, names)
}

func TestCountErrorTraces(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, store.Record{StatusOK: true}))
	require.NoError(t, s.Add(ctx, store.Record{StatusOK: false}))
	require.NoError(t, s.Add(ctx, store.Record{StatusOK: false}))

	n, err := s.CountErrorTraces(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGetTraceCounts(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, store.Record{StatusOK: true}))
	require.NoError(t, s.Add(ctx, store.Record{StatusOK: false}))

	counts, err := s.GetTraceCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.TraceCounts{Total: 2, Errors: 1, Success: 1}, counts)
}

func TestCloseThenHealthCheckFails(t *testing.T) {
	t.Parallel()

	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.False(t, s.HealthCheck(context.Background()))
}
