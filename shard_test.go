package cardinal

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/cardinal/resource"
	"github.com/hupe1980/cardinal/values"
)

func testShards(t *testing.T) []Shard {
	t.Helper()
	return []Shard{
		{ID: 0, Segments: []ShardSegment{
			{Segment: stringSegment(t, 0, "user", "a", "b")},
			{Segment: stringSegment(t, 1, "user", "c")},
		}},
		{ID: 1, Segments: []ShardSegment{
			{Segment: stringSegment(t, 0, "user", "c", "d")},
		}},
		{ID: 2, Segments: []ShardSegment{
			{Segment: stringSegment(t, 0, "user", "e", "a")},
		}},
	}
}

func TestShardExecutor_Execute(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mc := &BasicMetricsCollector{}
	e, err := NewShardExecutor(NewAggregationBuilder("users").Field("user"), values.NewBytesField("user"), WithMetrics(mc))
	require.NoError(t, err)

	r, err := e.Execute(context.Background(), testShards(t))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), r.Value())
	assert.Equal(t, "users", r.Name())

	stats := mc.GetStats()
	assert.Equal(t, int64(4), stats.SegmentCount)
	assert.Equal(t, int64(7), stats.DocCount)
	assert.Equal(t, int64(1), stats.MergeCount)
	assert.Equal(t, int64(0), stats.MergeErrors)
}

func TestShardExecutor_WorkerSlots(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rc := resource.NewController(resource.Config{MaxBackgroundWorkers: 2})
	e, err := NewShardExecutor(NewAggregationBuilder("users").Field("user"), values.NewBytesField("user"), WithMemoryController(rc))
	require.NoError(t, err)

	r, err := e.Execute(context.Background(), testShards(t))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), r.Value())
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.True(t, rc.TryAcquireBackground())
	rc.ReleaseBackground()
}

func TestShardExecutor_DocFilter(t *testing.T) {
	seg := stringSegment(t, 0, "user", "a", "b", "c", "d")
	shards := []Shard{{Segments: []ShardSegment{
		// Ids past MaxDoc are ignored.
		{Segment: seg, Docs: roaring.BitmapOf(0, 2, 10)},
	}}}

	e, err := NewShardExecutor(NewAggregationBuilder("users").Field("user"), values.NewBytesField("user"))
	require.NoError(t, err)

	r, err := e.Execute(context.Background(), shards)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.Value())

	shards[0].Segments[0].Docs = roaring.New()
	r, err = e.Execute(context.Background(), shards)
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
	assert.Equal(t, "users", r.Name())
}

func TestShardExecutor_Buckets(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e, err := NewShardExecutor(NewAggregationBuilder("users").Field("user"), values.NewBytesField("user"))
	require.NoError(t, err)

	// Even documents go to bucket 0, odd ones to bucket 1.
	byParity := func(_ values.Segment, doc int) uint64 { return uint64(doc % 2) }

	results, err := e.ExecuteBuckets(context.Background(), testShards(t), byParity)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Bucket 0: a, c, c, e; bucket 1: b, d, a.
	assert.Equal(t, uint64(3), results[0].Value())
	assert.Equal(t, uint64(3), results[1].Value())
}

func TestShardExecutor_NoShards(t *testing.T) {
	e, err := NewShardExecutor(NewAggregationBuilder("users").Field("user").Metadata(map[string]any{"k": 1}), values.NewBytesField("user"))
	require.NoError(t, err)

	r, err := e.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
	assert.Equal(t, map[string]any{"k": 1}, r.Metadata())
}

func TestShardExecutor_Errors(t *testing.T) {
	t.Run("invalid builder", func(t *testing.T) {
		_, err := NewShardExecutor(NewAggregationBuilder("users"), values.NewBytesField("user"))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("canceled", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

		e, err := NewShardExecutor(NewAggregationBuilder("users").Field("user"), values.NewBytesField("user"))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = e.Execute(ctx, testShards(t))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("bucket overflow", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

		e, err := NewShardExecutor(NewAggregationBuilder("users").Field("user"), values.NewBytesField("user"))
		require.NoError(t, err)

		huge := func(values.Segment, int) uint64 { return 1 << 40 }
		_, err = e.ExecuteBuckets(context.Background(), testShards(t), huge)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("memory limit", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

		rc := resource.NewController(resource.Config{MemoryLimitBytes: 64})
		e, err := NewShardExecutor(NewAggregationBuilder("users").Field("user"), values.WithoutOrdinals(values.NewBytesField("user")), WithMemoryController(rc))
		require.NoError(t, err)

		_, err = e.Execute(context.Background(), testShards(t))
		assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
		assert.Equal(t, int64(0), rc.MemoryUsage())
	})
}
