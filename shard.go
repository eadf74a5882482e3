package cardinal

import (
	"context"
	"runtime"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cardinal/values"
)

// ShardSegment is a segment together with its matching documents.
type ShardSegment struct {
	Segment values.Segment
	// Docs holds the matching document ids. Nil matches every document.
	Docs *roaring.Bitmap
}

// Shard is the ordered list of segments aggregated by one Aggregator.
type Shard struct {
	ID       int
	Segments []ShardSegment
}

// BucketFunc maps a matching document to its bucket ordinal.
type BucketFunc func(seg values.Segment, doc int) uint64

// ShardExecutor runs one aggregator per shard concurrently and reduces the
// shard results.
//
// Concurrency is bounded by the worker slots of the memory controller when
// one is configured, and by GOMAXPROCS otherwise.
type ShardExecutor struct {
	builder AggregationBuilder
	src     values.Source
	optFns  []Option
	opts    options
}

// NewShardExecutor prepares the execution of b over src.
func NewShardExecutor(b AggregationBuilder, src values.Source, opts ...Option) (*ShardExecutor, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	o.logger = o.logger.WithAggregation(b.Name())
	return &ShardExecutor{
		builder: b,
		src:     src,
		optFns:  opts,
		opts:    o,
	}, nil
}

// Execute aggregates every matching document into bucket 0 and returns the
// reduced result.
func (e *ShardExecutor) Execute(ctx context.Context, shards []Shard) (*Result, error) {
	results, err := e.ExecuteBuckets(ctx, shards, nil)
	if err != nil {
		return nil, err
	}
	if r, ok := results[0]; ok {
		return r, nil
	}
	return NewEmptyResult(e.builder.Name(), e.builder.metadata), nil
}

// ExecuteBuckets aggregates matching documents into the buckets chosen by fn
// and returns the reduced result per bucket. A nil fn puts every document
// into bucket 0.
func (e *ShardExecutor) ExecuteBuckets(ctx context.Context, shards []Shard, fn BucketFunc) (map[uint64]*Result, error) {
	perShard := make([]map[uint64]*Result, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	if e.opts.memory == nil {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}
	for i, shard := range shards {
		g.Go(func() error {
			if err := e.opts.memory.AcquireBackground(gctx); err != nil {
				return err
			}
			defer e.opts.memory.ReleaseBackground()

			results, docs, err := e.runShard(gctx, shard, fn)
			e.opts.logger.LogShard(gctx, shard.ID, len(shard.Segments), docs, err)
			if err != nil {
				return err
			}
			perShard[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := time.Now()
	merged, err := reduceBuckets(perShard)
	e.opts.metricsCollector.RecordMerge(time.Since(start), err)
	return merged, err
}

func (e *ShardExecutor) runShard(ctx context.Context, shard Shard, fn BucketFunc) (map[uint64]*Result, uint64, error) {
	agg, err := e.builder.Build(e.src, e.optFns...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = agg.Close() }()

	buckets := roaring64.New()
	var docs uint64

	for _, ss := range shard.Segments {
		if err := ctx.Err(); err != nil {
			return nil, docs, err
		}
		if err := agg.SetSegment(ss.Segment); err != nil {
			return nil, docs, err
		}

		matching := ss.Docs
		if matching == nil {
			matching = values.AllDocs(ss.Segment)
		}
		maxDoc := ss.Segment.MaxDoc()
		it := matching.Iterator()
		for it.HasNext() {
			doc := int(it.Next())
			if doc >= maxDoc {
				break
			}
			var bucket uint64
			if fn != nil {
				bucket = fn(ss.Segment, doc)
			}
			if err := agg.Collect(doc, bucket); err != nil {
				return nil, docs, err
			}
			buckets.Add(bucket)
			docs++
		}
	}
	if err := agg.PostCollection(); err != nil {
		return nil, docs, err
	}

	results := make(map[uint64]*Result, buckets.GetCardinality())
	bit := buckets.Iterator()
	for bit.HasNext() {
		b := bit.Next()
		results[b] = agg.BuildResult(b)
	}
	return results, docs, nil
}

func reduceBuckets(perShard []map[uint64]*Result) (map[uint64]*Result, error) {
	out := make(map[uint64]*Result)
	for _, results := range perShard {
		for b, r := range results {
			acc, ok := out[b]
			if !ok {
				out[b] = r
				continue
			}
			merged, err := acc.Merge(r)
			if err != nil {
				return nil, err
			}
			out[b] = merged
		}
	}
	return out, nil
}
