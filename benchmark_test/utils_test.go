package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/cardinal"
	"github.com/hupe1980/cardinal/testutil"
	"github.com/hupe1980/cardinal/values"
)

// buildShards creates numShards shards of two segments with docsPerShard
// random users each.
func buildShards(tb testing.TB, numShards, docsPerShard int) []cardinal.Shard {
	tb.Helper()
	rng := testutil.NewRNG(7)

	shards := make([]cardinal.Shard, numShards)
	for i := range shards {
		segs, err := testutil.StringSegments("user", rng.Strings(docsPerShard, docsPerShard/2, "user-"), 2)
		if err != nil {
			tb.Fatal(err)
		}
		shards[i].ID = i
		for _, seg := range segs {
			shards[i].Segments = append(shards[i].Segments, cardinal.ShardSegment{Segment: seg})
		}
	}
	return shards
}

// denseResult counts 50000 users starting at offset into one result.
func denseResult(tb testing.TB, offset int, opts ...cardinal.Option) *cardinal.Result {
	tb.Helper()
	b := values.NewSegmentBuilder(0)
	for i := 0; i < 50000; i++ {
		b.AddStrings(i, "user", fmt.Sprintf("user-%d", offset+i))
	}
	seg, err := b.Build()
	if err != nil {
		tb.Fatal(err)
	}

	agg, err := cardinal.New("users", values.NewBytesField("user"), opts...)
	if err != nil {
		tb.Fatal(err)
	}
	defer agg.Close()

	if err := agg.SetSegment(seg); err != nil {
		tb.Fatal(err)
	}
	for doc := 0; doc < seg.MaxDoc(); doc++ {
		if err := agg.Collect(doc, 0); err != nil {
			tb.Fatal(err)
		}
	}
	if err := agg.PostCollection(); err != nil {
		tb.Fatal(err)
	}
	return agg.BuildResult(0)
}
