// Package cardinal estimates the number of distinct field values per bucket
// with HyperLogLog++ sketches.
//
// # Quick Start
//
//	seg, _ := values.NewSegmentBuilder(0).
//	    AddStrings(0, "user", "alice").
//	    AddStrings(1, "user", "bob", "alice").
//	    Build()
//
//	agg, _ := cardinal.NewAggregationBuilder("distinct_users").
//	    Field("user").
//	    Build(values.NewBytesField("user"))
//	defer agg.Close()
//
//	_ = agg.SetSegment(seg)
//	_ = agg.Collect(0, 0)
//	_ = agg.Collect(1, 0)
//	_ = agg.PostCollection()
//
//	fmt.Println(agg.BuildResult(0).Value()) // 2
//
// # Collector Strategies
//
// Each segment is collected with one of three strategies, chosen when the
// segment is set:
//
//   - empty: there is no values source or the segment has no values
//   - direct: every value is hashed into the sketch as it is collected
//   - ordinals: dictionary-encoded fields record ordinals per bucket in a
//     bitset and hash each distinct value once when the segment ends
//
// Ordinals are used when a bitset over the segment's dictionary costs less
// than a sketch bucket divided by the ordinal cost ratio
// (DefaultOrdinalCostRatio, see WithOrdinalCostRatio).
//
// # Results
//
// BuildResult copies one bucket into an immutable Result. Results of
// different shards combine with Merge or Reduce, travel between processes
// through MarshalBinary, and render as {"name":...,"value":N} JSON.
// ShardExecutor runs shards concurrently and does the reduction.
//
// # Precision
//
// Precision p uses 2^p one-byte registers per bucket and has a relative
// standard error of about 1.04/sqrt(2^p). AggregationBuilder derives p from
// a precision threshold; the default is 14 (16 KiB per bucket, ~0.81%).
//
// # Resources
//
// Register and bitset storage is accounted against an optional
// resource.Controller (WithMemoryController). Exceeding its limit fails
// fast with ErrMemoryLimitExceeded.
package cardinal
