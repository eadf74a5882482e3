package cardinal

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
// The prom package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordSegment is called after a segment has been collected.
	// strategy is the collector used, duration the time from SetSegment to
	// the end of its post-collection.
	RecordSegment(strategy string, duration time.Duration)

	// RecordCollect is called for each collected document with the number
	// of values it contributed.
	RecordCollect(values int)

	// RecordResult is called after each BuildResult.
	RecordResult(empty bool)

	// RecordMerge is called after shard results have been reduced.
	RecordMerge(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSegment(string, time.Duration) {}
func (NoopMetricsCollector) RecordCollect(int)                   {}
func (NoopMetricsCollector) RecordResult(bool)                   {}
func (NoopMetricsCollector) RecordMerge(time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SegmentCount      atomic.Int64
	SegmentTotalNanos atomic.Int64
	EmptySegments     atomic.Int64
	DirectSegments    atomic.Int64
	OrdinalSegments   atomic.Int64
	DocCount          atomic.Int64
	ValueCount        atomic.Int64
	ResultCount       atomic.Int64
	EmptyResults      atomic.Int64
	MergeCount        atomic.Int64
	MergeErrors       atomic.Int64
	MergeTotalNanos   atomic.Int64
}

// RecordSegment implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSegment(strategy string, duration time.Duration) {
	b.SegmentCount.Add(1)
	b.SegmentTotalNanos.Add(duration.Nanoseconds())
	switch strategy {
	case StrategyEmpty.String():
		b.EmptySegments.Add(1)
	case StrategyDirect.String():
		b.DirectSegments.Add(1)
	case StrategyOrdinals.String():
		b.OrdinalSegments.Add(1)
	}
}

// RecordCollect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCollect(values int) {
	b.DocCount.Add(1)
	b.ValueCount.Add(int64(values))
}

// RecordResult implements MetricsCollector.
func (b *BasicMetricsCollector) RecordResult(empty bool) {
	b.ResultCount.Add(1)
	if empty {
		b.EmptyResults.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(duration time.Duration, err error) {
	b.MergeCount.Add(1)
	b.MergeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SegmentCount:    b.SegmentCount.Load(),
		SegmentAvgNanos: avg(b.SegmentTotalNanos.Load(), b.SegmentCount.Load()),
		EmptySegments:   b.EmptySegments.Load(),
		DirectSegments:  b.DirectSegments.Load(),
		OrdinalSegments: b.OrdinalSegments.Load(),
		DocCount:        b.DocCount.Load(),
		ValueCount:      b.ValueCount.Load(),
		ResultCount:     b.ResultCount.Load(),
		EmptyResults:    b.EmptyResults.Load(),
		MergeCount:      b.MergeCount.Load(),
		MergeErrors:     b.MergeErrors.Load(),
		MergeAvgNanos:   avg(b.MergeTotalNanos.Load(), b.MergeCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SegmentCount    int64
	SegmentAvgNanos int64
	EmptySegments   int64
	DirectSegments  int64
	OrdinalSegments int64
	DocCount        int64
	ValueCount      int64
	ResultCount     int64
	EmptyResults    int64
	MergeCount      int64
	MergeErrors     int64
	MergeAvgNanos   int64
}
