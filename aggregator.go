package cardinal

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/cardinal/internal/hll"
	"github.com/hupe1980/cardinal/values"
)

// State is the lifecycle position of an Aggregator.
type State uint8

const (
	// StateUninitialized is the zero value; only Close is valid.
	StateUninitialized State = iota
	// StateReady accepts the first segment.
	StateReady
	// StateCollecting accepts documents of the current segment.
	StateCollecting
	// StateFinalizing has flushed every segment; results can be built.
	StateFinalizing
	// StateClosed has released all storage.
	StateClosed
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateCollecting:
		return "collecting"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Aggregator estimates the number of distinct values per bucket across the
// segments of one shard.
//
// The lifecycle is New, then SetSegment/Collect for each segment, then
// PostCollection, BuildResult and finally Close. An Aggregator is not safe
// for concurrent use.
type Aggregator struct {
	name string
	src  values.Source
	opts options

	sketch    *hll.Sketch // nil without a values source
	collector *collector
	state     State
	strategy  Strategy
	segment   int
	segStart  time.Time
}

// New creates an aggregator over src. A nil src yields an aggregator that
// never allocates and only builds empty results.
func New(name string, src values.Source, optFns ...Option) (*Aggregator, error) {
	o := applyOptions(optFns)
	if err := hll.ValidatePrecision(o.precision); err != nil {
		return nil, translateError(err)
	}

	a := &Aggregator{
		name:  name,
		src:   src,
		opts:  o,
		state: StateReady,
	}
	a.opts.logger = o.logger.WithAggregation(name)

	if src != nil {
		var mem hll.Allocator
		if o.memory != nil {
			mem = o.memory
		}
		s, err := hll.New(o.precision, mem)
		if err != nil {
			return nil, translateError(err)
		}
		a.sketch = s
	}
	return a, nil
}

// Name returns the aggregation name.
func (a *Aggregator) Name() string { return a.name }

// Precision returns the sketch precision.
func (a *Aggregator) Precision() uint8 { return a.opts.precision }

// State returns the lifecycle state.
func (a *Aggregator) State() State { return a.state }

// Strategy returns the collector strategy of the current or last segment.
func (a *Aggregator) Strategy() Strategy { return a.strategy }

// SetSegment finalizes the previous segment and prepares collection of seg.
func (a *Aggregator) SetSegment(seg values.Segment) error {
	switch a.state {
	case StateReady, StateCollecting:
	case StateClosed:
		return ErrClosed
	default:
		return &ErrStateTransition{Op: "set segment", State: a.state, cause: ErrInvalidState}
	}

	ctx := context.Background()
	if err := a.finishSegment(); err != nil {
		a.state = StateReady
		a.opts.logger.LogSegmentError(ctx, a.segment, err)
		return err
	}

	c, err := newCollector(a.src, seg, a.sketch, &a.opts)
	if err != nil {
		a.state = StateReady
		err = translateError(err)
		a.opts.logger.LogSegmentError(ctx, seg.Ord(), err)
		return err
	}

	a.collector = c
	a.strategy = c.strategy()
	a.segment = seg.Ord()
	a.segStart = time.Now()
	a.state = StateCollecting
	a.opts.logger.LogStrategy(ctx, a.segment, a.strategy, c.maxOrd)
	return nil
}

// Collect adds the values of doc in the current segment to bucket.
func (a *Aggregator) Collect(doc int, bucket uint64) error {
	if a.state != StateCollecting {
		if a.state == StateClosed {
			return ErrClosed
		}
		return &ErrStateTransition{Op: "collect", State: a.state, cause: ErrNotCollecting}
	}

	n, err := a.collector.collect(doc, bucket)
	if err != nil {
		err = translateError(err)
		a.opts.logger.LogSegmentError(context.Background(), a.segment, err)
		return err
	}
	a.opts.metricsCollector.RecordCollect(n)
	return nil
}

// PostCollection finalizes the last segment. Results are complete afterwards.
func (a *Aggregator) PostCollection() error {
	switch a.state {
	case StateReady, StateCollecting:
	case StateClosed:
		return ErrClosed
	default:
		return &ErrStateTransition{Op: "post collection", State: a.state, cause: ErrInvalidState}
	}

	if err := a.finishSegment(); err != nil {
		a.opts.logger.LogSegmentError(context.Background(), a.segment, err)
		return err
	}
	a.state = StateFinalizing
	return nil
}

// finishSegment flushes and closes the live collector, if any.
func (a *Aggregator) finishSegment() error {
	c := a.collector
	if c == nil {
		return nil
	}
	a.collector = nil
	defer c.close()

	err := c.postCollect()
	a.opts.metricsCollector.RecordSegment(c.strategy().String(), time.Since(a.segStart))
	return translateError(err)
}

// Metric returns the estimated cardinality of bucket. It sees the same
// values as BuildResult.
func (a *Aggregator) Metric(bucket uint64) float64 {
	if a.sketch == nil {
		return 0
	}
	return float64(a.sketch.Cardinality(bucket))
}

// BuildResult snapshots bucket into an independent Result.
//
// Results are complete only after PostCollection. While collecting, the
// snapshot holds what was collected directly and what earlier segments
// flushed; values of the current segment gathered as ordinals are missing
// until SetSegment or PostCollection flushes them.
func (a *Aggregator) BuildResult(bucket uint64) *Result {
	if a.sketch == nil || bucket >= a.sketch.MaxBucket() || a.sketch.Cardinality(bucket) == 0 {
		return a.BuildEmptyResult()
	}

	r := newResult(a.name, a.sketch.CloneBucket(bucket), a.opts.metadata, a.opts.compression)
	r.jsonCodec = a.opts.jsonCodec
	a.opts.metricsCollector.RecordResult(false)
	a.opts.logger.LogResult(context.Background(), bucket, r.Value(), false)
	return r
}

// BuildEmptyResult returns the canonical result of a bucket without values.
func (a *Aggregator) BuildEmptyResult() *Result {
	if a.opts.metricsCollector != nil {
		a.opts.metricsCollector.RecordResult(true)
	}
	r := newResult(a.name, nil, a.opts.metadata, a.opts.compression)
	r.jsonCodec = a.opts.jsonCodec
	return r
}

// Close releases the sketch and any pending collector without flushing it.
// A second call returns ErrClosed.
func (a *Aggregator) Close() error {
	if a.state == StateClosed {
		return ErrClosed
	}
	if a.collector != nil {
		a.collector.close()
		a.collector = nil
	}
	if a.sketch != nil {
		a.sketch.Close()
		a.sketch = nil
	}
	a.state = StateClosed
	return nil
}
