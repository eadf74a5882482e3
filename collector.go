package cardinal

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/cardinal/internal/hash"
	"github.com/hupe1980/cardinal/internal/hll"
	"github.com/hupe1980/cardinal/resource"
	"github.com/hupe1980/cardinal/values"
)

// Strategy identifies how a segment's values reach the sketch.
type Strategy uint8

const (
	// StrategyNone means no segment has been collected yet.
	StrategyNone Strategy = iota
	// StrategyEmpty ignores every document: there is nothing to count.
	StrategyEmpty
	// StrategyDirect hashes every value of every document into the sketch.
	StrategyDirect
	// StrategyOrdinals records ordinals per bucket and hashes each distinct
	// value once when the segment ends.
	StrategyOrdinals
)

// String returns the name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyEmpty:
		return "empty"
	case StrategyDirect:
		return "direct"
	case StrategyOrdinals:
		return "ordinals"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// OrdinalsMemoryOverhead estimates the bytes one seen-ordinals bitset
// costs for maxOrd ordinals: a reference, the bitset header and one bit
// per ordinal.
func OrdinalsMemoryOverhead(maxOrd int64) int64 {
	return 8 + 24 + (maxOrd+7)/8
}

type collectorKind uint8

const (
	collectorEmpty collectorKind = iota
	collectorDirect
	collectorOrdinals
)

// collector feeds one segment into the sketch. At most one is live per
// aggregator.
type collector struct {
	kind   collectorKind
	sketch *hll.Sketch
	mem    *resource.Controller

	// direct; exactly one iterator is set
	longs   values.LongValues
	doubles values.DoubleValues
	bytes   values.BytesValues
	rehash  bool

	// ordinals
	ords     values.OrdinalValues
	maxOrd   int64
	seen     []*bitset.BitSet // per bucket, allocated on first use
	reserved int64
}

// newCollector picks the strategy for seg.
func newCollector(src values.Source, seg values.Segment, sketch *hll.Sketch, o *options) (*collector, error) {
	c := &collector{kind: collectorEmpty, sketch: sketch, mem: o.memory, rehash: o.rehash}
	if src == nil || sketch == nil {
		return c, nil
	}

	switch s := src.(type) {
	case values.Numeric:
		c.kind = collectorDirect
		var err error
		if s.IsFloatingPoint() {
			c.doubles, err = s.Doubles(seg)
		} else {
			c.longs, err = s.Longs(seg)
		}
		return c, err

	case values.WithOrdinals:
		ords, err := s.Ordinals(seg)
		if err != nil {
			return nil, err
		}
		maxOrd := ords.ValueCount()
		if maxOrd == 0 {
			return c, nil
		}
		if maxOrd > math.MaxInt32 {
			return nil, &ErrOrdinalLimit{Field: src.Field(), MaxOrd: maxOrd}
		}
		if OrdinalsMemoryOverhead(maxOrd) < hll.MemoryUsage(sketch.Precision())/o.ordinalCostRatio {
			c.kind = collectorOrdinals
			c.ords = ords
			c.maxOrd = maxOrd
			return c, nil
		}
		c.kind = collectorDirect
		c.bytes, err = s.Bytes(seg)
		return c, err

	case values.Bytes:
		c.kind = collectorDirect
		var err error
		c.bytes, err = s.Bytes(seg)
		return c, err

	default:
		return nil, fmt.Errorf("%w: unsupported values source %T", ErrInvalidArgument, src)
	}
}

func (c *collector) strategy() Strategy {
	switch c.kind {
	case collectorDirect:
		return StrategyDirect
	case collectorOrdinals:
		return StrategyOrdinals
	default:
		return StrategyEmpty
	}
}

// collect records the values of doc under bucket and returns how many
// values the document held.
func (c *collector) collect(doc int, bucket uint64) (int, error) {
	switch c.kind {
	case collectorDirect:
		return c.collectDirect(doc, bucket)
	case collectorOrdinals:
		return c.collectOrdinals(doc, bucket)
	default:
		return 0, nil
	}
}

func (c *collector) collectDirect(doc int, bucket uint64) (int, error) {
	switch {
	case c.longs != nil:
		c.longs.SetDocument(doc)
		n := c.longs.Count()
		for i := 0; i < n; i++ {
			v := c.longs.ValueAt(i)
			h := uint64(v)
			if c.rehash {
				h = hash.Int64(v)
			}
			if err := c.sketch.Collect(bucket, h); err != nil {
				return i, err
			}
		}
		return n, nil

	case c.doubles != nil:
		c.doubles.SetDocument(doc)
		n := c.doubles.Count()
		for i := 0; i < n; i++ {
			if err := c.sketch.Collect(bucket, hash.Float64(c.doubles.ValueAt(i))); err != nil {
				return i, err
			}
		}
		return n, nil

	default:
		c.bytes.SetDocument(doc)
		n := c.bytes.Count()
		for i := 0; i < n; i++ {
			if err := c.sketch.Collect(bucket, hash.Bytes(c.bytes.ValueAt(i))); err != nil {
				return i, err
			}
		}
		return n, nil
	}
}

func (c *collector) collectOrdinals(doc int, bucket uint64) (int, error) {
	c.ords.SetDocument(doc)
	n := c.ords.Count()
	if n == 0 {
		return 0, nil
	}
	bs, err := c.bitset(bucket)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		bs.Set(uint(c.ords.OrdAt(i)))
	}
	return n, nil
}

func (c *collector) bitset(bucket uint64) (*bitset.BitSet, error) {
	if bucket >= uint64(len(c.seen)) {
		if bucket >= hll.AddressableBuckets(c.sketch.Precision()) {
			return nil, fmt.Errorf("%w: %d", hll.ErrBucketOverflow, bucket)
		}
		c.seen = append(c.seen, make([]*bitset.BitSet, int(bucket)+1-len(c.seen))...)
	}
	if bs := c.seen[bucket]; bs != nil {
		return bs, nil
	}
	size := OrdinalsMemoryOverhead(c.maxOrd)
	if err := c.mem.AcquireMemory(size); err != nil {
		return nil, err
	}
	c.reserved += size
	bs := bitset.New(uint(c.maxOrd))
	c.seen[bucket] = bs
	return bs, nil
}

// postCollect flushes buffered ordinals into the sketch. Each ordinal seen
// in any bucket is hashed exactly once.
func (c *collector) postCollect() error {
	if c.kind != collectorOrdinals || len(c.seen) == 0 {
		return nil
	}
	defer c.releaseSeen()

	visited := bitset.New(uint(c.maxOrd))
	for _, bs := range c.seen {
		if bs != nil {
			visited.InPlaceUnion(bs)
		}
	}

	hashBytes := 8 * c.maxOrd
	if err := c.mem.AcquireMemory(hashBytes); err != nil {
		return err
	}
	defer c.mem.ReleaseMemory(hashBytes)

	hashes := make([]uint64, c.maxOrd)
	for ord, ok := visited.NextSet(0); ok; ord, ok = visited.NextSet(ord + 1) {
		hashes[ord] = hash.Bytes(c.ords.LookupOrd(int64(ord)))
	}

	for bucket, bs := range c.seen {
		if bs == nil {
			continue
		}
		for ord, ok := bs.NextSet(0); ok; ord, ok = bs.NextSet(ord + 1) {
			if err := c.sketch.Collect(uint64(bucket), hashes[ord]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *collector) releaseSeen() {
	c.seen = nil
	if c.reserved > 0 {
		c.mem.ReleaseMemory(c.reserved)
		c.reserved = 0
	}
}

// close drops the segment iterators and any buffered ordinals.
func (c *collector) close() {
	c.releaseSeen()
	c.longs, c.doubles, c.bytes, c.ords = nil, nil, nil, nil
}
