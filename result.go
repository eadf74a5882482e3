package cardinal

import (
	"fmt"
	"maps"

	"github.com/hupe1980/cardinal/codec"
	"github.com/hupe1980/cardinal/internal/hll"
)

// Result is an immutable cardinality estimate for one bucket.
//
// Results from different shards are combined with Merge or Reduce. A Result
// is safe to share between goroutines.
type Result struct {
	name        string
	sketch      *hll.Sketch // single bucket; nil for the empty result
	value       uint64
	metadata    map[string]any
	compression codec.Compression
	jsonCodec   codec.Codec // nil renders with codec.Default
}

// NewEmptyResult returns a result that counted nothing.
func NewEmptyResult(name string, metadata map[string]any) *Result {
	return newResult(name, nil, maps.Clone(metadata), codec.CompressionLZ4)
}

func newResult(name string, s *hll.Sketch, metadata map[string]any, c codec.Compression) *Result {
	r := &Result{name: name, sketch: s, metadata: metadata, compression: c}
	if s != nil {
		r.value = s.Cardinality(0)
	}
	return r
}

// Name returns the aggregation name.
func (r *Result) Name() string { return r.name }

// Value returns the estimated number of distinct values.
func (r *Result) Value() uint64 { return r.value }

// Precision returns the sketch precision, or 0 for the empty result.
func (r *Result) Precision() uint8 {
	if r.sketch == nil {
		return 0
	}
	return r.sketch.Precision()
}

// IsEmpty reports whether the result holds no sketch.
func (r *Result) IsEmpty() bool { return r.sketch == nil }

// Metadata returns a copy of the result metadata.
func (r *Result) Metadata() map[string]any { return maps.Clone(r.metadata) }

// Merge returns the union of r and other. Neither input is modified.
//
// Empty results are identities. The merged result keeps the name and
// metadata of r.
func (r *Result) Merge(other *Result) (*Result, error) {
	switch {
	case other == nil || other.sketch == nil:
		return r.with(r.sketch), nil
	case r.sketch == nil:
		return r.with(other.sketch), nil
	case r.sketch.Precision() != other.sketch.Precision():
		return nil, fmt.Errorf("%w: %d != %d", ErrPrecisionMismatch, r.sketch.Precision(), other.sketch.Precision())
	}

	s := r.sketch.CloneBucket(0)
	if err := s.Merge(0, other.sketch, 0); err != nil {
		return nil, translateError(err)
	}
	return r.with(s), nil
}

func (r *Result) with(s *hll.Sketch) *Result {
	out := newResult(r.name, s, r.metadata, r.compression)
	out.jsonCodec = r.jsonCodec
	return out
}

// Reduce merges results in order, skipping nil entries. It returns nil when
// there is nothing to reduce.
func Reduce(results []*Result) (*Result, error) {
	var acc *Result
	for _, r := range results {
		if r == nil {
			continue
		}
		if acc == nil {
			acc = r
			continue
		}
		merged, err := acc.Merge(r)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}

// MarshalBinary encodes the registers of the result. Name and metadata are
// not part of the binary form.
func (r *Result) MarshalBinary() ([]byte, error) {
	if r.sketch == nil {
		return codec.EncodeResult(0, nil, r.compression)
	}
	return codec.EncodeResult(r.sketch.Precision(), r.sketch.Registers(0), r.compression)
}

// UnmarshalBinary decodes data written by MarshalBinary into r.
// It must only be called on a Result that is not yet shared.
func (r *Result) UnmarshalBinary(data []byte) error {
	h, err := codec.ReadHeader(data)
	if err != nil {
		return err
	}
	p, regs, err := codec.DecodeResult(data)
	if err != nil {
		return err
	}

	var s *hll.Sketch
	if regs != nil {
		s, err = hll.New(p, nil)
		if err != nil {
			return translateError(err)
		}
		if err := s.SetRegisters(0, regs); err != nil {
			return translateError(err)
		}
	}
	compression := h.Compression
	if h.Encoding == codec.EncodingSparse {
		compression = codec.CompressionLZ4
	}
	jc := r.jsonCodec
	*r = *newResult(r.name, s, r.metadata, compression)
	r.jsonCodec = jc
	return nil
}

// DecodeResult decodes a binary result and names it.
func DecodeResult(name string, data []byte) (*Result, error) {
	r := &Result{name: name}
	if err := r.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return r, nil
}

type resultJSON struct {
	Name  string         `json:"name"`
	Value uint64         `json:"value"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// MarshalJSON renders the result as {"name":...,"value":N}.
func (r *Result) MarshalJSON() ([]byte, error) {
	c := r.jsonCodec
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(resultJSON{Name: r.name, Value: r.value, Meta: r.metadata})
}
