package values

import (
	"bytes"
	"fmt"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

type columnKind uint8

const (
	kindLong columnKind = iota
	kindDouble
	kindBytes
)

func (k columnKind) String() string {
	switch k {
	case kindLong:
		return "long"
	case kindDouble:
		return "double"
	default:
		return "bytes"
	}
}

// column holds the per-document values of one field.
type column struct {
	kind    columnKind
	longs   [][]int64
	doubles [][]float64
	ords    [][]int64 // per document, sorted and distinct
	dict    [][]byte  // sorted distinct values, indexed by ordinal
	docs    *roaring.Bitmap
}

// MemorySegment is an immutable, fully in-memory Segment.
type MemorySegment struct {
	ord     int
	maxDoc  int
	columns map[string]*column
}

// Ord implements Segment.
func (s *MemorySegment) Ord() int { return s.ord }

// MaxDoc implements Segment.
func (s *MemorySegment) MaxDoc() int { return s.maxDoc }

// Fields returns the sorted field names of the segment.
func (s *MemorySegment) Fields() []string {
	names := make([]string, 0, len(s.columns))
	for name := range s.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DocsWithField returns the documents holding at least one value of field.
// The returned bitmap is a copy.
func (s *MemorySegment) DocsWithField(field string) *roaring.Bitmap {
	c, ok := s.columns[field]
	if !ok {
		return roaring.New()
	}
	return c.docs.Clone()
}

func (s *MemorySegment) column(field string, want columnKind) (*column, error) {
	c, ok := s.columns[field]
	if !ok {
		return nil, nil
	}
	if c.kind != want {
		return nil, fmt.Errorf("%w: field %q holds %s values, not %s", ErrFieldType, field, c.kind, want)
	}
	return c, nil
}

// SegmentBuilder accumulates documents for a MemorySegment.
// It is not safe for concurrent use.
type SegmentBuilder struct {
	ord    int
	maxDoc int
	fields map[string]*pending
	order  []string
	errs   []error
}

type pending struct {
	kind    columnKind
	longs   map[int][]int64
	doubles map[int][]float64
	bytes   map[int][][]byte
}

// NewSegmentBuilder starts a segment at position ord within its shard.
func NewSegmentBuilder(ord int) *SegmentBuilder {
	return &SegmentBuilder{
		ord:    ord,
		fields: make(map[string]*pending),
	}
}

// SetMaxDoc extends the segment to at least n documents, so trailing
// documents without values are still part of it.
func (b *SegmentBuilder) SetMaxDoc(n int) *SegmentBuilder {
	if n > b.maxDoc {
		b.maxDoc = n
	}
	return b
}

// AddLongs appends integer values of field to doc.
func (b *SegmentBuilder) AddLongs(doc int, field string, vals ...int64) *SegmentBuilder {
	if p := b.field(doc, field, kindLong); p != nil {
		p.longs[doc] = append(p.longs[doc], vals...)
	}
	return b
}

// AddDoubles appends floating point values of field to doc.
func (b *SegmentBuilder) AddDoubles(doc int, field string, vals ...float64) *SegmentBuilder {
	if p := b.field(doc, field, kindDouble); p != nil {
		p.doubles[doc] = append(p.doubles[doc], vals...)
	}
	return b
}

// AddBytes appends byte-sequence values of field to doc. Values are copied.
func (b *SegmentBuilder) AddBytes(doc int, field string, vals ...[]byte) *SegmentBuilder {
	if p := b.field(doc, field, kindBytes); p != nil {
		for _, v := range vals {
			p.bytes[doc] = append(p.bytes[doc], bytes.Clone(v))
		}
	}
	return b
}

// AddStrings is AddBytes for string values.
func (b *SegmentBuilder) AddStrings(doc int, field string, vals ...string) *SegmentBuilder {
	if p := b.field(doc, field, kindBytes); p != nil {
		for _, v := range vals {
			p.bytes[doc] = append(p.bytes[doc], []byte(v))
		}
	}
	return b
}

func (b *SegmentBuilder) field(doc int, name string, kind columnKind) *pending {
	if doc < 0 {
		b.errs = append(b.errs, fmt.Errorf("values: negative document id %d", doc))
		return nil
	}
	p, ok := b.fields[name]
	if !ok {
		p = &pending{kind: kind}
		switch kind {
		case kindLong:
			p.longs = make(map[int][]int64)
		case kindDouble:
			p.doubles = make(map[int][]float64)
		default:
			p.bytes = make(map[int][][]byte)
		}
		b.fields[name] = p
		b.order = append(b.order, name)
	}
	if p.kind != kind {
		b.errs = append(b.errs, fmt.Errorf("%w: field %q holds %s values, not %s", ErrFieldType, name, p.kind, kind))
		return nil
	}
	b.SetMaxDoc(doc + 1)
	return p
}

// Build freezes the accumulated documents into a MemorySegment.
//
// Integer and floating point values are sorted per document. Byte values are
// sorted and deduplicated per document and dictionary encoded: ordinals
// follow the byte order of the distinct values of the segment.
func (b *SegmentBuilder) Build() (*MemorySegment, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	seg := &MemorySegment{
		ord:     b.ord,
		maxDoc:  b.maxDoc,
		columns: make(map[string]*column, len(b.fields)),
	}
	for _, name := range b.order {
		p := b.fields[name]
		c := &column{kind: p.kind, docs: roaring.New()}
		switch p.kind {
		case kindLong:
			c.longs = make([][]int64, b.maxDoc)
			for doc, vals := range p.longs {
				v := slices.Clone(vals)
				slices.Sort(v)
				c.longs[doc] = v
				if len(v) > 0 {
					c.docs.Add(uint32(doc))
				}
			}
		case kindDouble:
			c.doubles = make([][]float64, b.maxDoc)
			for doc, vals := range p.doubles {
				v := slices.Clone(vals)
				slices.Sort(v)
				c.doubles[doc] = v
				if len(v) > 0 {
					c.docs.Add(uint32(doc))
				}
			}
		default:
			buildOrdinals(c, p.bytes, b.maxDoc)
		}
		seg.columns[name] = c
	}
	return seg, nil
}

func buildOrdinals(c *column, docs map[int][][]byte, maxDoc int) {
	distinct := make(map[string]struct{})
	for _, vals := range docs {
		for _, v := range vals {
			distinct[string(v)] = struct{}{}
		}
	}
	c.dict = make([][]byte, 0, len(distinct))
	for v := range distinct {
		c.dict = append(c.dict, []byte(v))
	}
	slices.SortFunc(c.dict, bytes.Compare)

	c.ords = make([][]int64, maxDoc)
	for doc, vals := range docs {
		ords := make([]int64, 0, len(vals))
		for _, v := range vals {
			ord, _ := slices.BinarySearchFunc(c.dict, v, bytes.Compare)
			ords = append(ords, int64(ord))
		}
		slices.Sort(ords)
		ords = slices.Compact(ords)
		c.ords[doc] = ords
		if len(ords) > 0 {
			c.docs.Add(uint32(doc))
		}
	}
}

type longValues struct {
	vals [][]int64
	cur  []int64
}

func (it *longValues) SetDocument(doc int) {
	it.cur = nil
	if doc >= 0 && doc < len(it.vals) {
		it.cur = it.vals[doc]
	}
}

func (it *longValues) Count() int          { return len(it.cur) }
func (it *longValues) ValueAt(i int) int64 { return it.cur[i] }

type doubleValues struct {
	vals [][]float64
	cur  []float64
}

func (it *doubleValues) SetDocument(doc int) {
	it.cur = nil
	if doc >= 0 && doc < len(it.vals) {
		it.cur = it.vals[doc]
	}
}

func (it *doubleValues) Count() int            { return len(it.cur) }
func (it *doubleValues) ValueAt(i int) float64 { return it.cur[i] }

// ordinalValues serves both the ordinal and the plain bytes view of a
// dictionary encoded column.
type ordinalValues struct {
	ords [][]int64
	dict [][]byte
	cur  []int64
}

func (it *ordinalValues) SetDocument(doc int) {
	it.cur = nil
	if doc >= 0 && doc < len(it.ords) {
		it.cur = it.ords[doc]
	}
}

func (it *ordinalValues) Count() int                 { return len(it.cur) }
func (it *ordinalValues) OrdAt(i int) int64          { return it.cur[i] }
func (it *ordinalValues) ValueCount() int64          { return int64(len(it.dict)) }
func (it *ordinalValues) LookupOrd(ord int64) []byte { return it.dict[ord] }
func (it *ordinalValues) ValueAt(i int) []byte       { return it.dict[it.cur[i]] }
