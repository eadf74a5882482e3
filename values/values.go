package values

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrForeignSegment is returned when a source cannot read a segment
	// implementation it does not know.
	ErrForeignSegment = errors.New("values: unsupported segment implementation")
	// ErrFieldType is returned when a field holds values of a different type
	// than the source expects.
	ErrFieldType = errors.New("values: field type mismatch")
)

// Segment is one independently readable unit of a shard.
type Segment interface {
	// Ord is the position of the segment within its shard.
	Ord() int
	// MaxDoc is one past the largest document id of the segment.
	MaxDoc() int
}

// Source supplies the values of one field.
type Source interface {
	Field() string
}

// Numeric is a source of 64-bit integer or floating point values.
type Numeric interface {
	Source
	IsFloatingPoint() bool
	Longs(seg Segment) (LongValues, error)
	Doubles(seg Segment) (DoubleValues, error)
}

// Bytes is a source of byte-sequence values.
type Bytes interface {
	Source
	Bytes(seg Segment) (BytesValues, error)
}

// WithOrdinals is a bytes source that also exposes dictionary ordinals.
type WithOrdinals interface {
	Bytes
	Ordinals(seg Segment) (OrdinalValues, error)
}

// LongValues iterates the integer values of a document.
type LongValues interface {
	SetDocument(doc int)
	Count() int
	ValueAt(i int) int64
}

// DoubleValues iterates the floating point values of a document.
type DoubleValues interface {
	SetDocument(doc int)
	Count() int
	ValueAt(i int) float64
}

// BytesValues iterates the byte-sequence values of a document.
// Returned slices must not be modified.
type BytesValues interface {
	SetDocument(doc int)
	Count() int
	ValueAt(i int) []byte
}

// OrdinalValues iterates the ordinals of a document.
//
// Ordinals are dense in [0, ValueCount()) and follow the byte order of the
// values they stand for.
type OrdinalValues interface {
	SetDocument(doc int)
	Count() int
	OrdAt(i int) int64
	ValueCount() int64
	LookupOrd(ord int64) []byte
}

// AllDocs returns the set of every document id of seg.
func AllDocs(seg Segment) *roaring.Bitmap {
	rb := roaring.New()
	if n := seg.MaxDoc(); n > 0 {
		rb.AddRange(0, uint64(n))
	}
	return rb
}
