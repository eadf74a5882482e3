package values

import "fmt"

// LongField reads integer values of a MemorySegment field.
type LongField struct{ name string }

// NewLongField returns a numeric source over integer values of name.
func NewLongField(name string) *LongField { return &LongField{name: name} }

// Field implements Source.
func (f *LongField) Field() string { return f.name }

// IsFloatingPoint implements Numeric.
func (f *LongField) IsFloatingPoint() bool { return false }

// Longs implements Numeric.
func (f *LongField) Longs(seg Segment) (LongValues, error) {
	c, err := lookup(seg, f.name, kindLong)
	if err != nil || c == nil {
		return &longValues{}, err
	}
	return &longValues{vals: c.longs}, nil
}

// Doubles implements Numeric by widening the integer values.
func (f *LongField) Doubles(seg Segment) (DoubleValues, error) {
	longs, err := f.Longs(seg)
	if err != nil {
		return nil, err
	}
	return widened{longs}, nil
}

type widened struct{ LongValues }

func (w widened) ValueAt(i int) float64 { return float64(w.LongValues.ValueAt(i)) }

// DoubleField reads floating point values of a MemorySegment field.
type DoubleField struct{ name string }

// NewDoubleField returns a numeric source over floating point values of name.
func NewDoubleField(name string) *DoubleField { return &DoubleField{name: name} }

// Field implements Source.
func (f *DoubleField) Field() string { return f.name }

// IsFloatingPoint implements Numeric.
func (f *DoubleField) IsFloatingPoint() bool { return true }

// Longs implements Numeric. Floating point fields have no integer view.
func (f *DoubleField) Longs(Segment) (LongValues, error) {
	return nil, fmt.Errorf("%w: field %q is floating point", ErrFieldType, f.name)
}

// Doubles implements Numeric.
func (f *DoubleField) Doubles(seg Segment) (DoubleValues, error) {
	c, err := lookup(seg, f.name, kindDouble)
	if err != nil || c == nil {
		return &doubleValues{}, err
	}
	return &doubleValues{vals: c.doubles}, nil
}

// BytesField reads dictionary encoded byte values of a MemorySegment field.
type BytesField struct{ name string }

// NewBytesField returns an ordinal-capable source over byte values of name.
func NewBytesField(name string) *BytesField { return &BytesField{name: name} }

// Field implements Source.
func (f *BytesField) Field() string { return f.name }

// Bytes implements Bytes.
func (f *BytesField) Bytes(seg Segment) (BytesValues, error) {
	return f.ordinals(seg)
}

// Ordinals implements WithOrdinals.
func (f *BytesField) Ordinals(seg Segment) (OrdinalValues, error) {
	return f.ordinals(seg)
}

func (f *BytesField) ordinals(seg Segment) (*ordinalValues, error) {
	c, err := lookup(seg, f.name, kindBytes)
	if err != nil || c == nil {
		return &ordinalValues{}, err
	}
	return &ordinalValues{ords: c.ords, dict: c.dict}, nil
}

// WithoutOrdinals hides the ordinal view of src, leaving plain bytes access.
func WithoutOrdinals(src Bytes) Bytes {
	return bytesOnly{src}
}

type bytesOnly struct{ src Bytes }

func (b bytesOnly) Field() string { return b.src.Field() }

func (b bytesOnly) Bytes(seg Segment) (BytesValues, error) { return b.src.Bytes(seg) }

func lookup(seg Segment, field string, kind columnKind) (*column, error) {
	ms, ok := seg.(*MemorySegment)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrForeignSegment, seg)
	}
	return ms.column(field, kind)
}
