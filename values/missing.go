package values

// WithMissingLong substitutes v for documents of src without values.
func WithMissingLong(src Numeric, v int64) Numeric {
	return &missingNumeric{src: src, long: v, double: float64(v)}
}

// WithMissingDouble substitutes v for documents of src without values.
func WithMissingDouble(src Numeric, v float64) Numeric {
	return &missingNumeric{src: src, long: int64(v), double: v}
}

// WithMissingBytes substitutes v for documents of src without values.
//
// The result has no ordinal view: v may not be part of any segment
// dictionary.
func WithMissingBytes(src Bytes, v []byte) Bytes {
	return &missingBytes{src: src, v: v}
}

type missingNumeric struct {
	src    Numeric
	long   int64
	double float64
}

func (m *missingNumeric) Field() string         { return m.src.Field() }
func (m *missingNumeric) IsFloatingPoint() bool { return m.src.IsFloatingPoint() }

func (m *missingNumeric) Longs(seg Segment) (LongValues, error) {
	it, err := m.src.Longs(seg)
	if err != nil {
		return nil, err
	}
	return &missingLongs{LongValues: it, v: m.long}, nil
}

func (m *missingNumeric) Doubles(seg Segment) (DoubleValues, error) {
	it, err := m.src.Doubles(seg)
	if err != nil {
		return nil, err
	}
	return &missingDoubles{DoubleValues: it, v: m.double}, nil
}

type missingBytes struct {
	src Bytes
	v   []byte
}

func (m *missingBytes) Field() string { return m.src.Field() }

func (m *missingBytes) Bytes(seg Segment) (BytesValues, error) {
	it, err := m.src.Bytes(seg)
	if err != nil {
		return nil, err
	}
	return &missingBytesValues{BytesValues: it, v: m.v}, nil
}

type missingLongs struct {
	LongValues
	v       int64
	missing bool
}

func (it *missingLongs) SetDocument(doc int) {
	it.LongValues.SetDocument(doc)
	it.missing = it.LongValues.Count() == 0
}

func (it *missingLongs) Count() int {
	if it.missing {
		return 1
	}
	return it.LongValues.Count()
}

func (it *missingLongs) ValueAt(i int) int64 {
	if it.missing {
		return it.v
	}
	return it.LongValues.ValueAt(i)
}

type missingDoubles struct {
	DoubleValues
	v       float64
	missing bool
}

func (it *missingDoubles) SetDocument(doc int) {
	it.DoubleValues.SetDocument(doc)
	it.missing = it.DoubleValues.Count() == 0
}

func (it *missingDoubles) Count() int {
	if it.missing {
		return 1
	}
	return it.DoubleValues.Count()
}

func (it *missingDoubles) ValueAt(i int) float64 {
	if it.missing {
		return it.v
	}
	return it.DoubleValues.ValueAt(i)
}

type missingBytesValues struct {
	BytesValues
	v       []byte
	missing bool
}

func (it *missingBytesValues) SetDocument(doc int) {
	it.BytesValues.SetDocument(doc)
	it.missing = it.BytesValues.Count() == 0
}

func (it *missingBytesValues) Count() int {
	if it.missing {
		return 1
	}
	return it.BytesValues.Count()
}

func (it *missingBytesValues) ValueAt(i int) []byte {
	if it.missing {
		return it.v
	}
	return it.BytesValues.ValueAt(i)
}
