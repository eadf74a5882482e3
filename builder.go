package cardinal

// This file implements the declarative cardinality aggregation request.
// Builders are immutable - each method returns a new builder with the updated configuration.

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/hupe1980/cardinal/internal/hll"
	"github.com/hupe1980/cardinal/values"
)

// AggregationBuilder describes a cardinality aggregation over one field.
//
// Example:
//
//	agg, err := cardinal.NewAggregationBuilder("distinct_users").
//	    Field("user").
//	    PrecisionThreshold(3000).
//	    Missing("anonymous").
//	    Build(values.NewBytesField("user"))
type AggregationBuilder struct {
	name      string
	field     string
	threshold *int64
	rehash    *bool
	missing   any
	metadata  map[string]any
}

// NewAggregationBuilder starts a builder for the aggregation called name.
func NewAggregationBuilder(name string) AggregationBuilder {
	return AggregationBuilder{name: name}
}

// Field sets the field to count distinct values of.
func (b AggregationBuilder) Field(field string) AggregationBuilder {
	b.field = field
	return b
}

// PrecisionThreshold sets the count below which estimates are expected to
// be close to exact. It determines the precision, see Precision.
func (b AggregationBuilder) PrecisionThreshold(count int64) AggregationBuilder {
	b.threshold = &count
	return b
}

// Rehash controls hashing of integer values. It defaults to true.
func (b AggregationBuilder) Rehash(rehash bool) AggregationBuilder {
	b.rehash = &rehash
	return b
}

// Missing sets the value counted for documents without values. Numbers
// apply to numeric fields, strings and byte slices to any field.
func (b AggregationBuilder) Missing(v any) AggregationBuilder {
	b.missing = v
	return b
}

// Metadata attaches metadata to the results of the aggregation.
func (b AggregationBuilder) Metadata(meta map[string]any) AggregationBuilder {
	b.metadata = maps.Clone(meta)
	return b
}

// Name returns the aggregation name.
func (b AggregationBuilder) Name() string { return b.name }

// FieldName returns the configured field.
func (b AggregationBuilder) FieldName() string { return b.field }

// Threshold returns the precision threshold and whether it was set.
func (b AggregationBuilder) Threshold() (int64, bool) {
	if b.threshold == nil {
		return 0, false
	}
	return *b.threshold, true
}

// Precision returns the sketch precision for the threshold, or
// DefaultPrecision when none is set.
func (b AggregationBuilder) Precision() uint8 {
	if b.threshold == nil {
		return DefaultPrecision
	}
	return hll.PrecisionFromThreshold(*b.threshold)
}

// Validate checks the request.
func (b AggregationBuilder) Validate() error {
	if b.name == "" {
		return fmt.Errorf("%w: aggregation name is required", ErrInvalidArgument)
	}
	if b.field == "" {
		return fmt.Errorf("%w: [field] must be set for aggregation %q", ErrInvalidArgument, b.name)
	}
	if b.threshold != nil && *b.threshold < 0 {
		return fmt.Errorf("%w: [precision_threshold] must be greater than or equal to 0, got %d", ErrInvalidArgument, *b.threshold)
	}
	return nil
}

// Build creates an aggregator reading src. The builder's settings take
// precedence over opts.
func (b AggregationBuilder) Build(src values.Source, opts ...Option) (*Aggregator, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if src != nil && src.Field() != b.field {
		return nil, fmt.Errorf("%w: source reads %q, aggregation counts %q", ErrInvalidArgument, src.Field(), b.field)
	}
	if src != nil && b.missing != nil {
		var err error
		if src, err = withMissing(src, b.missing); err != nil {
			return nil, err
		}
	}

	all := slices.Clone(opts)
	if b.threshold != nil {
		all = append(all, WithPrecision(b.Precision()))
	}
	if b.rehash != nil {
		all = append(all, WithRehash(*b.rehash))
	}
	if b.metadata != nil {
		all = append(all, WithMetadata(b.metadata))
	}
	return New(b.name, src, all...)
}

// ToQuery is not supported: a cardinality aggregation has no query form.
func (b AggregationBuilder) ToQuery() error {
	return &UnsupportedOperationError{Op: "to query"}
}

func withMissing(src values.Source, v any) (values.Source, error) {
	switch s := src.(type) {
	case values.Numeric:
		if s.IsFloatingPoint() {
			f, err := missingFloat(v)
			if err != nil {
				return nil, err
			}
			return values.WithMissingDouble(s, f), nil
		}
		n, err := missingLong(v)
		if err != nil {
			return nil, err
		}
		return values.WithMissingLong(s, n), nil

	case values.Bytes:
		bs, err := missingBytes(v)
		if err != nil {
			return nil, err
		}
		return values.WithMissingBytes(s, bs), nil

	default:
		return nil, fmt.Errorf("%w: missing value on unsupported source %T", ErrInvalidArgument, src)
	}
}

func missingLong(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint32:
		return int64(x), nil
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return int64(x), nil
		}
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: missing value %v (%T) is not an integer", ErrInvalidArgument, v, v)
}

func missingFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: missing value %v (%T) is not a number", ErrInvalidArgument, v, v)
}

func missingBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return slices.Clone(x), nil
	case int:
		return strconv.AppendInt(nil, int64(x), 10), nil
	case int64:
		return strconv.AppendInt(nil, x, 10), nil
	case float64:
		return strconv.AppendFloat(nil, x, 'g', -1, 64), nil
	case bool:
		return strconv.AppendBool(nil, x), nil
	}
	return nil, fmt.Errorf("%w: missing value %v (%T) is not representable as bytes", ErrInvalidArgument, v, v)
}
