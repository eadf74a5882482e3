package cardinal

import (
	"errors"
	"fmt"

	"github.com/hupe1980/cardinal/codec"
	"github.com/hupe1980/cardinal/internal/hll"
	"github.com/hupe1980/cardinal/resource"
)

var (
	// ErrInvalidPrecision is returned for a precision outside [MinPrecision, MaxPrecision].
	ErrInvalidPrecision = errors.New("invalid precision")
	// ErrInvalidArgument is returned for malformed aggregation requests.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPrecisionMismatch is returned when merging results of different precision.
	ErrPrecisionMismatch = errors.New("precision mismatch")
	// ErrOrdinalOverflow is returned when a segment has more distinct values
	// than ordinals can address.
	ErrOrdinalOverflow = errors.New("ordinal count exceeds addressable range")
	// ErrMemoryLimitExceeded is returned when register or bitset storage
	// cannot be accounted within the memory limit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
	// ErrUnsupportedOperation is returned for operations the engine does not
	// provide. See UnsupportedOperationError.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrNotCollecting is returned by Collect outside of a segment.
	ErrNotCollecting = errors.New("aggregator is not collecting")
	// ErrInvalidState is returned for lifecycle calls out of order.
	ErrInvalidState = errors.New("invalid aggregator state")
	// ErrClosed is returned when using a closed aggregator.
	ErrClosed = errors.New("aggregator is closed")
	// ErrSelfMerge is returned when a sketch bucket is merged into itself.
	ErrSelfMerge = errors.New("cannot merge a bucket into itself")
	// ErrCorrupt is returned when a binary result cannot be decoded.
	ErrCorrupt = codec.ErrCorrupt
)

// UnsupportedOperationError reports an operation the engine does not
// implement, such as translating the aggregation into a query.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return "querybuilders does not support this operation"
}

func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupportedOperation }

// ErrStateTransition reports a lifecycle call made in the wrong state.
//
// It matches ErrInvalidState, or ErrNotCollecting for Collect.
type ErrStateTransition struct {
	Op    string
	State State
	cause error
}

func (e *ErrStateTransition) Error() string {
	return fmt.Sprintf("%s: aggregator is %s", e.Op, e.State)
}

func (e *ErrStateTransition) Unwrap() error { return e.cause }

// ErrOrdinalLimit indicates a segment whose ordinal count overflows.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrOrdinalLimit struct {
	Field  string
	MaxOrd int64
}

func (e *ErrOrdinalLimit) Error() string {
	return fmt.Sprintf("field %q has %d ordinals", e.Field, e.MaxOrd)
}

func (e *ErrOrdinalLimit) Unwrap() error { return ErrOrdinalOverflow }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, hll.ErrInvalidPrecision):
		return fmt.Errorf("%w: %w", ErrInvalidPrecision, err)
	case errors.Is(err, hll.ErrPrecisionMismatch):
		return fmt.Errorf("%w: %w", ErrPrecisionMismatch, err)
	case errors.Is(err, hll.ErrSelfMerge):
		return fmt.Errorf("%w: %w", ErrSelfMerge, err)
	case errors.Is(err, hll.ErrBucketOverflow), errors.Is(err, hll.ErrInvalidRegister):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, resource.ErrMemoryLimitExceeded):
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}

	return err
}

// isCapacityError reports whether err is a fail-fast capacity limit.
func isCapacityError(err error) bool {
	return errors.Is(err, ErrMemoryLimitExceeded) || errors.Is(err, ErrOrdinalOverflow)
}
