package hll

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/bits"
)

const (
	// MinPrecision is the smallest supported precision (16 registers).
	MinPrecision uint8 = 4
	// MaxPrecision is the largest supported precision (262,144 registers).
	MaxPrecision uint8 = 18
	// DefaultPrecision gives a standard error of about 0.81%.
	DefaultPrecision uint8 = 14
	// MaxRegisterBytes caps the register storage of one sketch (16 GiB).
	MaxRegisterBytes int64 = 1 << 34
)

var (
	// ErrInvalidPrecision is returned for a precision outside [MinPrecision, MaxPrecision].
	ErrInvalidPrecision = errors.New("hll: invalid precision")
	// ErrPrecisionMismatch is returned when merging sketches of different precision.
	ErrPrecisionMismatch = errors.New("hll: precision mismatch")
	// ErrSelfMerge is returned when a bucket is merged into itself.
	ErrSelfMerge = errors.New("hll: cannot merge a bucket into itself")
	// ErrBucketOverflow is returned when a bucket ordinal cannot be addressed.
	ErrBucketOverflow = errors.New("hll: bucket ordinal out of addressable range")
	// ErrInvalidRegister is returned for a register value no hash can produce.
	ErrInvalidRegister = errors.New("hll: invalid register value")
)

// Allocator accounts for register storage.
// *resource.Controller satisfies it; a nil Allocator disables accounting.
type Allocator interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Sketch is a set of HyperLogLog++ counters, one per bucket.
//
// A Sketch is not safe for concurrent use.
type Sketch struct {
	p        uint8
	m        uint64
	regs     []byte
	buckets  uint64 // buckets with allocated storage
	mem      Allocator
	reserved int64
}

// New creates an empty sketch with the given precision.
func New(precision uint8, mem Allocator) (*Sketch, error) {
	if err := ValidatePrecision(precision); err != nil {
		return nil, err
	}
	return &Sketch{
		p:   precision,
		m:   uint64(1) << precision,
		mem: mem,
	}, nil
}

// ValidatePrecision reports whether precision is supported.
func ValidatePrecision(precision uint8) error {
	if precision < MinPrecision || precision > MaxPrecision {
		return fmt.Errorf("%w: %d (must be in [%d, %d])", ErrInvalidPrecision, precision, MinPrecision, MaxPrecision)
	}
	return nil
}

// MemoryUsage returns the register footprint of one bucket in bytes.
func MemoryUsage(precision uint8) int64 {
	return int64(1) << precision
}

// AddressableBuckets returns the number of buckets a sketch of precision
// can hold. Collecting into a bucket at or beyond it fails with
// ErrBucketOverflow.
func AddressableBuckets(precision uint8) uint64 {
	n := uint64(MaxRegisterBytes) >> precision
	if limit := uint64(math.MaxInt) >> precision; n > limit {
		n = limit
	}
	return min(n, math.MaxInt32)
}

// StandardError returns the relative standard error for precision.
func StandardError(precision uint8) float64 {
	return 1.04 / math.Sqrt(float64(uint64(1)<<precision))
}

// Precision returns the sketch precision.
func (s *Sketch) Precision() uint8 { return s.p }

// MaxBucket returns the number of buckets with allocated storage.
// Buckets at or beyond MaxBucket have never been collected into.
func (s *Sketch) MaxBucket() uint64 { return s.buckets }

// Collect folds a hash into the registers of bucket.
//
// The only failure is the Allocator refusing to grow storage for a new bucket.
func (s *Sketch) Collect(bucket, hash uint64) error {
	if err := s.ensure(bucket); err != nil {
		return err
	}
	index, rank := s.split(hash)
	off := bucket*s.m + index
	if rank > s.regs[off] {
		s.regs[off] = rank
	}
	return nil
}

// split returns the register index and rank for hash.
func (s *Sketch) split(hash uint64) (index uint64, rank uint8) {
	index = hash >> (64 - s.p)
	// The guard bit caps the rank at 64-p+1 for an all-zero suffix.
	w := hash<<s.p | uint64(1)<<(s.p-1)
	rank = uint8(bits.LeadingZeros64(w)) + 1
	return index, rank
}

// Cardinality returns the estimated number of distinct hashes in bucket.
func (s *Sketch) Cardinality(bucket uint64) uint64 {
	regs := s.Registers(bucket)
	if regs == nil {
		return 0
	}
	return estimate(s.p, regs)
}

// Merge folds the registers of other's otherBucket into bucket.
func (s *Sketch) Merge(bucket uint64, other *Sketch, otherBucket uint64) error {
	if other.p != s.p {
		return fmt.Errorf("%w: %d != %d", ErrPrecisionMismatch, s.p, other.p)
	}
	if other == s && bucket == otherBucket {
		return ErrSelfMerge
	}
	if otherBucket >= other.buckets {
		return nil
	}
	if err := s.ensure(bucket); err != nil {
		return err
	}
	// Resolve src after ensure: growth may have moved s.regs.
	src := other.Registers(otherBucket)
	dst := s.Registers(bucket)
	maxRegisters(dst, src)
	return nil
}

// Registers returns the registers of bucket, or nil if it has no storage.
// The slice aliases the sketch and must not be retained across Collect.
func (s *Sketch) Registers(bucket uint64) []byte {
	if bucket >= s.buckets {
		return nil
	}
	off := bucket * s.m
	return s.regs[off : off+s.m : off+s.m]
}

// SetRegisters replaces the registers of bucket with a copy of regs.
func (s *Sketch) SetRegisters(bucket uint64, regs []byte) error {
	if uint64(len(regs)) != s.m {
		return fmt.Errorf("%w: expected %d registers, got %d", ErrPrecisionMismatch, s.m, len(regs))
	}
	maxRank := byte(65 - s.p)
	for i, r := range regs {
		if r > maxRank {
			return fmt.Errorf("%w: register %d holds %d (max %d)", ErrInvalidRegister, i, r, maxRank)
		}
	}
	if err := s.ensure(bucket); err != nil {
		return err
	}
	copy(s.Registers(bucket), regs)
	return nil
}

// CloneBucket returns a single-bucket sketch holding a copy of the registers
// of bucket. The copy has no Allocator; it is empty when bucket has no
// storage.
func (s *Sketch) CloneBucket(bucket uint64) *Sketch {
	c := &Sketch{p: s.p, m: s.m}
	if regs := s.Registers(bucket); regs != nil {
		c.regs = bytes.Clone(regs)
		c.buckets = 1
	}
	return c
}

// Close releases the register storage. The sketch is empty afterwards.
func (s *Sketch) Close() {
	if s.mem != nil && s.reserved > 0 {
		s.mem.ReleaseMemory(s.reserved)
	}
	s.reserved = 0
	s.regs = nil
	s.buckets = 0
}

// ensure grows storage so that bucket is addressable.
func (s *Sketch) ensure(bucket uint64) error {
	if bucket < s.buckets {
		return nil
	}
	limit := AddressableBuckets(s.p)
	if bucket >= limit {
		return fmt.Errorf("%w: %d", ErrBucketOverflow, bucket)
	}

	// Oversize by half to amortize bucket-at-a-time growth.
	want := bucket + 1
	if grown := s.buckets + s.buckets/2; grown > want && grown <= limit {
		want = grown
	}

	delta := int64((want - s.buckets) * s.m)
	if s.mem != nil {
		if err := s.mem.AcquireMemory(delta); err != nil {
			return err
		}
	}

	regs := make([]byte, want*s.m)
	copy(regs, s.regs)
	s.regs = regs
	s.buckets = want
	s.reserved += delta
	return nil
}

// maxRegisters sets dst[i] = max(dst[i], src[i]).
func maxRegisters(dst, src []byte) {
	// Register counts are powers of two >= 16, so stride 8 never overruns.
	_ = src[len(dst)-1]
	for i := 0; i < len(dst); i += 8 {
		if src[i] > dst[i] {
			dst[i] = src[i]
		}
		if src[i+1] > dst[i+1] {
			dst[i+1] = src[i+1]
		}
		if src[i+2] > dst[i+2] {
			dst[i+2] = src[i+2]
		}
		if src[i+3] > dst[i+3] {
			dst[i+3] = src[i+3]
		}
		if src[i+4] > dst[i+4] {
			dst[i+4] = src[i+4]
		}
		if src[i+5] > dst[i+5] {
			dst[i+5] = src[i+5]
		}
		if src[i+6] > dst[i+6] {
			dst[i+6] = src[i+6]
		}
		if src[i+7] > dst[i+7] {
			dst[i+7] = src[i+7]
		}
	}
}
