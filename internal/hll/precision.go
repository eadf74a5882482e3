package hll

import (
	"math"
	"math/bits"
)

// maxLoadFactor is the load factor of the hash table that precision
// thresholds are expressed against.
const maxLoadFactor = 0.75

// PrecisionFromThreshold returns the precision whose sketch costs about as
// much memory as an exact hash set of count 32-bit entries.
// Counts below the error-free range map to MinPrecision, huge counts to
// MaxPrecision.
func PrecisionFromThreshold(count int64) uint8 {
	if count < 0 {
		count = 0
	}
	entries := uint64(math.Ceil(float64(count) / maxLoadFactor))
	if entries >= 1<<MaxPrecision {
		return MaxPrecision
	}
	p := bits.Len64(entries * 4)
	if p < int(MinPrecision) {
		return MinPrecision
	}
	if p > int(MaxPrecision) {
		return MaxPrecision
	}
	return uint8(p)
}
