// Package hll implements a multi-bucket HyperLogLog++ sketch.
//
// One Sketch holds the registers of many independent buckets in a single flat
// byte slice, indexed by (bucket, register). Buckets are dense ordinals handed
// out by an enclosing aggregation; storage grows geometrically to the largest
// bucket collected so far.
//
// # Registers
//
// With precision p there are m = 2^p registers per bucket. A 64-bit hash is
// split as follows:
//
//	 63            64-p                                   0
//	+----------------+-------------------------------------+
//	| register index |  suffix (q = 64-p bits)             |
//	+----------------+-------------------------------------+
//
// The register stores max(leading zeros of the suffix + 1). A guard bit keeps
// the rank bounded by q+1, so every register fits in one byte. Registers are
// one byte wide for the same reason limite-style dense sketches use bytes: the
// merge loop is a plain byte-wise max.
//
// # Estimation
//
//   - A bucket whose registers are all zero reports exactly 0.
//   - Small range: linear counting m*ln(m/V) over the V zero registers, used
//     while it stays under the HLL++ threshold for p.
//   - Otherwise: Ertl's improved estimator, a harmonic mean over the register
//     histogram with tau/sigma corrections for saturated and empty registers.
//
// # Memory
//
// Growth is accounted through an Allocator before any slice is allocated, so
// a memory limit surfaces as an error from Collect or Merge rather than as an
// oversized heap.
package hll
