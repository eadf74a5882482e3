// Package testutil provides testing utilities for cardinal.
//
// This package is intended for use in tests and benchmarks only.
// It provides deterministic generators for values with a known number of
// distinct elements, skewed bucket assignments, and in-memory segments.
//
// # Known Cardinality
//
//	rng := testutil.NewRNG(seed)
//	vals := rng.Longs(100_000, 10_000) // exactly 10,000 distinct values
//
// # Segments
//
//	segs, _ := testutil.StringSegments("user", rng.Strings(n, d, "u"), 4)
//
// # Error Checking
//
//	err := testutil.RelativeError(result.Value(), 10_000)
package testutil
