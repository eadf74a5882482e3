// Package hash projects field values onto uniformly distributed 64-bit hashes
// and provides the checksum used by the result encoding.
//
// # Projection
//
// Every value that reaches a sketch is first reduced to a 64-bit hash:
//
//	Value kind    Function   Algorithm
//	int64         Int64      MurmurHash3 fmix64 finalizer
//	float64       Float64    fmix64 over the IEEE-754 bit pattern
//	[]byte        Bytes      MurmurHash3 x64_128 (seed 0), first half
//
// Floats are hashed by bit pattern rather than by their text form, so any
// lossless representation of the same double counts once. The flip side is
// that -0.0 and +0.0 are distinct values.
//
// # CRC32-Castagnoli (CRC32C)
//
// Encoded results carry a CRC32C of their payload. Go's crc32 package uses
// hardware instructions (SSE4.2, ARM CRC) when available.
package hash
