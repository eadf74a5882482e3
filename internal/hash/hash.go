package hash

import (
	"hash/crc32"
	"math"

	"github.com/spaolacci/murmur3"
)

// Mix64 is the 64-bit finalizer of MurmurHash3 (fmix64).
// It is a bijection, so distinct inputs never collide.
func Mix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// Int64 hashes a signed 64-bit integer.
func Int64(v int64) uint64 {
	return Mix64(uint64(v))
}

// Float64 hashes the exact bit pattern of v.
func Float64(v float64) uint64 {
	return Mix64(math.Float64bits(v))
}

// Bytes hashes a byte sequence with MurmurHash3 x64_128 and returns the
// first 64-bit half.
func Bytes(b []byte) uint64 {
	return murmur3.Sum64(b)
}

// crc32cTable is pre-computed for the CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}
