package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cardinal/internal/hash"
	"github.com/hupe1980/cardinal/internal/hll"
)

func registers(t *testing.T, p uint8, n int64) []byte {
	t.Helper()
	s, err := hll.New(p, nil)
	require.NoError(t, err)
	for i := int64(0); i < n; i++ {
		require.NoError(t, s.Collect(0, hash.Int64(i)))
	}
	return append([]byte(nil), s.Registers(0)...)
}

func TestEncodeResult_RoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		p           uint8
		n           int64
		compression Compression
		encoding    Encoding
	}{
		{"sparse", 14, 100, CompressionLZ4, EncodingSparse},
		{"sparse single", 4, 1, CompressionNone, EncodingSparse},
		{"dense", 10, 100000, CompressionNone, EncodingDense},
		{"dense lz4", 14, 20000, CompressionLZ4, EncodingDense},
		{"dense zstd", 14, 20000, CompressionZSTD, EncodingDense},
		{"dense min precision", 4, 1000, CompressionZSTD, EncodingDense},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regs := registers(t, tt.p, tt.n)

			data, err := EncodeResult(tt.p, regs, tt.compression)
			require.NoError(t, err)

			h, err := ReadHeader(data)
			require.NoError(t, err)
			assert.Equal(t, tt.encoding, h.Encoding)
			assert.Equal(t, tt.p, h.Precision)

			p, got, err := DecodeResult(data)
			require.NoError(t, err)
			assert.Equal(t, tt.p, p)
			assert.Equal(t, regs, got)
		})
	}
}

func TestEncodeResult_SparseIsSmaller(t *testing.T) {
	regs := registers(t, 14, 100)
	data, err := EncodeResult(14, regs, CompressionNone)
	require.NoError(t, err)
	assert.Less(t, len(data), headerSize+4+5*100+1)
}

func TestEncodeResult_CompressionFallback(t *testing.T) {
	// Saturated registers leave little redundancy for LZ4 to remove.
	regs := registers(t, 10, 1_000_000)

	data, err := EncodeResult(10, regs, CompressionLZ4)
	require.NoError(t, err)
	h, err := ReadHeader(data)
	require.NoError(t, err)

	if h.Compression == CompressionNone {
		assert.Equal(t, uint32(len(regs)), h.PayloadLen)
	} else {
		assert.Less(t, int(h.PayloadLen), len(regs))
	}

	_, got, err := DecodeResult(data)
	require.NoError(t, err)
	assert.Equal(t, regs, got)
}

func TestEncodeResult_Compresses(t *testing.T) {
	regs := bytes.Repeat([]byte{1, 2, 3, 4}, 1<<12)

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		data, err := EncodeResult(14, regs, c)
		require.NoError(t, err)

		h, err := ReadHeader(data)
		require.NoError(t, err)
		assert.Equal(t, c, h.Compression)
		assert.Less(t, len(data), len(regs)/2)

		_, got, err := DecodeResult(data)
		require.NoError(t, err)
		assert.Equal(t, regs, got)
	}
}

func TestEncodeResult_Empty(t *testing.T) {
	data, err := EncodeResult(0, nil, CompressionLZ4)
	require.NoError(t, err)
	assert.Len(t, data, headerSize)

	p, regs, err := DecodeResult(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), p)
	assert.Nil(t, regs)
}

func TestEncodeResult_InvalidInput(t *testing.T) {
	_, err := EncodeResult(3, make([]byte, 8), CompressionNone)
	assert.ErrorIs(t, err, hll.ErrInvalidPrecision)

	_, err = EncodeResult(10, make([]byte, 16), CompressionNone)
	assert.Error(t, err)

	_, err = EncodeResult(10, nil, CompressionNone)
	assert.Error(t, err)

	_, err = EncodeResult(4, make([]byte, 16), Compression(9))
	assert.Error(t, err)
}

// reseal rewrites length and checksum after a payload edit.
func reseal(data []byte) []byte {
	binary.LittleEndian.PutUint32(data[8:], uint32(len(data)-headerSize))
	binary.LittleEndian.PutUint32(data[12:], hash.CRC32C(data[headerSize:]))
	return data
}

func TestDecodeResult_Corrupt(t *testing.T) {
	sparse, err := EncodeResult(14, registers(t, 14, 50), CompressionNone)
	require.NoError(t, err)
	dense, err := EncodeResult(8, registers(t, 8, 5000), CompressionNone)
	require.NoError(t, err)
	lz4Dense, err := EncodeResult(14, bytes.Repeat([]byte{1, 2, 3, 4}, 1<<12), CompressionLZ4)
	require.NoError(t, err)

	mutate := func(src []byte, f func([]byte) []byte) []byte {
		return f(append([]byte(nil), src...))
	}

	tests := map[string][]byte{
		"truncated header": sparse[:10],
		"bad magic": mutate(sparse, func(b []byte) []byte {
			b[0] = 'X'
			return b
		}),
		"bad version": mutate(sparse, func(b []byte) []byte {
			b[4] = 99
			return b
		}),
		"truncated payload": sparse[:len(sparse)-1],
		"checksum": mutate(sparse, func(b []byte) []byte {
			b[len(b)-1] ^= 0xff
			return b
		}),
		"bad precision": mutate(dense, func(b []byte) []byte {
			b[5] = 30
			return b
		}),
		"precision changed": mutate(dense, func(b []byte) []byte {
			b[5] = 9
			return b
		}),
		"unknown encoding": mutate(dense, func(b []byte) []byte {
			b[6] = 7
			return b
		}),
		"unknown compression": mutate(dense, func(b []byte) []byte {
			b[7] = 7
			return b
		}),
		"register too large": mutate(dense, func(b []byte) []byte {
			b[headerSize] = 65 - 8 + 1
			return reseal(b)
		}),
		"sparse count": mutate(sparse, func(b []byte) []byte {
			b[headerSize]++
			return reseal(b)
		}),
		"sparse index range": mutate(sparse, func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[headerSize+4:], 1<<14)
			return reseal(b)
		}),
		"compressed block size": mutate(lz4Dense, func(b []byte) []byte {
			return reseal(b[:len(b)-1])
		}),
		"compressed block declares too much": mutate(lz4Dense, func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[headerSize:], 1<<30)
			return reseal(b)
		}),
		"payload on empty": reseal(append([]byte{'C', 'A', 'R', 'D', Version, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 1)),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeResult(data)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("snappy")
	assert.Error(t, err)
}
