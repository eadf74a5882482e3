package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/cardinal/internal/hash"
	"github.com/hupe1980/cardinal/internal/hll"
)

// ErrCorrupt is returned when an encoded result cannot be decoded.
// The wrapped error names the specific cause.
var ErrCorrupt = errors.New("codec: corrupt result")

// Version is the binary layout written by EncodeResult.
const Version uint8 = 1

// Encoding identifies the register payload layout.
type Encoding uint8

const (
	// EncodingDense stores every register, one byte each.
	EncodingDense Encoding = 0
	// EncodingSparse stores only non-zero registers as (index u32, value u8)
	// pairs sorted by index, prefixed by their count.
	EncodingSparse Encoding = 1
)

var magic = [4]byte{'C', 'A', 'R', 'D'}

// Header layout:
//
//	magic [4] | version u8 | precision u8 | encoding u8 | compression u8 |
//	payload length u32 | crc32c(payload) u32
const headerSize = 16

// Header describes an encoded result.
type Header struct {
	Version     uint8
	Precision   uint8 // 0 for an empty result
	Encoding    Encoding
	Compression Compression
	PayloadLen  uint32
	Checksum    uint32
}

// EncodeResult writes the registers of one bucket.
//
// A nil regs slice encodes the empty result and precision must be 0 then.
// The sparse layout is chosen when it is smaller than the dense one; only
// dense payloads are compressed, and only when c actually saves space.
func EncodeResult(precision uint8, regs []byte, c Compression) ([]byte, error) {
	if c > CompressionZSTD {
		return nil, fmt.Errorf("codec: unknown compression %d", uint8(c))
	}
	if regs == nil {
		if precision != 0 {
			return nil, fmt.Errorf("codec: empty result with precision %d", precision)
		}
		return appendHeader(make([]byte, 0, headerSize), Header{Version: Version}), nil
	}
	if err := hll.ValidatePrecision(precision); err != nil {
		return nil, err
	}
	m := 1 << precision
	if len(regs) != m {
		return nil, fmt.Errorf("codec: expected %d registers, got %d", m, len(regs))
	}

	var nonZero int
	for _, r := range regs {
		if r != 0 {
			nonZero++
		}
	}

	h := Header{Version: Version, Precision: precision}

	var payload []byte
	if 5*nonZero+4 < m {
		h.Encoding = EncodingSparse
		payload = make([]byte, 4, 4+5*nonZero)
		binary.LittleEndian.PutUint32(payload, uint32(nonZero))
		for i, r := range regs {
			if r == 0 {
				continue
			}
			payload = binary.LittleEndian.AppendUint32(payload, uint32(i))
			payload = append(payload, r)
		}
	} else {
		h.Encoding = EncodingDense
		var err error
		payload, h.Compression, err = compressBlock(regs, c)
		if err != nil {
			return nil, err
		}
	}

	h.PayloadLen = uint32(len(payload))
	h.Checksum = hash.CRC32C(payload)

	out := make([]byte, 0, headerSize+len(payload))
	out = appendHeader(out, h)
	return append(out, payload...), nil
}

// DecodeResult reads a result written by EncodeResult.
// It returns precision 0 and nil registers for the empty result.
func DecodeResult(data []byte) (uint8, []byte, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return 0, nil, err
	}
	payload := data[headerSize:]

	if h.Precision == 0 {
		if len(payload) != 0 {
			return 0, nil, corrupt("payload on empty result")
		}
		return 0, nil, nil
	}
	if hll.ValidatePrecision(h.Precision) != nil {
		return 0, nil, corrupt("precision %d", h.Precision)
	}
	m := 1 << h.Precision
	maxRank := 65 - h.Precision

	var regs []byte
	switch h.Encoding {
	case EncodingDense:
		raw, err := decompressBlock(payload, h.Compression, m)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if len(raw) != m {
			return 0, nil, corrupt("dense payload holds %d registers, want %d", len(raw), m)
		}
		regs = make([]byte, m)
		copy(regs, raw)
	case EncodingSparse:
		if h.Compression != CompressionNone {
			return 0, nil, corrupt("compressed sparse payload")
		}
		if len(payload) < 4 {
			return 0, nil, corrupt("truncated sparse payload")
		}
		n := binary.LittleEndian.Uint32(payload)
		if uint64(len(payload)) != 4+5*uint64(n) {
			return 0, nil, corrupt("sparse payload size %d for %d entries", len(payload), n)
		}
		regs = make([]byte, m)
		prev := -1
		for off := 4; off < len(payload); off += 5 {
			idx := binary.LittleEndian.Uint32(payload[off:])
			if int64(idx) >= int64(m) || int(idx) <= prev {
				return 0, nil, corrupt("sparse index %d out of order or range", idx)
			}
			prev = int(idx)
			regs[idx] = payload[off+4]
		}
	default:
		return 0, nil, corrupt("unknown encoding %d", h.Encoding)
	}

	for i, r := range regs {
		if r > maxRank {
			return 0, nil, corrupt("register %d holds %d (max %d)", i, r, maxRank)
		}
	}
	return h.Precision, regs, nil
}

// ReadHeader validates the envelope of an encoded result: magic, version,
// payload length and checksum.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, corrupt("truncated header (%d bytes)", len(data))
	}
	if [4]byte(data[:4]) != magic {
		return Header{}, corrupt("bad magic %q", data[:4])
	}
	h := Header{
		Version:     data[4],
		Precision:   data[5],
		Encoding:    Encoding(data[6]),
		Compression: Compression(data[7]),
		PayloadLen:  binary.LittleEndian.Uint32(data[8:]),
		Checksum:    binary.LittleEndian.Uint32(data[12:]),
	}
	if h.Version != Version {
		return Header{}, corrupt("unsupported version %d", h.Version)
	}
	if uint64(len(data)-headerSize) != uint64(h.PayloadLen) {
		return Header{}, corrupt("payload length %d, have %d bytes", h.PayloadLen, len(data)-headerSize)
	}
	if sum := hash.CRC32C(data[headerSize:]); sum != h.Checksum {
		return Header{}, corrupt("checksum mismatch (%08x != %08x)", sum, h.Checksum)
	}
	return h, nil
}

func appendHeader(dst []byte, h Header) []byte {
	dst = append(dst, magic[:]...)
	dst = append(dst, h.Version, h.Precision, byte(h.Encoding), byte(h.Compression))
	dst = binary.LittleEndian.AppendUint32(dst, h.PayloadLen)
	return binary.LittleEndian.AppendUint32(dst, h.Checksum)
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
}
