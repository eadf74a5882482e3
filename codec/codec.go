// Package codec centralizes how cardinality results are encoded.
//
// Two encodings exist:
//
//   - A compact binary form (EncodeResult/DecodeResult) carrying the
//     precision and the registers of one bucket, used to ship partial results
//     between execution contexts before they are merged.
//   - A JSON rendering (Codec) for the response tree.
//
// The binary form is versioned. Readers reject versions they do not know
// rather than guessing.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
