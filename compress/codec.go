// Package compress provides the compression codecs used when persisting
// Monte Carlo trial-result tables.
//
// Trial tables are plain delimited text and compress extremely well; a run
// with many trials and coefficients shrinks by an order of magnitude under
// any of the supported algorithms. Codecs are stateless values and safe for
// concurrent use.
package compress

import "fmt"

// Type identifies a compression algorithm for persisted trial tables.
type Type uint8

const (
	// TypeNone stores the table uncompressed.
	TypeNone Type = iota
	// TypeZstd uses Zstandard, the best ratio for archived runs.
	TypeZstd
	// TypeS2 uses S2, the fastest round trip.
	TypeS2
	// TypeLZ4 uses LZ4 block compression.
	TypeLZ4
)

var typeNames = map[Type]string{
	TypeNone: "none",
	TypeZstd: "zstd",
	TypeS2:   "s2",
	TypeLZ4:  "lz4",
}

// String returns the lower-case algorithm name.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return "unknown"
}

// TypeFromString returns the Type for a given algorithm name.
//
// Returns an error for names that do not match a supported algorithm.
func TypeFromString(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}

	return TypeNone, fmt.Errorf("unknown compression type: %q", name)
}

// Compressor compresses a complete table payload in one call.
//
// Memory management:
//   - The returned slice is newly allocated and owned by the caller
//   - The input slice is not modified
//   - Internal buffers may be pooled and reused across calls
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
//
// Implementations validate the input framing and return an error for
// corrupted data or data produced by a different algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of one algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// ForType returns the codec implementing the given algorithm.
func ForType(t Type) (Codec, error) {
	switch t {
	case TypeNone:
		return NewNoOpCodec(), nil
	case TypeZstd:
		return NewZstdCodec(), nil
	case TypeS2:
		return NewS2Codec(), nil
	case TypeLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}
