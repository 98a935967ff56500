// Package compress provides the block-level compression codecs used by the
// container format. Every field's blocks are compressed with exactly one of
// the codecs enumerated in format.Codec; the metadata document records
// which one per field.
package compress

import (
	"fmt"

	"github.com/gbamio/gbam/format"
)

// Codec compresses and decompresses a field's block payloads.
//
// Compress and Decompress are the only two operations the column engine
// needs. Implementations in this package are safe for concurrent use by
// multiple goroutines (each call is independent), but a single column never
// calls into its codec concurrently with itself — see the package doc of
// the column package for the per-column access model.
type Codec interface {
	// Compress compresses data and returns a newly allocated result. The
	// input is never retained or modified.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns a newly allocated result.
	Decompress(data []byte) ([]byte, error)
}

// New returns the Codec implementation for the given tag.
//
// Returns an error for any tag outside format.CodecGzip/format.CodecLZ4 —
// the metadata document's codec field is a closed enumeration and an
// unrecognized tag must fail loudly (spec: "Unknown codec tags are
// rejected") rather than silently falling back to a default.
func New(tag format.Codec) (Codec, error) {
	switch tag {
	case format.CodecGzip:
		return NewGzipCodec(), nil
	case format.CodecLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("compress: unknown codec tag %d", uint8(tag))
	}
}
