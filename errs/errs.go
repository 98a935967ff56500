// Package errs defines the error kinds surfaced by the reader and writer, as
// sentinel or typed values usable with errors.Is / errors.As.
package errs

import (
	"errors"
	"fmt"

	"github.com/gbamio/gbam/field"
)

var (
	// ErrCorruptHeader is returned when the header is shorter than 32 bytes
	// or its magic bytes do not match the expected constant.
	ErrCorruptHeader = errors.New("gbam: corrupt header")

	// ErrMetadataCorrupt is returned when the stored metadata CRC32 does not
	// match the CRC32 of the metadata byte range actually present.
	ErrMetadataCorrupt = errors.New("gbam: metadata checksum mismatch")

	// ErrMetadataMalformed is returned when the metadata document fails to
	// parse, references an unrecognized field name, or carries an unknown
	// codec tag.
	ErrMetadataMalformed = errors.New("gbam: metadata malformed")

	// ErrOutOfRange is returned when a record number is >= the file's
	// record count, or a field is requested that is not in the active
	// parsing template.
	ErrOutOfRange = errors.New("gbam: record or field out of range")

	// ErrIO wraps host I/O or memory-mapping failures.
	ErrIO = errors.New("gbam: io error")

	// ErrVersionIncompatible is returned when a file's major version does
	// not match the version this package was built to read.
	ErrVersionIncompatible = errors.New("gbam: incompatible file version")
)

// BlockCorruptError reports a decompression failure or a size mismatch for
// one specific (field, block index) pair.
type BlockCorruptError struct {
	Field      field.Field
	BlockIndex int
	Err        error
}

func (e *BlockCorruptError) Error() string {
	return fmt.Sprintf("gbam: block %d of field %s is corrupt: %v", e.BlockIndex, e.Field, e.Err)
}

func (e *BlockCorruptError) Unwrap() error {
	return e.Err
}

// NewBlockCorrupt constructs a BlockCorruptError for the given field/block.
func NewBlockCorrupt(f field.Field, blockIndex int, cause error) error {
	return &BlockCorruptError{Field: f, BlockIndex: blockIndex, Err: cause}
}
