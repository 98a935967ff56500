// Package meta implements the file header and metadata document: the
// bit-exact 32-byte header, and the YAML metadata document describing every
// field's codec, element size, and block descriptor list.
package meta

import (
	"encoding/binary"

	"github.com/gbamio/gbam/errs"
	"github.com/gbamio/gbam/format"
)

// Magic is the 8-byte constant identifying this container format.
var Magic = [8]byte{'G', 'B', 'A', 'M', 'F', 'M', 'T', 0x01}

// HeaderSize is the fixed size, in bytes, of the file header.
const HeaderSize = 32

// Header is the fixed-size leading record of a container file.
//
// Layout (little-endian, 32 bytes total):
//
//	offset  0..7   magic
//	offset  8..11  version major
//	offset 12..15  version minor
//	offset 16..23  metadata offset
//	offset 24..27  metadata CRC32
//	offset 28..31  reserved (zero)
type Header struct {
	Version    format.Version
	MetaOffset uint64
	MetaCRC32  uint32
}

// Bytes serializes the header into exactly HeaderSize bytes.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:8], Magic[:])
	binary.LittleEndian.PutUint32(b[8:12], h.Version.Major)
	binary.LittleEndian.PutUint32(b[12:16], h.Version.Minor)
	binary.LittleEndian.PutUint64(b[16:24], h.MetaOffset)
	binary.LittleEndian.PutUint32(b[24:28], h.MetaCRC32)
	// b[28:32] stays zero (reserved).

	return b
}

// ParseHeader parses a Header from the first HeaderSize bytes of data.
//
// Returns errs.ErrCorruptHeader if data is shorter than HeaderSize or the
// magic does not match.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.ErrCorruptHeader
	}
	if [8]byte(data[0:8]) != Magic {
		return Header{}, errs.ErrCorruptHeader
	}

	return Header{
		Version: format.Version{
			Major: binary.LittleEndian.Uint32(data[8:12]),
			Minor: binary.LittleEndian.Uint32(data[12:16]),
		},
		MetaOffset: binary.LittleEndian.Uint64(data[16:24]),
		MetaCRC32:  binary.LittleEndian.Uint32(data[24:28]),
	}, nil
}
