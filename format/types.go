// Package format defines the small set of enumerated types shared across the
// container: the compression codec tag stored per field in the metadata
// document, and the file format version tuple stored in the header.
package format

import "fmt"

// Codec identifies the block compression algorithm used for a field.
//
// The zero value is not a valid codec; every field in a well-formed metadata
// document carries one of the named constants below.
type Codec uint8

const (
	// CodecGzip compresses blocks with gzip (klauspost/compress/gzip).
	CodecGzip Codec = 0x1
	// CodecLZ4 compresses blocks with LZ4 (github.com/pierrec/lz4/v4).
	CodecLZ4 Codec = 0x2
)

func (c Codec) String() string {
	switch c {
	case CodecGzip:
		return "gzip"
	case CodecLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// MarshalYAML renders the codec as its lowercase tag so the metadata document
// stays a readable, self-describing text file rather than a bare integer.
func (c Codec) MarshalYAML() (any, error) {
	if c != CodecGzip && c != CodecLZ4 {
		return nil, fmt.Errorf("format: invalid codec tag %d", uint8(c))
	}

	return c.String(), nil
}

// UnmarshalYAML parses the codec tag, rejecting anything but "gzip"/"lz4".
func (c *Codec) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	switch s {
	case "gzip":
		*c = CodecGzip
	case "lz4":
		*c = CodecLZ4
	default:
		return fmt.Errorf("format: unknown codec tag %q", s)
	}

	return nil
}

// Version is the (major, minor) version tuple stored in the file header.
//
// Version gating policy: a reader rejects files whose major version differs
// from CurrentVersion.Major, and accepts any minor version — minor bumps
// are additive per field and an older reader may simply not know about
// newer optional fields.
type Version struct {
	Major uint32
	Minor uint32
}

// CurrentVersion is the version this package writes and expects to read.
var CurrentVersion = Version{Major: 1, Minor: 0}

// CompatibleWith reports whether a file written with v can be read by this
// package, per the version gating policy documented on Version.
func (v Version) CompatibleWith(current Version) bool {
	return v.Major == current.Major
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
