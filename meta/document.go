package meta

import (
	"bytes"
	"fmt"
	"hash/crc32"

	"github.com/gbamio/gbam/errs"
	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/format"
	"gopkg.in/yaml.v3"
)

// FieldMeta is the per-field entry of the metadata document: its codec, its
// element size (fixed-width fields only), the ordered block descriptors,
// and the parallel list of compressed block sizes.
//
// BlocksSizes is tracked alongside Blocks[i].Seekpos, rather than folded
// into BlockDescriptor, to preserve the on-disk schema this format
// inherited (see spec §9's note on the redundant representation).
type FieldMeta struct {
	ItemSize    *uint32           `yaml:"item_size,omitempty"`
	BlocksSizes []uint32          `yaml:"blocks_sizes"`
	Codec       format.Codec      `yaml:"codec"`
	Blocks      []BlockDescriptor `yaml:"blocks"`
}

// CompressedRange returns the [start, end) byte range of the i-th block's
// compressed bytes within the file.
func (fm FieldMeta) CompressedRange(i int) (start, end uint64) {
	start = fm.Blocks[i].Seekpos
	end = start + uint64(fm.BlocksSizes[i])

	return start, end
}

// TotalItems sums the item counts of every block belonging to this field.
func (fm FieldMeta) TotalItems() uint64 {
	var total uint64
	for _, b := range fm.Blocks {
		total += uint64(b.NumItems)
	}

	return total
}

// Document is the file metadata: a mapping from field to its FieldMeta,
// covering exactly the set of fields present in the file.
type Document struct {
	Fields map[field.Field]FieldMeta
}

// NewDocument returns an empty Document ready to be populated by a writer.
func NewDocument() *Document {
	return &Document{Fields: make(map[field.Field]FieldMeta)}
}

// documentYAML is the on-disk shape of Document: a plain field-name-keyed
// map, which is what makes the document "self-describing" (spec §4.2) —
// the key is the field's logical name, not its numeric enum value, so a
// future field can be appended to the catalog without changing how
// existing fields round-trip.
type documentYAML struct {
	Fields map[string]FieldMeta `yaml:"fields"`
}

// Marshal serializes doc into its YAML text representation.
func Marshal(doc *Document) ([]byte, error) {
	raw := documentYAML{Fields: make(map[string]FieldMeta, len(doc.Fields))}
	for f, fm := range doc.Fields {
		raw.Fields[f.String()] = fm
	}

	return yaml.Marshal(raw)
}

// Parse deserializes a metadata document, rejecting unrecognized top-level
// keys and unrecognized field names (spec §4.2: "Non-recognized keys are
// rejected").
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw documentYAML
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMetadataMalformed, err)
	}

	doc := NewDocument()
	for name, fm := range raw.Fields {
		f, ok := field.ParseName(name)
		if !ok {
			return nil, fmt.Errorf("%w: unrecognized field %q", errs.ErrMetadataMalformed, name)
		}
		if err := validateFieldMeta(f, fm); err != nil {
			return nil, err
		}
		doc.Fields[f] = fm
	}

	return doc, nil
}

func validateFieldMeta(f field.Field, fm FieldMeta) error {
	props := f.Properties()
	if props.Variable && fm.ItemSize != nil {
		return fmt.Errorf("%w: variable field %s must not carry item_size", errs.ErrMetadataMalformed, f)
	}
	if !props.Variable && fm.ItemSize == nil {
		return fmt.Errorf("%w: fixed field %s is missing item_size", errs.ErrMetadataMalformed, f)
	}
	if len(fm.BlocksSizes) != len(fm.Blocks) {
		return fmt.Errorf("%w: field %s has %d blocks_sizes but %d blocks", errs.ErrMetadataMalformed, f, len(fm.BlocksSizes), len(fm.Blocks))
	}
	switch fm.Codec {
	case format.CodecGzip, format.CodecLZ4:
	default:
		return fmt.Errorf("%w: field %s has unknown codec tag %d", errs.ErrMetadataMalformed, f, uint8(fm.Codec))
	}
	for _, b := range fm.Blocks {
		if b.NumItems == 0 {
			return fmt.Errorf("%w: field %s has an empty block", errs.ErrMetadataMalformed, f)
		}
	}

	return nil
}

// CRC32 computes the CRC32 (IEEE 802.3 polynomial) of the exact metadata
// byte range, matching how the header's checksum is produced and verified.
func CRC32(metadataBytes []byte) uint32 {
	return crc32.ChecksumIEEE(metadataBytes)
}

// RecordCount returns the total record count implied by a field's blocks,
// used by the reader to compute the file's record count (spec §4.7 step 4)
// and to cross-check agreement across fields.
func (d *Document) RecordCount(f field.Field) uint64 {
	fm, ok := d.Fields[f]
	if !ok {
		return 0
	}

	return fm.TotalItems()
}

// CrossCheckRecordCounts verifies every field's block item counts sum to
// the same total, returning that total.
//
// Disagreement is treated as a hard error: a reader cannot safely report a
// record count if fields disagree on how many records exist.
func (d *Document) CrossCheckRecordCounts() (uint64, error) {
	var total uint64
	first := true
	for f, fm := range d.Fields {
		n := fm.TotalItems()
		if first {
			total = n
			first = false

			continue
		}
		if n != total {
			return 0, fmt.Errorf("%w: field %s has %d records, expected %d", errs.ErrMetadataMalformed, f, n, total)
		}
	}

	return total, nil
}
