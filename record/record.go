// Package record defines the materialized alignment record: one logical row
// with a pointer-typed attribute per catalog field. A field's pointer is
// nil unless the reader's active parsing template included that field for
// the call that populated the record (spec §3: "records are optional
// fields").
package record

import (
	"encoding/binary"
	"fmt"

	"github.com/gbamio/gbam/field"
)

// Record is one alignment row. Every attribute mirrors one field.Field;
// unset attributes are nil, reflecting that the corresponding field was not
// part of the active parsing template when the record was filled.
type Record struct {
	RefID          *int32
	Pos            *int32
	MapQ           *uint8
	Bin            *uint16
	Flags          *uint16
	NextRefID      *int32
	NextPos        *int32
	TemplateLength *int32
	NumCigarOps    *uint16

	ReadName    *string
	RawCigar    []byte
	RawSequence []byte
	RawQual     []byte
	RawTags     []byte
}

// Reset clears every attribute back to absent, so a single Record can be
// reused across fill_record calls without re-allocating.
func (r *Record) Reset() {
	*r = Record{}
}

// SetFixed interprets raw as the logical type of f and stores it on r.
//
// raw must be exactly field.Field.Properties().ElemSize bytes, little-endian
// (spec §6: the container is little-endian throughout).
func (r *Record) SetFixed(f field.Field, raw []byte) error {
	switch f {
	case field.RefID:
		v := int32(binary.LittleEndian.Uint32(raw))
		r.RefID = &v
	case field.Pos:
		v := int32(binary.LittleEndian.Uint32(raw))
		r.Pos = &v
	case field.MapQ:
		v := raw[0]
		r.MapQ = &v
	case field.Bin:
		v := binary.LittleEndian.Uint16(raw)
		r.Bin = &v
	case field.Flags:
		v := binary.LittleEndian.Uint16(raw)
		r.Flags = &v
	case field.NextRefID:
		v := int32(binary.LittleEndian.Uint32(raw))
		r.NextRefID = &v
	case field.NextPos:
		v := int32(binary.LittleEndian.Uint32(raw))
		r.NextPos = &v
	case field.TemplateLength:
		v := int32(binary.LittleEndian.Uint32(raw))
		r.TemplateLength = &v
	case field.NumCigarOps:
		v := binary.LittleEndian.Uint16(raw)
		r.NumCigarOps = &v
	case field.ReadNameIndex, field.RawCigarIndex, field.RawSequenceIndex, field.RawQualIndex, field.RawTagsIndex:
		// Index fields are never materialized into a record directly; they
		// exist only to drive variable column lookups (spec §4.6).
		return nil
	default:
		return fmt.Errorf("record: %s is not a fixed-width field", f)
	}

	return nil
}

// SetVariable stores a copy of raw as the variable field f's payload.
//
// A copy is required: raw aliases a column's single resident decompressed
// block buffer, which the next FillRecord call may evict and overwrite
// (spec §9: "per-column mutable cache").
func (r *Record) SetVariable(f field.Field, raw []byte) error {
	owned := append([]byte(nil), raw...)
	switch f {
	case field.ReadName:
		s := string(owned)
		r.ReadName = &s
	case field.RawCigar:
		r.RawCigar = owned
	case field.RawSequence:
		r.RawSequence = owned
	case field.RawQual:
		r.RawQual = owned
	case field.RawTags:
		r.RawTags = owned
	default:
		return fmt.Errorf("record: %s is not a variable-width field", f)
	}

	return nil
}

// Has reports whether f was populated on r.
func (r *Record) Has(f field.Field) bool {
	switch f {
	case field.RefID:
		return r.RefID != nil
	case field.Pos:
		return r.Pos != nil
	case field.MapQ:
		return r.MapQ != nil
	case field.Bin:
		return r.Bin != nil
	case field.Flags:
		return r.Flags != nil
	case field.NextRefID:
		return r.NextRefID != nil
	case field.NextPos:
		return r.NextPos != nil
	case field.TemplateLength:
		return r.TemplateLength != nil
	case field.NumCigarOps:
		return r.NumCigarOps != nil
	case field.ReadName:
		return r.ReadName != nil
	case field.RawCigar:
		return r.RawCigar != nil
	case field.RawSequence:
		return r.RawSequence != nil
	case field.RawQual:
		return r.RawQual != nil
	case field.RawTags:
		return r.RawTags != nil
	default:
		return false
	}
}
