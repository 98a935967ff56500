// Package rowsource defines the row-oriented shape a real BAM decoder would
// feed to a Writer. It is the shaped-only external collaborator from
// spec.md §6: the BAM row format and its conversion pipeline are out of
// scope, but a writer needs something concrete to consume, so this package
// specifies that shape and provides a trivial in-memory RowSource for tests
// and for round-tripping the container format.
package rowsource

import "github.com/gbamio/gbam/field"

// RowRecord is one alignment row in the original (row) order, mirroring the
// field catalog in field.All order. Variable-width fields are plain byte
// slices; a real BAM bridge would populate these from decoded CIGAR,
// sequence, quality and tag bytes.
type RowRecord struct {
	RefID          int32  `json:"ref_id"`
	Pos            int32  `json:"pos"`
	MapQ           uint8  `json:"mapq"`
	Bin            uint16 `json:"bin"`
	Flags          uint16 `json:"flags"`
	NextRefID      int32  `json:"next_ref_id"`
	NextPos        int32  `json:"next_pos"`
	TemplateLength int32  `json:"template_length"`
	NumCigarOps    uint16 `json:"num_cigar_ops"`

	ReadName    string `json:"read_name"`
	RawCigar    []byte `json:"raw_cigar"`
	RawSequence []byte `json:"raw_sequence"`
	RawQual     []byte `json:"raw_qual"`
	RawTags     []byte `json:"raw_tags"`
}

// FixedValue returns the logical value of rr's fixed-width field f as a
// concrete numeric type (int32, uint8, or uint16, depending on f); a Writer
// encodes it to little-endian bytes from there. Panics if f is not one of
// the nine fixed-width data fields (a synthetic index field included) — this
// mirrors the closed nature of the field catalog; the Writer calls it only
// for the non-index fixed fields of its configured field list.
func (rr *RowRecord) FixedValue(f field.Field) any {
	switch f {
	case field.RefID:
		return rr.RefID
	case field.Pos:
		return rr.Pos
	case field.MapQ:
		return rr.MapQ
	case field.Bin:
		return rr.Bin
	case field.Flags:
		return rr.Flags
	case field.NextRefID:
		return rr.NextRefID
	case field.NextPos:
		return rr.NextPos
	case field.TemplateLength:
		return rr.TemplateLength
	case field.NumCigarOps:
		return rr.NumCigarOps
	default:
		panic("rowsource: " + f.String() + " is not a fixed-width field")
	}
}

// VariablePayload returns rr's payload bytes for variable-width field f.
// Panics for a non-variable field, for the same reason as FixedValue.
func (rr *RowRecord) VariablePayload(f field.Field) []byte {
	switch f {
	case field.ReadName:
		return []byte(rr.ReadName)
	case field.RawCigar:
		return rr.RawCigar
	case field.RawSequence:
		return rr.RawSequence
	case field.RawQual:
		return rr.RawQual
	case field.RawTags:
		return rr.RawTags
	default:
		panic("rowsource: " + f.String() + " is not a variable-width field")
	}
}

// RowSource yields RowRecords in original order. Next returns (record,
// true, nil) for each available record and (zero, false, nil) once
// exhausted; an error aborts iteration early.
type RowSource interface {
	Next() (RowRecord, bool, error)
}

// SliceSource is a trivial in-memory RowSource backed by a pre-built slice,
// used by writer tests and anywhere the full row set is already resident.
type SliceSource struct {
	rows []RowRecord
	pos  int
}

// NewSliceSource returns a RowSource that yields rows in order.
func NewSliceSource(rows []RowRecord) *SliceSource {
	return &SliceSource{rows: rows}
}

func (s *SliceSource) Next() (RowRecord, bool, error) {
	if s.pos >= len(s.rows) {
		return RowRecord{}, false, nil
	}
	rr := s.rows[s.pos]
	s.pos++

	return rr, true, nil
}

var _ RowSource = (*SliceSource)(nil)
