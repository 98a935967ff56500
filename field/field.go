// Package field enumerates the closed set of alignment-record fields known
// to the container format: the fixed-width BAM-equivalent attributes, the
// variable-width payload fields, and the synthetic end-offset index field
// paired with each variable field.
//
// The set is closed and stable: metadata documents key field entries by the
// logical name returned by Field.String, not by the numeric value of Field,
// so appending a new field to this catalog does not change how existing
// fields are encoded (see meta.Document). A reader that predates a field
// rejects a metadata document naming it (meta.Parse).
package field

// Field is an enumerated alignment-record attribute.
type Field uint8

const (
	RefID Field = iota
	Pos
	MapQ
	Bin
	Flags
	NextRefID
	NextPos
	TemplateLength
	NumCigarOps

	ReadName
	RawCigar
	RawSequence
	RawQual
	RawTags

	ReadNameIndex
	RawCigarIndex
	RawSequenceIndex
	RawQualIndex
	RawTagsIndex

	fieldCount
)

// Properties describes the static, per-field characteristics that the
// column engine needs: whether the field is fixed- or variable-width, the
// element size in bytes (fixed fields only), and the paired index field
// (variable fields only).
type Properties struct {
	Name       string
	Variable   bool
	ElemSize   int // valid iff !Variable
	IndexField Field
	IsIndex    bool // true if this field is itself a synthetic index field
}

var catalog = [fieldCount]Properties{
	RefID:          {Name: "RefID", ElemSize: 4},
	Pos:            {Name: "Pos", ElemSize: 4},
	MapQ:           {Name: "MapQ", ElemSize: 1},
	Bin:            {Name: "Bin", ElemSize: 2},
	Flags:          {Name: "Flags", ElemSize: 2},
	NextRefID:      {Name: "NextRefID", ElemSize: 4},
	NextPos:        {Name: "NextPos", ElemSize: 4},
	TemplateLength: {Name: "TemplateLength", ElemSize: 4},
	NumCigarOps:    {Name: "NumCigarOps", ElemSize: 2},

	ReadName:    {Name: "ReadName", Variable: true, IndexField: ReadNameIndex},
	RawCigar:    {Name: "RawCigar", Variable: true, IndexField: RawCigarIndex},
	RawSequence: {Name: "RawSequence", Variable: true, IndexField: RawSequenceIndex},
	RawQual:     {Name: "RawQual", Variable: true, IndexField: RawQualIndex},
	RawTags:     {Name: "RawTags", Variable: true, IndexField: RawTagsIndex},

	ReadNameIndex:    {Name: "ReadNameIndex", ElemSize: 4, IsIndex: true},
	RawCigarIndex:    {Name: "RawCigarIndex", ElemSize: 4, IsIndex: true},
	RawSequenceIndex: {Name: "RawSequenceIndex", ElemSize: 4, IsIndex: true},
	RawQualIndex:     {Name: "RawQualIndex", ElemSize: 4, IsIndex: true},
	RawTagsIndex:     {Name: "RawTagsIndex", ElemSize: 4, IsIndex: true},
}

var byName map[string]Field

func init() {
	byName = make(map[string]Field, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		byName[catalog[f].Name] = f
	}
}

// Properties returns the static properties of f.
//
// Panics if f is not a member of the closed field set; callers only ever
// construct a Field via the named constants or ParseName, both of which are
// guaranteed to be in range.
func (f Field) Properties() Properties {
	return catalog[f]
}

func (f Field) String() string {
	return catalog[f].Name
}

// ParseName resolves a field's logical name back to its Field value, as
// used when deserializing the metadata document's field-name-keyed map.
func ParseName(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// All returns every field in the closed catalog, in declaration order.
func All() []Field {
	out := make([]Field, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out[f] = f
	}

	return out
}
