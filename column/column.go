package column

import "github.com/gbamio/gbam/record"

// Column is the tagged-variant capability set a Reader dispatches through:
// every column, fixed or variable, can return a record's raw element bytes
// and can interpret those bytes into a Record's corresponding field (spec
// §9: "Model as a tagged variant over the capability set
// {item_bytes_by_record_number, fill_into_record}").
//
// Both fixedColumn and variableColumn satisfy Column directly; dispatch
// happens through the interface value rather than a boxed enum, which is
// the idiomatic Go rendition of the same design note.
type Column interface {
	// ItemBytes returns the raw bytes for recordNumber: exactly ElemSize
	// bytes for a fixed column, or the variable-length payload slice for a
	// variable column. The returned slice aliases the column's resident
	// block buffer and is only valid until the next call that might move
	// the column to a different block.
	ItemBytes(recordNumber int) ([]byte, error)

	// FillRecordField interprets ItemBytes(recordNumber) as this column's
	// logical field type and stores it on rec.
	FillRecordField(recordNumber int, rec *record.Record) error

	// Len returns the column's total record count.
	Len() int

	// BlockPosition resolves recordNumber to its block index and in-block
	// position. A variableColumn delegates this to its paired index column,
	// which is how it learns where record boundaries fall without
	// duplicating the prefix-sum lookup.
	BlockPosition(recordNumber int) (blockIndex, inBlock int, err error)
}
