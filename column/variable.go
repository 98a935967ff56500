package column

import (
	"encoding/binary"
	"fmt"

	"github.com/gbamio/gbam/errs"
	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/meta"
	"github.com/gbamio/gbam/record"
)

// variableColumn is a random-access reader over a variable-width field. It
// is composed of the field's own data blocks plus a paired fixedColumn over
// the index field, which stores per-record cumulative end offsets within
// each block (spec §4.5).
type variableColumn struct {
	field  field.Field
	source *blockSource
	index  Column
	cache  *blockCache
}

var _ Column = (*variableColumn)(nil)

// NewVariable constructs a variable column for f, pairing it with the
// already-built column over f's index field. indexCol is accepted as the
// Column interface rather than a concrete *fixedColumn so the reader
// package never needs to know the concrete column type it built.
func NewVariable(f field.Field, data []byte, fm meta.FieldMeta, indexCol Column) (*variableColumn, error) {
	src, err := newBlockSource(data, f, fm)
	if err != nil {
		return nil, err
	}

	return &variableColumn{field: f, source: src, index: indexCol, cache: newBlockCache()}, nil
}

func (c *variableColumn) Len() int {
	return c.index.Len()
}

// ItemBytes resolves recordNumber's payload slice:
//  1. the index column locates the block and in-block position;
//  2. the index column's value at recordNumber is the payload's end offset;
//  3. the start offset is 0 at the start of a block, or else the previous
//     record's end offset (same block, so no cross-block read is needed);
//  4. the data block is decompressed (if not already resident) and sliced.
func (c *variableColumn) ItemBytes(recordNumber int) ([]byte, error) {
	blockIndex, inBlock, err := c.index.BlockPosition(recordNumber)
	if err != nil {
		return nil, err
	}

	endRaw, err := c.index.ItemBytes(recordNumber)
	if err != nil {
		return nil, err
	}
	end := binary.LittleEndian.Uint32(endRaw)

	var start uint32
	if inBlock > 0 {
		startRaw, err := c.index.ItemBytes(recordNumber - 1)
		if err != nil {
			return nil, err
		}
		start = binary.LittleEndian.Uint32(startRaw)
	}

	buf, err := c.cache.ensure(c.source, blockIndex)
	if err != nil {
		return nil, err
	}

	if start > end || uint64(end) > uint64(len(buf)) {
		return nil, errs.NewBlockCorrupt(c.field, blockIndex, fmt.Errorf("payload range [%d,%d) exceeds decompressed block length %d", start, end, len(buf)))
	}

	return buf[start:end], nil
}

func (c *variableColumn) BlockPosition(recordNumber int) (blockIndex, inBlock int, err error) {
	return c.index.BlockPosition(recordNumber)
}

func (c *variableColumn) FillRecordField(recordNumber int, rec *record.Record) error {
	raw, err := c.ItemBytes(recordNumber)
	if err != nil {
		return err
	}

	return rec.SetVariable(c.field, raw)
}
