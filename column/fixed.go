package column

import (
	"fmt"

	"github.com/gbamio/gbam/errs"
	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/meta"
	"github.com/gbamio/gbam/record"
)

// fixedColumn is a random-access reader over a fixed-width field: it maps a
// record number to (block, in-block offset) via a prefix-sum index, then
// slices the element out of whichever block is currently resident (spec
// §4.4).
type fixedColumn struct {
	field    field.Field
	itemSize int
	source   *blockSource
	indexer  *blockIndexer
	cache    *blockCache
}

var _ Column = (*fixedColumn)(nil)

// NewFixed constructs a fixed column for f over the mapped file data, using
// fm as f's field metadata.
func NewFixed(f field.Field, data []byte, fm meta.FieldMeta) (*fixedColumn, error) {
	if fm.ItemSize == nil {
		return nil, fmt.Errorf("column: field %s has no item_size, cannot be a fixed column", f)
	}

	src, err := newBlockSource(data, f, fm)
	if err != nil {
		return nil, err
	}

	return &fixedColumn{
		field:    f,
		itemSize: int(*fm.ItemSize),
		source:   src,
		indexer:  newBlockIndexer(fm),
		cache:    newBlockCache(),
	}, nil
}

func (c *fixedColumn) Len() int {
	return c.indexer.total()
}

// ItemBytes returns the exactly-itemSize-byte slice for recordNumber.
func (c *fixedColumn) ItemBytes(recordNumber int) ([]byte, error) {
	blockIndex, inBlock, err := c.indexer.locate(recordNumber)
	if err != nil {
		return nil, err
	}

	buf, err := c.cache.ensure(c.source, blockIndex)
	if err != nil {
		return nil, err
	}

	start := inBlock * c.itemSize
	end := start + c.itemSize
	if end > len(buf) {
		return nil, errs.NewBlockCorrupt(c.field, blockIndex, fmt.Errorf("item %d needs bytes [%d,%d) but decompressed block is only %d bytes", inBlock, start, end, len(buf)))
	}

	return buf[start:end], nil
}

func (c *fixedColumn) BlockPosition(recordNumber int) (blockIndex, inBlock int, err error) {
	return c.indexer.locate(recordNumber)
}

func (c *fixedColumn) FillRecordField(recordNumber int, rec *record.Record) error {
	raw, err := c.ItemBytes(recordNumber)
	if err != nil {
		return err
	}

	return rec.SetFixed(c.field, raw)
}
