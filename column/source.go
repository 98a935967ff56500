// Package column implements the random-access, lazily-decompressed column
// abstraction: fixed-width columns that map a record number directly to an
// element slice, and variable-width columns that resolve a record number
// through a paired fixed-width index column first.
//
// Access model: a column owns exactly one resident decompressed block
// buffer. Advancing to a different block discards the prior buffer (spec
// §4.3, §5). A column is therefore not safe for concurrent use by multiple
// goroutines; a single Reader drives its columns from one goroutine, and an
// outer caller that wants parallelism should use one Reader (and hence one
// set of columns) per goroutine.
package column

import (
	"fmt"

	"github.com/gbamio/gbam/compress"
	"github.com/gbamio/gbam/errs"
	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/meta"
)

// blockSource fetches and decompresses one field's blocks from a
// memory-mapped byte range. It performs no caching itself; fixedColumn and
// variableColumn layer the single-resident-buffer cache on top.
type blockSource struct {
	data  []byte // the full mapped file
	field field.Field
	meta  meta.FieldMeta
	codec compress.Codec
}

func newBlockSource(data []byte, f field.Field, fm meta.FieldMeta) (*blockSource, error) {
	codec, err := compress.New(fm.Codec)
	if err != nil {
		return nil, fmt.Errorf("column: field %s: %w", f, err)
	}

	return &blockSource{data: data, field: f, meta: fm, codec: codec}, nil
}

func (s *blockSource) blockCount() int {
	return len(s.meta.Blocks)
}

// fetch reads block i's compressed bytes directly out of the mapped region
// (no copy of the compressed range) and decompresses them into a newly
// owned buffer.
func (s *blockSource) fetch(i int) ([]byte, error) {
	if i < 0 || i >= len(s.meta.Blocks) {
		return nil, errs.ErrOutOfRange
	}

	start, end := s.meta.CompressedRange(i)
	if end < start || end > uint64(len(s.data)) {
		return nil, errs.NewBlockCorrupt(s.field, i, fmt.Errorf("compressed range [%d,%d) exceeds file size %d", start, end, len(s.data)))
	}

	compressed := s.data[start:end]
	decompressed, err := s.codec.Decompress(compressed)
	if err != nil {
		return nil, errs.NewBlockCorrupt(s.field, i, err)
	}

	return decompressed, nil
}

// blockCache holds the single decompressed buffer a column keeps resident.
// requesting a different block index discards the prior buffer, per spec
// §4.3.
type blockCache struct {
	index int // -1 means no block resident
	buf   []byte
}

func newBlockCache() *blockCache {
	return &blockCache{index: -1}
}

func (c *blockCache) ensure(src *blockSource, index int) ([]byte, error) {
	if c.index == index {
		return c.buf, nil
	}

	buf, err := src.fetch(index)
	if err != nil {
		return nil, err
	}

	c.index = index
	c.buf = buf

	return buf, nil
}

// blockIndexer is the prefix-sum mapping from a global record number to the
// block that contains it (spec §4.4).
type blockIndexer struct {
	starts []int // starts[i] is the first global record number of block i
	counts []int // counts[i] is block i's item count
}

func newBlockIndexer(fm meta.FieldMeta) *blockIndexer {
	starts := make([]int, len(fm.Blocks))
	counts := make([]int, len(fm.Blocks))
	acc := 0
	for i, b := range fm.Blocks {
		starts[i] = acc
		counts[i] = int(b.NumItems)
		acc += int(b.NumItems)
	}

	return &blockIndexer{starts: starts, counts: counts}
}

// locate finds the greatest block start <= recordNumber and returns the
// block index and the in-block position. Blocks are non-empty (spec §3
// invariant), so the prefix sum is strictly increasing and this lookup is
// unambiguous.
func (bi *blockIndexer) locate(recordNumber int) (blockIndex, inBlock int, err error) {
	if recordNumber < 0 || len(bi.starts) == 0 {
		return 0, 0, errs.ErrOutOfRange
	}

	// Binary search for the rightmost start <= recordNumber.
	lo, hi := 0, len(bi.starts)-1
	found := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if bi.starts[mid] <= recordNumber {
			found = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if found < 0 {
		return 0, 0, errs.ErrOutOfRange
	}

	inBlock = recordNumber - bi.starts[found]
	if inBlock >= bi.counts[found] {
		return 0, 0, errs.ErrOutOfRange
	}

	return found, inBlock, nil
}

// total returns the sum of every block's item count.
func (bi *blockIndexer) total() int {
	if len(bi.starts) == 0 {
		return 0
	}

	return bi.starts[len(bi.starts)-1] + bi.counts[len(bi.counts)-1]
}
