package reader

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gbamio/gbam/compress"
	"github.com/gbamio/gbam/errs"
	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/format"
	"github.com/gbamio/gbam/meta"
	"github.com/gbamio/gbam/record"
)

func le4(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le2(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// containerBuilder assembles a minimal, valid container file in memory:
// one block per field, uncompressed payloads wrapped through the gzip
// codec so the on-disk bytes are real compressed blocks.
type containerBuilder struct {
	t    *testing.T
	data []byte
	doc  *meta.Document
}

func newContainerBuilder(t *testing.T) *containerBuilder {
	t.Helper()
	return &containerBuilder{t: t, data: make([]byte, meta.HeaderSize), doc: meta.NewDocument()}
}

func (b *containerBuilder) addFixed(f field.Field, itemSize uint32, raw []byte, numItems uint32) {
	b.t.Helper()
	c, err := compress.New(format.CodecGzip)
	require.NoError(b.t, err)
	compressed, err := c.Compress(raw)
	require.NoError(b.t, err)

	seekpos := uint64(len(b.data))
	b.data = append(b.data, compressed...)
	b.doc.Fields[f] = meta.FieldMeta{
		ItemSize:    &itemSize,
		Codec:       format.CodecGzip,
		BlocksSizes: []uint32{uint32(len(compressed))},
		Blocks:      []meta.BlockDescriptor{{Seekpos: seekpos, NumItems: numItems}},
	}
}

func (b *containerBuilder) addVariable(f field.Field, payload []byte, ends []uint32) {
	b.t.Helper()
	c, err := compress.New(format.CodecGzip)
	require.NoError(b.t, err)

	compressed, err := c.Compress(payload)
	require.NoError(b.t, err)
	seekpos := uint64(len(b.data))
	b.data = append(b.data, compressed...)
	b.doc.Fields[f] = meta.FieldMeta{
		Codec:       format.CodecGzip,
		BlocksSizes: []uint32{uint32(len(compressed))},
		Blocks:      []meta.BlockDescriptor{{Seekpos: seekpos, NumItems: uint32(len(ends))}},
	}

	var idxBuf []byte
	for _, e := range ends {
		idxBuf = append(idxBuf, le4(e)...)
	}
	idxCompressed, err := c.Compress(idxBuf)
	require.NoError(b.t, err)
	idxSeekpos := uint64(len(b.data))
	b.data = append(b.data, idxCompressed...)

	idxSize := uint32(4)
	b.doc.Fields[f.Properties().IndexField] = meta.FieldMeta{
		ItemSize:    &idxSize,
		Codec:       format.CodecGzip,
		BlocksSizes: []uint32{uint32(len(idxCompressed))},
		Blocks:      []meta.BlockDescriptor{{Seekpos: idxSeekpos, NumItems: uint32(len(ends))}},
	}
}

// finish serializes the metadata document, writes the header, and returns
// the complete container bytes.
func (b *containerBuilder) finish() []byte {
	b.t.Helper()

	metaOffset := uint64(len(b.data))
	metaBytes, err := meta.Marshal(b.doc)
	require.NoError(b.t, err)
	b.data = append(b.data, metaBytes...)

	h := meta.Header{
		Version:    format.CurrentVersion,
		MetaOffset: metaOffset,
		MetaCRC32:  meta.CRC32(metaBytes),
	}
	copy(b.data[0:meta.HeaderSize], h.Bytes())

	return b.data
}

func TestOpenBytes_FixedFieldRead(t *testing.T) {
	// S3: Flags = [0x0001, 0x0004, 0x0400] in one block.
	b := newContainerBuilder(t)
	raw := append(append(le2(0x0001), le2(0x0004)...), le2(0x0400)...)
	b.addFixed(field.Flags, 2, raw, 3)
	data := b.finish()

	r, err := OpenBytes(data)
	require.NoError(t, err)
	require.Equal(t, 3, r.RecordCount())

	var rec record.Record
	for i, want := range []uint16{0x0001, 0x0004, 0x0400} {
		require.NoError(t, r.FillRecord(i, &rec))
		require.NotNil(t, rec.Flags)
		require.Equal(t, want, *rec.Flags)
	}
}

func TestOpenBytes_VariableFieldRead(t *testing.T) {
	// S4: read-name payloads "a", "bc", "def" in one block -> index [1,3,6].
	b := newContainerBuilder(t)
	b.addVariable(field.ReadName, []byte("abcdef"), []uint32{1, 3, 6})
	data := b.finish()

	r, err := OpenBytes(data)
	require.NoError(t, err)

	var rec record.Record
	require.NoError(t, r.FillRecord(1, &rec))
	require.NotNil(t, rec.ReadName)
	require.Equal(t, "bc", *rec.ReadName)
}

func TestOpenBytes_BadMagic(t *testing.T) {
	b := newContainerBuilder(t)
	b.addFixed(field.MapQ, 1, []byte{1, 2, 3}, 3)
	data := b.finish()
	data[0] = 'X'

	_, err := OpenBytes(data)
	require.ErrorIs(t, err, errs.ErrCorruptHeader)
}

func TestOpenBytes_MetadataCRCMismatch(t *testing.T) {
	b := newContainerBuilder(t)
	b.addFixed(field.MapQ, 1, []byte{1, 2, 3}, 3)
	data := b.finish()
	data[len(data)-1] ^= 0xFF // flip a byte inside the metadata region

	_, err := OpenBytes(data)
	require.ErrorIs(t, err, errs.ErrMetadataCorrupt)
}

func TestFetchOnly_RestoreTemplate(t *testing.T) {
	b := newContainerBuilder(t)
	b.addFixed(field.RefID, 4, append(le4(1), le4(2)...), 2)
	b.addFixed(field.Pos, 4, append(le4(10), le4(20)...), 2)
	data := b.finish()

	r, err := OpenBytes(data)
	require.NoError(t, err)

	_, err = r.Column(field.Pos)
	require.NoError(t, err)

	require.NoError(t, r.FetchOnly(field.RefID))
	_, err = r.Column(field.Pos)
	require.Error(t, err)

	require.NoError(t, r.RestoreTemplate())
	_, err = r.Column(field.Pos)
	require.NoError(t, err)
}

// TestFetchOnly_SelectiveRead_ExcludesUnrelatedFieldColumns is the selective
// read scenario (spec §8 S6) at the reader level: narrowing the active
// template to a subset of fields must leave no column constructed for the
// excluded fields, so FillRecord over the narrowed template cannot reach —
// let alone decompress — their blocks. (column.TestColumn_SelectiveRead_OnlyDecompressesTouchedBlocks
// covers the complementary, per-column guarantee that even a constructed
// column only decompresses blocks it is actually asked for.)
func TestFetchOnly_SelectiveRead_ExcludesUnrelatedFieldColumns(t *testing.T) {
	b := newContainerBuilder(t)
	b.addFixed(field.RefID, 4, append(le4(1), le4(2)...), 2)
	b.addFixed(field.Pos, 4, append(le4(10), le4(20)...), 2)
	b.addVariable(field.ReadName, []byte("ax"), []uint32{1, 2})
	data := b.finish()

	r, err := OpenBytes(data)
	require.NoError(t, err)

	require.NoError(t, r.FetchOnly(field.RefID))

	_, err = r.Column(field.RefID)
	require.NoError(t, err, "the fetched field must have a column")

	for _, excluded := range []field.Field{field.Pos, field.ReadName, field.ReadNameIndex} {
		_, err = r.Column(excluded)
		require.ErrorIs(t, err, errs.ErrOutOfRange, "excluded field %s must have no constructed column", excluded)
	}

	var rec record.Record
	require.NoError(t, r.FillRecord(0, &rec))
	require.NotNil(t, rec.RefID)
	require.Nil(t, rec.Pos, "a field outside the narrowed template must never populate the record")
	require.Nil(t, rec.ReadName)

	require.NoError(t, r.RestoreTemplate())
}

func TestRecords_Iterator(t *testing.T) {
	b := newContainerBuilder(t)
	b.addFixed(field.MapQ, 1, []byte{5, 6, 7}, 3)
	data := b.finish()

	r, err := OpenBytes(data)
	require.NoError(t, err)

	var got []uint8
	for _, rec := range r.Records() {
		got = append(got, *rec.MapQ)
	}
	require.Equal(t, []uint8{5, 6, 7}, got)
}

func TestFillRecord_OutOfRange(t *testing.T) {
	b := newContainerBuilder(t)
	b.addFixed(field.MapQ, 1, []byte{5}, 1)
	data := b.finish()

	r, err := OpenBytes(data)
	require.NoError(t, err)

	var rec record.Record
	err = r.FillRecord(1, &rec)
	require.ErrorIs(t, err, errs.ErrOutOfRange)
}
