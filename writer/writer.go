// Package writer implements the supplemented write side (SPEC_FULL.md §S1):
// a row-source is consumed, each active field's bytes are buffered and
// flushed as a compressed block once a configurable item threshold is
// reached, and on Close the metadata document, its CRC32, and the 32-byte
// header are written out.
//
// Write-side concurrency is explicitly out of scope (spec.md Non-goals): a
// Writer is driven by exactly one goroutine, sequentially, start to finish.
package writer

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/gbamio/gbam/compress"
	"github.com/gbamio/gbam/errs"
	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/format"
	"github.com/gbamio/gbam/internal/options"
	"github.com/gbamio/gbam/internal/pool"
	"github.com/gbamio/gbam/meta"
	"github.com/gbamio/gbam/rowsource"
)

// DefaultBlockThreshold is the number of items buffered per field before a
// block is flushed, used when WithBlockThreshold is not given.
const DefaultBlockThreshold = 4096

// Option configures a Writer at construction time.
type Option = options.Option[*config]

type config struct {
	codec          format.Codec
	blockThreshold int
	logger         *zap.Logger
	fields         []field.Field
}

func newConfig() *config {
	return &config{
		codec:          format.CodecLZ4,
		blockThreshold: DefaultBlockThreshold,
		logger:         zap.NewNop(),
		fields:         field.All(),
	}
}

// WithCodec sets the block codec used for every field. Default: LZ4.
func WithCodec(c format.Codec) Option {
	return options.New(func(cfg *config) error {
		if c != format.CodecGzip && c != format.CodecLZ4 {
			return fmt.Errorf("writer: unknown codec tag %d", uint8(c))
		}
		cfg.codec = c

		return nil
	})
}

// WithBlockThreshold sets how many items are buffered per field before a
// block is flushed. Default: DefaultBlockThreshold.
func WithBlockThreshold(n int) Option {
	return options.New(func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("writer: block threshold must be positive, got %d", n)
		}
		cfg.blockThreshold = n

		return nil
	})
}

// WithLogger injects a *zap.Logger for structured diagnostics.
func WithLogger(l *zap.Logger) Option {
	return options.NoError(func(cfg *config) { cfg.logger = l })
}

// WithFields restricts which fields the writer emits. Default: every field
// in the closed catalog (field.All()).
func WithFields(fields ...field.Field) Option {
	return options.NoError(func(cfg *config) { cfg.fields = fields })
}

// normalizeFields applies the same index-field activation invariant as
// template.Set: a variable field configured for output also pulls in its
// paired index field, since a variable column cannot be written without it.
func normalizeFields(fields []field.Field) []field.Field {
	present := make(map[field.Field]bool, len(fields)*2)
	out := make([]field.Field, 0, len(fields)*2)
	add := func(f field.Field) {
		if !present[f] {
			present[f] = true
			out = append(out, f)
		}
	}

	for _, f := range fields {
		add(f)
		if props := f.Properties(); props.Variable {
			add(props.IndexField)
		}
	}

	return out
}

// fieldState tracks one field's in-progress block buffer and finished block
// descriptors.
type fieldState struct {
	field field.Field
	codec compress.Codec
	buf   *pool.ByteBuffer
	items int

	meta meta.FieldMeta

	// runningOffset tracks the cumulative end-offset for a variable field's
	// current block; reset to 0 at each block boundary (spec §4.5
	// invariant). Variable fields only; the value is appended to the paired
	// index field's buffer.
	runningOffset uint32
}

// Writer sequentially encodes a row source into the container format.
type Writer struct {
	out    io.WriteSeeker
	file   *os.File
	offset uint64

	cfg   *config
	state map[field.Field]*fieldState

	logger *zap.Logger
	closed bool
}

// Create opens path for writing and returns a Writer over it.
func Create(path string, opts ...Option) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	w, err := New(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.file = f

	return w, nil
}

// New constructs a Writer over an arbitrary io.WriteSeeker — useful for
// tests that write into an in-memory buffer rather than a real file.
func New(out io.WriteSeeker, opts ...Option) (*Writer, error) {
	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	cfg.fields = normalizeFields(cfg.fields)

	// Reserve the 32-byte header; it is rewritten with real values on Close.
	if _, err := out.Write(make([]byte, meta.HeaderSize)); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	w := &Writer{
		out:    out,
		offset: meta.HeaderSize,
		cfg:    cfg,
		state:  make(map[field.Field]*fieldState, len(cfg.fields)),
		logger: cfg.logger,
	}

	for _, f := range cfg.fields {
		codec, err := compress.New(cfg.codec)
		if err != nil {
			return nil, err
		}

		props := f.Properties()
		fm := meta.FieldMeta{Codec: cfg.codec}
		if !props.Variable {
			size := uint32(props.ElemSize)
			fm.ItemSize = &size
		}

		w.state[f] = &fieldState{
			field: f,
			codec: codec,
			buf:   pool.NewByteBuffer(pool.DefaultBufferSize),
			meta:  fm,
		}
	}

	return w, nil
}

// WriteRow encodes one row into every configured field's buffer, flushing
// any field whose buffer reaches the block threshold.
func (w *Writer) WriteRow(rr rowsource.RowRecord) error {
	if w.closed {
		return fmt.Errorf("%w: write after close", errs.ErrIO)
	}

	for _, f := range w.cfg.fields {
		if f.Properties().IsIndex {
			continue // driven implicitly by its paired variable field below
		}

		if err := w.appendField(f, rr); err != nil {
			return err
		}
	}

	return nil
}

func (w *Writer) appendField(f field.Field, rr rowsource.RowRecord) error {
	props := f.Properties()
	st := w.state[f]

	if !props.Variable {
		appendFixedValue(st.buf, rr.FixedValue(f))
		st.items++
		if st.items >= w.cfg.blockThreshold {
			return w.flushFixed(st)
		}

		return nil
	}

	payload := rr.VariablePayload(f)
	st.buf.MustWrite(payload)
	st.runningOffset += uint32(len(payload))
	st.items++

	idxSt, ok := w.state[props.IndexField]
	if !ok {
		return fmt.Errorf("writer: variable field %s configured without its index field %s", f, props.IndexField)
	}
	appendFixedValue(idxSt.buf, st.runningOffset)
	idxSt.items++

	if st.items >= w.cfg.blockThreshold {
		return w.flushVariable(st, idxSt)
	}

	return nil
}

// appendFixedValue little-endian-encodes v and appends it to buf.
func appendFixedValue(buf *pool.ByteBuffer, v any) {
	switch x := v.(type) {
	case int32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(x))
		buf.MustWrite(b)
	case uint32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, x)
		buf.MustWrite(b)
	case uint16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, x)
		buf.MustWrite(b)
	case uint8:
		buf.MustWrite([]byte{x})
	default:
		panic(fmt.Sprintf("writer: unsupported fixed value type %T", v))
	}
}

func (w *Writer) flushFixed(st *fieldState) error {
	if st.items == 0 {
		return nil
	}

	compressed, err := st.codec.Compress(st.buf.Bytes())
	if err != nil {
		return err
	}

	if _, err := w.out.Write(compressed); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	st.meta.Blocks = append(st.meta.Blocks, meta.BlockDescriptor{Seekpos: w.offset, NumItems: uint32(st.items)})
	st.meta.BlocksSizes = append(st.meta.BlocksSizes, uint32(len(compressed)))
	w.offset += uint64(len(compressed))

	st.buf.Reset()
	st.items = 0

	return nil
}

func (w *Writer) flushVariable(st, idxSt *fieldState) error {
	if st.items == 0 {
		return nil
	}

	if err := w.flushFixed(st); err != nil {
		return err
	}
	if err := w.flushFixed(idxSt); err != nil {
		return err
	}

	// Per spec §4.5, the index column's end-offsets reset at each block
	// boundary.
	st.runningOffset = 0

	return nil
}

// WriteAll drains src, calling WriteRow for every row it yields.
func (w *Writer) WriteAll(src rowsource.RowSource) error {
	for {
		rr, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := w.WriteRow(rr); err != nil {
			return err
		}
	}
}

// Close flushes any partially-filled blocks, serializes the metadata
// document, writes it, and rewrites the header with the real version,
// metadata offset and CRC32. The underlying file (if any) is also closed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	doc := meta.NewDocument()
	for _, f := range w.cfg.fields {
		st := w.state[f]
		props := f.Properties()

		if props.Variable {
			idxSt := w.state[props.IndexField]
			if err := w.flushVariable(st, idxSt); err != nil {
				return err
			}
		} else if !props.IsIndex {
			if err := w.flushFixed(st); err != nil {
				return err
			}
		}
		// Index fields are flushed as a side effect of flushVariable above.
	}
	for _, f := range w.cfg.fields {
		doc.Fields[f] = w.state[f].meta
	}

	metaOffset := w.offset
	metaBytes, err := meta.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := w.out.Write(metaBytes); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	header := meta.Header{
		Version:    format.CurrentVersion,
		MetaOffset: metaOffset,
		MetaCRC32:  meta.CRC32(metaBytes),
	}

	if _, err := w.out.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	if _, err := w.out.Write(header.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	w.logger.Debug("gbam writer closed", zap.Uint64("meta_offset", metaOffset), zap.Int("field_count", len(doc.Fields)))

	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
	}

	return nil
}
