// Package reader is the composition root: it memory-maps a container file,
// validates its header and metadata, builds one column per active field
// (spec §4.7), and exposes record materialization and raw column access.
package reader

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	"github.com/gbamio/gbam/column"
	"github.com/gbamio/gbam/errs"
	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/format"
	"github.com/gbamio/gbam/internal/options"
	"github.com/gbamio/gbam/meta"
	"github.com/gbamio/gbam/record"
	"github.com/gbamio/gbam/template"
)

// Option configures a Reader at construction time.
type Option = options.Option[*config]

type config struct {
	logger   *zap.Logger
	template *template.Template
}

func newConfig() *config {
	return &config{logger: zap.NewNop()}
}

// WithLogger injects a *zap.Logger for structured diagnostics. The default
// is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return options.NoError(func(c *config) { c.logger = l })
}

// WithTemplate sets the parsing template a Reader is constructed with. The
// default, if this option is not given, activates every field actually
// present in the file's metadata document.
func WithTemplate(t *template.Template) Option {
	return options.NoError(func(c *config) { c.template = t })
}

// Reader is a read-only, memory-mapped view over one container file.
//
// Not safe for concurrent use by multiple goroutines (spec §5): a column
// mutates a single resident block buffer, so concurrent FillRecord calls on
// the same Reader can race. Open a separate Reader per goroutine instead.
type Reader struct {
	file *os.File
	mm   mmap.MMap
	data []byte

	header meta.Header
	doc    *meta.Document

	recordCount int

	logger *zap.Logger

	template      *template.Template
	savedTemplate *template.Template

	columns map[field.Field]column.Column
}

// Open memory-maps path and constructs a Reader over it.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	r, err := newReader([]byte(mm), opts...)
	if err != nil {
		mm.Unmap()
		f.Close()
		return nil, err
	}
	r.file = f
	r.mm = mm

	return r, nil
}

// OpenBytes constructs a Reader directly over an in-memory byte slice with
// the same layout as a mapped file. It exists for tests and for any caller
// that already has the container bytes resident (e.g. received over the
// network) rather than backed by a file.
func OpenBytes(data []byte, opts ...Option) (*Reader, error) {
	return newReader(data, opts...)
}

func newReader(data []byte, opts ...Option) (*Reader, error) {
	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	header, err := meta.ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if !header.Version.CompatibleWith(format.CurrentVersion) {
		return nil, fmt.Errorf("%w: file is version %s, reader supports major version %d", errs.ErrVersionIncompatible, header.Version, format.CurrentVersion.Major)
	}

	if header.MetaOffset > uint64(len(data)) {
		return nil, fmt.Errorf("%w: metadata offset %d exceeds file size %d", errs.ErrCorruptHeader, header.MetaOffset, len(data))
	}

	metaBytes := data[header.MetaOffset:]
	if got := meta.CRC32(metaBytes); got != header.MetaCRC32 {
		return nil, fmt.Errorf("%w: stored %08x, computed %08x", errs.ErrMetadataCorrupt, header.MetaCRC32, got)
	}

	doc, err := meta.Parse(metaBytes)
	if err != nil {
		return nil, err
	}

	recordCount, err := doc.CrossCheckRecordCounts()
	if err != nil {
		return nil, err
	}

	if cfg.template == nil {
		cfg.template = defaultTemplate(doc)
	}

	cfg.logger.Debug("gbam reader opened",
		zap.String("version", header.Version.String()),
		zap.Int("record_count", int(recordCount)),
		zap.Int("field_count", len(doc.Fields)),
	)

	r := &Reader{
		data:        data,
		header:      header,
		doc:         doc,
		recordCount: int(recordCount),
		logger:      cfg.logger,
		template:    cfg.template,
	}

	cols, err := buildColumns(data, doc, cfg.template)
	if err != nil {
		return nil, err
	}
	r.columns = cols

	return r, nil
}

// defaultTemplate activates every field present in doc — the set of
// columns a Reader can actually construct — rather than the full static
// catalog, since a given file need not carry every known field.
func defaultTemplate(doc *meta.Document) *template.Template {
	tpl := template.New()
	for f := range doc.Fields {
		tpl.Set(f, true)
	}

	return tpl
}

// buildColumns constructs one column per field active in tpl. Fixed columns
// (which include every synthetic index field, since the template invariant
// keeps them active alongside their variable field) are built first, so
// variable columns can be paired with an already-built index column.
func buildColumns(data []byte, doc *meta.Document, tpl *template.Template) (map[field.Field]column.Column, error) {
	cols := make(map[field.Field]column.Column, len(tpl.ActiveFields()))

	for _, f := range tpl.ActiveFields() {
		if f.Properties().Variable {
			continue
		}

		fm, ok := doc.Fields[f]
		if !ok {
			return nil, fmt.Errorf("%w: field %s is active but absent from file metadata", errs.ErrMetadataMalformed, f)
		}

		fc, err := column.NewFixed(f, data, fm)
		if err != nil {
			return nil, err
		}
		cols[f] = fc
	}

	for _, f := range tpl.ActiveFields() {
		props := f.Properties()
		if !props.Variable {
			continue
		}

		fm, ok := doc.Fields[f]
		if !ok {
			return nil, fmt.Errorf("%w: field %s is active but absent from file metadata", errs.ErrMetadataMalformed, f)
		}

		idxCol, ok := cols[props.IndexField]
		if !ok {
			return nil, fmt.Errorf("%w: field %s is active but its index field %s was not built", errs.ErrMetadataMalformed, f, props.IndexField)
		}

		vc, err := column.NewVariable(f, data, fm, idxCol)
		if err != nil {
			return nil, err
		}
		cols[f] = vc
	}

	return cols, nil
}

// RecordCount returns the file's total record count.
func (r *Reader) RecordCount() int {
	return r.recordCount
}

// Column returns the constructed column for f.
//
// Returns errs.ErrOutOfRange if f is not in the reader's current active
// template.
func (r *Reader) Column(f field.Field) (column.Column, error) {
	c, ok := r.columns[f]
	if !ok {
		return nil, fmt.Errorf("%w: field %s is not in the active template", errs.ErrOutOfRange, f)
	}

	return c, nil
}

// FillRecord populates rec with the value of every active data field (per
// spec §4.6, excluding synthetic index fields) for recordNumber.
func (r *Reader) FillRecord(recordNumber int, rec *record.Record) error {
	if recordNumber < 0 || recordNumber >= r.recordCount {
		return fmt.Errorf("%w: record %d, have %d records", errs.ErrOutOfRange, recordNumber, r.recordCount)
	}

	rec.Reset()
	for _, f := range r.template.ActiveDataFields() {
		c, ok := r.columns[f]
		if !ok {
			return fmt.Errorf("%w: active data field %s has no column", errs.ErrMetadataMalformed, f)
		}
		if err := c.FillRecordField(recordNumber, rec); err != nil {
			return err
		}
	}

	return nil
}

// FetchOnly narrows the active template to exactly fields (implicitly
// activating any variable field's index field), remembering the prior
// template so a later RestoreTemplate call can undo it (spec §4.7).
//
// Columns are rebuilt for the narrowed set; a field not already backed by
// file metadata fails the same way Open would have.
func (r *Reader) FetchOnly(fields ...field.Field) error {
	narrowed := template.New(fields...)

	cols, err := buildColumns(r.data, r.doc, narrowed)
	if err != nil {
		return err
	}

	if r.savedTemplate == nil {
		r.savedTemplate = r.template.Clone()
	}
	r.template = narrowed
	r.columns = cols

	return nil
}

// RestoreTemplate restores the template (and columns) exactly as they were
// before the first FetchOnly call since the last RestoreTemplate; several
// FetchOnly calls in a row are all undone at once. A no-op if FetchOnly was
// never called since the last RestoreTemplate.
func (r *Reader) RestoreTemplate() error {
	if r.savedTemplate == nil {
		return nil
	}

	cols, err := buildColumns(r.data, r.doc, r.savedTemplate)
	if err != nil {
		return err
	}

	r.template = r.savedTemplate
	r.columns = cols
	r.savedTemplate = nil

	return nil
}

// Records returns an iterator over every record in the file, shaped by the
// reader's current active template. It yields a freshly reset *record.Record
// each time; the record is reused across iterations, so callers that need
// to retain a record's data past the next iteration step must copy it.
func (r *Reader) Records() func(yield func(int, *record.Record) bool) {
	return func(yield func(int, *record.Record) bool) {
		rec := &record.Record{}
		for n := 0; n < r.recordCount; n++ {
			if err := r.FillRecord(n, rec); err != nil {
				r.logger.Error("fill_record failed during iteration", zap.Int("record", n), zap.Error(err))
				return
			}
			if !yield(n, rec) {
				return
			}
		}
	}
}

// Close unmaps the file and releases its handle. Close is a no-op for a
// Reader constructed via OpenBytes.
func (r *Reader) Close() error {
	var err error
	if r.mm != nil {
		err = r.mm.Unmap()
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	return nil
}
