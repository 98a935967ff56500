package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// gzipWriterPool pools gzip.Writer instances for reuse: the writer is reset
// onto a fresh buffer per call rather than reallocated, since a field with a
// low block threshold can flush thousands of small blocks over a file's
// lifetime.
var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

var gzipReaderPool = sync.Pool{
	New: func() any {
		return new(gzip.Reader)
	},
}

// GzipCodec compresses blocks with gzip via klauspost/compress/gzip, a
// drop-in, faster reimplementation of the standard library's gzip package.
type GzipCodec struct{}

var _ Codec = GzipCodec{}

// NewGzipCodec creates a new gzip codec.
func NewGzipCodec() GzipCodec {
	return GzipCodec{}
}

// Compress compresses data using gzip at the default compression level.
func (c GzipCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w, _ := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress decompresses gzip-compressed data.
func (c GzipCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, _ := gzipReaderPool.Get().(*gzip.Reader)
	defer gzipReaderPool.Put(r)
	if err := r.Reset(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
