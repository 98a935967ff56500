package pool

import "io"

// DefaultBufferSize is the starting capacity a writer gives each field's
// block-accumulation buffer (see writer.fieldState), before Grow kicks in.
const DefaultBufferSize = 1024 * 16 // 16KiB

// ByteBuffer is a growable byte buffer designed to be reused across many
// block flushes without reallocating on every one: Reset keeps the backing
// array, and Grow adds DefaultBufferSize or a quarter of the current
// capacity at a time (see Grow) rather than doubling from scratch.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer returns a ByteBuffer with defaultSize bytes of capacity
// pre-allocated.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the buffer's current contents.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer, retaining its backing array for reuse by the
// next block.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the number of bytes currently buffered.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the buffer's current capacity.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Slice returns bb.B[start:end]. Panics if the indices are out of bounds.
func (bb *ByteBuffer) Slice(start, end int) []byte {
	if start < 0 || end < start || end > cap(bb.B) {
		panic("pool: ByteBuffer.Slice: invalid indices")
	}

	return bb.B[start:end]
}

// SetLength sets the buffer's length to n. Panics if n is negative or
// exceeds capacity.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 || n > cap(bb.B) {
		panic("pool: ByteBuffer.SetLength: invalid length")
	}
	bb.B = bb.B[:n]
}

// Extend grows the buffer's length by n bytes if capacity already allows
// it, without reallocating. Reports whether it did.
func (bb *ByteBuffer) Extend(n int) bool {
	curLen := len(bb.B)
	if cap(bb.B)-curLen < n {
		return false
	}

	bb.B = bb.B[:curLen+n]

	return true
}

// ExtendOrGrow extends the buffer's length by n bytes, reallocating via
// Grow first if the current capacity is insufficient.
func (bb *ByteBuffer) ExtendOrGrow(n int) {
	if bb.Extend(n) {
		return
	}

	start := len(bb.B)
	bb.Grow(n)
	bb.B = bb.B[:start+n]
}

// Grow ensures the buffer can hold requiredBytes more bytes without a
// further reallocation.
//
// Growth strategy: small buffers (below 4x DefaultBufferSize) grow by
// DefaultBufferSize at a time, since field blocks in that range tend to
// fill in a handful of steps; larger buffers grow by 25% of their current
// capacity, trading a little extra memory for fewer reallocations as a
// field's per-block payload gets large.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := DefaultBufferSize
	if cap(bb.B) > 4*DefaultBufferSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends data to the buffer, growing it as needed. Implements
// io.Writer so a ByteBuffer can be handed to binary.Write and similar.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the buffer's contents to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}
