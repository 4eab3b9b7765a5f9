package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrOverflow is returned when a LEB128 value does not fit in 64 bits.
	ErrOverflow = errors.New("leb128: overflow")
	// ErrTruncated is returned when a read runs past the end of the buffer.
	ErrTruncated = errors.New("unexpected end of data")
)

// Reader is a bounds-checked cursor over an in-memory buffer.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte offset.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.wrapError(ErrTruncated)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes returns the next n bytes without copying them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.wrapError(fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, r.Remaining()))
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU64 reads an unsigned LEB128 encoded uint64. Encodings longer than ten
// bytes, or whose tenth byte carries bits above 2^63, are rejected.
func (r *Reader) ReadU64() (uint64, error) {
	start := r.pos
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift == 63 && b > 1 {
			r.pos = start
			return 0, r.wrapError(ErrOverflow)
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at offset %d: %w", r.pos, err)
}
