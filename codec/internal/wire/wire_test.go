package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Remaining() != 0 {
		t.Errorf("Remaining: got %d, want 0", r.Remaining())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data)

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}

	_, err = r.ReadBytes(10)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if r.Position() != 3 {
		t.Errorf("failed read moved the cursor to %d", r.Position())
	}

	if _, err := r.ReadBytes(-1); err == nil {
		t.Error("negative length must fail")
	}
}

func TestReaderReadBytesCapped(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	got, _ := r.ReadBytes(2)
	if grown := append(got, 9); len(grown) != 3 {
		t.Fatalf("len = %d", len(grown))
	}
	rest, _ := r.ReadBytes(2)
	if rest[0] != 3 {
		t.Error("appending to a returned slice must not clobber the buffer")
	}
}

func TestReaderReadU64(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xac, 0x02}, 300},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0x80, 0x00}, 0},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, math.MaxUint64},
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU64()
		if err != nil {
			t.Errorf("ReadU64(%x): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU64(%x): got %d, want %d", tt.encoded, got, tt.want)
		}
		if r.Remaining() != 0 {
			t.Errorf("ReadU64(%x): %d bytes left", tt.encoded, r.Remaining())
		}
	}
}

func TestReaderReadU64Errors(t *testing.T) {
	tests := []struct {
		name    string
		encoded []byte
		want    error
	}{
		{"empty", nil, ErrTruncated},
		{"unterminated", []byte{0x80, 0x80}, ErrTruncated},
		{"tenth byte too large", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}, ErrOverflow},
		{"eleven bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x81, 0x00}, ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(tt.encoded).ReadU64()
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWriterWriteU64(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{math.MaxUint64, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}

	for _, tt := range tests {
		w := NewWriter(nil)
		w.WriteU64(tt.v)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("WriteU64(%d) = %x, want %x", tt.v, w.Bytes(), tt.want)
		}
		if SizeU64(tt.v) != len(tt.want) {
			t.Errorf("SizeU64(%d) = %d, want %d", tt.v, SizeU64(tt.v), len(tt.want))
		}
	}
}

func TestWriterAppends(t *testing.T) {
	w := NewWriter([]byte{0xaa})
	w.Byte(0x01)
	w.WriteBytes([]byte{0x02, 0x03})
	w.WriteString("AB")
	want := []byte{0xaa, 0x01, 0x02, 0x03, 0x41, 0x42}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes = %x, want %x", w.Bytes(), want)
	}
	if w.Len() != len(want) {
		t.Errorf("Len = %d", w.Len())
	}
}

func TestRoundTripU64(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 127, 128, 16383, 16384, 1 << 35, 1<<63 - 1, 1 << 63, math.MaxUint64}
	w := NewWriter(nil)
	for _, v := range values {
		w.WriteU64(v)
	}
	r := NewReader(w.Bytes())
	for _, want := range values {
		got, err := r.ReadU64()
		if err != nil {
			t.Fatalf("ReadU64: %v", err)
		}
		if got != want {
			t.Errorf("got %d, want %d", got, want)
		}
	}
}
