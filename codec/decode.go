package codec

import (
	stderrors "errors"
	"fmt"
	"math/bits"
	"unicode/utf8"

	"github.com/firecraftgaming/binary-structured-objects/codec/internal/wire"
	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/layout"
	"golang.org/x/text/encoding/charmap"
)

// Decode decodes data as the record or tuple at r. The whole buffer must be
// consumed.
func (c *Codec) Decode(r layout.Ref, data []byte) ([]any, error) {
	v, n, err := c.ReadValue(r, data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Value(len(data) - n).
			Detail("%d trailing bytes after value", len(data)-n).
			Build()
	}
	out, ok := v.([]any)
	if !ok {
		return nil, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			GoType(typeName(v)).
			Type("record").
			Detail("top-level layout is not a record or tuple").
			Build()
	}
	return out, nil
}

// ReadValue decodes one value of node r from the start of data and returns
// it together with the number of bytes consumed.
func (c *Codec) ReadValue(r layout.Ref, data []byte) (any, int, error) {
	rd := wire.NewReader(data)
	v, err := c.decode(rd, r, 0)
	if err != nil {
		return nil, 0, err
	}
	return v, rd.Position(), nil
}

func (c *Codec) decode(rd *wire.Reader, r layout.Ref, depth int) (any, error) {
	if depth > c.opts.MaxDepth {
		return nil, c.tooDeep(errors.PhaseDecode)
	}
	n, err := c.node(errors.PhaseDecode, r)
	if err != nil {
		return nil, err
	}

	switch n.Kind {
	case layout.KindString:
		return c.decodeString(rd)
	case layout.KindNumber:
		u, err := rd.ReadU64()
		if err != nil {
			return nil, wireError(err, "number")
		}
		return u, nil
	case layout.KindBoolean:
		b, err := rd.ReadByte()
		if err != nil {
			return nil, wireError(err, "boolean")
		}
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Type("boolean").
			Value(b).
			Detail("invalid boolean byte 0x%02x at offset %d", b, rd.Position()-1).
			Build()
	case layout.KindTuple:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			if out[i], err = c.decode(rd, item, depth+1); err != nil {
				return nil, prefix(err, index(i))
			}
		}
		return out, nil
	case layout.KindArray:
		return c.decodeArray(rd, n, depth)
	case layout.KindRecord:
		return c.decodeRecord(rd, n, depth)
	}
	return nil, errors.Unsupported(errors.PhaseDecode, fmt.Sprintf("layout kind %s", n.Kind))
}

func (c *Codec) decodeString(rd *wire.Reader) (string, error) {
	size, err := rd.ReadU64()
	if err != nil {
		return "", wireError(err, "string")
	}
	if size > uint64(c.opts.MaxStringSize) {
		return "", errors.Overflow(errors.PhaseDecode, nil, size, "string size limit")
	}
	data, err := rd.ReadBytes(int(size))
	if err != nil {
		return "", wireError(err, "string")
	}

	if c.opts.Strings == Latin1 {
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "cannot decode Latin-1 string")
		}
		return string(out), nil
	}

	if !utf8.Valid(data) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	return string(data), nil
}

func (c *Codec) decodeArray(rd *wire.Reader, n layout.Node, depth int) ([]any, error) {
	count, err := rd.ReadU64()
	if err != nil {
		return nil, wireError(err, "array")
	}
	if count > uint64(c.opts.MaxArrayLength) {
		return nil, errors.Overflow(errors.PhaseDecode, nil, count, "array length limit")
	}

	// Never trust the count for preallocation beyond what the input can hold.
	capacity := int(count)
	if capacity > rd.Remaining() {
		capacity = rd.Remaining()
	}
	out := make([]any, 0, capacity)
	for i := 0; i < int(count); i++ {
		v, err := c.decode(rd, n.Elem, depth+1)
		if err != nil {
			return nil, prefix(err, index(i))
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Codec) decodeRecord(rd *wire.Reader, n layout.Node, depth int) ([]any, error) {
	out := make([]any, len(n.Required)+len(n.Optionals))

	for i, field := range n.Required {
		v, err := c.decode(rd, field, depth+1)
		if err != nil {
			return nil, prefix(err, index(i))
		}
		out[i] = v
	}

	mask, err := rd.ReadU64()
	if err != nil {
		return nil, wireError(err, "presence bitmask")
	}
	if bits.Len64(mask) > len(n.Optionals) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Type("presence bitmask").
			Value(mask).
			Detail("bitmask 0x%x has bits beyond %d optional fields", mask, len(n.Optionals)).
			Build()
	}

	for i, field := range n.Optionals {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		pos := len(n.Required) + i
		v, err := c.decode(rd, field, depth+1)
		if err != nil {
			return nil, prefix(err, index(pos))
		}
		out[pos] = v
	}
	return out, nil
}

// wireError maps a wire read failure onto the structured error kinds.
func wireError(err error, what string) error {
	kind := errors.KindInvalidData
	switch {
	case stderrors.Is(err, wire.ErrTruncated):
		kind = errors.KindOutOfBounds
	case stderrors.Is(err, wire.ErrOverflow):
		kind = errors.KindOverflow
	}
	return errors.New(errors.PhaseDecode, kind).
		Type(what).
		Cause(err).
		Detail("cannot read %s", what).
		Build()
}
