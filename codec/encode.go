package codec

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/firecraftgaming/binary-structured-objects/codec/internal/wire"
	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/layout"
	"golang.org/x/text/encoding/charmap"
)

// Encode encodes the positional value of the record or tuple at r.
func (c *Codec) Encode(r layout.Ref, value []any) ([]byte, error) {
	return c.Append(nil, r, value)
}

// Append appends the encoding of v as node r to dst. On error dst is
// returned unchanged.
func (c *Codec) Append(dst []byte, r layout.Ref, v any) ([]byte, error) {
	w := wire.NewWriter(dst)
	if err := c.encode(w, r, v, 0); err != nil {
		return dst, err
	}
	return w.Bytes(), nil
}

func (c *Codec) encode(w *wire.Writer, r layout.Ref, v any, depth int) error {
	if depth > c.opts.MaxDepth {
		return c.tooDeep(errors.PhaseEncode)
	}
	n, err := c.node(errors.PhaseEncode, r)
	if err != nil {
		return err
	}

	switch n.Kind {
	case layout.KindString:
		return c.encodeString(w, v)
	case layout.KindNumber:
		u, err := toUint64(v)
		if err != nil {
			return err
		}
		w.WriteU64(u)
		return nil
	case layout.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, nil, typeName(v), "boolean")
		}
		if b {
			w.Byte(1)
		} else {
			w.Byte(0)
		}
		return nil
	case layout.KindTuple:
		return c.encodeTuple(w, n, v, depth)
	case layout.KindArray:
		return c.encodeArray(w, n, v, depth)
	case layout.KindRecord:
		return c.encodeRecord(w, n, v, depth)
	}
	return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("layout kind %s", n.Kind))
}

func (c *Codec) encodeString(w *wire.Writer, v any) error {
	s, ok := v.(string)
	if !ok {
		return errors.TypeMismatch(errors.PhaseEncode, nil, typeName(v), "string")
	}
	if !utf8.ValidString(s) {
		return errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(s))
	}

	if c.opts.Strings == Latin1 {
		enc, err := charmap.ISO8859_1.NewEncoder().String(s)
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Type("string").
				Value(s).
				Cause(err).
				Detail("string has characters outside Latin-1").
				Build()
		}
		s = enc
	}

	if len(s) > c.opts.MaxStringSize {
		return errors.Overflow(errors.PhaseEncode, nil, len(s), "string size limit")
	}
	w.WriteU64(uint64(len(s)))
	w.WriteString(s)
	return nil
}

func (c *Codec) encodeTuple(w *wire.Writer, n layout.Node, v any, depth int) error {
	items, ok := v.([]any)
	if !ok {
		return errors.TypeMismatch(errors.PhaseEncode, nil, typeName(v), "tuple")
	}
	if len(items) != len(n.Items) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Type("tuple").
			Detail("tuple has %d items, got %d", len(n.Items), len(items)).
			Build()
	}
	for i, item := range n.Items {
		if err := c.encode(w, item, items[i], depth+1); err != nil {
			return prefix(err, index(i))
		}
	}
	return nil
}

func (c *Codec) encodeArray(w *wire.Writer, n layout.Node, v any, depth int) error {
	items, ok := v.([]any)
	if !ok {
		return errors.TypeMismatch(errors.PhaseEncode, nil, typeName(v), "array")
	}
	if len(items) > c.opts.MaxArrayLength {
		return errors.Overflow(errors.PhaseEncode, nil, len(items), "array length limit")
	}
	w.WriteU64(uint64(len(items)))
	for i, item := range items {
		if err := c.encode(w, n.Elem, item, depth+1); err != nil {
			return prefix(err, index(i))
		}
	}
	return nil
}

func (c *Codec) encodeRecord(w *wire.Writer, n layout.Node, v any, depth int) error {
	fields, ok := v.([]any)
	if !ok {
		return errors.TypeMismatch(errors.PhaseEncode, nil, typeName(v), "record")
	}
	want := len(n.Required) + len(n.Optionals)
	if len(fields) != want {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Type("record").
			Detail("record has %d fields, got %d positional values", want, len(fields)).
			Build()
	}

	for i, field := range n.Required {
		if fields[i] == nil {
			return errors.FieldMissing(errors.PhaseEncode, []string{index(i)}, index(i))
		}
		if err := c.encode(w, field, fields[i], depth+1); err != nil {
			return prefix(err, index(i))
		}
	}

	optionals := fields[len(n.Required):]
	var mask uint64
	for i, value := range optionals {
		if value != nil {
			mask |= 1 << uint(i)
		}
	}
	w.WriteU64(mask)

	for i, field := range n.Optionals {
		if optionals[i] == nil {
			continue
		}
		if err := c.encode(w, field, optionals[i], depth+1); err != nil {
			return prefix(err, index(len(n.Required)+i))
		}
	}
	return nil
}

// toUint64 accepts any non-negative Go integer, and floats holding one.
func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case int:
		return fromSigned(int64(n), v)
	case int64:
		return fromSigned(n, v)
	case int32:
		return fromSigned(int64(n), v)
	case int16:
		return fromSigned(int64(n), v)
	case int8:
		return fromSigned(int64(n), v)
	case float64:
		return fromFloat(n, v)
	case float32:
		return fromFloat(float64(n), v)
	}
	return 0, errors.TypeMismatch(errors.PhaseEncode, nil, typeName(v), "number")
}

func fromSigned(n int64, v any) (uint64, error) {
	if n < 0 {
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Type("number").
			Value(v).
			Detail("negative value %d cannot be encoded", n).
			Build()
	}
	return uint64(n), nil
}

func fromFloat(f float64, v any) (uint64, error) {
	if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return 0, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			GoType(typeName(v)).
			Type("number").
			Value(v).
			Detail("%v is not a non-negative integer", f).
			Build()
	}
	return uint64(f), nil
}
