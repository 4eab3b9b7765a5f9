package codec

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/layout"
)

// Safety limits applied unless overridden with WithLimits.
const (
	MaxStringSize  = 1 << 30 // bytes in one string
	MaxArrayLength = 1 << 27 // elements in one array
	MaxDepth       = 512     // nested tuples, arrays and records
)

// StringMode selects how strings are turned into bytes.
type StringMode uint8

const (
	// UTF8 writes the UTF-8 bytes of the string. Invalid UTF-8 is rejected.
	UTF8 StringMode = iota
	// Latin1 writes one byte per character. Characters above U+00FF cannot
	// be encoded and are rejected.
	Latin1
)

func (m StringMode) String() string {
	switch m {
	case UTF8:
		return "utf8"
	case Latin1:
		return "latin1"
	}
	return "StringMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseStringMode parses "utf8" or "latin1", case-insensitively.
func ParseStringMode(s string) (StringMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "utf8", "utf-8", "":
		return UTF8, nil
	case "latin1", "latin-1", "iso-8859-1":
		return Latin1, nil
	}
	return 0, errors.InvalidInput(errors.PhaseInterop, fmt.Sprintf("unknown string mode %q", s))
}

// Options controls encoding and decoding.
type Options struct {
	Strings        StringMode
	MaxStringSize  int
	MaxArrayLength int
	MaxDepth       int
}

type Option func(*Options)

// WithStringMode selects the string encoding.
func WithStringMode(m StringMode) Option {
	return func(o *Options) { o.Strings = m }
}

// WithLimits overrides the safety limits. Zero keeps the default.
func WithLimits(maxString, maxArray, maxDepth int) Option {
	return func(o *Options) {
		if maxString > 0 {
			o.MaxStringSize = maxString
		}
		if maxArray > 0 {
			o.MaxArrayLength = maxArray
		}
		if maxDepth > 0 {
			o.MaxDepth = maxDepth
		}
	}
}

// Codec encodes and decodes positional values against layouts of one Set.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	set  *layout.Set
	opts Options
}

func New(set *layout.Set, opts ...Option) *Codec {
	o := Options{
		MaxStringSize:  MaxStringSize,
		MaxArrayLength: MaxArrayLength,
		MaxDepth:       MaxDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Codec{set: set, opts: o}
}

// Options returns the effective options.
func (c *Codec) Options() Options {
	return c.opts
}

// Encode encodes the positional value of the record or tuple at r.
func Encode(set *layout.Set, r layout.Ref, value []any, opts ...Option) ([]byte, error) {
	return New(set, opts...).Encode(r, value)
}

// Decode decodes a complete buffer holding the record or tuple at r.
func Decode(set *layout.Set, r layout.Ref, data []byte, opts ...Option) ([]any, error) {
	return New(set, opts...).Decode(r, data)
}

// AppendValue appends the encoding of v as the node r to dst.
func AppendValue(dst []byte, set *layout.Set, r layout.Ref, v any, opts ...Option) ([]byte, error) {
	return New(set, opts...).Append(dst, r, v)
}

// ReadValue decodes one node r from the start of data and reports how many
// bytes it used. Trailing bytes are left alone.
func ReadValue(set *layout.Set, r layout.Ref, data []byte, opts ...Option) (any, int, error) {
	return New(set, opts...).ReadValue(r, data)
}

// prefix adds seg in front of the path of a structured error while it
// propagates out of a nested value.
func prefix(err error, seg string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{seg}, e.Path...)
	}
	return err
}

func index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// typeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func (c *Codec) node(phase errors.Phase, r layout.Ref) (layout.Node, error) {
	if c.set == nil || !c.set.Valid(r) {
		return layout.Node{}, errors.New(phase, errors.KindInvalidInput).
			Detail("layout handle %d is not part of the set", r).
			Build()
	}
	return c.set.Node(r), nil
}

func (c *Codec) tooDeep(phase errors.Phase) error {
	return errors.New(phase, errors.KindOverflow).
		Detail("value nested deeper than %d levels", c.opts.MaxDepth).
		Build()
}
