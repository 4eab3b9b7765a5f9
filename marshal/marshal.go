package marshal

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"

	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/schema"
)

// MaxDepth bounds how deeply values may nest, which also stops self
// referencing maps and slices.
const MaxDepth = 512

// Serializer is implemented by domain values that provide their own keyed
// representation. Serialize is called before the value's fields are read.
type Serializer interface {
	Serialize() any
}

type Options struct {
	// LegacyPresence treats zero values (false, 0, "") of optional fields as
	// absent, the way older BSOS writers did.
	LegacyPresence bool
}

type Option func(*Options)

// WithLegacyPresence enables Options.LegacyPresence.
func WithLegacyPresence() Option {
	return func(o *Options) { o.LegacyPresence = true }
}

// Marshaller converts between keyed values and positional values by walking
// declared types of one table. It is safe for concurrent use as long as the
// table is not modified.
type Marshaller struct {
	table schema.Table
	opts  Options
}

func New(table schema.Table, opts ...Option) *Marshaller {
	m := &Marshaller{table: table}
	for _, opt := range opts {
		opt(&m.opts)
	}
	return m
}

// ToPositional converts value of declared type typ to its positional form.
func ToPositional(table schema.Table, typ schema.Type, value any, opts ...Option) (any, error) {
	return New(table, opts...).ToPositional(typ, value)
}

// FromPositional converts a positional value of declared type typ back into
// keyed form, running construction hooks.
func FromPositional(table schema.Table, typ schema.Type, positional any, opts ...Option) (any, error) {
	return New(table, opts...).FromPositional(typ, positional)
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

func tooDeep(phase errors.Phase) error {
	return errors.New(phase, errors.KindOverflow).
		Detail("value nested deeper than %d levels", MaxDepth).
		Build()
}

func unknownType(phase errors.Phase, name string) error {
	return errors.New(phase, errors.KindNotFound).
		Type(name).
		Detail("Type %s does not exist", name).
		Build()
}

// CoerceNumber accepts any non-negative Go integer, an integral float and
// json.Number, and returns it as uint64.
func CoerceNumber(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case int8:
		if v >= 0 {
			return uint64(v), true
		}
	case int16:
		if v >= 0 {
			return uint64(v), true
		}
	case int32:
		if v >= 0 {
			return uint64(v), true
		}
	case int:
		if v >= 0 {
			return uint64(v), true
		}
	case int64:
		if v >= 0 {
			return uint64(v), true
		}
	case float64:
		if v >= 0 && v < math.MaxUint64 && v == math.Trunc(v) {
			return uint64(v), true
		}
	case float32:
		f := float64(v)
		if f >= 0 && f < math.MaxUint64 && f == math.Trunc(f) {
			return uint64(f), true
		}
	case json.Number:
		if u, err := strconv.ParseUint(string(v), 10, 64); err == nil {
			return u, true
		}
		if f, err := v.Float64(); err == nil {
			return CoerceNumber(f)
		}
	}
	return 0, false
}

// isZero reports whether v is the zero value of a primitive.
func isZero(v any) bool {
	switch x := v.(type) {
	case bool:
		return !x
	case string:
		return x == ""
	}
	if n, ok := CoerceNumber(v); ok {
		return n == 0
	}
	return false
}
