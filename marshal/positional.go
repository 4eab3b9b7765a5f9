package marshal

import (
	"reflect"

	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/schema"
)

// ToPositional converts value of declared type typ to its positional form:
// string, uint64, bool, or []any for arrays and records.
func (m *Marshaller) ToPositional(typ schema.Type, value any) (any, error) {
	return m.toPositional(typ, value, 0)
}

func (m *Marshaller) toPositional(typ schema.Type, value any, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, tooDeep(errors.PhaseEncode)
	}
	resolved, err := m.table.Resolve(typ)
	if err != nil {
		return nil, err
	}
	if s, ok := value.(Serializer); ok {
		value = s.Serialize()
	}

	switch t := resolved.(type) {
	case *schema.Ref:
		return m.primitiveIn(t.Name, value)
	case *schema.Array:
		return m.arrayIn(t, value, depth)
	case *schema.Record:
		return m.recordIn(t, value, depth)
	}
	return nil, errors.Unsupported(errors.PhaseEncode, "unknown declared type "+typeName(resolved))
}

func (m *Marshaller) primitiveIn(name string, value any) (any, error) {
	switch name {
	case schema.String:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case schema.Number:
		if n, ok := CoerceNumber(value); ok {
			return n, nil
		}
	case schema.Boolean:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	default:
		return nil, unknownType(errors.PhaseEncode, name)
	}
	return nil, errors.TypeMismatch(errors.PhaseEncode, nil, typeName(value), name)
}

func (m *Marshaller) arrayIn(t *schema.Array, value any, depth int) (any, error) {
	if items, ok := value.([]any); ok {
		out := make([]any, len(items))
		for i, item := range items {
			v, err := m.toPositional(t.Elem, item, depth+1)
			if err != nil {
				return nil, prefix(err, index(i))
			}
			out[i] = v
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.TypeMismatch(errors.PhaseEncode, nil, typeName(value), t.String())
	}
	out := make([]any, rv.Len())
	for i := range out {
		v, err := m.toPositional(t.Elem, rv.Index(i).Interface(), depth+1)
		if err != nil {
			return nil, prefix(err, index(i))
		}
		out[i] = v
	}
	return out, nil
}

// fields returns the keyed view of a record value.
func fields(value any) (func(string) (any, bool), bool) {
	if m, ok := value.(map[string]any); ok {
		return func(k string) (any, bool) {
			v, ok := m[k]
			return v, ok
		}, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keyType := rv.Type().Key()
	return func(k string) (any, bool) {
		v := rv.MapIndex(reflect.ValueOf(k).Convert(keyType))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	}, true
}

func (m *Marshaller) recordIn(t *schema.Record, value any, depth int) (any, error) {
	get, ok := fields(value)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseEncode, nil, typeName(value), "record")
	}

	positional := t.Positional()
	out := make([]any, len(positional))
	for i, f := range positional {
		v, present := get(f.Name)
		if present && v == nil {
			present = false
		}
		if present && f.Optional && m.opts.LegacyPresence && isZero(v) {
			present = false
		}

		if !present {
			if !f.Optional {
				return nil, errors.FieldMissing(errors.PhaseEncode, []string{f.Name}, f.Name)
			}
			continue
		}

		pv, err := m.toPositional(f.Type, v, depth+1)
		if err != nil {
			return nil, prefix(err, f.Name)
		}
		out[i] = pv
	}
	return out, nil
}

// FromPositional converts a positional value of declared type typ back into
// keyed form. Records become map[string]any unless their type carries a
// construction hook, in which case the hook's result is returned.
func (m *Marshaller) FromPositional(typ schema.Type, positional any) (any, error) {
	return m.fromPositional(typ, positional, 0)
}

func (m *Marshaller) fromPositional(typ schema.Type, value any, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, tooDeep(errors.PhaseDecode)
	}
	resolved, err := m.table.Resolve(typ)
	if err != nil {
		return nil, err
	}

	switch t := resolved.(type) {
	case *schema.Ref:
		return primitiveOut(t.Name, value)
	case *schema.Array:
		items, ok := value.([]any)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseDecode, nil, typeName(value), t.String())
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := m.fromPositional(t.Elem, item, depth+1)
			if err != nil {
				return nil, prefix(err, index(i))
			}
			out[i] = v
		}
		return out, nil
	case *schema.Record:
		return m.recordOut(t, value, depth)
	}
	return nil, errors.Unsupported(errors.PhaseDecode, "unknown declared type "+typeName(resolved))
}

func primitiveOut(name string, value any) (any, error) {
	var ok bool
	switch name {
	case schema.String:
		_, ok = value.(string)
	case schema.Number:
		_, ok = value.(uint64)
	case schema.Boolean:
		_, ok = value.(bool)
	default:
		return nil, unknownType(errors.PhaseDecode, name)
	}
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseDecode, nil, typeName(value), name)
	}
	return value, nil
}

func (m *Marshaller) recordOut(t *schema.Record, value any, depth int) (any, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseDecode, nil, typeName(value), "record")
	}
	positional := t.Positional()
	if len(items) != len(positional) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Type("record").
			Detail("record has %d fields, got %d positional values", len(positional), len(items)).
			Build()
	}

	out := make(map[string]any, len(items))
	for i, f := range positional {
		if items[i] == nil {
			if !f.Optional {
				return nil, errors.FieldMissing(errors.PhaseDecode, []string{f.Name}, f.Name)
			}
			continue
		}
		v, err := m.fromPositional(f.Type, items[i], depth+1)
		if err != nil {
			return nil, prefix(err, f.Name)
		}
		out[f.Name] = v
	}

	if t.Construct == nil {
		return out, nil
	}
	built, err := t.Construct(out)
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Cause(err).
			Detail("construction hook failed").
			Build()
	}
	return built, nil
}
