package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/firecraftgaming/binary-structured-objects/errors"
)

// Implicit primitive type names, valid wherever no declaration shadows them.
const (
	String  = "string"
	Number  = "number"
	Boolean = "boolean"
)

// IsPrimitive reports whether name is one of the implicit primitive types.
func IsPrimitive(name string) bool {
	switch name {
	case String, Number, Boolean:
		return true
	}
	return false
}

// Type is a declared, pre-compilation type: *Ref, *Array or *Record.
type Type interface {
	String() string
	isType()
}

// Ref names another declared type or an implicit primitive.
type Ref struct {
	Name string
}

// Array is a homogeneous sequence of Elem.
type Array struct {
	Elem Type
}

// Record is an ordered set of fields. Construct, when set, turns the decoded
// keyed fields into the caller's own value.
type Record struct {
	Construct ConstructFunc
	Fields    []Field
}

// Field is one declared record member.
type Field struct {
	Type     Type
	Name     string
	Optional bool
}

// ConstructFunc builds a domain value from the decoded fields of a record.
type ConstructFunc func(fields map[string]any) (any, error)

func (*Ref) isType()    {}
func (*Array) isType()  {}
func (*Record) isType() {}

func (r *Ref) String() string { return r.Name }

func (a *Array) String() string { return "[]" + a.Elem.String() }

func (r *Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		if f.Optional {
			b.WriteByte('?')
		}
		b.WriteString(f.Name)
		b.WriteByte(' ')
		b.WriteString(f.Type.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Field returns the field called name.
func (r *Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Positional returns the fields in wire order: required fields in declaration
// order followed by optional fields in declaration order.
func (r *Record) Positional() []Field {
	out := make([]Field, 0, len(r.Fields))
	for _, f := range r.Fields {
		if !f.Optional {
			out = append(out, f)
		}
	}
	for _, f := range r.Fields {
		if f.Optional {
			out = append(out, f)
		}
	}
	return out
}

// RequiredCount returns the number of non-optional fields.
func (r *Record) RequiredCount() int {
	n := 0
	for _, f := range r.Fields {
		if !f.Optional {
			n++
		}
	}
	return n
}

// Table maps declared type names to their definitions.
type Table map[string]Type

// Names returns the declared names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record returns the record declared as name.
func (t Table) Record(name string) (*Record, error) {
	typ, ok := t[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLookup, "Type", name)
	}
	rec, ok := typ.(*Record)
	if !ok {
		return nil, errors.NotRecord(errors.PhaseLookup, name)
	}
	return rec, nil
}

// Resolve follows Ref aliases until it reaches an Array, a Record or an
// undeclared (primitive) Ref. Alias loops are reported as errors.
func (t Table) Resolve(typ Type) (Type, error) {
	var seen map[string]bool
	for {
		ref, ok := typ.(*Ref)
		if !ok {
			return typ, nil
		}
		next, declared := t[ref.Name]
		if !declared {
			return ref, nil
		}
		if seen == nil {
			seen = make(map[string]bool)
		}
		if seen[ref.Name] {
			return nil, errors.New(errors.PhaseCompile, errors.KindRecursive).
				Type(ref.Name).
				Detail("type %s is an alias of itself", ref.Name).
				Build()
		}
		seen[ref.Name] = true
		typ = next
	}
}

// Describe renders a declaration back in schema syntax.
func Describe(name string, typ Type) string {
	if rec, ok := typ.(*Record); ok {
		return fmt.Sprintf("type %s %s", name, rec.String())
	}
	return fmt.Sprintf("type %s %s", name, typ.String())
}
