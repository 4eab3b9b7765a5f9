// Package witgen renders BSOS schema types as a WIT interface.
//
// Records map to WIT records, arrays to list<T>, optional fields to
// option<T>, string to string, number to u64 and boolean to bool. Aliases
// become `type x = y;`. Anonymous nested records are hoisted into named
// records called <parent>-<field>.
//
// WIT cannot express recursive types, so self-referencing schemas are
// rejected.
package witgen

import (
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/schema"
)

// DefaultInterface is the interface name used by Build.
const DefaultInterface = "types"

// Interface is an ordered set of named WIT type definitions. Every type is
// listed after the types it uses.
type Interface struct {
	Name     string
	TypeDefs []*wit.TypeDef
}

type builder struct {
	table  schema.Table
	defs   map[string]*wit.TypeDef
	active map[string]bool
	used   map[string]string
	out    []*wit.TypeDef
}

// Build converts the named types, and everything they reference, to WIT.
// With no names every declared type is converted.
func Build(table schema.Table, names []string) (*Interface, error) {
	if len(names) == 0 {
		names = table.Names()
	}
	b := &builder{
		table:  table,
		defs:   make(map[string]*wit.TypeDef),
		active: make(map[string]bool),
		used:   make(map[string]string),
	}
	for _, name := range names {
		if _, err := b.define(name); err != nil {
			return nil, err
		}
	}
	return &Interface{Name: DefaultInterface, TypeDefs: b.out}, nil
}

func (b *builder) define(name string) (*wit.TypeDef, error) {
	if td, ok := b.defs[name]; ok {
		return td, nil
	}
	if b.active[name] {
		return nil, errors.New(errors.PhaseInterop, errors.KindRecursive).
			Type(name).
			Detail("type %s refers to itself and has no WIT form", name).
			Build()
	}
	decl, ok := b.table[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseInterop, "Type", name)
	}

	ident, err := b.claim(Kebab(name), name)
	if err != nil {
		return nil, err
	}
	b.active[name] = true
	defer delete(b.active, name)

	var kind wit.TypeDefKind
	if rec, ok := decl.(*schema.Record); ok {
		kind, err = b.record(rec, ident)
	} else {
		kind, err = b.typ(decl, ident)
	}
	if err != nil {
		return nil, err
	}

	td := &wit.TypeDef{Name: &ident, Kind: kind}
	b.defs[name] = td
	b.out = append(b.out, td)
	return td, nil
}

// claim reserves a WIT identifier. Distinct schema names that collapse to
// the same kebab-case identifier are an error.
func (b *builder) claim(ident, owner string) (string, error) {
	if prev, ok := b.used[ident]; ok && prev != owner {
		return "", errors.New(errors.PhaseInterop, errors.KindInvalidInput).
			Type(owner).
			Detail("%s and %s both map to WIT name %s", prev, owner, ident).
			Build()
	}
	b.used[ident] = owner
	return ident, nil
}

func (b *builder) record(rec *schema.Record, ident string) (*wit.Record, error) {
	out := &wit.Record{Fields: make([]wit.Field, 0, len(rec.Fields))}
	for _, f := range rec.Fields {
		name := Kebab(f.Name)
		t, err := b.typ(f.Type, ident+"-"+name)
		if err != nil {
			return nil, err
		}
		if f.Optional {
			t = &wit.TypeDef{Kind: &wit.Option{Type: t}}
		}
		out.Fields = append(out.Fields, wit.Field{Name: name, Type: t})
	}
	return out, nil
}

// typ converts a type use. hint names the record an anonymous record is
// hoisted into.
func (b *builder) typ(t schema.Type, hint string) (wit.Type, error) {
	switch t := t.(type) {
	case *schema.Ref:
		if _, declared := b.table[t.Name]; declared {
			td, err := b.define(t.Name)
			if err != nil {
				return nil, err
			}
			return td, nil
		}
		switch t.Name {
		case schema.String:
			return wit.String{}, nil
		case schema.Number:
			return wit.U64{}, nil
		case schema.Boolean:
			return wit.Bool{}, nil
		}
		return nil, errors.NotFound(errors.PhaseInterop, "Type", t.Name)
	case *schema.Array:
		elem, err := b.typ(t.Elem, hint)
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil
	case *schema.Record:
		ident, err := b.claim(hint, hint)
		if err != nil {
			return nil, err
		}
		rec, err := b.record(t, ident)
		if err != nil {
			return nil, err
		}
		td := &wit.TypeDef{Name: &ident, Kind: rec}
		b.out = append(b.out, td)
		return td, nil
	}
	return nil, errors.Unsupported(errors.PhaseInterop, "schema type "+t.String())
}

// Render prints iface in WIT syntax.
func Render(iface *Interface) string {
	var sb strings.Builder
	sb.WriteString("interface ")
	sb.WriteString(escape(iface.Name))
	sb.WriteString(" {\n")
	for i, td := range iface.TypeDefs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		renderTypeDef(&sb, td)
	}
	sb.WriteString("}\n")
	return sb.String()
}

func renderTypeDef(sb *strings.Builder, td *wit.TypeDef) {
	name := escape(*td.Name)
	rec, ok := td.Kind.(*wit.Record)
	if !ok {
		sb.WriteString("  type " + name + " = " + typeString(td.Kind) + ";\n")
		return
	}
	sb.WriteString("  record " + name + " {\n")
	for _, f := range rec.Fields {
		sb.WriteString("    " + escape(f.Name) + ": " + typeString(f.Type) + ",\n")
	}
	sb.WriteString("  }\n")
}

func typeString(t any) string {
	switch v := t.(type) {
	case wit.String:
		return "string"
	case wit.U64:
		return "u64"
	case wit.Bool:
		return "bool"
	case *wit.TypeDef:
		if v.Name != nil {
			return escape(*v.Name)
		}
		return typeString(v.Kind)
	case *wit.List:
		return "list<" + typeString(v.Type) + ">"
	case *wit.Option:
		return "option<" + typeString(v.Type) + ">"
	}
	return "unknown"
}
