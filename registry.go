package bsos

import (
	"fmt"
	"sort"

	"github.com/firecraftgaming/binary-structured-objects/codec"
	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/layout"
	"github.com/firecraftgaming/binary-structured-objects/marshal"
	"github.com/firecraftgaming/binary-structured-objects/schema"
	"go.uber.org/zap"
)

// Registry owns a type table, its compiled layouts and construction hooks.
//
// After construction, Encode and Decode only read registry state and may be
// called from many goroutines. SetConstructor and Compile mutate it and must
// not run concurrently with anything else.
type Registry struct {
	types    schema.Table
	set      *layout.Set
	schemas  map[string]layout.Ref
	compiler *layout.Compiler
	codec    *codec.Codec
	marshal  *marshal.Marshaller
	logger   *zap.Logger
}

// New parses schema text and compiles every `schema` statement in it.
func New(text string, opts ...Option) (*Registry, error) {
	o := buildOptions(opts)
	set := layout.NewSet()
	schemas := make(map[string]layout.Ref)

	var compiler *layout.Compiler
	doc, err := schema.Parse(text, func(types schema.Table, name string) error {
		if compiler == nil {
			compiler = layout.NewCompiler(set, types)
		}
		ref, err := compiler.Compile(name)
		if err != nil {
			return err
		}
		schemas[name] = ref
		o.logger.Debug("layout compiled",
			zap.String("schema", name),
			zap.Int("nodes", set.Reachable(ref)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if compiler == nil {
		compiler = layout.NewCompiler(set, doc.Types)
	}

	o.logger.Debug("schema parsed",
		zap.Int("types", len(doc.Types)),
		zap.Int("schemas", len(schemas)),
		zap.Int("nodes", set.Len()))

	return newRegistry(doc.Types, set, schemas, compiler, o), nil
}

// NewFromTables builds a registry from an already parsed type table and
// already compiled layouts, skipping the parser. The maps are used as is.
func NewFromTables(types schema.Table, set *layout.Set, schemas map[string]layout.Ref, opts ...Option) *Registry {
	o := buildOptions(opts)
	if types == nil {
		types = make(schema.Table)
	}
	if set == nil {
		set = layout.NewSet()
	}
	if schemas == nil {
		schemas = make(map[string]layout.Ref)
	}
	return newRegistry(types, set, schemas, layout.NewCompiler(set, types), o)
}

func newRegistry(types schema.Table, set *layout.Set, schemas map[string]layout.Ref, compiler *layout.Compiler, o options) *Registry {
	return &Registry{
		types:    types,
		set:      set,
		schemas:  schemas,
		compiler: compiler,
		codec:    codec.New(set, o.codec...),
		marshal:  marshal.New(types, o.marshal...),
		logger:   o.logger,
	}
}

// SetConstructor attaches a construction hook to the record type name.
// Decode returns the hook's result instead of the keyed record. A nil fn
// removes the hook.
func (r *Registry) SetConstructor(name string, fn schema.ConstructFunc) error {
	rec, err := r.types.Record(name)
	if err != nil {
		return err
	}
	rec.Construct = fn
	r.logger.Debug("constructor attached", zap.String("type", name), zap.Bool("set", fn != nil))
	return nil
}

// Encode marshals value as the record type name and encodes it.
func (r *Registry) Encode(name string, value any) ([]byte, error) {
	rec, ref, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	pos, err := r.marshal.ToPositional(rec, value)
	if err != nil {
		return nil, named(err, name)
	}
	data, err := r.codec.Encode(ref, pos.([]any))
	if err != nil {
		return nil, named(err, name)
	}
	return data, nil
}

// Decode decodes data as the record type name. The result is a
// map[string]any, or whatever the type's construction hook returns.
func (r *Registry) Decode(name string, data []byte) (any, error) {
	rec, ref, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	pos, err := r.codec.Decode(ref, data)
	if err != nil {
		return nil, named(err, name)
	}
	v, err := r.marshal.FromPositional(rec, pos)
	if err != nil {
		return nil, named(err, name)
	}
	return v, nil
}

func (r *Registry) lookup(name string) (*schema.Record, layout.Ref, error) {
	rec, err := r.types.Record(name)
	if err != nil {
		return nil, 0, err
	}
	ref, ok := r.schemas[name]
	if !ok {
		return nil, 0, errors.New(errors.PhaseLookup, errors.KindNotFound).
			Type(name).
			Detail("Type %s has no compiled schema", name).
			Build()
	}
	return rec, ref, nil
}

// named puts the record name at the front of a structured error's path.
func named(err error, name string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{name}, e.Path...)
	}
	return err
}

// Compile compiles the record type name as if a `schema` statement named it.
func (r *Registry) Compile(name string) (layout.Ref, error) {
	if ref, ok := r.schemas[name]; ok {
		return ref, nil
	}
	if _, err := r.types.Record(name); err != nil {
		return 0, err
	}
	ref, err := r.compiler.Compile(name)
	if err != nil {
		return 0, err
	}
	r.schemas[name] = ref
	r.logger.Debug("layout compiled", zap.String("schema", name), zap.Int("nodes", r.set.Reachable(ref)))
	return ref, nil
}

// Types returns the declared type names in sorted order.
func (r *Registry) Types() []string {
	return r.types.Names()
}

// Schemas returns the names with a compiled layout in sorted order.
func (r *Registry) Schemas() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Type returns the declaration of name.
func (r *Registry) Type(name string) (schema.Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Table returns the registry's type table. It must not be modified.
func (r *Registry) Table() schema.Table {
	return r.types
}

// Layout returns the compiled layout of the schema name.
func (r *Registry) Layout(name string) (layout.Ref, bool) {
	ref, ok := r.schemas[name]
	return ref, ok
}

// Set returns the arena holding the registry's layouts.
func (r *Registry) Set() *layout.Set {
	return r.set
}

// Describe renders the declaration of name and, when compiled, its layout.
func (r *Registry) Describe(name string) (string, error) {
	t, ok := r.types[name]
	if !ok {
		return "", errors.NotFound(errors.PhaseLookup, "Type", name)
	}
	out := schema.Describe(name, t)
	if ref, ok := r.schemas[name]; ok {
		out += fmt.Sprintf("\nlayout %s", r.set.Format(ref))
	}
	return out, nil
}
