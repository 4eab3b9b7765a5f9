package layout

import (
	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/schema"
)

// Compiler turns declared schema types into layout nodes of a Set.
//
// Named records and arrays are cached by name before their children are
// compiled, so a type that refers back to itself resolves to the node that
// is still being built. Anonymous inline types are never cached.
type Compiler struct {
	set     *Set
	table   schema.Table
	cache   map[string]Ref
	journal []string
}

// NewCompiler returns a compiler adding nodes to set. The table is read at
// compile time, so declarations added to it later are visible.
func NewCompiler(set *Set, table schema.Table) *Compiler {
	return &Compiler{
		set:   set,
		table: table,
		cache: make(map[string]Ref),
	}
}

// Set returns the arena the compiler writes to.
func (c *Compiler) Set() *Set {
	return c.set
}

// Lookup returns the node compiled for name, if any.
func (c *Compiler) Lookup(name string) (Ref, bool) {
	r, ok := c.cache[name]
	return r, ok
}

// Compile compiles the declared type name. On failure every node and cache
// entry added by this call is discarded.
func (c *Compiler) Compile(name string) (Ref, error) {
	return c.guard(func() (Ref, error) {
		return c.compile(&schema.Ref{Name: name}, nil, nil)
	})
}

// CompileType compiles an anonymous type against the compiler's table.
func (c *Compiler) CompileType(typ schema.Type) (Ref, error) {
	return c.guard(func() (Ref, error) {
		return c.compile(typ, nil, nil)
	})
}

func (c *Compiler) guard(fn func() (Ref, error)) (Ref, error) {
	nodes, entries := c.set.Len(), len(c.journal)
	r, err := fn()
	if err != nil {
		for _, name := range c.journal[entries:] {
			delete(c.cache, name)
		}
		c.journal = c.journal[:entries]
		c.set.truncate(nodes)
		return 0, err
	}
	return r, nil
}

func (c *Compiler) remember(names []string, r Ref) {
	for _, name := range names {
		c.cache[name] = r
		c.journal = append(c.journal, name)
	}
}

// compile builds typ; names are the declared names typ was reached through,
// empty for inline types.
func (c *Compiler) compile(typ schema.Type, names []string, path []string) (Ref, error) {
	switch t := typ.(type) {
	case *schema.Ref:
		return c.compileRef(t, path)
	case *schema.Array:
		return c.compileArray(t, names, path)
	case *schema.Record:
		return c.compileRecord(t, names, path)
	default:
		return 0, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported type %T", typ).
			Build()
	}
}

// compileRef follows an alias chain to the record, array or primitive at its
// end. Every name on the chain is cached to the same node.
func (c *Compiler) compileRef(t *schema.Ref, path []string) (Ref, error) {
	var names []string
	name := t.Name
	for {
		if r, ok := c.cache[name]; ok {
			c.remember(names, r)
			return r, nil
		}

		decl, declared := c.table[name]
		if !declared {
			r, err := c.primitive(name, path)
			if err != nil {
				return 0, err
			}
			c.remember(names, r)
			return r, nil
		}

		for _, seen := range names {
			if seen == name {
				return 0, errors.New(errors.PhaseCompile, errors.KindRecursive).
					Path(path...).
					Type(name).
					Detail("type %s is an alias of itself", name).
					Build()
			}
		}
		names = append(names, name)

		alias, ok := decl.(*schema.Ref)
		if !ok {
			return c.compile(decl, names, path)
		}
		name = alias.Name
	}
}

func (c *Compiler) primitive(name string, path []string) (Ref, error) {
	switch name {
	case schema.String:
		return c.set.String(), nil
	case schema.Number:
		return c.set.Number(), nil
	case schema.Boolean:
		return c.set.Boolean(), nil
	}
	return 0, errors.New(errors.PhaseCompile, errors.KindNotFound).
		Path(path...).
		Type(name).
		Detail("Type %s does not exist", name).
		Build()
}

func (c *Compiler) compileArray(t *schema.Array, names []string, path []string) (Ref, error) {
	r := c.set.alloc(Node{Kind: KindArray})
	c.remember(names, r)

	elem, err := c.compile(t.Elem, nil, append(path[:len(path):len(path)], "[]"))
	if err != nil {
		return 0, err
	}
	c.set.nodes[r].Elem = elem
	return r, nil
}

func (c *Compiler) compileRecord(t *schema.Record, names []string, path []string) (Ref, error) {
	required := t.RequiredCount()
	optional := len(t.Fields) - required
	if optional > MaxOptionals {
		return 0, tooManyOptionals(path, optional)
	}

	r := c.set.alloc(Node{Kind: KindRecord})
	c.remember(names, r)

	req := make([]Ref, 0, required)
	opt := make([]Ref, 0, optional)
	for _, f := range t.Fields {
		fr, err := c.compile(f.Type, nil, append(path[:len(path):len(path)], f.Name))
		if err != nil {
			return 0, err
		}
		if f.Optional {
			opt = append(opt, fr)
		} else {
			req = append(req, fr)
		}
	}

	c.set.nodes[r].Required = req
	c.set.nodes[r].Optionals = opt
	return r, nil
}
