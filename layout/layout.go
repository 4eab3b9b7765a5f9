package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/firecraftgaming/binary-structured-objects/errors"
)

// MaxOptionals is the number of optional fields a single record level can
// carry; presence bits are packed into one uint64.
const MaxOptionals = 64

type Kind uint8

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindTuple
	KindArray
	KindRecord
)

var kindNames = [...]string{
	KindString:  "string",
	KindNumber:  "number",
	KindBoolean: "boolean",
	KindTuple:   "tuple",
	KindArray:   "array",
	KindRecord:  "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) IsPrimitive() bool {
	return k <= KindBoolean
}

// Ref is a stable handle to a node in a Set.
type Ref uint32

// Node is one compiled layout node. Which fields are used depends on Kind:
// Elem for arrays, Items for tuples, Required and Optionals for records.
type Node struct {
	Items     []Ref
	Required  []Ref
	Optionals []Ref
	Elem      Ref
	Kind      Kind
}

// Set is an arena of layout nodes. Nodes reference each other by Ref, which
// lets recursive layouts share a node instead of unrolling it.
//
// A Set is not safe for concurrent mutation; once built it may be read from
// any number of goroutines.
type Set struct {
	nodes []Node
	prims [KindBoolean + 1]Ref
	has   [KindBoolean + 1]bool
}

func NewSet() *Set {
	return &Set{}
}

// Len returns the number of nodes in the set.
func (s *Set) Len() int {
	return len(s.nodes)
}

// Valid reports whether r addresses a node of s.
func (s *Set) Valid(r Ref) bool {
	return int(r) < len(s.nodes)
}

// Node returns the node addressed by r. It panics on a handle from another set.
func (s *Set) Node(r Ref) Node {
	return s.nodes[r]
}

func (s *Set) alloc(n Node) Ref {
	r := Ref(len(s.nodes))
	s.nodes = append(s.nodes, n)
	return r
}

// Primitive returns the shared node for a string, number or boolean kind.
func (s *Set) Primitive(k Kind) Ref {
	if !k.IsPrimitive() {
		panic("layout: " + k.String() + " is not a primitive kind")
	}
	if !s.has[k] {
		s.prims[k] = s.alloc(Node{Kind: k})
		s.has[k] = true
	}
	return s.prims[k]
}

func (s *Set) String() Ref  { return s.Primitive(KindString) }
func (s *Set) Number() Ref  { return s.Primitive(KindNumber) }
func (s *Set) Boolean() Ref { return s.Primitive(KindBoolean) }

// Tuple adds a fixed-arity sequence node.
func (s *Set) Tuple(items ...Ref) Ref {
	return s.alloc(Node{Kind: KindTuple, Items: append([]Ref(nil), items...)})
}

// Array adds an array node with the given element layout.
func (s *Set) Array(elem Ref) Ref {
	return s.alloc(Node{Kind: KindArray, Elem: elem})
}

// Record adds a record node. It fails when optionals exceeds MaxOptionals.
func (s *Set) Record(required, optionals []Ref) (Ref, error) {
	if len(optionals) > MaxOptionals {
		return 0, tooManyOptionals(nil, len(optionals))
	}
	return s.alloc(Node{
		Kind:      KindRecord,
		Required:  append([]Ref(nil), required...),
		Optionals: append([]Ref(nil), optionals...),
	}), nil
}

// truncate drops every node allocated at or after n.
func (s *Set) truncate(n int) {
	s.nodes = s.nodes[:n]
	for k := range s.has {
		if s.has[k] && int(s.prims[k]) >= n {
			s.has[k] = false
		}
	}
}

func tooManyOptionals(path []string, n int) *errors.Error {
	return errors.New(errors.PhaseCompile, errors.KindOverflow).
		Path(path...).
		Type("record").
		Value(n).
		Detail("%d optional fields, at most %d fit the presence bitmask", n, MaxOptionals).
		Build()
}

// Format renders the layout rooted at r on one line. Records are labelled
// with their handle so that recursive references print as "record#N".
func (s *Set) Format(r Ref) string {
	var b strings.Builder
	s.format(&b, r, make(map[Ref]bool))
	return b.String()
}

func (s *Set) format(b *strings.Builder, r Ref, open map[Ref]bool) {
	if !s.Valid(r) {
		fmt.Fprintf(b, "invalid#%d", r)
		return
	}
	n := s.nodes[r]
	switch n.Kind {
	case KindTuple:
		b.WriteString("tuple<")
		s.formatList(b, n.Items, open)
		b.WriteByte('>')
	case KindArray:
		b.WriteString("array<")
		s.format(b, n.Elem, open)
		b.WriteByte('>')
	case KindRecord:
		b.WriteString("record#")
		b.WriteString(strconv.Itoa(int(r)))
		if open[r] {
			return
		}
		open[r] = true
		b.WriteByte('{')
		s.formatList(b, n.Required, open)
		if len(n.Optionals) > 0 {
			b.WriteString(" | ")
			s.formatList(b, n.Optionals, open)
		}
		b.WriteByte('}')
		delete(open, r)
	default:
		b.WriteString(n.Kind.String())
	}
}

func (s *Set) formatList(b *strings.Builder, refs []Ref, open map[Ref]bool) {
	for i, r := range refs {
		if i > 0 {
			b.WriteString(", ")
		}
		s.format(b, r, open)
	}
}

// Reachable returns the number of distinct nodes reachable from r.
func (s *Set) Reachable(r Ref) int {
	seen := make(map[Ref]bool)
	stack := []Ref{r}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] || !s.Valid(cur) {
			continue
		}
		seen[cur] = true
		n := s.nodes[cur]
		switch n.Kind {
		case KindArray:
			stack = append(stack, n.Elem)
		case KindTuple:
			stack = append(stack, n.Items...)
		case KindRecord:
			stack = append(stack, n.Required...)
			stack = append(stack, n.Optionals...)
		}
	}
	return len(seen)
}
