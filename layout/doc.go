// Package layout compiles declared schema types into binary layouts.
//
// A layout is a graph of nodes stored in a Set and addressed by Ref handles:
//
//	string | number | boolean | tuple<items> | array<elem> | record{required | optionals}
//
// Records split their fields into required and optional lists, each in
// declaration order. The codec walks these lists positionally.
//
// # Recursion
//
// Compiler caches a named record or array before compiling its fields, so
// self-referential and mutually recursive types compile to a finite graph in
// which the nested occurrence is the same Ref as the outer one:
//
//	type Node { ?children []Node }
//
//	record#0{ | array<record#0>}
//
// Cycles made only of aliases (type A B, type B A) have no node to share and
// are rejected.
package layout
