// Package codec encodes positional values to the BSOS wire format and back.
//
// The wire format has no header; both sides need the same compiled layout.
//
//	Kind      Encoding
//	────────────────────────────────────────────────────────────────
//	number    unsigned LEB128, at most 64 bits
//	boolean   one byte, 0x00 or 0x01
//	string    LEB128 byte length, then the bytes
//	tuple     each item in order, arity from the layout
//	array     LEB128 element count, then each element
//	record    required fields, LEB128 presence bitmask, present optionals
//
// Positional values mirror the layout: strings are string, numbers uint64,
// booleans bool, and tuples, arrays and records []any. A record's slice holds
// the required fields followed by the optional fields, with nil for an absent
// optional.
//
// Strings are UTF-8 by default. Latin1 mode writes one byte per character,
// which is byte-compatible with payloads produced by older BSOS writers.
package codec
