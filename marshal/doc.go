// Package marshal converts between keyed values and the positional values the
// codec works on.
//
// Conversion walks the declared types of a schema.Table rather than the
// compiled layout, so aliases are resolved by name and construction hooks
// attached to record types are found.
//
// # Keyed form
//
//	string   string
//	number   any non-negative integer kind, integral floats, json.Number
//	boolean  bool
//	array    []any or any Go slice or array
//	record   map[string]any (or any map with string keys)
//
// A value implementing Serializer is replaced by its Serialize result first.
//
// # Presence
//
// A field is absent when its key is missing or its value is nil. Zero values
// are present and survive a round trip. WithLegacyPresence also drops zero
// valued optional fields.
package marshal
