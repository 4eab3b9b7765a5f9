// Package bsos implements Binary Structured Objects, a schema-driven binary
// serialization format.
//
// Record types are declared in a small schema language, compiled into binary
// layouts, and used to encode keyed Go values into compact byte buffers and
// back. No code generation is involved.
//
// # Architecture Overview
//
//	bsos/              Registry: the entry point for Encode and Decode
//	├── schema/        Schema language lexer, parser and declared types
//	├── layout/        Layout compiler and node arena
//	├── codec/         Wire format encoder and decoder
//	├── marshal/       Keyed values to positional values and back
//	├── errors/        Structured error types
//	├── interchange/   JSON, MessagePack, CBOR and protobuf bridges
//	├── guest/         Payloads in WebAssembly linear memory
//	├── witgen/        WIT rendering of schema types
//	└── cmd/bsos/      Command-line tool
//
// # Schema Language
//
//	// comments run to the end of the line
//	type ID string
//
//	type Book {
//	  id ID
//	  title string
//	  pages number
//	  ?reviews []string
//	}
//
//	type Library {
//	  id ID
//	  books []Book
//	}
//
//	schema Library
//
// string, number and boolean are built in. A `?` marks a field optional and
// each `[]` wraps a type in one array level. `schema` compiles a record so it
// can be encoded.
//
// # Quick Start
//
//	reg, err := bsos.New(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := reg.Encode("Library", map[string]any{
//	    "id":    "lib-1",
//	    "books": []any{},
//	})
//
//	v, err := reg.Decode("Library", data)
//
// Decode returns map[string]any unless a construction hook was registered
// with SetConstructor, in which case the hook builds the result.
package bsos
