// Package errors provides structured error types for the BSOS packages.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: field path, Go type, expected schema type and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Path("books", "[1]", "pages").
//		GoType("string").
//		Type("number").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseEncode, path, "string", "number")
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 5)
//
// Schema text failures are reported as *SyntaxError, whose message keeps the
// "Syntax Error in Schema, <message> at: <line>:<column>" form.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
