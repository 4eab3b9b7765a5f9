package schema

import (
	"errors"
	"reflect"
	"testing"

	bserrors "github.com/firecraftgaming/binary-structured-objects/errors"
)

const librarySource = `// library fixture
type ID string

type Book {
  id ID
  title string
  author string
  pages number
  bestSeller boolean
  reviews ?[] string
}

type Library {
  id ID
  name string
  books [] Book
}

schema Book
schema Library
`

func ref(name string) *Ref { return &Ref{Name: name} }

func arr(t Type) *Array { return &Array{Elem: t} }

func TestParseLibrary(t *testing.T) {
	doc, err := Parse(librarySource, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := Table{
		"ID": ref("string"),
		"Book": &Record{Fields: []Field{
			{Name: "id", Type: ref("ID")},
			{Name: "title", Type: ref("string")},
			{Name: "author", Type: ref("string")},
			{Name: "pages", Type: ref("number")},
			{Name: "bestSeller", Type: ref("boolean")},
			{Name: "reviews", Type: arr(ref("string")), Optional: true},
		}},
		"Library": &Record{Fields: []Field{
			{Name: "id", Type: ref("ID")},
			{Name: "name", Type: ref("string")},
			{Name: "books", Type: arr(ref("Book"))},
		}},
	}
	if !reflect.DeepEqual(doc.Types, want) {
		t.Errorf("types mismatch\n got: %v\nwant: %v", doc.Types, want)
	}
	if !reflect.DeepEqual(doc.Schemas, []string{"Book", "Library"}) {
		t.Errorf("Schemas = %v", doc.Schemas)
	}
}

func TestParseGrammar(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect Table
	}{
		{
			"empty",
			"",
			Table{},
		},
		{
			"comments only",
			"// one\n   // two\n",
			Table{},
		},
		{
			"scenario",
			"type Name string\ntype Thing { a Name ?b [] Name }",
			Table{
				"Name": ref("string"),
				"Thing": &Record{Fields: []Field{
					{Name: "a", Type: ref("Name")},
					{Name: "b", Type: arr(ref("Name")), Optional: true},
				}},
			},
		},
		{
			"suffix arrays",
			"type T { xs string[][] }",
			Table{"T": &Record{Fields: []Field{
				{Name: "xs", Type: arr(arr(ref("string")))},
			}}},
		},
		{
			"prefix and suffix arrays",
			"type T { xs []string[] }",
			Table{"T": &Record{Fields: []Field{
				{Name: "xs", Type: arr(arr(ref("string")))},
			}}},
		},
		{
			"array alias",
			"type Tags []string",
			Table{"Tags": arr(ref("string"))},
		},
		{
			"optional after name",
			"type T {\n  note ?string\n}",
			Table{"T": &Record{Fields: []Field{
				{Name: "note", Type: ref("string"), Optional: true},
			}}},
		},
		{
			"nested anonymous records",
			"type T {\n  inner {\n    a string\n  }\n  ?o { b number }\n}",
			Table{"T": &Record{Fields: []Field{
				{Name: "inner", Type: &Record{Fields: []Field{{Name: "a", Type: ref("string")}}}},
				{Name: "o", Type: &Record{Fields: []Field{{Name: "b", Type: ref("number")}}}, Optional: true},
			}}},
		},
		{
			"trailing comments",
			"type A string // alias\ntype B { // open\n  a A // field\n}",
			Table{
				"A": ref("string"),
				"B": &Record{Fields: []Field{{Name: "a", Type: ref("A")}}},
			},
		},
		{
			"statements share a line",
			"type A string type B A",
			Table{"A": ref("string"), "B": ref("A")},
		},
		{
			"empty record",
			"type E {}",
			Table{"E": &Record{}},
		},
		{
			"self reference",
			"type Node {\n  ?children []Node\n}",
			Table{"Node": &Record{Fields: []Field{
				{Name: "children", Type: arr(ref("Node")), Optional: true},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input, nil)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !reflect.DeepEqual(doc.Types, tt.expect) {
				t.Errorf("got %v, want %v", doc.Types, tt.expect)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"missing closing brace",
			"type Book {\n  id string\n",
			"Syntax Error in Schema, unexpected end of line at: 2:6",
		},
		{
			"stray symbol at top level",
			"type A string\n  # oops",
			"Syntax Error in Schema, found unexpected token at: 2:3",
		},
		{
			"stray word at top level",
			"typo A string",
			"Syntax Error in Schema, found unexpected token at: 1:1",
		},
		{
			"single slash",
			"/x",
			"Syntax Error in Schema, found unexpected token at: 1:1",
		},
		{
			"separated slashes",
			"/ / comment",
			"Syntax Error in Schema, found unexpected token at: 1:1",
		},
		{
			"single slash in body",
			"type A {\n  / a\n}",
			"Syntax Error in Schema, found unexpected token at: 2:3",
		},
		{
			"type without definition",
			"type Name",
			"Syntax Error in Schema, unexpected end of line at: 1:9",
		},
		{
			"type definition on next line",
			"type A\nstring",
			"Syntax Error in Schema, unexpected end of line at: 1:6",
		},
		{
			"field split across lines",
			"type A {\n  a\n  string\n}",
			"Syntax Error in Schema, unexpected end of line at: 2:3",
		},
		{
			"schema without name",
			"schema",
			"Syntax Error in Schema, unexpected end of line at: 1:6",
		},
		{
			"schema of undeclared type",
			"type A string\nschema B",
			"Syntax Error in Schema, Type B does not exist at: 2:1",
		},
		{
			"schema of alias",
			"type A string\n  schema A",
			"Syntax Error in Schema, Type A is not a schema at: 2:3",
		},
		{
			"duplicate field",
			"type A { a string a number }",
			"Syntax Error in Schema, Field a already exists at: 1:19",
		},
		{
			"duplicate type",
			"type A string\ntype A number",
			"Syntax Error in Schema, Type A already exists at: 2:6",
		},
		{
			"unclosed bracket",
			"type A [x",
			"Syntax Error in Schema, found unexpected token at: 1:9",
		},
		{
			"bracket at end of line",
			"type A string[",
			"Syntax Error in Schema, unexpected end of line at: 1:14",
		},
		{
			"optional marked twice",
			"type A { ?a ?string }",
			"Syntax Error in Schema, found unexpected token at: 1:13",
		},
		{
			"symbol as type name",
			"type { a string }",
			"Syntax Error in Schema, found unexpected token at: 1:6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input, nil)
			if err == nil {
				t.Fatalf("expected error, got %v", doc)
			}
			if doc != nil {
				t.Error("failed parse must not return a document")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			var se *bserrors.SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("error %T is not a *SyntaxError", err)
			}
		})
	}
}

func TestParseSchemaCallback(t *testing.T) {
	var calls []string
	var seenTypes []int
	_, err := Parse("type A { x string }\nschema A\ntype B { a A }\nschema B\nschema A", func(types Table, name string) error {
		calls = append(calls, name)
		seenTypes = append(seenTypes, len(types))
		return nil
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(calls, []string{"A", "B", "A"}) {
		t.Errorf("calls = %v", calls)
	}
	// the callback only sees types declared before the statement
	if !reflect.DeepEqual(seenTypes, []int{1, 2, 2}) {
		t.Errorf("table sizes = %v", seenTypes)
	}
}

func TestParseSchemaCallbackError(t *testing.T) {
	boom := errors.New("boom")
	doc, err := Parse("type A { x string }\nschema A", func(Table, string) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if doc != nil {
		t.Error("expected no document")
	}
}

func TestParseSchemasDeduplicated(t *testing.T) {
	doc, err := Parse("type A {}\nschema A\nschema A", nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(doc.Schemas, []string{"A"}) {
		t.Errorf("Schemas = %v", doc.Schemas)
	}
}

func TestDescribeReparses(t *testing.T) {
	doc, err := Parse(librarySource, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, name := range doc.Types.Names() {
		text := Describe(name, doc.Types[name])
		again, err := Parse(text, nil)
		if err != nil {
			t.Fatalf("reparse %q: %v", text, err)
		}
		if !reflect.DeepEqual(again.Types[name], doc.Types[name]) {
			t.Errorf("%s: reparse mismatch for %q", name, text)
		}
	}
}
