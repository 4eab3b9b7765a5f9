package marshal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	bserrors "github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/schema"
)

func libraryTable(t *testing.T) schema.Table {
	t.Helper()
	doc, err := schema.Parse(`
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
}`, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc.Types
}

func isKind(err error, phase bserrors.Phase, kind bserrors.Kind) bool {
	return errors.Is(err, &bserrors.Error{Phase: phase, Kind: kind})
}

func errPath(err error) string {
	var e *bserrors.Error
	if errors.As(err, &e) {
		return bserrors.FormatPath(e.Path)
	}
	return ""
}

func TestToPositionalLibrary(t *testing.T) {
	table := libraryTable(t)
	lib := map[string]any{
		"id":   "lib-1",
		"name": "City",
		"books": []any{
			map[string]any{
				"id": "b1", "title": "Dune", "author": "Herbert",
				"pages": 412, "bestSeller": true,
				"reviews": []string{"great"},
			},
			map[string]any{
				"id": "b2", "title": "Draft", "author": "Anon",
				"pages": 0, "bestSeller": false,
			},
		},
	}

	got, err := ToPositional(table, &schema.Ref{Name: "Library"}, lib)
	if err != nil {
		t.Fatalf("ToPositional failed: %v", err)
	}
	want := []any{
		"lib-1",
		"City",
		[]any{
			[]any{"b1", "Dune", "Herbert", uint64(412), true, []any{"great"}},
			[]any{"b2", "Draft", "Anon", uint64(0), false, nil},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %#v\nwant %#v", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	table := libraryTable(t)
	book := &schema.Ref{Name: "Book"}
	tests := []struct {
		name  string
		value map[string]any
	}{
		{
			"all fields",
			map[string]any{
				"id": "1", "title": "T", "author": "A", "pages": uint64(10),
				"bestSeller": true, "reviews": []any{"x", "y"},
			},
		},
		{
			"zero values survive",
			map[string]any{
				"id": "", "title": "", "author": "", "pages": uint64(0),
				"bestSeller": false, "reviews": []any{},
			},
		},
		{
			"optional absent",
			map[string]any{
				"id": "1", "title": "T", "author": "A", "pages": uint64(1),
				"bestSeller": true,
			},
		},
	}

	m := New(table)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := m.ToPositional(book, tt.value)
			if err != nil {
				t.Fatalf("ToPositional failed: %v", err)
			}
			back, err := m.FromPositional(book, pos)
			if err != nil {
				t.Fatalf("FromPositional failed: %v", err)
			}
			if !reflect.DeepEqual(back, tt.value) {
				t.Errorf("got %#v, want %#v", back, tt.value)
			}
		})
	}
}

func TestNilIsAbsent(t *testing.T) {
	table := schema.Table{"R": &schema.Record{Fields: []schema.Field{
		{Name: "a", Type: &schema.Ref{Name: "string"}, Optional: true},
	}}}
	got, err := ToPositional(table, &schema.Ref{Name: "R"}, map[string]any{"a": nil})
	if err != nil {
		t.Fatalf("ToPositional failed: %v", err)
	}
	if !reflect.DeepEqual(got, []any{nil}) {
		t.Errorf("got %#v", got)
	}

	back, err := FromPositional(table, &schema.Ref{Name: "R"}, []any{nil})
	if err != nil {
		t.Fatalf("FromPositional failed: %v", err)
	}
	if _, has := back.(map[string]any)["a"]; has {
		t.Error("absent optional must not be assigned")
	}
}

func TestLegacyPresence(t *testing.T) {
	table := schema.Table{"R": &schema.Record{Fields: []schema.Field{
		{Name: "n", Type: &schema.Ref{Name: "number"}},
		{Name: "s", Type: &schema.Ref{Name: "string"}, Optional: true},
		{Name: "b", Type: &schema.Ref{Name: "boolean"}, Optional: true},
		{Name: "c", Type: &schema.Ref{Name: "number"}, Optional: true},
	}}}
	value := map[string]any{"n": 0, "s": "", "b": false, "c": 3}

	modern, err := ToPositional(table, &schema.Ref{Name: "R"}, value)
	if err != nil {
		t.Fatalf("ToPositional failed: %v", err)
	}
	if !reflect.DeepEqual(modern, []any{uint64(0), "", false, uint64(3)}) {
		t.Errorf("modern = %#v", modern)
	}

	legacy, err := ToPositional(table, &schema.Ref{Name: "R"}, value, WithLegacyPresence())
	if err != nil {
		t.Fatalf("ToPositional failed: %v", err)
	}
	if !reflect.DeepEqual(legacy, []any{uint64(0), nil, nil, uint64(3)}) {
		t.Errorf("legacy = %#v", legacy)
	}
}

type bookModel struct {
	id    string
	pages int
}

func (b *bookModel) Serialize() any {
	return map[string]any{
		"id": b.id, "title": "t", "author": "a",
		"pages": b.pages, "bestSeller": false,
	}
}

func TestSerializer(t *testing.T) {
	table := libraryTable(t)
	got, err := ToPositional(table, &schema.Ref{Name: "Library"}, map[string]any{
		"id": "l", "name": "n",
		"books": []*bookModel{{id: "x", pages: 7}},
	})
	if err != nil {
		t.Fatalf("ToPositional failed: %v", err)
	}
	books := got.([]any)[2].([]any)
	if !reflect.DeepEqual(books[0], []any{"x", "t", "a", uint64(7), false, nil}) {
		t.Errorf("book = %#v", books[0])
	}
}

func TestConstructHook(t *testing.T) {
	table := libraryTable(t)
	table["Book"].(*schema.Record).Construct = func(f map[string]any) (any, error) {
		return &bookModel{id: f["id"].(string), pages: int(f["pages"].(uint64))}, nil
	}

	lib, err := FromPositional(table, &schema.Ref{Name: "Library"}, []any{
		"l", "n", []any{[]any{"b", "t", "a", uint64(3), true, nil}},
	})
	if err != nil {
		t.Fatalf("FromPositional failed: %v", err)
	}
	books := lib.(map[string]any)["books"].([]any)
	bm, ok := books[0].(*bookModel)
	if !ok {
		t.Fatalf("book = %T, want *bookModel", books[0])
	}
	if bm.id != "b" || bm.pages != 3 {
		t.Errorf("book = %+v", bm)
	}
}

func TestConstructHookError(t *testing.T) {
	table := libraryTable(t)
	boom := fmt.Errorf("boom")
	table["Book"].(*schema.Record).Construct = func(map[string]any) (any, error) { return nil, boom }

	_, err := FromPositional(table, &schema.Ref{Name: "Library"}, []any{
		"l", "n", []any{[]any{"b", "t", "a", uint64(3), true, nil}},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom in chain", err)
	}
	if got := errPath(err); got != "books[0]" {
		t.Errorf("path = %q", got)
	}
}

func TestToPositionalErrors(t *testing.T) {
	table := libraryTable(t)
	lib := &schema.Ref{Name: "Library"}

	book := func(pages any) map[string]any {
		return map[string]any{"id": "b", "title": "t", "author": "a", "pages": pages, "bestSeller": true}
	}

	tests := []struct {
		name  string
		value any
		kind  bserrors.Kind
		path  string
	}{
		{"not a map", "lib", bserrors.KindTypeMismatch, ""},
		{"missing required", map[string]any{"id": "l", "books": []any{}}, bserrors.KindFieldMissing, "name"},
		{"nil required", map[string]any{"id": "l", "name": nil, "books": []any{}}, bserrors.KindFieldMissing, "name"},
		{"wrong array", map[string]any{"id": "l", "name": "n", "books": "none"}, bserrors.KindTypeMismatch, "books"},
		{"negative number", map[string]any{"id": "l", "name": "n", "books": []any{book(1), book(-3)}}, bserrors.KindTypeMismatch, "books[1].pages"},
		{"fractional number", map[string]any{"id": "l", "name": "n", "books": []any{book(2.5)}}, bserrors.KindTypeMismatch, "books[0].pages"},
		{"wrong alias target", map[string]any{"id": 5, "name": "n", "books": []any{}}, bserrors.KindTypeMismatch, "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToPositional(table, lib, tt.value)
			if !isKind(err, bserrors.PhaseEncode, tt.kind) {
				t.Fatalf("err = %v, want encode/%s", err, tt.kind)
			}
			if got := errPath(err); got != tt.path {
				t.Errorf("path = %q, want %q", got, tt.path)
			}
		})
	}
}

func TestFromPositionalErrors(t *testing.T) {
	table := libraryTable(t)
	lib := &schema.Ref{Name: "Library"}

	tests := []struct {
		name  string
		value any
		kind  bserrors.Kind
	}{
		{"not a slice", "x", bserrors.KindTypeMismatch},
		{"wrong arity", []any{"l", "n"}, bserrors.KindInvalidData},
		{"nil required", []any{"l", nil, []any{}}, bserrors.KindFieldMissing},
		{"wrong primitive", []any{"l", uint64(1), []any{}}, bserrors.KindTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromPositional(table, lib, tt.value)
			if !isKind(err, bserrors.PhaseDecode, tt.kind) {
				t.Errorf("err = %v, want decode/%s", err, tt.kind)
			}
		})
	}
}

func TestUnknownAndRecursiveTypes(t *testing.T) {
	table := schema.Table{
		"A": &schema.Ref{Name: "B"},
		"B": &schema.Ref{Name: "A"},
	}
	if _, err := ToPositional(table, &schema.Ref{Name: "A"}, "x"); !isKind(err, bserrors.PhaseCompile, bserrors.KindRecursive) {
		t.Errorf("alias loop: err = %v", err)
	}
	if _, err := ToPositional(table, &schema.Ref{Name: "Mystery"}, "x"); !isKind(err, bserrors.PhaseEncode, bserrors.KindNotFound) {
		t.Errorf("unknown: err = %v", err)
	}
}

func TestSelfReferencingValue(t *testing.T) {
	table := schema.Table{"Node": &schema.Record{Fields: []schema.Field{
		{Name: "next", Type: &schema.Ref{Name: "Node"}, Optional: true},
	}}}
	loop := map[string]any{}
	loop["next"] = loop

	_, err := ToPositional(table, &schema.Ref{Name: "Node"}, loop)
	if !isKind(err, bserrors.PhaseEncode, bserrors.KindOverflow) {
		t.Errorf("err = %v, want encode overflow", err)
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		in   any
		want uint64
		ok   bool
	}{
		{uint64(math.MaxUint64), math.MaxUint64, true},
		{int(7), 7, true},
		{int8(-1), 0, false},
		{float64(3), 3, true},
		{float32(2), 2, true},
		{3.25, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{json.Number("18446744073709551615"), math.MaxUint64, true},
		{json.Number("4e3"), 4000, true},
		{json.Number("-1"), 0, false},
		{"7", 0, false},
	}
	for _, tt := range tests {
		got, ok := CoerceNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CoerceNumber(%#v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStringKeyedMaps(t *testing.T) {
	type key string
	table := schema.Table{"R": &schema.Record{Fields: []schema.Field{
		{Name: "a", Type: &schema.Ref{Name: "number"}},
	}}}
	got, err := ToPositional(table, &schema.Ref{Name: "R"}, map[key]int{"a": 4})
	if err != nil {
		t.Fatalf("ToPositional failed: %v", err)
	}
	if !reflect.DeepEqual(got, []any{uint64(4)}) {
		t.Errorf("got %#v", got)
	}
}
