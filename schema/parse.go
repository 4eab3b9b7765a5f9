package schema

import (
	"github.com/firecraftgaming/binary-structured-objects/errors"
	"github.com/firecraftgaming/binary-structured-objects/schema/internal/token"
)

const (
	msgUnexpectedToken = "found unexpected token"
	msgUnexpectedEOL   = "unexpected end of line"
)

// SchemaFunc is called for every `schema <Name>` statement, at the point of
// the statement, with the types declared so far.
type SchemaFunc func(types Table, name string) error

// Document is the result of parsing schema text.
type Document struct {
	Types Table
	// Schemas lists the names of `schema` statements in source order.
	Schemas []string
}

// Parse parses BSOS schema text. onSchema may be nil.
// Any error aborts the whole parse; no partial document is returned.
func Parse(source string, onSchema SchemaFunc) (*Document, error) {
	p := newParser(source, onSchema)
	if err := p.parse(); err != nil {
		return nil, err
	}
	return &Document{Types: p.types, Schemas: p.schemas}, nil
}

type parser struct {
	onSchema SchemaFunc
	types    Table
	last     *token.Token
	seen     map[string]bool
	tokens   []token.Token
	lines    []string
	schemas  []string
	pos      int
}

func newParser(source string, onSchema SchemaFunc) *parser {
	tokens, lines := token.Scan(source)
	return &parser{
		onSchema: onSchema,
		types:    make(Table),
		seen:     make(map[string]bool),
		tokens:   tokens,
		lines:    lines,
	}
}

func (p *parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	p.last = t
	return t
}

// onLine returns the next token if it is on line, and fails with an
// end-of-line error otherwise.
func (p *parser) onLine(line int) (*token.Token, error) {
	t := p.peek()
	if t == nil || t.Line != line {
		return nil, errors.Syntax(msgUnexpectedEOL, line, token.LastColumn(p.lines[line]))
	}
	return p.next(), nil
}

func unexpected(t *token.Token) error {
	return errors.Syntax(msgUnexpectedToken, t.Line, t.Column)
}

func (p *parser) skipLine(line int) {
	for t := p.peek(); t != nil && t.Line == line; t = p.peek() {
		p.next()
	}
}

// comment consumes a `//` comment whose first slash is t.
func (p *parser) comment(t *token.Token) error {
	n := p.peek()
	if !n.Is("/") || n.Line != t.Line || n.Column != t.Column+1 {
		return unexpected(t)
	}
	p.skipLine(t.Line)
	return nil
}

func (p *parser) parse() error {
	for t := p.next(); t != nil; t = p.next() {
		var err error
		switch {
		case t.Is("/"):
			err = p.comment(t)
		case t.IsWord() && t.Value == "type":
			err = p.parseType(t)
		case t.IsWord() && t.Value == "schema":
			err = p.parseSchema(t)
		default:
			err = unexpected(t)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseType(kw *token.Token) error {
	name, err := p.onLine(kw.Line)
	if err != nil {
		return err
	}
	if !name.IsWord() {
		return unexpected(name)
	}
	if _, exists := p.types[name.Value]; exists {
		return errors.Syntax("Type "+name.Value+" already exists", name.Line, name.Column)
	}

	n, err := p.onLine(kw.Line)
	if err != nil {
		return err
	}

	var typ Type
	if n.Is("{") {
		typ, err = p.parseRecordBody()
	} else {
		typ, err = p.parseTypeRef(n)
	}
	if err != nil {
		return err
	}

	p.types[name.Value] = typ
	return nil
}

func (p *parser) parseSchema(kw *token.Token) error {
	name, err := p.onLine(kw.Line)
	if err != nil {
		return err
	}
	if !name.IsWord() {
		return unexpected(name)
	}

	typ, ok := p.types[name.Value]
	if !ok {
		return errors.Syntax("Type "+name.Value+" does not exist", kw.Line, kw.Column)
	}
	if _, ok := typ.(*Record); !ok {
		return errors.Syntax("Type "+name.Value+" is not a schema", kw.Line, kw.Column)
	}

	if p.onSchema != nil {
		if err := p.onSchema(p.types, name.Value); err != nil {
			return err
		}
	}
	if !p.seen[name.Value] {
		p.seen[name.Value] = true
		p.schemas = append(p.schemas, name.Value)
	}
	return nil
}

// parseRecordBody parses fields up to and including the closing brace; the
// opening brace has already been consumed.
func (p *parser) parseRecordBody() (*Record, error) {
	rec := &Record{}
	names := make(map[string]bool)

	for {
		t := p.next()
		if t == nil {
			return nil, errors.Syntax(msgUnexpectedEOL, p.last.Line, p.last.Column)
		}

		switch {
		case t.Is("}"):
			return rec, nil
		case t.Is("/"):
			if err := p.comment(t); err != nil {
				return nil, err
			}
			continue
		}

		field, err := p.parseField(t)
		if err != nil {
			return nil, err
		}
		if names[field.Name] {
			return nil, errors.Syntax("Field "+field.Name+" already exists", t.Line, t.Column)
		}
		names[field.Name] = true
		rec.Fields = append(rec.Fields, field)
	}
}

// parseField accepts both `?name Type` and `name ?Type`.
func (p *parser) parseField(first *token.Token) (Field, error) {
	var f Field
	line := first.Line

	name := first
	if first.Is("?") {
		f.Optional = true
		var err error
		if name, err = p.onLine(line); err != nil {
			return f, err
		}
	}
	if !name.IsWord() {
		return f, unexpected(name)
	}
	f.Name = name.Value

	n, err := p.onLine(line)
	if err != nil {
		return f, err
	}
	if n.Is("?") {
		if f.Optional {
			return f, unexpected(n)
		}
		f.Optional = true
		if n, err = p.onLine(line); err != nil {
			return f, err
		}
	}

	if n.Is("{") {
		f.Type, err = p.parseRecordBody()
	} else {
		f.Type, err = p.parseTypeRef(n)
	}
	return f, err
}

// parseTypeRef parses `[]`* identifier `[]`* starting at first. All tokens
// must be on first's line.
func (p *parser) parseTypeRef(first *token.Token) (Type, error) {
	line := first.Line
	depth := 0

	t := first
	for t.Is("[") {
		if err := p.closeBracket(line); err != nil {
			return nil, err
		}
		depth++
		var err error
		if t, err = p.onLine(line); err != nil {
			return nil, err
		}
	}
	if !t.IsWord() {
		return nil, unexpected(t)
	}

	var typ Type = &Ref{Name: t.Value}
	for ; depth > 0; depth-- {
		typ = &Array{Elem: typ}
	}

	for n := p.peek(); n.Is("[") && n.Line == line; n = p.peek() {
		p.next()
		if err := p.closeBracket(line); err != nil {
			return nil, err
		}
		typ = &Array{Elem: typ}
	}
	return typ, nil
}

func (p *parser) closeBracket(line int) error {
	t, err := p.onLine(line)
	if err != nil {
		return err
	}
	if !t.Is("]") {
		return unexpected(t)
	}
	return nil
}
