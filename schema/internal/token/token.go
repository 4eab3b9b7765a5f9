package token

import (
	"strings"
	"unicode"
)

type Kind int

const (
	Word Kind = iota
	Symbol
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Symbol:
		return "symbol"
	}
	return "unknown"
}

// Token is a word run or a single symbol. Line and Column are 0-based;
// Column counts runes from the start of the line.
type Token struct {
	Value  string
	Kind   Kind
	Line   int
	Column int
}

// Is reports whether t is the given single-character symbol.
func (t *Token) Is(sym string) bool {
	return t != nil && t.Kind == Symbol && t.Value == sym
}

// IsWord reports whether t is a word token.
func (t *Token) IsWord() bool {
	return t != nil && t.Kind == Word
}

func isWordRune(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// Tokenize splits one line of schema text into tokens. Whitespace separates
// tokens and is dropped; every other non-word rune is its own symbol token.
func Tokenize(line string, lineNo int) []Token {
	var tokens []Token
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if unicode.IsSpace(r) {
			continue
		}

		if isWordRune(r) {
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Word, lineNo, start})
			i--
			continue
		}

		tokens = append(tokens, Token{string(r), Symbol, lineNo, i})
	}

	return tokens
}

// Scan tokenizes a whole source text line by line. The split lines are
// returned alongside the tokens so callers can report end-of-line positions.
func Scan(source string) ([]Token, []string) {
	lines := strings.Split(source, "\n")
	var tokens []Token
	for i, line := range lines {
		tokens = append(tokens, Tokenize(line, i)...)
	}
	return tokens, lines
}

// LastColumn returns the 0-based rune column of the last character of line.
func LastColumn(line string) int {
	n := len([]rune(line)) - 1
	if n < 0 {
		return 0
	}
	return n
}
