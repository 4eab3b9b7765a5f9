package witgen

import (
	"strings"
	"unicode"
)

var keywords = map[string]bool{
	"as": true, "bool": true, "borrow": true, "char": true, "constructor": true,
	"enum": true, "export": true, "f32": true, "f64": true, "flags": true,
	"from": true, "func": true, "future": true, "import": true, "include": true,
	"interface": true, "list": true, "option": true, "own": true, "package": true,
	"record": true, "resource": true, "result": true, "s8": true, "s16": true,
	"s32": true, "s64": true, "static": true, "stream": true, "string": true,
	"tuple": true, "type": true, "u8": true, "u16": true, "u32": true,
	"u64": true, "use": true, "variant": true, "with": true, "world": true,
}

// Kebab converts a schema identifier to a WIT kebab-case identifier:
// "bookTitle" -> "book-title", "HTTPServer" -> "http-server",
// "page_count" -> "page-count".
func Kebab(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if r == '_' || r == '-' {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			continue
		}
		if unicode.IsUpper(r) && i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.TrimSuffix(b.String(), "-")
}

// escape prefixes WIT keywords with %.
func escape(ident string) string {
	if keywords[ident] {
		return "%" + ident
	}
	return ident
}
