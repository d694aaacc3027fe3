package fixer

import (
	"bytes"
	"strings"
)

// InsertionPoint returns the line index just after the file's leading
// block of imports, comments and module docstring. Blank lines inside the
// block are skipped; the first other line ends it.
func InsertionPoint(lines []string) int {
	last := -1
	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case trimmed == "":
			i++
			continue
		case strings.HasPrefix(trimmed, "#"):
			last = i
		case isDocstringStart(trimmed):
			last = docstringEnd(lines, i)
		case isImportLine(trimmed):
			last = statementEnd(lines, i)
		default:
			return last + 1
		}
		i = last + 1
	}
	return last + 1
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// InsertImports inserts one line per statement at the insertion point and
// leaves every other line untouched. CRLF files keep CRLF endings and a
// leading byte order mark stays at byte 0.
func InsertImports(content []byte, statements []string) []byte {
	if len(statements) == 0 {
		return append([]byte(nil), content...)
	}

	body, hasBOM := bytes.CutPrefix(content, utf8BOM)
	crlf := bytes.Contains(body, []byte("\r\n"))
	lines := strings.Split(string(body), "\n")
	at := InsertionPoint(lines)

	out := make([]string, 0, len(lines)+len(statements))
	out = append(out, lines[:at]...)
	for _, stmt := range statements {
		if crlf {
			stmt += "\r"
		}
		out = append(out, stmt)
	}
	out = append(out, lines[at:]...)
	joined := strings.Join(out, "\n")
	if hasBOM {
		return append(append([]byte(nil), utf8BOM...), joined...)
	}
	return []byte(joined)
}

func isImportLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ")
}

func isDocstringStart(trimmed string) bool {
	_, _, ok := docstringQuote(trimmed)
	return ok
}

// docstringQuote reports the opening quote of a string literal statement,
// after an optional prefix of up to two letters (r, u, b, f in any case).
// start is the byte offset of the quote.
func docstringQuote(trimmed string) (quote string, start int, ok bool) {
	for start < len(trimmed) && start < 2 && strings.ContainsRune("rRuUbBfF", rune(trimmed[start])) {
		start++
	}
	s := trimmed[start:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) {
			if len(q) == 1 && !singleLineLiteral(s) {
				return "", 0, false
			}
			return q, start, true
		}
	}
	return "", 0, false
}

// singleLineLiteral reports whether s is one quoted string, optionally
// followed by a comment, and nothing else.
func singleLineLiteral(s string) bool {
	q := s[0]
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			rest := strings.TrimSpace(s[i+1:])
			return rest == "" || strings.HasPrefix(rest, "#")
		}
	}
	return false
}

func docstringEnd(lines []string, start int) int {
	trimmed := strings.TrimSpace(lines[start])
	quote, at, _ := docstringQuote(trimmed)
	if len(quote) == 1 {
		return start
	}
	rest := trimmed[at+len(quote):]
	if strings.Contains(rest, quote) {
		return start
	}
	for i := start + 1; i < len(lines); i++ {
		if strings.Contains(lines[i], quote) {
			return i
		}
	}
	return len(lines) - 1
}

// statementEnd follows parenthesised and backslash-continued imports.
func statementEnd(lines []string, start int) int {
	depth := 0
	for i := start; i < len(lines); i++ {
		line := stripComment(lines[i])
		depth += strings.Count(line, "(") - strings.Count(line, ")")
		continued := strings.HasSuffix(strings.TrimRight(line, " \t\r"), "\\")
		if depth <= 0 && !continued {
			return i
		}
	}
	return len(lines) - 1
}

func stripComment(line string) string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		return line[:idx]
	}
	return line
}
