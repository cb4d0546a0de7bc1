package condition

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokRegex
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokAnd
	tokOr
	tokBang
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// keyword reports whether the token is the bare word kw, ignoring case.
func (t token) keyword(kw string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

func lex(src string) ([]token, error) {
	var tokens []token
	pos := 0

	for pos < len(src) {
		c := src[pos]
		r, size := utf8.DecodeRuneInString(src[pos:])
		switch {
		case unicode.IsSpace(r):
			pos += size
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", offset: pos})
			pos++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", offset: pos})
			pos++
		case c == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", offset: pos})
			pos++
		case strings.HasPrefix(src[pos:], "&&"):
			tokens = append(tokens, token{kind: tokAnd, text: "&&", offset: pos})
			pos += 2
		case strings.HasPrefix(src[pos:], "||"):
			tokens = append(tokens, token{kind: tokOr, text: "||", offset: pos})
			pos += 2
		case strings.HasPrefix(src[pos:], "=="), strings.HasPrefix(src[pos:], "!="),
			strings.HasPrefix(src[pos:], "=~"), strings.HasPrefix(src[pos:], "!~"):
			tokens = append(tokens, token{kind: tokOp, text: src[pos : pos+2], offset: pos})
			pos += 2
		case c == '=':
			tokens = append(tokens, token{kind: tokOp, text: "=", offset: pos})
			pos++
		case c == '!':
			tokens = append(tokens, token{kind: tokBang, text: "!", offset: pos})
			pos++
		case c == '"' || c == '\'':
			text, end, err := scanDelimited(src, pos, c)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: text, offset: pos})
			pos = end
		case c == '/':
			text, end, err := scanDelimited(src, pos, '/')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokRegex, text: text, offset: pos})
			pos = end
		default:
			start := pos
			for pos < len(src) {
				r, size := utf8.DecodeRuneInString(src[pos:])
				if isDelimiter(r) {
					break
				}
				pos += size
			}
			if pos == start {
				return nil, newSyntaxError(start, "unexpected "+string(r))
			}
			tokens = append(tokens, token{kind: tokWord, text: src[start:pos], offset: start})
		}
	}

	tokens = append(tokens, token{kind: tokEOF, offset: len(src)})

	return tokens, nil
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("(),=!\"'", r)
}

// scanDelimited reads a value enclosed by delim starting at src[start]. A backslash escapes delim.
// Regular expressions keep their other escapes untouched.
func scanDelimited(src string, start int, delim byte) (string, int, error) {
	var sb strings.Builder
	pos := start + 1

	for pos < len(src) {
		c := src[pos]
		switch {
		case c == '\\' && pos+1 < len(src) && src[pos+1] == delim:
			sb.WriteByte(delim)
			pos += 2
		case c == delim:
			return sb.String(), pos + 1, nil
		default:
			sb.WriteByte(c)
			pos++
		}
	}

	return "", 0, newSyntaxError(start, "unterminated "+string(delim)+" value")
}
