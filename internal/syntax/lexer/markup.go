package lexer

import (
	"strings"

	"github.com/dshills/lexfold/internal/syntax/token"
)

const (
	markupCommentStart = "<!--"
	markupCommentEnd   = "-->"
	markupCDATAStart   = "<![CDATA["
	markupCDATAEnd     = "]]>"
)

// Markup tokenizes XML and HTML.
//
// Tags are split into delimiter, name and attribute tokens so that the tag
// fold parser can match elements. Comments, CDATA sections, open tags and
// quoted attribute values may span lines.
type Markup struct{}

// NewMarkup creates a markup tokenizer.
func NewMarkup() *Markup {
	return &Markup{}
}

// Tokenize implements Tokenizer.
func (m *Markup) Tokenize(line string, offset int, in token.State) ([]token.Token, token.State) {
	e := newEmitter(line, offset)
	pos := 0
	inTag := false

	switch in {
	case token.StateMarkupComment:
		end, ok := findAfter(line, 0, markupCommentEnd)
		e.emit(token.CommentMultiline, 0, end)
		if !ok {
			return e.tokens, in
		}
		pos = end
	case token.StateMarkupCDATA:
		end, ok := findAfter(line, 0, markupCDATAEnd)
		e.emit(token.LiteralStringDouble, 0, end)
		if !ok {
			return e.tokens, in
		}
		pos = end
	case token.StateMarkupAttrDouble, token.StateMarkupAttrSingle:
		quote, typ := byte('"'), token.LiteralStringDouble
		if in == token.StateMarkupAttrSingle {
			quote, typ = '\'', token.LiteralChar
		}
		end := strings.IndexByte(line, quote)
		if end < 0 {
			e.emit(typ, 0, len(line))
			return e.tokens, in
		}
		e.emit(typ, 0, end+1)
		pos = end + 1
		inTag = true
	case token.StateMarkupTag:
		inTag = true
	}

	out := token.StateNone
	expectName := false

	for pos < len(line) {
		ch := line[pos]
		rest := line[pos:]

		if isSpace(ch) {
			end := skipSpace(line, pos)
			e.emit(token.Whitespace, pos, end)
			pos = end
			continue
		}

		if inTag {
			switch {
			case ch == '>':
				e.emit(token.MarkupTagDelimiter, pos, pos+1)
				pos++
				inTag = false
			case strings.HasPrefix(rest, "/>"), strings.HasPrefix(rest, "?>"):
				e.emit(token.MarkupTagDelimiter, pos, pos+2)
				pos += 2
				inTag = false
			case ch == '=':
				e.emit(token.Operator, pos, pos+1)
				pos++
			case ch == '"' || ch == '\'':
				typ, state := token.LiteralStringDouble, token.StateMarkupAttrDouble
				if ch == '\'' {
					typ, state = token.LiteralChar, token.StateMarkupAttrSingle
				}
				end := strings.IndexByte(line[pos+1:], ch)
				if end < 0 {
					e.emit(typ, pos, len(line))
					pos = len(line)
					out = state
				} else {
					end += pos + 2
					e.emit(typ, pos, end)
					pos = end
				}
			case isNameChar(ch):
				end := pos + 1
				for end < len(line) && isNameChar(line[end]) {
					end++
				}
				typ := token.MarkupTagAttribute
				if expectName {
					typ = token.MarkupTagName
					expectName = false
				}
				e.emit(typ, pos, end)
				pos = end
			default:
				e.emit(token.ErrorIdentifier, pos, pos+1)
				pos++
			}
			continue
		}

		switch {
		case strings.HasPrefix(rest, markupCommentStart):
			end, ok := findAfter(line, pos+len(markupCommentStart), markupCommentEnd)
			e.emit(token.CommentMultiline, pos, end)
			pos = end
			if !ok {
				out = token.StateMarkupComment
			}
		case strings.HasPrefix(rest, markupCDATAStart):
			end, ok := findAfter(line, pos+len(markupCDATAStart), markupCDATAEnd)
			e.emit(token.LiteralStringDouble, pos, end)
			pos = end
			if !ok {
				out = token.StateMarkupCDATA
			}
		case strings.HasPrefix(rest, "</"), strings.HasPrefix(rest, "<?"), strings.HasPrefix(rest, "<!"):
			e.emit(token.MarkupTagDelimiter, pos, pos+2)
			pos += 2
			inTag, expectName = true, true
		case ch == '<' && pos+1 < len(line) && isNameStart(line[pos+1]):
			e.emit(token.MarkupTagDelimiter, pos, pos+1)
			pos++
			inTag, expectName = true, true
		case ch == '<':
			e.emit(token.ErrorIdentifier, pos, pos+1)
			pos++
		case ch == '&':
			end := scanEntity(line, pos)
			if end > pos {
				e.emit(token.Variable, pos, end)
				pos = end
			} else {
				e.emit(token.Identifier, pos, pos+1)
				pos++
			}
		default:
			end := pos + 1
			for end < len(line) && line[end] != '<' && line[end] != '&' && !isSpace(line[end]) {
				end++
			}
			e.emit(token.Identifier, pos, end)
			pos = end
		}
	}

	if inTag && out == token.StateNone {
		out = token.StateMarkupTag
	}
	return e.tokens, out
}

// findAfter returns the offset just past the first occurrence of marker at
// or after from, or len(line) and false if there is none.
func findAfter(line string, from int, marker string) (int, bool) {
	idx := strings.Index(line[from:], marker)
	if idx < 0 {
		return len(line), false
	}
	return from + idx + len(marker), true
}

// scanEntity returns the end of an entity reference such as "&amp;" or
// "&#38;" starting at pos, or pos if there is none.
func scanEntity(line string, pos int) int {
	j := pos + 1
	if j < len(line) && line[j] == '#' {
		j++
	}
	start := j
	for j < len(line) && (isLetter(line[j]) || isDigit(line[j])) {
		j++
	}
	if j == start || j >= len(line) || line[j] != ';' {
		return pos
	}
	return j + 1
}

func isNameStart(c byte) bool {
	return isLetter(c) || c == '_' || c == ':' || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '-' || c == '.'
}
