package lexer

import (
	"strings"

	"github.com/dshills/lexfold/internal/syntax/token"
)

// Basic tokenizes Visual Basic style source. The language has no
// multi-line lexical constructs, so the outgoing state is always
// token.StateNone.
type Basic struct {
	keywords *KeywordTable
}

// NewBasic creates a BASIC tokenizer. Keyword lookups should be case
// insensitive.
func NewBasic(keywords *KeywordTable) *Basic {
	if keywords == nil {
		keywords = NewKeywordTable(true)
	}
	return &Basic{keywords: keywords}
}

const (
	basicOperators  = "+-*/\\^=<>&"
	basicSeparators = "(){}[],.:"
	basicSuffixes   = "DFRLSIdfrlsi%&@!#"
)

// Tokenize implements Tokenizer.
func (b *Basic) Tokenize(line string, offset int, _ token.State) ([]token.Token, token.State) {
	e := newEmitter(line, offset)
	pos := 0

	for pos < len(line) {
		ch := line[pos]
		switch {
		case isSpace(ch):
			end := skipSpace(line, pos)
			e.emit(token.Whitespace, pos, end)
			pos = end

		case ch == '\'':
			e.emit(token.CommentEOL, pos, len(line))
			pos = len(line)

		case ch == '"':
			pos = b.scanString(e, line, pos)

		case ch == '&' && pos+1 < len(line) && (line[pos+1] == 'H' || line[pos+1] == 'h'):
			j := pos + 2
			for j < len(line) && isHexDigit(line[j]) {
				j++
			}
			typ := token.LiteralHex
			if j == pos+2 {
				typ = token.ErrorNumberFormat
			}
			for j < len(line) && isIdentChar(line[j]) {
				j++
				typ = token.ErrorNumberFormat
			}
			e.emit(typ, pos, j)
			pos = j

		case isDigit(ch):
			pos = b.scanNumber(e, line, pos)

		case isIdentStart(ch):
			end := pos + 1
			for end < len(line) && isIdentChar(line[end]) {
				end++
			}
			word := line[pos:end]
			if strings.EqualFold(word, "rem") {
				e.emit(token.CommentEOL, pos, len(line))
				pos = len(line)
				continue
			}
			e.emit(b.keywords.Resolve(word), pos, end)
			pos = end

		case strings.IndexByte(basicSeparators, ch) >= 0:
			e.emit(token.Separator, pos, pos+1)
			pos++

		case strings.IndexByte(basicOperators, ch) >= 0:
			end := pos + 1
			for end < len(line) && strings.IndexByte(basicOperators, line[end]) >= 0 {
				end++
			}
			e.emit(token.Operator, pos, end)
			pos = end

		default:
			end := resync(line, pos)
			e.emit(token.ErrorIdentifier, pos, end)
			pos = end
		}
	}

	return e.tokens, token.StateNone
}

// scanString scans a string where "" is an escaped quote.
func (b *Basic) scanString(e *emitter, line string, pos int) int {
	j := pos + 1
	for j < len(line) {
		if line[j] == '"' {
			if j+1 < len(line) && line[j+1] == '"' {
				j += 2
				continue
			}
			// Optional c suffix for a Char literal.
			end := j + 1
			if end < len(line) && (line[end] == 'c' || line[end] == 'C') {
				end++
			}
			e.emit(token.LiteralStringDouble, pos, end)
			return end
		}
		j++
	}
	e.emit(token.ErrorStringDouble, pos, len(line))
	return len(line)
}

func (b *Basic) scanNumber(e *emitter, line string, pos int) int {
	j := pos
	typ := token.LiteralDecimalInt
	for j < len(line) && isDigit(line[j]) {
		j++
	}
	if j+1 < len(line) && line[j] == '.' && isDigit(line[j+1]) {
		typ = token.LiteralFloat
		j++
		for j < len(line) && isDigit(line[j]) {
			j++
		}
	}
	if j+1 < len(line) && (line[j] == 'e' || line[j] == 'E') && (isDigit(line[j+1]) || line[j+1] == '+' || line[j+1] == '-') {
		typ = token.LiteralFloat
		j += 2
		for j < len(line) && isDigit(line[j]) {
			j++
		}
	}
	if j < len(line) && strings.IndexByte(basicSuffixes, line[j]) >= 0 {
		j++
	}
	if j < len(line) && isIdentChar(line[j]) {
		for j < len(line) && isIdentChar(line[j]) {
			j++
		}
		typ = token.ErrorNumberFormat
	}
	e.emit(typ, pos, j)
	return j
}
