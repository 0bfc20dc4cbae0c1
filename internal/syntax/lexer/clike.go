package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/lexfold/internal/syntax/token"
)

// CLikeConfig configures the hand-written scanner for brace-delimited
// languages.
type CLikeConfig struct {
	// LineComments are the prefixes starting an end-of-line comment.
	LineComments []string

	// BlockCommentStart and BlockCommentEnd delimit multi-line comments.
	// Leave empty for languages without block comments.
	BlockCommentStart string
	BlockCommentEnd   string

	// DocCommentStart marks a documentation comment ("/**").
	DocCommentStart string

	// RawStringQuote starts a raw string that may span lines ('`'). Zero
	// disables raw strings.
	RawStringQuote byte

	// SingleQuoteStrings makes ' delimit arbitrary-length strings (typed
	// LiteralChar) instead of character literals.
	SingleQuoteStrings bool

	// Annotations enables @name tokens.
	Annotations bool

	// DollarIdentifiers allows '$' inside identifiers.
	DollarIdentifiers bool

	// Preprocessor turns "#name" into a single reserved-word token.
	Preprocessor bool

	// NumberSuffixes lists characters allowed after a numeric literal.
	NumberSuffixes string

	// Operators are the characters forming operator runs.
	Operators string

	// Separators are single-character separator tokens. Braces must be
	// separators for brace folding to work.
	Separators string

	// Keywords resolves identifier-shaped lexemes.
	Keywords *KeywordTable
}

// CLike is a hand-written state machine tokenizer for C-family syntax.
type CLike struct {
	cfg CLikeConfig
}

// NewCLike creates a C-like tokenizer.
func NewCLike(cfg CLikeConfig) *CLike {
	if cfg.Operators == "" {
		cfg.Operators = "+-*/%=&|^!<>?~:"
	}
	if cfg.Separators == "" {
		cfg.Separators = "(){}[];,."
	}
	if cfg.Keywords == nil {
		cfg.Keywords = NewKeywordTable(false)
	}
	return &CLike{cfg: cfg}
}

// Config returns the scanner configuration.
func (c *CLike) Config() CLikeConfig {
	return c.cfg
}

// Tokenize implements Tokenizer.
func (c *CLike) Tokenize(line string, offset int, in token.State) ([]token.Token, token.State) {
	e := newEmitter(line, offset)
	pos := 0

	// Resume a construct left open by the previous line.
	switch in {
	case token.StateBlockComment, token.StateDocComment:
		typ := token.CommentMultiline
		if in == token.StateDocComment {
			typ = token.CommentDoc
		}
		if c.cfg.BlockCommentEnd == "" {
			break
		}
		end := strings.Index(line, c.cfg.BlockCommentEnd)
		if end < 0 {
			e.emit(typ, 0, len(line))
			return e.tokens, in
		}
		pos = end + len(c.cfg.BlockCommentEnd)
		e.emit(typ, 0, pos)
	case token.StateRawString:
		if c.cfg.RawStringQuote == 0 {
			break
		}
		end := strings.IndexByte(line, c.cfg.RawStringQuote)
		if end < 0 {
			e.emit(token.LiteralStringDouble, 0, len(line))
			return e.tokens, in
		}
		pos = end + 1
		e.emit(token.LiteralStringDouble, 0, pos)
	}

	out := token.StateNone
	for pos < len(line) {
		ch := line[pos]
		switch {
		case isSpace(ch):
			end := skipSpace(line, pos)
			e.emit(token.Whitespace, pos, end)
			pos = end

		case c.lineCommentAt(line, pos):
			e.emit(token.CommentEOL, pos, len(line))
			pos = len(line)

		case c.blockCommentAt(line, pos):
			var state token.State
			pos, state = c.scanBlockComment(e, line, pos)
			if state != token.StateNone {
				out = state
			}

		case ch == '"':
			pos = scanQuoted(e, line, pos, '"', token.LiteralStringDouble, token.ErrorStringDouble)

		case ch == '\'' && c.cfg.SingleQuoteStrings:
			pos = scanQuoted(e, line, pos, '\'', token.LiteralChar, token.ErrorChar)

		case ch == '\'':
			pos = scanChar(e, line, pos)

		case c.cfg.RawStringQuote != 0 && ch == c.cfg.RawStringQuote:
			end := strings.IndexByte(line[pos+1:], ch)
			if end < 0 {
				e.emit(token.LiteralStringDouble, pos, len(line))
				pos = len(line)
				out = token.StateRawString
			} else {
				end += pos + 2
				e.emit(token.LiteralStringDouble, pos, end)
				pos = end
			}

		case isDigit(ch) || (ch == '.' && pos+1 < len(line) && isDigit(line[pos+1])):
			pos = c.scanNumber(e, line, pos)

		case ch == '@' && c.cfg.Annotations && pos+1 < len(line) && isIdentStart(line[pos+1]):
			end := c.scanIdent(line, pos+1)
			e.emit(token.Annotation, pos, end)
			pos = end

		case ch == '#' && c.cfg.Preprocessor && pos+1 < len(line) && isLetter(line[pos+1]):
			end := c.scanIdent(line, pos+1)
			e.emit(c.cfg.Keywords.Resolve(line[pos:end]), pos, end)
			pos = end

		case c.isIdentStart(ch):
			end := c.scanIdent(line, pos)
			e.emit(c.cfg.Keywords.Resolve(line[pos:end]), pos, end)
			pos = end

		case strings.IndexByte(c.cfg.Separators, ch) >= 0:
			e.emit(token.Separator, pos, pos+1)
			pos++

		case strings.IndexByte(c.cfg.Operators, ch) >= 0:
			end := pos + 1
			for end < len(line) && strings.IndexByte(c.cfg.Operators, line[end]) >= 0 &&
				!c.lineCommentAt(line, end) && !c.blockCommentAt(line, end) {
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

	return e.tokens, out
}

func (c *CLike) isIdentStart(ch byte) bool {
	return isIdentStart(ch) || (c.cfg.DollarIdentifiers && ch == '$')
}

func (c *CLike) isIdentChar(ch byte) bool {
	return isIdentChar(ch) || (c.cfg.DollarIdentifiers && ch == '$')
}

func (c *CLike) scanIdent(line string, pos int) int {
	for pos < len(line) && c.isIdentChar(line[pos]) {
		pos++
	}
	return pos
}

func (c *CLike) lineCommentAt(line string, pos int) bool {
	for _, prefix := range c.cfg.LineComments {
		if strings.HasPrefix(line[pos:], prefix) {
			return true
		}
	}
	return false
}

func (c *CLike) blockCommentAt(line string, pos int) bool {
	return c.cfg.BlockCommentStart != "" && strings.HasPrefix(line[pos:], c.cfg.BlockCommentStart)
}

// scanBlockComment emits a block comment starting at pos. If the comment
// does not end on this line it returns the continuation state.
func (c *CLike) scanBlockComment(e *emitter, line string, pos int) (int, token.State) {
	typ, state := token.CommentMultiline, token.StateBlockComment
	bodyStart := pos + len(c.cfg.BlockCommentStart)

	// "/**/" is an empty ordinary comment, not a doc comment.
	if c.cfg.DocCommentStart != "" && strings.HasPrefix(line[pos:], c.cfg.DocCommentStart) &&
		!strings.HasPrefix(line[pos+len(c.cfg.BlockCommentStart):], c.cfg.BlockCommentEnd) {
		typ, state = token.CommentDoc, token.StateDocComment
		bodyStart = pos + len(c.cfg.DocCommentStart)
	}

	end := strings.Index(line[bodyStart:], c.cfg.BlockCommentEnd)
	if end < 0 {
		e.emit(typ, pos, len(line))
		return len(line), state
	}
	end += bodyStart + len(c.cfg.BlockCommentEnd)
	e.emit(typ, pos, end)
	return end, token.StateNone
}

// scanNumber emits a numeric literal. Identifier characters glued to the
// literal turn the whole run into an error-number-format token.
func (c *CLike) scanNumber(e *emitter, line string, pos int) int {
	j := pos
	typ := token.LiteralDecimalInt

	if line[j] == '0' && j+1 < len(line) && (line[j+1] == 'x' || line[j+1] == 'X') {
		j += 2
		digits := j
		for j < len(line) && (isHexDigit(line[j]) || line[j] == '_') {
			j++
		}
		typ = token.LiteralHex
		if j == digits {
			typ = token.ErrorNumberFormat
		}
	} else {
		for j < len(line) && (isDigit(line[j]) || line[j] == '_') {
			j++
		}
		if j < len(line) && line[j] == '.' && !(j+1 < len(line) && line[j+1] == '.') {
			typ = token.LiteralFloat
			j++
			for j < len(line) && (isDigit(line[j]) || line[j] == '_') {
				j++
			}
		}
		if j < len(line) && (line[j] == 'e' || line[j] == 'E') {
			k := j + 1
			if k < len(line) && (line[k] == '+' || line[k] == '-') {
				k++
			}
			if k < len(line) && isDigit(line[k]) {
				typ = token.LiteralFloat
				j = k
				for j < len(line) && isDigit(line[j]) {
					j++
				}
			}
		}
	}

	for j < len(line) && strings.IndexByte(c.cfg.NumberSuffixes, line[j]) >= 0 {
		switch line[j] {
		case 'f', 'F', 'd', 'D':
			if typ == token.LiteralDecimalInt {
				typ = token.LiteralFloat
			}
		}
		j++
	}

	if j < len(line) && c.isIdentChar(line[j]) {
		for j < len(line) && c.isIdentChar(line[j]) {
			j++
		}
		typ = token.ErrorNumberFormat
	}

	e.emit(typ, pos, j)
	return j
}

// scanQuoted emits a quoted literal with backslash escapes. An unterminated
// literal becomes errTyp up to the end of the line.
func scanQuoted(e *emitter, line string, pos int, quote byte, typ, errTyp token.Type) int {
	j := pos + 1
	for j < len(line) {
		switch line[j] {
		case '\\':
			j += 2
			continue
		case quote:
			e.emit(typ, pos, j+1)
			return j + 1
		}
		j++
	}
	e.emit(errTyp, pos, len(line))
	return len(line)
}

// scanChar emits a character literal. Anything but a single rune or a
// single escape sequence between the quotes is an error-char token.
func scanChar(e *emitter, line string, pos int) int {
	j := pos + 1
	for j < len(line) {
		if line[j] == '\\' {
			j += 2
			continue
		}
		if line[j] == '\'' {
			break
		}
		j++
	}
	if j >= len(line) {
		e.emit(token.ErrorChar, pos, len(line))
		return len(line)
	}

	body := line[pos+1 : j]
	typ := token.ErrorChar
	switch {
	case strings.HasPrefix(body, "\\") && len(body) >= 2:
		typ = token.LiteralChar
	case utf8.RuneCountInString(body) == 1:
		typ = token.LiteralChar
	}
	e.emit(typ, pos, j+1)
	return j + 1
}
