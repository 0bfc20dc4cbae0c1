// Package token defines the lexical token model shared by tokenizers and
// fold parsers.
package token

// Type represents the lexical category of a token.
type Type uint8

// Token types. The set is closed; tokenizers never invent new values.
const (
	// Null marks the absence of a token. It is never emitted for text.
	Null Type = iota

	Whitespace
	Identifier
	ReservedWord
	DataType
	FunctionName
	Variable

	// Literals
	LiteralDecimalInt
	LiteralFloat
	LiteralHex
	LiteralStringDouble
	LiteralChar
	LiteralBoolean

	// Comments
	CommentEOL
	CommentMultiline
	CommentDoc

	Operator
	Separator

	// Markup
	MarkupTagDelimiter
	MarkupTagName
	MarkupTagAttribute

	Annotation

	// Errors
	ErrorIdentifier
	ErrorNumberFormat
	ErrorStringDouble
	ErrorChar

	typeCount
)

// String returns the name of the token type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ParseType returns the type whose String is name.
func ParseType(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name {
			return Type(t), true
		}
	}
	return Null, false
}

// IsComment returns true for end-of-line, multi-line and doc comments.
func (t Type) IsComment() bool {
	return t >= CommentEOL && t <= CommentDoc
}

// IsLiteral returns true for numeric, string, char and boolean literals.
func (t Type) IsLiteral() bool {
	return t >= LiteralDecimalInt && t <= LiteralBoolean
}

// IsNumber returns true for numeric literals.
func (t Type) IsNumber() bool {
	return t >= LiteralDecimalInt && t <= LiteralHex
}

// IsMarkup returns true for markup tag tokens.
func (t Type) IsMarkup() bool {
	return t >= MarkupTagDelimiter && t <= MarkupTagAttribute
}

// IsError returns true for the error types.
func (t Type) IsError() bool {
	return t >= ErrorIdentifier && t <= ErrorChar
}

// IsCode returns true if the token carries code, i.e. it is neither
// whitespace nor a comment.
func (t Type) IsCode() bool {
	return t != Null && t != Whitespace && !t.IsComment()
}

var typeNames = [...]string{
	Null:                "null",
	Whitespace:          "whitespace",
	Identifier:          "identifier",
	ReservedWord:        "reserved-word",
	DataType:            "data-type",
	FunctionName:        "function-name",
	Variable:            "variable",
	LiteralDecimalInt:   "literal-number-decimal-int",
	LiteralFloat:        "literal-number-float",
	LiteralHex:          "literal-number-hex",
	LiteralStringDouble: "literal-string-double-quote",
	LiteralChar:         "literal-char",
	LiteralBoolean:      "literal-boolean",
	CommentEOL:          "comment-eol",
	CommentMultiline:    "comment-multiline",
	CommentDoc:          "comment-documentation",
	Operator:            "operator",
	Separator:           "separator",
	MarkupTagDelimiter:  "markup-tag-delimiter",
	MarkupTagName:       "markup-tag-name",
	MarkupTagAttribute:  "markup-tag-attribute",
	Annotation:          "annotation",
	ErrorIdentifier:     "error-identifier",
	ErrorNumberFormat:   "error-number-format",
	ErrorStringDouble:   "error-string-double",
	ErrorChar:           "error-char",
}

// Token is a single lexeme of a line.
type Token struct {
	// Type is the lexical category.
	Type Type

	// Start is the absolute document offset of the first byte (inclusive).
	Start int

	// End is the absolute document offset one past the last byte.
	End int

	// Text is a view of the line text covered by the token.
	Text string
}

// Len returns the length of the token in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}

// Contains returns true if the offset is within the token.
func (t Token) Contains(offset int) bool {
	return offset >= t.Start && offset < t.End
}

// Is reports whether the token has the given type and text.
func (t Token) Is(typ Type, text string) bool {
	return t.Type == typ && t.Text == text
}

// IsSingleChar reports whether the token is exactly the given character
// with the given type.
func (t Token) IsSingleChar(typ Type, c byte) bool {
	return t.Type == typ && len(t.Text) == 1 && t.Text[0] == c
}

// Shift returns a copy of the token moved by delta bytes.
func (t Token) Shift(delta int) Token {
	t.Start += delta
	t.End += delta
	return t
}

// Line holds the tokens of one line together with the continuation states
// it was scanned with.
type Line struct {
	// Tokens are the tokens on this line, ordered by Start.
	Tokens []Token

	// In is the continuation state the line was scanned with.
	In State

	// Out is the continuation state at the end of the line.
	Out State
}

// FirstCode returns the index of the first code token, or -1.
func (l Line) FirstCode() int {
	for i, tok := range l.Tokens {
		if tok.Type.IsCode() {
			return i
		}
	}
	return -1
}

// LastCode returns the index of the last code token, or -1.
func (l Line) LastCode() int {
	for i := len(l.Tokens) - 1; i >= 0; i-- {
		if l.Tokens[i].Type.IsCode() {
			return i
		}
	}
	return -1
}

// IsBlank returns true if the line has no code tokens.
func (l Line) IsBlank() bool {
	return l.FirstCode() < 0
}
