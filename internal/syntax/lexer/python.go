package lexer

import (
	"unicode/utf8"

	"github.com/dshills/lexfold/internal/syntax/token"
)

var (
	digitRunes      = []RuneRange{{'0', '9'}}
	hexRunes        = []RuneRange{{'0', '9'}, {'a', 'f'}, {'A', 'F'}, {'_', '_'}}
	identStartRunes = []RuneRange{{'A', 'Z'}, {'a', 'z'}, {'_', '_'}, {0x80, utf8.MaxRune}}
	identCharRunes  = append([]RuneRange{{'0', '9'}}, identStartRunes...)
)

// PythonKeywords returns the keyword table used by Python.
func PythonKeywords() *KeywordTable {
	return NewKeywordTable(false).
		Add(token.ReservedWord,
			"and", "as", "assert", "async", "await", "break", "class", "continue",
			"def", "del", "elif", "else", "except", "finally", "for", "from",
			"global", "if", "import", "in", "is", "lambda", "nonlocal", "not",
			"or", "pass", "raise", "return", "try", "while", "with", "yield",
			"match", "case", "None").
		Add(token.LiteralBoolean, "True", "False").
		Add(token.DataType,
			"int", "float", "str", "bool", "list", "dict", "set", "tuple",
			"bytes", "bytearray", "complex", "frozenset", "object", "type").
		Add(token.FunctionName,
			"print", "len", "range", "enumerate", "zip", "map", "filter",
			"open", "input", "isinstance", "issubclass", "hasattr", "getattr",
			"setattr", "delattr", "callable", "iter", "next", "sorted", "reversed",
			"sum", "min", "max", "abs", "round", "pow", "divmod", "all", "any",
			"format", "repr", "id", "hash", "dir", "vars", "super", "property",
			"staticmethod", "classmethod")
}

// Python returns a DFA tokenizer for Python. Triple-quoted strings carry
// across lines; single-quoted strings are typed LiteralChar.
func Python() *DFA {
	b := NewDFABuilder()
	s := b.Start()

	ws := b.State(token.Whitespace)
	b.OnChars(s, " \t\f\r\v", ws).OnChars(ws, " \t\f\r\v", ws)

	comment := b.State(token.CommentEOL)
	b.OnChars(s, "#", comment).On(comment, AnyRune, comment)

	dq := pythonString(b, '"', token.LiteralStringDouble, token.ErrorStringDouble, token.StateTripleDouble)
	sq := pythonString(b, '\'', token.LiteralChar, token.ErrorChar, token.StateTripleSingle)
	b.OnChars(s, `"`, dq).OnChars(s, "'", sq)

	// Identifiers, including one- and two-letter string prefixes (r"", rb'').
	ident := b.State(token.Identifier)
	prefix1 := b.State(token.Identifier)
	prefix2 := b.State(token.Identifier)
	b.OnChars(s, "rRbBuUfF", prefix1)
	b.OnChars(prefix1, `"`, dq).OnChars(prefix1, "'", sq).OnChars(prefix1, "rRbBfF", prefix2).On(prefix1, identCharRunes, ident)
	b.OnChars(prefix2, `"`, dq).OnChars(prefix2, "'", sq).On(prefix2, identCharRunes, ident)
	b.On(s, identStartRunes, ident).On(ident, identCharRunes, ident)

	pythonNumbers(b)

	op := b.State(token.Operator)
	b.OnChars(s, `+-*/%<>=!&|^~:\`, op).OnChars(op, "+-*/%<>=!&|^~:", op)

	// '@' is matrix multiplication or a decorator.
	at := b.State(token.Operator)
	decorator := b.State(token.Annotation)
	b.OnChars(s, "@", at).On(at, identStartRunes, decorator).OnChars(at, "=", op)
	b.On(decorator, identCharRunes, decorator).OnChars(decorator, ".", decorator)

	sep := b.State(token.Separator)
	b.OnChars(s, "()[]{},;", sep)

	return b.Build(PythonKeywords())
}

// pythonString adds the automaton for strings quoted with q and returns the
// state entered after the opening quote.
func pythonString(b *DFABuilder, q rune, typ, errType token.Type, carry token.State) int {
	quote := string(q)

	open := b.State(token.Null)
	body := b.State(token.Null)
	esc := b.State(token.Null)
	closed := b.State(typ)
	empty := b.State(typ)

	b.OnChars(open, quote, empty).OnChars(open, `\`, esc).On(open, Except(quote+`\`), body)
	b.OnChars(body, quote, closed).OnChars(body, `\`, esc).On(body, Except(quote+`\`), body)
	b.On(esc, AnyRune, body)
	b.Error(errType, open, body, esc)

	// Triple-quoted strings: two quotes followed by a third.
	tBody := b.State(token.Null)
	tQuote1 := b.State(token.Null)
	tQuote2 := b.State(token.Null)
	tEsc := b.State(token.Null)
	tClosed := b.State(typ)

	b.OnChars(empty, quote, tBody)
	b.OnChars(tBody, quote, tQuote1).OnChars(tBody, `\`, tEsc).On(tBody, AnyRune, tBody)
	b.OnChars(tQuote1, quote, tQuote2).OnChars(tQuote1, `\`, tEsc).On(tQuote1, AnyRune, tBody)
	b.OnChars(tQuote2, quote, tClosed).OnChars(tQuote2, `\`, tEsc).On(tQuote2, AnyRune, tBody)
	b.On(tEsc, AnyRune, tBody)
	b.Carry(carry, typ, tBody, tQuote1, tQuote2, tEsc)
	b.Resume(carry, tBody)

	return open
}

// pythonNumbers adds integer, hex, float, exponent, imaginary and long
// literals. Identifier characters glued to a number make it an
// error-number-format token.
func pythonNumbers(b *DFABuilder) {
	s := b.Start()

	zero := b.State(token.LiteralDecimalInt)
	dec := b.State(token.LiteralDecimalInt)
	hexPrefix := b.State(token.ErrorNumberFormat)
	hex := b.State(token.LiteralHex)
	octPrefix := b.State(token.ErrorNumberFormat)
	oct := b.State(token.LiteralDecimalInt)
	binPrefix := b.State(token.ErrorNumberFormat)
	bin := b.State(token.LiteralDecimalInt)
	frac := b.State(token.LiteralFloat)
	expMark := b.State(token.ErrorNumberFormat)
	expSign := b.State(token.ErrorNumberFormat)
	exp := b.State(token.LiteralFloat)
	imag := b.State(token.LiteralFloat)
	long := b.State(token.LiteralDecimalInt)
	bad := b.State(token.ErrorNumberFormat)
	dot := b.State(token.Separator)

	b.OnChars(s, "0", zero).OnChars(s, "123456789", dec).OnChars(s, ".", dot)
	b.OnChars(zero, "xX", hexPrefix)
	for _, st := range []int{zero, dec} {
		b.OnChars(st, "0123456789_", dec).OnChars(st, ".", frac)
	}
	b.On(hexPrefix, hexRunes, hex).On(hex, hexRunes, hex)
	b.OnChars(zero, "oO", octPrefix).OnChars(octPrefix, "01234567_", oct).OnChars(oct, "01234567_", oct)
	b.OnChars(zero, "bB", binPrefix).OnChars(binPrefix, "01_", bin).OnChars(bin, "01_", bin)
	b.On(dot, digitRunes, frac).OnChars(frac, "0123456789_", frac)

	for _, st := range []int{zero, dec, frac} {
		b.OnChars(st, "eE", expMark)
	}
	b.OnChars(expMark, "+-", expSign)
	b.On(expMark, digitRunes, exp).On(expSign, digitRunes, exp).On(exp, digitRunes, exp)

	for _, st := range []int{zero, dec, frac, exp} {
		b.OnChars(st, "jJ", imag)
	}
	b.OnChars(zero, "lL", long).OnChars(dec, "lL", long)

	for _, st := range []int{zero, dec, hexPrefix, hex, octPrefix, oct, binPrefix, bin, frac, expMark, expSign, exp, imag, long, bad} {
		b.On(st, identCharRunes, bad)
	}
}
