// Package lexer provides per-line resumable tokenizers.
//
// A Tokenizer converts one line of text plus the continuation state left by
// the previous line into a token sequence and the continuation state for the
// next line. Tokenizers never look at other lines and keep no hidden state,
// so a document can be re-tokenized incrementally after an edit.
//
// Two scanning styles are provided:
//
//   - hand-written state machines (CLike, Markup, Basic) configured with
//     per-language keyword tables and character sets
//   - a table-driven resumable DFA (DFA) for richer grammars such as Python
//
// Malformed input never fails: unterminated literals, bad numeric suffixes
// and unknown characters are emitted as error token types.
package lexer

import (
	"strings"

	"github.com/dshills/lexfold/internal/syntax/token"
)

// Tokenizer tokenizes a single line.
type Tokenizer interface {
	// Tokenize scans line, whose first byte sits at the absolute document
	// offset, starting in the continuation state in. It returns tokens
	// covering the whole line and the continuation state for the next line.
	Tokenize(line string, offset int, in token.State) ([]token.Token, token.State)
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(line string, offset int, in token.State) ([]token.Token, token.State)

// Tokenize calls f.
func (f TokenizerFunc) Tokenize(line string, offset int, in token.State) ([]token.Token, token.State) {
	return f(line, offset, in)
}

// KeywordTable resolves identifier-shaped lexemes to their final type.
type KeywordTable struct {
	words           map[string]token.Type
	caseInsensitive bool
}

// NewKeywordTable creates an empty keyword table.
func NewKeywordTable(caseInsensitive bool) *KeywordTable {
	return &KeywordTable{
		words:           make(map[string]token.Type),
		caseInsensitive: caseInsensitive,
	}
}

// Add registers words with the given type.
func (k *KeywordTable) Add(typ token.Type, words ...string) *KeywordTable {
	for _, w := range words {
		if k.caseInsensitive {
			w = strings.ToLower(w)
		}
		k.words[w] = typ
	}
	return k
}

// Lookup returns the type registered for word.
func (k *KeywordTable) Lookup(word string) (token.Type, bool) {
	if k == nil {
		return token.Null, false
	}
	if k.caseInsensitive {
		word = strings.ToLower(word)
	}
	typ, ok := k.words[word]
	return typ, ok
}

// Resolve returns the registered type for word, or token.Identifier.
func (k *KeywordTable) Resolve(word string) token.Type {
	if typ, ok := k.Lookup(word); ok {
		return typ
	}
	return token.Identifier
}

// Len returns the number of registered words.
func (k *KeywordTable) Len() int {
	if k == nil {
		return 0
	}
	return len(k.words)
}

// CaseInsensitive reports whether lookups ignore case.
func (k *KeywordTable) CaseInsensitive() bool {
	return k != nil && k.caseInsensitive
}

// emitter accumulates tokens for one line.
type emitter struct {
	line   string
	offset int
	tokens []token.Token
}

func newEmitter(line string, offset int) *emitter {
	return &emitter{
		line:   line,
		offset: offset,
		tokens: make([]token.Token, 0, len(line)/3+1),
	}
}

// emit appends a token covering line[start:end]. Empty spans are dropped.
func (e *emitter) emit(typ token.Type, start, end int) {
	if end <= start {
		return
	}
	e.tokens = append(e.tokens, token.Token{
		Type:  typ,
		Start: e.offset + start,
		End:   e.offset + end,
		Text:  e.line[start:end],
	})
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\f' || c == '\r' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isIdentStart accepts ASCII letters, underscore and any non-ASCII byte so
// that multi-byte runes are never split.
func isIdentStart(c byte) bool {
	return isLetter(c) || c == '_' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// skipSpace returns the index of the first non-space byte at or after pos.
func skipSpace(line string, pos int) int {
	for pos < len(line) && isSpace(line[pos]) {
		pos++
	}
	return pos
}

// resync returns the end of an error run starting at pos: it stops at
// whitespace, a quote or a semicolon, and always consumes at least one byte.
func resync(line string, pos int) int {
	j := pos + 1
	for j < len(line) && line[j] >= 0x80 && line[j] < 0xC0 {
		j++ // finish the current rune
	}
	for j < len(line) {
		c := line[j]
		if isSpace(c) || c == '"' || c == '\'' || c == ';' {
			break
		}
		j++
	}
	return j
}
