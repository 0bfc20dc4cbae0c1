package fold

import (
	"sort"
	"strings"

	"github.com/dshills/lexfold/internal/syntax/lexer"
	"github.com/dshills/lexfold/internal/syntax/token"
)

// Source is the read-only view of a tokenized document that parsers
// consume. Lines are indexed from 0 and exclude their terminators.
type Source interface {
	// LineCount returns the number of lines.
	LineCount() int

	// Line returns the tokens and continuation states of line i.
	Line(i int) token.Line

	// LineText returns the text of line i.
	LineText(i int) string

	// LineStart returns the absolute offset of the first byte of line i.
	LineStart(i int) int

	// LineOfOffset returns the line containing offset. Offsets past the
	// end map to the last line.
	LineOfOffset(offset int) int
}

// SourceProvider supplies fresh snapshots of a changing document.
type SourceProvider interface {
	Snapshot() Source
}

// SourceFunc adapts a function to SourceProvider.
type SourceFunc func() Source

// Snapshot calls f.
func (f SourceFunc) Snapshot() Source {
	return f()
}

// Lines is an in-memory Source.
type Lines struct {
	text   []string
	starts []int
	lines  []token.Line
}

// NewLines creates a Source from line texts and their tokens. Lines are
// assumed to be separated by a single newline.
func NewLines(text []string, lines []token.Line) *Lines {
	starts := make([]int, len(text))
	off := 0
	for i, s := range text {
		starts[i] = off
		off += len(s) + 1
	}
	return &Lines{text: text, starts: starts, lines: lines}
}

// TokenizeText splits text into lines and tokenizes them in order,
// carrying continuation state from line to line.
func TokenizeText(text string, t lexer.Tokenizer) *Lines {
	parts := strings.Split(text, "\n")
	lines := make([]token.Line, len(parts))
	state := token.StateNone
	off := 0
	for i, part := range parts {
		toks, out := t.Tokenize(part, off, state)
		lines[i] = token.Line{Tokens: toks, In: state, Out: out}
		state = out
		off += len(part) + 1
	}
	return NewLines(parts, lines)
}

// LineCount implements Source.
func (l *Lines) LineCount() int {
	return len(l.text)
}

// Line implements Source.
func (l *Lines) Line(i int) token.Line {
	return l.lines[i]
}

// LineText implements Source.
func (l *Lines) LineText(i int) string {
	return l.text[i]
}

// LineStart implements Source.
func (l *Lines) LineStart(i int) int {
	return l.starts[i]
}

// LineOfOffset implements Source.
func (l *Lines) LineOfOffset(offset int) int {
	return LineOfOffset(l.starts, offset)
}

// Snapshot implements SourceProvider by returning l itself.
func (l *Lines) Snapshot() Source {
	return l
}

// LineOfOffset returns the index of the line containing offset given the
// sorted line start offsets.
func LineOfOffset(starts []int, offset int) int {
	if len(starts) == 0 {
		return 0
	}
	i := sort.Search(len(starts), func(i int) bool {
		return starts[i] > offset
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// lineEnd returns the offset just past the last byte of line i.
func lineEnd(src Source, i int) int {
	return src.LineStart(i) + len(src.LineText(i))
}
