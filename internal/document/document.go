// Package document keeps the lines of a text together with their tokens and
// fold structure.
//
// Edits re-tokenize only the lines whose input changed: tokenization starts
// at the first edited line and continues forward while the continuation
// state handed to the next line differs from the one it was last tokenized
// with. Tokens on unaffected lines keep the offsets they were produced with
// and are rebased to the current line start when read.
//
// A Document has a single writer. Readers may run concurrently with it.
package document

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/lexfold/internal/language"
	"github.com/dshills/lexfold/internal/logging"
	"github.com/dshills/lexfold/internal/syntax/fold"
	"github.com/dshills/lexfold/internal/syntax/lexer"
	"github.com/dshills/lexfold/internal/syntax/token"
)

// Errors returned by document operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrLineOutOfRange   = errors.New("line out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrNoLanguage       = errors.New("no language")
)

// Retokenized is the range of lines [Start, End) whose tokens were
// recomputed by an edit.
type Retokenized struct {
	Start int
	End   int
}

// Len returns the number of re-tokenized lines.
func (r Retokenized) Len() int {
	return r.End - r.Start
}

// lineTokens is the tokenization of one line. base is the line start the
// tokens were produced for; valid is false until the line is tokenized.
type lineTokens struct {
	line  token.Line
	base  int
	valid bool
}

// Document is a tokenized, foldable text.
type Document struct {
	mu        sync.RWMutex
	lang      *language.Language
	tokenizer lexer.Tokenizer
	lines     []string
	starts    []int
	toks      []lineTokens

	folds    *fold.Manager
	maxDepth int
	logger   *logging.Logger
}

// New creates a document holding text, tokenized with lang.
func New(lang *language.Language, text string, opts ...Option) (*Document, error) {
	if lang == nil {
		return nil, ErrNoLanguage
	}
	o := options{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Document{
		lang:      lang,
		tokenizer: lang.Tokenizer(),
		lines:     strings.Split(text, "\n"),
		maxDepth:  o.maxDepth,
		logger:    o.logger.WithComponent("document"),
	}
	d.toks = make([]lineTokens, len(d.lines))
	d.recomputeStarts(0)
	d.retokenize(0, len(d.lines))

	foldOpts := append([]fold.Option{
		fold.WithLogger(o.logger),
		fold.WithLanguage(lang.Name),
	}, o.foldOpts...)
	d.folds = fold.NewManager(d, lang.Parser(d.maxDepth), foldOpts...)
	return d, nil
}

// Folds returns the document's fold manager.
func (d *Document) Folds() *fold.Manager {
	return d.folds
}

// Reparse rebuilds the fold tree from the current text.
func (d *Document) Reparse(ctx context.Context) error {
	return d.folds.Reparse(ctx)
}

// Close stops pending fold work.
func (d *Document) Close() {
	d.folds.Close()
}

// Language returns the document's language.
func (d *Document) Language() *language.Language {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lang
}

// SetLanguage re-tokenizes the whole document with lang and replaces the
// fold parser. Fold subscribers are notified after the document is
// unlocked, so they may read it.
func (d *Document) SetLanguage(lang *language.Language) error {
	if lang == nil {
		return ErrNoLanguage
	}
	d.mu.Lock()
	d.lang = lang
	d.tokenizer = lang.Tokenizer()
	for i := range d.toks {
		d.toks[i] = lineTokens{}
	}
	d.retokenize(0, len(d.lines))
	parser := lang.Parser(d.maxDepth)
	d.mu.Unlock()

	d.folds.SetParser(parser, lang.Name)
	return nil
}

// LineCount returns the number of lines. A document always has at least
// one line.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// Len returns the length of the text in bytes.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lenLocked()
}

func (d *Document) lenLocked() int {
	n := len(d.lines) - 1
	return d.starts[n] + len(d.lines[n])
}

// Text returns the full text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.Join(d.lines, "\n")
}

// LineText returns the text of line i without its terminator.
func (d *Document) LineText(i int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.lines) {
		return "", ErrLineOutOfRange
	}
	return d.lines[i], nil
}

// Line returns the tokens and continuation states of line i.
func (d *Document) Line(i int) (token.Line, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.lines) {
		return token.Line{}, ErrLineOutOfRange
	}
	return d.lineLocked(i), nil
}

// Tokens returns the tokens of line i.
func (d *Document) Tokens(i int) ([]token.Token, error) {
	l, err := d.Line(i)
	return l.Tokens, err
}

// lineLocked returns line i with tokens rebased to the current line start.
// The stored slice is never modified, so snapshots holding it stay valid.
func (d *Document) lineLocked(i int) token.Line {
	lt := d.toks[i]
	delta := d.starts[i] - lt.base
	if delta == 0 || len(lt.line.Tokens) == 0 {
		return lt.line
	}
	rebased := make([]token.Token, len(lt.line.Tokens))
	for j, tok := range lt.line.Tokens {
		tok.Start += delta
		tok.End += delta
		rebased[j] = tok
	}
	return token.Line{Tokens: rebased, In: lt.line.In, Out: lt.line.Out}
}

// OffsetOf returns the offset of column col on line.
func (d *Document) OffsetOf(line, col int) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if line < 0 || line >= len(d.lines) {
		return 0, ErrLineOutOfRange
	}
	if col < 0 || col > len(d.lines[line]) {
		return 0, ErrOffsetOutOfRange
	}
	return d.starts[line] + col, nil
}

// Position returns the line and column of offset.
func (d *Document) Position(offset int) (line, col int, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if offset < 0 || offset > d.lenLocked() {
		return 0, 0, ErrOffsetOutOfRange
	}
	line = fold.LineOfOffset(d.starts, offset)
	return line, offset - d.starts[line], nil
}

// recomputeStarts refreshes line start offsets from line from onward.
func (d *Document) recomputeStarts(from int) {
	if cap(d.starts) < len(d.lines) {
		starts := make([]int, len(d.lines), len(d.lines)+len(d.lines)/4)
		copy(starts, d.starts[:min(from, len(d.starts))])
		d.starts = starts
	}
	d.starts = d.starts[:len(d.lines)]
	off := 0
	if from > 0 {
		off = d.starts[from-1] + len(d.lines[from-1]) + 1
	}
	for i := from; i < len(d.lines); i++ {
		d.starts[i] = off
		off += len(d.lines[i]) + 1
	}
}

// retokenize tokenizes lines from start, covering at least [start, through),
// and continues while the outgoing state changes what the next line
// receives. It returns the end of the re-tokenized range.
func (d *Document) retokenize(start, through int) int {
	state := token.StateNone
	if start > 0 {
		state = d.toks[start-1].line.Out
	}
	i := start
	for ; i < len(d.lines); i++ {
		if i >= through && d.toks[i].valid && d.toks[i].line.In == state {
			break
		}
		toks, out := d.tokenizer.Tokenize(d.lines[i], d.starts[i], state)
		d.toks[i] = lineTokens{
			line:  token.Line{Tokens: toks, In: state, Out: out},
			base:  d.starts[i],
			valid: true,
		}
		state = out
	}
	return i
}

// Snapshot returns an immutable view of the current lines and tokens.
func (d *Document) Snapshot() fold.Source {
	d.mu.RLock()
	defer d.mu.RUnlock()

	text := make([]string, len(d.lines))
	copy(text, d.lines)
	lines := make([]token.Line, len(d.lines))
	for i := range d.lines {
		lines[i] = d.lineLocked(i)
	}
	return fold.NewLines(text, lines)
}

func (d *Document) logRetokenized(r Retokenized, edited int) {
	if d.logger.Enabled(logging.LevelDebug) {
		d.logger.Debug("lines retokenized",
			zap.Int("start", r.Start),
			zap.Int("end", r.End),
			zap.Int("edited", edited),
		)
	}
}
