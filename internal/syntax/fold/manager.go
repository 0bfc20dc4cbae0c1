package fold

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dshills/lexfold/internal/logging"
)

// State is the lifecycle state of a Manager.
type State int

const (
	// StateNoFolding means no parser is registered for the document.
	StateNoFolding State = iota
	// StateDisabled means folding was turned off.
	StateDisabled
	// StateUpToDate means the tree reflects the latest snapshot.
	StateUpToDate
	// StateStale means edits happened since the tree was built.
	StateStale
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateNoFolding:
		return "no-folding"
	case StateDisabled:
		return "disabled"
	case StateUpToDate:
		return "up-to-date"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

const tracerName = "github.com/dshills/lexfold/internal/syntax/fold"

// Manager owns the fold tree of one document.
//
// Edits are reported with NotifyEdit, which marks the tree stale and, if a
// debounce delay is configured, schedules a reparse. Reparse parses a fresh
// snapshot and replaces the tree, re-applying collapse flags to folds that
// have the same kind and start offset as a collapsed fold of the old tree
// (shifted by the edits in between). Published trees are immutable; queries
// may run concurrently with each other and with a reparse.
type Manager struct {
	mu      sync.RWMutex
	src     SourceProvider
	parser  Parser
	lang    string
	enabled bool
	state   State
	tree    *Tree
	hidden  hiddenIndex
	version uint64

	// shifted holds each fold's start offset adjusted by the edits since
	// the tree was built, or -1 if its start was deleted. Nil until the
	// first edit.
	shifted []int
	editSeq uint64
	gen     uint64

	debounce time.Duration
	timer    *time.Timer

	reparseMu sync.Mutex
	logger    *logging.Logger
	tracer    trace.Tracer
	subs      subscribers
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDebounce makes NotifyEdit schedule a reparse after d without further
// edits. Zero disables automatic reparsing.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) {
		m.debounce = d
	}
}

// WithEnabled sets whether folding starts enabled.
func WithEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithTracer sets the tracer used for reparse spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithLanguage names the document's language in logs and errors.
func WithLanguage(name string) Option {
	return func(m *Manager) {
		m.lang = name
	}
}

// NewManager creates a manager for the document behind src. A nil parser
// leaves the manager in StateNoFolding. The first tree is built by the
// first Reparse.
func NewManager(src SourceProvider, parser Parser, opts ...Option) *Manager {
	m := &Manager{
		src:     src,
		parser:  parser,
		enabled: true,
		logger:  logging.Nop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithComponent("fold")
	m.installLocked(EmptyTree())
	m.state = m.idleStateLocked()
	return m
}

// idleStateLocked is the state for an empty tree awaiting its first parse.
func (m *Manager) idleStateLocked() State {
	switch {
	case !m.enabled:
		return StateDisabled
	case m.parser == nil:
		return StateNoFolding
	default:
		return StateStale
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Language returns the language name given with WithLanguage or SetParser.
func (m *Manager) Language() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lang
}

// Enabled reports whether folding is enabled.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Subscribe registers fn to be called after every tree replacement. The
// returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	return m.subs.add(fn)
}

// SetParser replaces the parser, clears the tree and marks the manager
// stale. A nil parser disables folding for the document.
func (m *Manager) SetParser(p Parser, language string) {
	m.mu.Lock()
	m.parser = p
	m.lang = language
	m.gen++
	m.shifted = nil
	m.installLocked(EmptyTree())
	m.state = m.idleStateLocked()
	m.scheduleLocked()
	ev := newEvent(m.tree, ReasonParserChanged)
	m.mu.Unlock()

	m.subs.publish(ev)
}

// SetFoldingEnabled turns folding on or off. Turning it off clears the
// tree; turning it on marks the manager stale.
func (m *Manager) SetFoldingEnabled(enabled bool) {
	m.mu.Lock()
	if m.enabled == enabled {
		m.mu.Unlock()
		return
	}
	m.enabled = enabled
	m.gen++
	m.shifted = nil
	m.state = m.idleStateLocked()
	if enabled {
		m.scheduleLocked()
		m.mu.Unlock()
		return
	}
	m.stopTimerLocked()
	m.installLocked(EmptyTree())
	ev := newEvent(m.tree, ReasonDisabled)
	m.mu.Unlock()

	m.subs.publish(ev)
}

// NotifyEdit reports that removed bytes at offset were replaced by
// inserted bytes.
func (m *Manager) NotifyEdit(offset, removed, inserted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateNoFolding || m.state == StateDisabled {
		return
	}

	if m.shifted == nil {
		m.shifted = make([]int, m.tree.Len())
		for i, f := range m.tree.folds {
			m.shifted[i] = f.Start
		}
	}
	delta := inserted - removed
	for i, start := range m.shifted {
		switch {
		case start < 0:
		case start >= offset+removed:
			m.shifted[i] = start + delta
		case start >= offset && removed > 0:
			m.shifted[i] = -1
		}
	}

	m.editSeq++
	m.state = StateStale
	m.scheduleLocked()
}

// Reparse parses the latest snapshot and replaces the tree. If the parser
// fails or panics the previous tree is kept, the manager stays stale and
// the returned error wraps ErrParseFailed. Reparse is a no-op unless
// folding is enabled and a parser is set.
func (m *Manager) Reparse(ctx context.Context) error {
	m.reparseMu.Lock()
	defer m.reparseMu.Unlock()

	m.mu.Lock()
	if m.state == StateNoFolding || m.state == StateDisabled {
		m.mu.Unlock()
		return nil
	}
	parser, src, lang := m.parser, m.src, m.lang
	seq, gen := m.editSeq, m.gen
	m.mu.Unlock()

	_, span := m.tracer.Start(ctx, "fold.reparse",
		trace.WithAttributes(attribute.String("fold.language", lang)))
	defer span.End()

	start := time.Now()
	snap := src.Snapshot()
	tree, err := parseSafely(parser, snap, lang)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		m.logger.Error("fold parse failed, keeping previous tree",
			zap.String("language", lang), zap.Error(err))
		m.mu.Lock()
		if m.gen == gen {
			m.state = StateStale
		}
		m.mu.Unlock()
		return fmt.Errorf("reparse: %w", err)
	}

	tree = tree.clone()
	tree.lines = snap.LineCount()

	m.mu.Lock()
	if m.gen != gen || m.editSeq != seq {
		// The document or configuration changed while parsing; the
		// next reparse sees the newer snapshot.
		m.mu.Unlock()
		span.SetAttributes(attribute.Bool("fold.discarded", true))
		return nil
	}
	collapsed := m.collapsedKeysLocked()
	restored := 0
	for i := range tree.folds {
		f := &tree.folds[i]
		if collapsed[foldKey{f.Start, f.Kind}] {
			f.Collapsed = true
			restored++
		}
	}
	m.installLocked(tree)
	m.shifted = nil
	m.state = StateUpToDate
	ev := newEvent(m.tree, ReasonReparse)
	m.mu.Unlock()

	span.SetAttributes(
		attribute.Int("fold.lines", tree.LineCount()),
		attribute.Int("fold.count", tree.Len()),
		attribute.Int("fold.restored", restored),
	)
	m.logger.Debug("fold tree replaced",
		zap.String("language", lang),
		zap.Int("folds", tree.Len()),
		zap.Int("restored", restored),
		zap.Duration("elapsed", time.Since(start)))
	m.subs.publish(ev)
	return nil
}

// parseSafely runs the parser, converting errors and panics to ParseError.
func parseSafely(p Parser, src Source, lang string) (tree *Tree, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = &ParseError{Language: lang, Panicked: true, Err: fmt.Errorf("%v", r)}
		}
	}()
	tree, err = p.Parse(src)
	if err != nil {
		return nil, &ParseError{Language: lang, Err: err}
	}
	if tree == nil {
		tree = EmptyTree()
	}
	return tree, nil
}

// foldKey identifies a fold across trees.
type foldKey struct {
	start int
	kind  Kind
}

// collapsedKeysLocked returns the keys of the collapsed folds, in the
// coordinates of the latest edit.
func (m *Manager) collapsedKeysLocked() map[foldKey]bool {
	keys := make(map[foldKey]bool)
	for i, f := range m.tree.folds {
		if !f.Collapsed {
			continue
		}
		start := f.Start
		if m.shifted != nil {
			start = m.shifted[i]
			if start < 0 {
				continue
			}
		}
		keys[foldKey{start, f.Kind}] = true
	}
	return keys
}

// installLocked publishes t as the current tree.
func (m *Manager) installLocked(t *Tree) {
	m.version++
	t.version = m.version
	m.tree = t
	m.hidden = newHiddenIndex(t)
}

func (m *Manager) scheduleLocked() {
	if m.debounce <= 0 || m.state != StateStale {
		return
	}
	m.stopTimerLocked()
	m.timer = time.AfterFunc(m.debounce, func() {
		_ = m.Reparse(context.Background())
	})
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Close stops any pending debounced reparse.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
}

// Tree returns the current tree.
func (m *Manager) Tree() *Tree {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree
}

// FoldAtLine returns the outermost fold starting on line.
func (m *Manager) FoldAtLine(line int) (Fold, bool) {
	return m.Tree().FoldAtLine(line)
}

// DeepestFoldContaining returns the innermost fold containing offset.
func (m *Manager) DeepestFoldContaining(offset int) (Fold, bool) {
	return m.Tree().DeepestContaining(offset)
}

// DeepestOpenFoldContaining returns the innermost fold containing offset,
// descending into collapsed folds only if includeCollapsed is set.
func (m *Manager) DeepestOpenFoldContaining(offset int, includeCollapsed bool) (Fold, bool) {
	return m.Tree().DeepestOpenContaining(offset, includeCollapsed)
}

// IsLineHidden reports whether line is inside a collapsed fold, below its
// start line.
func (m *Manager) IsLineHidden(line int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hidden.hidden(line)
}

// HiddenLineCountAbove returns how many lines before line are hidden. A
// collapsed fold that starts and ends above line contributes all of its
// hidden lines. When line is itself hidden, the hidden lines of its
// enclosing collapsed fold that precede it are counted too, so for a
// visible line the result equals the count of whole folds above it.
func (m *Manager) HiddenLineCountAbove(line int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hidden.countAbove(line)
}

// HiddenLineCount returns the total number of hidden lines.
func (m *Manager) HiddenLineCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hidden.total()
}

// VisibleLineCount returns how many of the tree's lines are visible.
func (m *Manager) VisibleLineCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.LineCount() - m.hidden.total()
}

// ViewLine maps a document line to its index among visible lines.
func (m *Manager) ViewLine(line int) int {
	return line - m.HiddenLineCountAbove(line)
}

// LineForView maps an index among visible lines to a document line.
func (m *Manager) LineForView(view int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hidden.lineForView(view)
}

// VisibleLineAbove returns the nearest visible line before line, or -1.
func (m *Manager) VisibleLineAbove(line int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l := line - 1
	for l >= 0 {
		lo, _, ok := m.hidden.rangeOf(l)
		if !ok {
			return l
		}
		l = lo - 1
	}
	return -1
}

// VisibleLineBelow returns the nearest visible line after line, or -1.
func (m *Manager) VisibleLineBelow(line int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l := line + 1
	for l < m.tree.LineCount() {
		_, hi, ok := m.hidden.rangeOf(l)
		if !ok {
			return l
		}
		l = hi + 1
	}
	return -1
}

// SetCollapsed collapses or expands the fold with the given ID.
func (m *Manager) SetCollapsed(id ID, collapsed bool) error {
	_, err := m.update(func(t *Tree) (int, error) {
		if _, ok := t.Get(id); !ok {
			return 0, fmt.Errorf("%w: %d", ErrNoFold, id)
		}
		if t.folds[id].Collapsed == collapsed {
			return 0, nil
		}
		t.folds[id].Collapsed = collapsed
		return 1, nil
	})
	return err
}

// ToggleCollapsed flips the collapse state of a fold and returns the new
// state.
func (m *Manager) ToggleCollapsed(id ID) (bool, error) {
	var now bool
	_, err := m.update(func(t *Tree) (int, error) {
		if _, ok := t.Get(id); !ok {
			return 0, fmt.Errorf("%w: %d", ErrNoFold, id)
		}
		now = !t.folds[id].Collapsed
		t.folds[id].Collapsed = now
		return 1, nil
	})
	return now, err
}

// CollapseAll collapses every fold of the given kind and returns how many
// changed.
func (m *Manager) CollapseAll(kind Kind) int {
	n, _ := m.update(func(t *Tree) (int, error) {
		changed := 0
		for i := range t.folds {
			if t.folds[i].Kind == kind && !t.folds[i].Collapsed {
				t.folds[i].Collapsed = true
				changed++
			}
		}
		return changed, nil
	})
	return n
}

// ExpandAll expands every fold and returns how many changed.
func (m *Manager) ExpandAll() int {
	n, _ := m.update(func(t *Tree) (int, error) {
		changed := 0
		for i := range t.folds {
			if t.folds[i].Collapsed {
				t.folds[i].Collapsed = false
				changed++
			}
		}
		return changed, nil
	})
	return n
}

// EnsureOffsetVisible expands every collapsed fold containing offset and
// reports whether anything changed.
func (m *Manager) EnsureOffsetVisible(offset int) bool {
	n, _ := m.update(func(t *Tree) (int, error) {
		changed := 0
		ids := t.roots
		for {
			id, ok := t.childAt(ids, offset)
			if !ok {
				return changed, nil
			}
			if t.folds[id].Collapsed {
				t.folds[id].Collapsed = false
				changed++
			}
			ids = t.folds[id].Children
		}
	})
	return n > 0
}

// EnsureLineVisible expands every collapsed fold hiding line and reports
// whether anything changed.
func (m *Manager) EnsureLineVisible(line int) bool {
	n, _ := m.update(func(t *Tree) (int, error) {
		changed := 0
		for i := range t.folds {
			f := &t.folds[i]
			if f.Collapsed && line > f.StartLine && line <= f.EndLine {
				f.Collapsed = false
				changed++
			}
		}
		return changed, nil
	})
	return n > 0
}

// update applies fn to a copy of the tree and publishes the copy if fn
// reports changes.
func (m *Manager) update(fn func(t *Tree) (int, error)) (int, error) {
	m.mu.Lock()
	if m.state == StateNoFolding || m.state == StateDisabled {
		m.mu.Unlock()
		return 0, ErrFoldingDisabled
	}
	t := m.tree.clone()
	n, err := fn(t)
	if err != nil || n == 0 {
		m.mu.Unlock()
		return 0, err
	}
	m.installLocked(t)
	ev := newEvent(t, ReasonCollapse)
	m.mu.Unlock()

	m.subs.publish(ev)
	return n, nil
}
