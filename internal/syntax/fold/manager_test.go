package fold

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dshills/lexfold/internal/logging"
)

// docStub is a mutable C-like document.
type docStub struct {
	mu   sync.Mutex
	text string
}

func (d *docStub) Snapshot() Source {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cSource(d.text)
}

func (d *docStub) replace(m *Manager, offset, removed int, inserted string) {
	d.mu.Lock()
	d.text = d.text[:offset] + inserted + d.text[offset+removed:]
	d.mu.Unlock()
	m.NotifyEdit(offset, removed, len(inserted))
}

// twoBlocks has a block on lines 0-3 starting at offset 2 and one on lines
// 4-6 starting at offset 14.
const twoBlocks = "a {\n b\n c\n}\nd {\n e\n}"

func newTestManager(t *testing.T, text string, opts ...Option) (*Manager, *docStub) {
	t.Helper()
	doc := &docStub{text: text}
	m := NewManager(doc, NewCurlyParser(), opts...)
	t.Cleanup(m.Close)
	require.NoError(t, m.Reparse(context.Background()))
	return m, doc
}

func TestManagerStates(t *testing.T) {
	doc := &docStub{text: twoBlocks}

	m := NewManager(doc, NewCurlyParser())
	assert.Equal(t, StateStale, m.State())
	assert.Zero(t, m.Tree().Len())
	require.NoError(t, m.Reparse(context.Background()))
	assert.Equal(t, StateUpToDate, m.State())
	assert.Equal(t, 2, m.Tree().Len())

	none := NewManager(doc, nil)
	assert.Equal(t, StateNoFolding, none.State())
	require.NoError(t, none.Reparse(context.Background()))
	assert.Equal(t, StateNoFolding, none.State())
	assert.Zero(t, none.Tree().Len())

	off := NewManager(doc, NewCurlyParser(), WithEnabled(false))
	assert.Equal(t, StateDisabled, off.State())
	require.NoError(t, off.Reparse(context.Background()))
	assert.Zero(t, off.Tree().Len())

	assert.Equal(t, "up-to-date", StateUpToDate.String())
	assert.Equal(t, "no-folding", StateNoFolding.String())
}

func TestManagerEditMarksStale(t *testing.T) {
	m, doc := newTestManager(t, twoBlocks)
	before := m.Tree()

	doc.replace(m, 0, 0, "x\n")
	assert.Equal(t, StateStale, m.State())
	assert.Same(t, before, m.Tree())

	require.NoError(t, m.Reparse(context.Background()))
	assert.Equal(t, StateUpToDate, m.State())
	assert.Greater(t, m.Tree().Version(), before.Version())
	assert.Equal(t, 16, m.Tree().At(1).Start)
}

func TestManagerHiddenLines(t *testing.T) {
	m, _ := newTestManager(t, twoBlocks)
	require.NoError(t, m.SetCollapsed(0, true))

	for line, want := range []bool{false, true, true, true, false, false, false} {
		assert.Equal(t, want, m.IsLineHidden(line), "line %d", line)
	}
	assert.Equal(t, 0, m.HiddenLineCountAbove(0))
	assert.Equal(t, 0, m.HiddenLineCountAbove(1))
	assert.Equal(t, 1, m.HiddenLineCountAbove(2))
	assert.Equal(t, 2, m.HiddenLineCountAbove(3), "hidden line counts the hidden lines before it")
	assert.Equal(t, 3, m.HiddenLineCountAbove(4))
	assert.Equal(t, 3, m.HiddenLineCount())
	assert.Equal(t, 4, m.VisibleLineCount())

	assert.Equal(t, 1, m.ViewLine(4))
	assert.Equal(t, 4, m.LineForView(1))
	assert.Equal(t, 0, m.LineForView(0))
	assert.Equal(t, 4, m.VisibleLineBelow(0))
	assert.Equal(t, 0, m.VisibleLineAbove(4))
	assert.Equal(t, -1, m.VisibleLineBelow(6))
	assert.Equal(t, -1, m.VisibleLineAbove(0))

	f, ok := m.FoldAtLine(4)
	require.True(t, ok)
	assert.Equal(t, 14, f.Start)
	_, ok = m.FoldAtLine(5)
	assert.False(t, ok)
}

func TestManagerUnterminatedFoldHidesRest(t *testing.T) {
	m, _ := newTestManager(t, "f {\n a\n b")
	f := m.Tree().At(0)
	require.True(t, f.Unterminated())

	require.NoError(t, m.SetCollapsed(f.ID, true))
	assert.Equal(t, 2, m.HiddenLineCountAbove(3))
	assert.Equal(t, 1, m.HiddenLineCountAbove(2))
	assert.Equal(t, 1, m.VisibleLineCount())
	assert.True(t, m.IsLineHidden(2))
}

func TestManagerCollapsePreservedAcrossEdits(t *testing.T) {
	m, doc := newTestManager(t, twoBlocks)
	require.NoError(t, m.SetCollapsed(1, true))

	doc.replace(m, 0, 0, "x\n")
	doc.replace(m, 0, 0, "// c\n")
	require.NoError(t, m.Reparse(context.Background()))

	tree := m.Tree()
	require.Equal(t, 2, tree.Len())
	assert.False(t, tree.At(0).Collapsed)
	assert.True(t, tree.At(1).Collapsed)
	assert.Equal(t, 14+7, tree.At(1).Start)
}

func TestManagerEditAtFoldStartExpands(t *testing.T) {
	m, doc := newTestManager(t, twoBlocks)
	require.NoError(t, m.SetCollapsed(0, true))

	doc.replace(m, 2, 1, "{")
	require.NoError(t, m.Reparse(context.Background()))
	assert.False(t, m.Tree().At(0).Collapsed)
}

func TestManagerInsertBeforeFoldStartKeepsCollapse(t *testing.T) {
	m, doc := newTestManager(t, twoBlocks)
	require.NoError(t, m.SetCollapsed(0, true))

	doc.replace(m, 2, 0, " ")
	require.NoError(t, m.Reparse(context.Background()))
	assert.True(t, m.Tree().At(0).Collapsed)
	assert.Equal(t, 3, m.Tree().At(0).Start)
}

func TestManagerParseFailureKeepsTree(t *testing.T) {
	tests := []struct {
		name     string
		parse    func(src Source) (*Tree, error)
		panicked bool
	}{
		{
			name:  "error",
			parse: func(Source) (*Tree, error) { return nil, errors.New("boom") },
		},
		{
			name:     "panic",
			parse:    func(Source) (*Tree, error) { panic("boom") },
			panicked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := logging.NewObserved(logging.LevelDebug)
			exporter := tracetest.NewInMemoryExporter()
			tracer := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)).Tracer("test")

			fail := false
			parser := ParserFunc(func(src Source) (*Tree, error) {
				if fail {
					return tt.parse(src)
				}
				return NewCurlyParser().Parse(src)
			})
			doc := &docStub{text: twoBlocks}
			m := NewManager(doc, parser, WithLogger(logger), WithTracer(tracer), WithLanguage("c"))
			require.NoError(t, m.Reparse(context.Background()))
			require.NoError(t, m.SetCollapsed(0, true))
			before := m.Tree()

			fail = true
			doc.replace(m, 0, 0, "x")
			err := m.Reparse(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParseFailed))

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.panicked, perr.Panicked)
			assert.Equal(t, "c", perr.Language)

			assert.Same(t, before, m.Tree())
			assert.Equal(t, StateStale, m.State())
			assert.True(t, m.IsLineHidden(1))
			assert.Equal(t, 1, logs.FilterMessage("fold parse failed, keeping previous tree").Len())

			spans := exporter.GetSpans()
			require.NotEmpty(t, spans)
			last := spans[len(spans)-1]
			assert.Equal(t, "fold.reparse", last.Name)
			assert.Equal(t, codes.Error, last.Status.Code)

			fail = false
			require.NoError(t, m.Reparse(context.Background()))
			assert.Equal(t, StateUpToDate, m.State())
			assert.True(t, m.Tree().At(0).Collapsed)
		})
	}
}

func TestManagerDiscardsResultOfConcurrentEdit(t *testing.T) {
	doc := &docStub{text: twoBlocks}
	var m *Manager
	calls := 0
	m = NewManager(doc, ParserFunc(func(src Source) (*Tree, error) {
		calls++
		if calls == 1 {
			doc.replace(m, 0, 0, "x\n")
		}
		return NewCurlyParser().Parse(src)
	}))

	require.NoError(t, m.Reparse(context.Background()))
	assert.Zero(t, m.Tree().Len())
	assert.Equal(t, StateStale, m.State())

	require.NoError(t, m.Reparse(context.Background()))
	assert.Equal(t, StateUpToDate, m.State())
	assert.Equal(t, 2, m.Tree().Len())
	assert.Equal(t, 1, m.Tree().At(0).StartLine)
}

func TestManagerCollapseOperations(t *testing.T) {
	m, _ := newTestManager(t, "/*\n*/\na {\n b {\n  c\n }\n}")
	tree := m.Tree()
	require.Equal(t, 3, tree.Len())

	assert.True(t, errors.Is(m.SetCollapsed(42, true), ErrNoFold))

	now, err := m.ToggleCollapsed(1)
	require.NoError(t, err)
	assert.True(t, now)
	now, err = m.ToggleCollapsed(1)
	require.NoError(t, err)
	assert.False(t, now)

	assert.Equal(t, 1, m.CollapseAll(KindComment))
	assert.Equal(t, 0, m.CollapseAll(KindComment))
	assert.Equal(t, 2, m.CollapseAll(KindCode))
	assert.Equal(t, 3, m.ExpandAll())
	assert.Equal(t, 0, m.ExpandAll())

	assert.False(t, tree.At(0).Collapsed, "published trees are immutable")
}

func TestManagerEnsureVisible(t *testing.T) {
	m, _ := newTestManager(t, "a {\n b {\n  c\n }\n}")
	require.Equal(t, 2, m.Tree().Len())

	m.CollapseAll(KindCode)
	assert.True(t, m.IsLineHidden(2))
	assert.True(t, m.EnsureOffsetVisible(11))
	assert.False(t, m.IsLineHidden(2))
	assert.False(t, m.Tree().At(0).Collapsed)
	assert.False(t, m.Tree().At(1).Collapsed)
	assert.False(t, m.EnsureOffsetVisible(11))

	m.CollapseAll(KindCode)
	assert.True(t, m.EnsureLineVisible(2))
	assert.Zero(t, m.HiddenLineCount())

	require.NoError(t, m.SetCollapsed(0, true))
	assert.False(t, m.EnsureLineVisible(0))
	assert.True(t, m.Tree().At(0).Collapsed)
}

func TestManagerDeepestQueries(t *testing.T) {
	m, _ := newTestManager(t, "a {\n b {\n  c\n }\n}")
	f, ok := m.DeepestFoldContaining(11)
	require.True(t, ok)
	assert.Equal(t, ID(1), f.ID)

	require.NoError(t, m.SetCollapsed(1, true))
	f, ok = m.DeepestOpenFoldContaining(11, false)
	require.True(t, ok)
	assert.Equal(t, ID(0), f.ID)
	f, ok = m.DeepestOpenFoldContaining(11, true)
	require.True(t, ok)
	assert.Equal(t, ID(1), f.ID)

	_, ok = m.DeepestFoldContaining(0)
	assert.False(t, ok)
}

func TestManagerEvents(t *testing.T) {
	doc := &docStub{text: twoBlocks}
	m := NewManager(doc, NewCurlyParser())

	var mu sync.Mutex
	var events []Event
	unsubscribe := m.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	require.NoError(t, m.Reparse(context.Background()))
	require.NoError(t, m.SetCollapsed(0, true))
	require.NoError(t, m.SetCollapsed(0, true)) // no change, no event
	m.SetFoldingEnabled(false)
	unsubscribe()
	unsubscribe()
	m.SetFoldingEnabled(true)
	require.NoError(t, m.Reparse(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, ReasonReparse, events[0].Reason)
	assert.Equal(t, 2, events[0].Folds)
	assert.Equal(t, ReasonCollapse, events[1].Reason)
	assert.Greater(t, events[1].Version, events[0].Version)
	assert.Equal(t, ReasonDisabled, events[2].Reason)
	assert.Zero(t, events[2].Folds)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestManagerDisable(t *testing.T) {
	m, _ := newTestManager(t, twoBlocks)
	m.SetFoldingEnabled(false)
	assert.Equal(t, StateDisabled, m.State())
	assert.False(t, m.Enabled())
	assert.Zero(t, m.Tree().Len())
	assert.True(t, errors.Is(m.SetCollapsed(0, true), ErrFoldingDisabled))

	m.SetFoldingEnabled(true)
	assert.Equal(t, StateStale, m.State())
	require.NoError(t, m.Reparse(context.Background()))
	assert.Equal(t, 2, m.Tree().Len())
}

func TestManagerSetParser(t *testing.T) {
	m, _ := newTestManager(t, twoBlocks)
	var got []Event
	m.Subscribe(func(ev Event) { got = append(got, ev) })

	m.SetParser(nil, "")
	assert.Equal(t, StateNoFolding, m.State())
	assert.Zero(t, m.Tree().Len())

	m.SetParser(NewCurlyParser(), "go")
	assert.Equal(t, "go", m.Language())
	assert.Equal(t, StateStale, m.State())
	require.NoError(t, m.Reparse(context.Background()))
	assert.Equal(t, 2, m.Tree().Len())

	require.Len(t, got, 3)
	assert.Equal(t, ReasonParserChanged, got[0].Reason)
	assert.Equal(t, ReasonParserChanged, got[1].Reason)
	assert.Equal(t, ReasonReparse, got[2].Reason)
}

func TestManagerDebouncedReparse(t *testing.T) {
	doc := &docStub{text: twoBlocks}
	m := NewManager(doc, NewCurlyParser(), WithDebounce(5*time.Millisecond))
	defer m.Close()

	doc.replace(m, 0, 0, "x\n")
	assert.Eventually(t, func() bool {
		return m.State() == StateUpToDate
	}, time.Second, time.Millisecond)
	assert.Equal(t, 2, m.Tree().Len())
	assert.Equal(t, 1, m.Tree().At(0).StartLine)
}

func TestManagerConcurrentQueries(t *testing.T) {
	m, doc := newTestManager(t, twoBlocks)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				tree := m.Tree()
				for line := 0; line <= tree.LineCount(); line++ {
					m.IsLineHidden(line)
					m.HiddenLineCountAbove(line)
					m.FoldAtLine(line)
				}
				m.VisibleLineCount()
			}
		}()
	}

	for i := 0; i < 50; i++ {
		doc.replace(m, 0, 0, "\n")
		_ = m.SetCollapsed(0, i%2 == 0)
		require.NoError(t, m.Reparse(context.Background()))
	}
	cancel()
	wg.Wait()
	assert.Equal(t, StateUpToDate, m.State())
}
