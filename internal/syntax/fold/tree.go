// Package fold builds and maintains trees of foldable regions from the
// token stream of a document.
//
// Parsers are lexical: they walk tokens and match delimiters with simple
// stacks, never building a syntax tree. A Parser produces an immutable Tree;
// the Manager owns the current tree of one document, re-parses it after
// edits, carries collapse state from one tree to the next and answers the
// hidden-line queries used while rendering.
package fold

import (
	"math"
	"sort"
)

// EndOfDocument is the End of a fold that was never closed.
const EndOfDocument = math.MaxInt

// ID identifies a fold within one Tree. IDs are not stable across trees.
type ID int

// NoID is the parent of a top-level fold.
const NoID ID = -1

// Fold is a contiguous foldable region [Start, End) of a document.
type Fold struct {
	ID   ID
	Kind Kind

	// Start is the absolute offset where the region begins.
	Start int

	// End is the exclusive end offset, or EndOfDocument.
	End int

	// StartLine and EndLine are the first and last lines of the region.
	StartLine int
	EndLine   int

	Collapsed bool

	Parent   ID
	Children []ID
}

// Contains returns true if the offset lies within the fold.
func (f Fold) Contains(offset int) bool {
	return offset >= f.Start && offset < f.End
}

// ContainsLine returns true if line is one of the fold's lines.
func (f Fold) ContainsLine(line int) bool {
	return line >= f.StartLine && line <= f.EndLine
}

// HiddenLines returns how many lines the fold hides when collapsed: every
// line after its start line.
func (f Fold) HiddenLines() int {
	return f.EndLine - f.StartLine
}

// Unterminated returns true if the fold extends to the end of the document.
func (f Fold) Unterminated() bool {
	return f.End == EndOfDocument
}

// IsTopLevel returns true if the fold has no parent.
func (f Fold) IsTopLevel() bool {
	return f.Parent == NoID
}

// Tree is an immutable arena of folds. Folds are stored in pre-order, so
// a fold's descendants directly follow it.
type Tree struct {
	folds   []Fold
	roots   []ID
	lines   int
	version uint64
}

// EmptyTree returns a tree without folds.
func EmptyTree() *Tree {
	return &Tree{}
}

// Len returns the number of folds.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.folds)
}

// LineCount returns the number of lines in the document the tree was built
// from.
func (t *Tree) LineCount() int {
	if t == nil {
		return 0
	}
	return t.lines
}

// Version returns the version assigned by the Manager that published the
// tree, or 0.
func (t *Tree) Version() uint64 {
	if t == nil {
		return 0
	}
	return t.version
}

// Roots returns the IDs of the top-level folds ordered by start offset.
func (t *Tree) Roots() []ID {
	if t == nil {
		return nil
	}
	return t.roots
}

// Get returns the fold with the given ID.
func (t *Tree) Get(id ID) (Fold, bool) {
	if t == nil || id < 0 || int(id) >= len(t.folds) {
		return Fold{}, false
	}
	return t.folds[id], true
}

// At returns the fold with the given ID. It panics if id is out of range.
func (t *Tree) At(id ID) Fold {
	return t.folds[id]
}

// All returns every fold in pre-order.
func (t *Tree) All() []Fold {
	if t == nil {
		return nil
	}
	out := make([]Fold, len(t.folds))
	copy(out, t.folds)
	return out
}

// TopLevel returns the top-level folds ordered by start offset.
func (t *Tree) TopLevel() []Fold {
	if t == nil {
		return nil
	}
	out := make([]Fold, len(t.roots))
	for i, id := range t.roots {
		out[i] = t.folds[id]
	}
	return out
}

// Walk calls fn for every fold in pre-order. Returning false from fn skips
// the fold's children.
func (t *Tree) Walk(fn func(f Fold) bool) {
	if t == nil {
		return
	}
	var walk func(ids []ID)
	walk = func(ids []ID) {
		for _, id := range ids {
			f := t.folds[id]
			if fn(f) {
				walk(f.Children)
			}
		}
	}
	walk(t.roots)
}

// childAt returns the child among ids containing offset.
func (t *Tree) childAt(ids []ID, offset int) (ID, bool) {
	i := sort.Search(len(ids), func(i int) bool {
		return t.folds[ids[i]].Start > offset
	})
	if i == 0 {
		return NoID, false
	}
	id := ids[i-1]
	if !t.folds[id].Contains(offset) {
		return NoID, false
	}
	return id, true
}

// DeepestContaining returns the innermost fold containing offset.
func (t *Tree) DeepestContaining(offset int) (Fold, bool) {
	return t.deepest(offset, true)
}

// DeepestOpenContaining returns the innermost expanded fold containing
// offset. Collapsed folds stop the descent unless includeCollapsed is set.
func (t *Tree) DeepestOpenContaining(offset int, includeCollapsed bool) (Fold, bool) {
	return t.deepest(offset, includeCollapsed)
}

func (t *Tree) deepest(offset int, intoCollapsed bool) (Fold, bool) {
	if t == nil {
		return Fold{}, false
	}
	var found Fold
	ok := false
	ids := t.roots
	for {
		id, hit := t.childAt(ids, offset)
		if !hit {
			return found, ok
		}
		f := t.folds[id]
		if f.Collapsed && !intoCollapsed {
			return found, ok
		}
		found, ok = f, true
		ids = f.Children
	}
}

// FoldAtLine returns the outermost fold starting on line.
func (t *Tree) FoldAtLine(line int) (Fold, bool) {
	if t == nil {
		return Fold{}, false
	}
	ids := t.roots
	for len(ids) > 0 {
		i := sort.Search(len(ids), func(i int) bool {
			return t.folds[ids[i]].EndLine >= line
		})
		if i == len(ids) {
			return Fold{}, false
		}
		// Siblings may share a line: the first one ending on or after line
		// may end exactly where the next one starts.
		for j := i; j < len(ids) && t.folds[ids[j]].StartLine <= line; j++ {
			if t.folds[ids[j]].StartLine == line {
				return t.folds[ids[j]], true
			}
		}
		f := t.folds[ids[i]]
		if f.StartLine > line {
			return Fold{}, false
		}
		ids = f.Children
	}
	return Fold{}, false
}

// Ancestors returns the folds containing id, innermost first.
func (t *Tree) Ancestors(id ID) []Fold {
	var out []Fold
	f, ok := t.Get(id)
	for ok && f.Parent != NoID {
		f = t.folds[f.Parent]
		out = append(out, f)
	}
	return out
}

// clone returns a copy whose fold slice may be modified. Children slices
// are shared.
func (t *Tree) clone() *Tree {
	c := *t
	c.folds = make([]Fold, len(t.folds))
	copy(c.folds, t.folds)
	return &c
}
