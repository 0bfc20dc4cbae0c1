package fold

import (
	"fmt"
	"sort"
)

// DefaultMaxDepth bounds fold nesting for parsers that do not set one.
const DefaultMaxDepth = 256

// openEntry is an open fold on the builder stack. Key is what a closer
// must match: a delimiter, a tag name or a block keyword.
type openEntry struct {
	id  ID
	key string
}

// builder accumulates folds in document order and turns them into a Tree.
// Folds that end on their start line are elided.
type builder struct {
	src      Source
	folds    []Fold
	dead     []bool
	roots    []ID
	stack    []openEntry
	maxDepth int
}

func newBuilder(src Source, maxDepth int) *builder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &builder{src: src, maxDepth: maxDepth}
}

// current returns the innermost open fold, or NoID.
func (b *builder) current() ID {
	if len(b.stack) == 0 {
		return NoID
	}
	return b.stack[len(b.stack)-1].id
}

func (b *builder) depth() int {
	return len(b.stack)
}

// top returns the innermost open entry.
func (b *builder) top() (openEntry, bool) {
	if len(b.stack) == 0 {
		return openEntry{}, false
	}
	return b.stack[len(b.stack)-1], true
}

// find returns the stack index of the innermost entry with key, or -1.
func (b *builder) find(key string) int {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].key == key {
			return i
		}
	}
	return -1
}

func (b *builder) newFold(kind Kind, start int) ID {
	id := ID(len(b.folds))
	parent := b.current()
	b.folds = append(b.folds, Fold{
		ID:        id,
		Kind:      kind,
		Start:     start,
		End:       EndOfDocument,
		StartLine: b.src.LineOfOffset(start),
		Parent:    parent,
	})
	b.dead = append(b.dead, false)
	if parent == NoID {
		b.roots = append(b.roots, id)
	} else {
		b.folds[parent].Children = append(b.folds[parent].Children, id)
	}
	return id
}

// push opens a fold at start as a child of the innermost open fold.
func (b *builder) push(kind Kind, key string, start int) error {
	if len(b.stack) >= b.maxDepth {
		return fmt.Errorf("%w: more than %d levels at offset %d", ErrTooDeep, b.maxDepth, start)
	}
	id := b.newFold(kind, start)
	b.stack = append(b.stack, openEntry{id: id, key: key})
	return nil
}

// pop closes the innermost open fold at end.
func (b *builder) pop(end int) {
	n := len(b.stack)
	if n == 0 {
		return
	}
	e := b.stack[n-1]
	b.stack = b.stack[:n-1]
	b.close(e.id, end)
}

// add records an already closed fold as a child of the innermost open fold.
func (b *builder) add(kind Kind, start, end int) {
	b.close(b.newFold(kind, start), end)
}

func (b *builder) close(id ID, end int) {
	f := &b.folds[id]
	if end <= f.Start {
		b.dead[id] = true
		return
	}
	f.End = end
	f.EndLine = b.src.LineOfOffset(end - 1)
	if f.EndLine <= f.StartLine {
		b.dead[id] = true
	}
}

// tree finishes the build. Folds still open extend to the end of the
// document; they are elided when they start on the last line.
func (b *builder) tree() *Tree {
	lines := b.src.LineCount()
	last := lines - 1
	for _, e := range b.stack {
		f := &b.folds[e.id]
		f.End = EndOfDocument
		f.EndLine = last
		if f.StartLine >= last {
			b.dead[e.id] = true
		}
	}
	b.stack = nil

	t := &Tree{lines: lines}
	var copyFold func(old, parent ID) ID
	copyFold = func(old, parent ID) ID {
		f := b.folds[old]
		id := ID(len(t.folds))
		f.ID = id
		f.Parent = parent
		f.Children = nil
		t.folds = append(t.folds, f)

		var kids []ID
		for _, c := range b.live(b.folds[old].Children) {
			kids = append(kids, copyFold(c, id))
		}
		t.folds[id].Children = kids
		return id
	}
	for _, r := range b.live(b.roots) {
		t.roots = append(t.roots, copyFold(r, NoID))
	}
	return t
}

// live returns the non-elided folds among ids ordered by start offset.
// Live descendants of an elided fold take its place.
func (b *builder) live(ids []ID) []ID {
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if b.dead[id] {
			out = append(out, b.live(b.folds[id].Children)...)
			continue
		}
		out = append(out, id)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return b.folds[out[i]].Start < b.folds[out[j]].Start
	})
	return out
}
