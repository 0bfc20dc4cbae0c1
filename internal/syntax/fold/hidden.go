package fold

import "sort"

// hiddenIndex answers hidden-line queries for one tree without walking it.
// It holds the line ranges hidden by the outermost collapsed folds, which
// are disjoint and sorted, with running totals.
type hiddenIndex struct {
	lo     []int // first hidden line of each range
	hi     []int // last hidden line of each range
	prefix []int // prefix[i] is the number of lines hidden by ranges before i
}

func newHiddenIndex(t *Tree) hiddenIndex {
	var h hiddenIndex
	h.prefix = append(h.prefix, 0)
	t.Walk(func(f Fold) bool {
		if !f.Collapsed {
			return true
		}
		if n := f.HiddenLines(); n > 0 {
			h.lo = append(h.lo, f.StartLine+1)
			h.hi = append(h.hi, f.EndLine)
			h.prefix = append(h.prefix, h.prefix[len(h.prefix)-1]+n)
		}
		return false
	})
	return h
}

// total returns the number of hidden lines.
func (h hiddenIndex) total() int {
	if len(h.prefix) == 0 {
		return 0
	}
	return h.prefix[len(h.prefix)-1]
}

// find returns the index of the first range ending at or after line.
func (h hiddenIndex) find(line int) int {
	return sort.SearchInts(h.hi, line)
}

// countAbove returns how many hidden lines precede line.
func (h hiddenIndex) countAbove(line int) int {
	i := h.find(line)
	n := h.prefix[i]
	if i < len(h.lo) && h.lo[i] < line {
		n += line - h.lo[i]
	}
	return n
}

// hidden reports whether line is hidden.
func (h hiddenIndex) hidden(line int) bool {
	i := h.find(line)
	return i < len(h.lo) && h.lo[i] <= line
}

// rangeOf returns the hidden range containing line.
func (h hiddenIndex) rangeOf(line int) (lo, hi int, ok bool) {
	i := h.find(line)
	if i < len(h.lo) && h.lo[i] <= line {
		return h.lo[i], h.hi[i], true
	}
	return 0, 0, false
}

// lineForView maps a visible-line index back to a document line.
func (h hiddenIndex) lineForView(view int) int {
	line := view
	for i := range h.lo {
		if h.lo[i] > line {
			break
		}
		line += h.hi[i] - h.lo[i] + 1
	}
	return line
}
