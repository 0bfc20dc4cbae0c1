package document

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/lexfold/internal/syntax/fold"
)

// Replace replaces deleteCount lines starting at startLine with lines.
// startLine may equal LineCount to append. Replacing every line with
// nothing leaves one empty line.
func (d *Document) Replace(startLine, deleteCount int, lines []string) (Retokenized, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.lines)
	if startLine < 0 || startLine > n {
		return Retokenized{}, ErrLineOutOfRange
	}
	if deleteCount < 0 || startLine+deleteCount > n {
		return Retokenized{}, ErrRangeInvalid
	}
	offset, removed, inserted := d.lineSpan(startLine, deleteCount, lines)
	return d.replaceLocked(startLine, deleteCount, lines, offset, removed, inserted), nil
}

// lineSpan converts a line replacement into the byte edit it performs on
// the text.
func (d *Document) lineSpan(startLine, deleteCount int, lines []string) (offset, removed, inserted int) {
	n := len(d.lines)
	total := d.lenLocked()
	start := total + 1
	if startLine < n {
		start = d.starts[startLine]
	}
	end := total + 1
	if startLine+deleteCount < n {
		end = d.starts[startLine+deleteCount]
	}
	for _, l := range lines {
		inserted += len(l) + 1
	}

	// The last line has no terminator.
	if startLine+deleteCount == n {
		switch {
		case startLine == n:
			start, end = total, total
		case len(lines) > 0:
			end = total
			inserted--
		case startLine > 0:
			start--
			end = total
		default:
			end = total
		}
	}
	return start, end - start, inserted
}

// replaceLocked applies a line replacement whose byte effect is
// (offset, removed, inserted).
func (d *Document) replaceLocked(startLine, deleteCount int, lines []string, offset, removed, inserted int) Retokenized {
	tail := len(d.lines) - startLine - deleteCount
	newLen := startLine + len(lines) + tail

	nl := make([]string, 0, newLen)
	nl = append(nl, d.lines[:startLine]...)
	nl = append(nl, lines...)
	nl = append(nl, d.lines[startLine+deleteCount:]...)

	nt := make([]lineTokens, 0, newLen)
	nt = append(nt, d.toks[:startLine]...)
	nt = append(nt, make([]lineTokens, len(lines))...)
	nt = append(nt, d.toks[startLine+deleteCount:]...)

	through := startLine + len(lines)
	if len(nl) == 0 {
		nl = []string{""}
		nt = []lineTokens{{}}
		through = 1
	}
	d.lines, d.toks = nl, nt

	d.recomputeStarts(startLine)
	r := Retokenized{Start: startLine, End: d.retokenize(startLine, through)}
	d.logRetokenized(r, len(lines))

	if removed != 0 || inserted != 0 {
		d.folds.NotifyEdit(offset, removed, inserted)
	}
	return r
}

// Insert inserts text at offset.
func (d *Document) Insert(offset int, text string) (Retokenized, error) {
	return d.Edit(offset, offset, text)
}

// Delete removes the text in [start, end).
func (d *Document) Delete(start, end int) (Retokenized, error) {
	return d.Edit(start, end, "")
}

// Edit replaces the text in [start, end) with text.
func (d *Document) Edit(start, end int, text string) (Retokenized, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if start < 0 || end > d.lenLocked() {
		return Retokenized{}, ErrOffsetOutOfRange
	}
	if start > end {
		return Retokenized{}, ErrRangeInvalid
	}
	if start == end && text == "" {
		return Retokenized{}, nil
	}

	first := fold.LineOfOffset(d.starts, start)
	last := fold.LineOfOffset(d.starts, end)
	joined := d.lines[first][:start-d.starts[first]] + text + d.lines[last][end-d.starts[last]:]
	lines := strings.Split(joined, "\n")
	return d.replaceLocked(first, last-first+1, lines, start, end-start, len(text)), nil
}

// SetText replaces the whole text, applying only the lines that differ.
// It returns the ranges re-tokenized, in the order applied.
func (d *Document) SetText(text string) []Retokenized {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := strings.Join(d.lines, "\n")
	if old == text {
		return nil
	}

	// Terminate both texts so every diff chunk is a run of whole lines.
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(old+"\n", text+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var out []Retokenized
	line := 0
	var deleted int
	var inserted []string
	flush := func() {
		if deleted == 0 && len(inserted) == 0 {
			return
		}
		offset, removed, added := d.lineSpan(line, deleted, inserted)
		out = append(out, d.replaceLocked(line, deleted, inserted, offset, removed, added))
		line += len(inserted)
		deleted, inserted = 0, nil
	}
	for _, diff := range diffs {
		count := strings.Count(diff.Text, "\n")
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			line += count
		case diffmatchpatch.DiffDelete:
			deleted += count
		case diffmatchpatch.DiffInsert:
			inserted = append(inserted, strings.Split(strings.TrimSuffix(diff.Text, "\n"), "\n")...)
		}
	}
	flush()
	return out
}
