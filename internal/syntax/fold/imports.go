package fold

import (
	"strings"

	"github.com/dshills/lexfold/internal/syntax/token"
)

// importGroup aggregates consecutive import-like statements. Once the run
// is interrupted it becomes a KindImports fold if it held more than one
// statement.
type importGroup struct {
	active bool
	start  int
	end    int
	count  int
	indent int
}

// extend adds a statement spanning [start, end) to the group.
func (g *importGroup) extend(start, end int) {
	if !g.active {
		g.active = true
		g.start = start
		g.count = 0
	}
	g.end = end
	g.count++
}

// flush emits the pending group as a child of the innermost open fold and
// resets it.
func (g *importGroup) flush(b *builder) {
	if g.active && g.count > 1 {
		b.add(KindImports, g.start, g.end)
	}
	*g = importGroup{}
}

// keywordSet matches the first code token of a line against keywords.
type keywordSet struct {
	words           map[string]bool
	caseInsensitive bool
}

func newKeywordSet(words []string, caseInsensitive bool) keywordSet {
	s := keywordSet{words: make(map[string]bool, len(words)), caseInsensitive: caseInsensitive}
	for _, w := range words {
		if caseInsensitive {
			w = strings.ToLower(w)
		}
		s.words[w] = true
	}
	return s
}

func (s keywordSet) has(word string) bool {
	if len(s.words) == 0 {
		return false
	}
	if s.caseInsensitive {
		word = strings.ToLower(word)
	}
	return s.words[word]
}

// leads reports whether the first code token of line is one of the words.
func (s keywordSet) leads(line token.Line) bool {
	first := line.FirstCode()
	return first >= 0 && s.has(line.Tokens[first].Text)
}
