package fold

import "github.com/dshills/lexfold/internal/syntax/token"

// CurlyParser folds brace-delimited languages.
//
// Every multi-line {...} pair becomes a code fold, optionally [...] too.
// Multi-line block comments become comment folds and runs of consecutive
// import statements become import folds. A closer that does not match the
// innermost opener is ignored.
type CurlyParser struct {
	// Brackets also folds [...] pairs.
	Brackets bool

	// KR merges "} else {" style lines: when the first code token of a line
	// closes the innermost block and the last code token opens a new one,
	// the block simply continues.
	KR bool

	// ImportKeywords start import statements, e.g. "import" or "#include".
	ImportKeywords []string

	// ImportBlocks folds a parenthesized import statement such as
	// "import (" ... ")" as one import fold.
	ImportBlocks bool

	// SkipComments disables comment folds.
	SkipComments bool

	// MaxDepth bounds nesting; zero means DefaultMaxDepth.
	MaxDepth int
}

// NewCurlyParser returns a brace parser with K&R merging enabled.
func NewCurlyParser(importKeywords ...string) *CurlyParser {
	return &CurlyParser{KR: true, ImportKeywords: importKeywords}
}

// Parse implements Parser.
func (p *CurlyParser) Parse(src Source) (*Tree, error) {
	b := newBuilder(src, p.MaxDepth)
	imports := newKeywordSet(p.ImportKeywords, false)
	var group importGroup
	blockStart := -1

	for i := 0; i < src.LineCount(); i++ {
		line := src.Line(i)
		first, last := line.FirstCode(), line.LastCode()

		// Lines of a parenthesized import statement belong to its fold.
		if blockStart >= 0 {
			if end, ok := closingParen(line); ok {
				b.add(KindImports, blockStart, end)
				blockStart = -1
			}
			continue
		}

		isImport := imports.leads(line)
		if p.ImportBlocks && isImport && first < last &&
			line.Tokens[last].IsSingleChar(token.Separator, '(') {
			group.flush(b)
			blockStart = line.Tokens[first].Start
			continue
		}
		if first >= 0 && !isImport {
			group.flush(b)
		}

		merge := p.KR && first >= 0 && first < last &&
			line.Tokens[first].IsSingleChar(token.Separator, '}') &&
			line.Tokens[last].IsSingleChar(token.Separator, '{') &&
			!line.In.IsComment() && !line.Out.IsComment()
		merged := false
		boundary := false

		for j, tok := range line.Tokens {
			switch {
			case tok.Type == token.CommentMultiline || tok.Type == token.CommentDoc:
				if p.SkipComments {
					continue
				}
				opens, closes := commentEdge(j, len(line.Tokens), line.In.IsComment(), line.Out.IsComment())
				if opens {
					group.flush(b)
					boundary = true
					if err := b.push(KindComment, commentKey, tok.Start); err != nil {
						return nil, err
					}
				} else if closes {
					if top, ok := b.top(); ok && top.key == commentKey {
						b.pop(tok.End)
					}
				}

			case tok.Type == token.Separator && len(tok.Text) == 1:
				c := tok.Text[0]
				switch {
				case c == '{' || (c == '[' && p.Brackets):
					if merged && j == last {
						continue
					}
					group.flush(b)
					boundary = true
					if err := b.push(KindCode, tok.Text, tok.Start); err != nil {
						return nil, err
					}

				case c == '}' || (c == ']' && p.Brackets):
					top, ok := b.top()
					if !ok || top.key != opener(c) {
						continue
					}
					if merge && j == first && c == '}' {
						merged = true
						continue
					}
					group.flush(b)
					boundary = true
					b.pop(tok.End)
				}
			}
		}

		if isImport && !boundary {
			group.extend(line.Tokens[first].Start, line.Tokens[last].End)
		}
	}

	group.flush(b)
	return b.tree(), nil
}

// closingParen returns the end of the first code ")" on line.
func closingParen(line token.Line) (int, bool) {
	for _, tok := range line.Tokens {
		if tok.IsSingleChar(token.Separator, ')') {
			return tok.End, true
		}
	}
	return 0, false
}

func opener(closer byte) string {
	if closer == ']' {
		return "["
	}
	return "{"
}
