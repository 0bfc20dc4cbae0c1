package fold

import "github.com/dshills/lexfold/internal/syntax/token"

// IndentParser folds indentation-structured languages such as Python.
//
// A statement whose last code token is the block opener (":") starts a
// block that extends over every following line indented deeper than the
// statement, ending at the last such line's content. Statements continue
// across lines inside brackets, after a trailing backslash and inside
// multi-line strings; continuation lines never affect indentation.
// Multi-line strings fold as comments, and consecutive import statements
// at one indentation fold as an import group.
type IndentParser struct {
	// TabWidth is the column multiple a tab advances to.
	TabWidth int

	// BlockOpener is the operator ending a block header.
	BlockOpener string

	// StringStates are the continuation states of multi-line strings.
	StringStates []token.State

	// ImportKeywords start import statements.
	ImportKeywords []string

	// SkipStrings disables multi-line string folds.
	SkipStrings bool

	// MaxDepth bounds nesting; zero means DefaultMaxDepth.
	MaxDepth int
}

// NewPythonParser returns an IndentParser configured for Python.
func NewPythonParser() *IndentParser {
	return &IndentParser{
		TabWidth:       8,
		BlockOpener:    ":",
		StringStates:   []token.State{token.StateTripleDouble, token.StateTripleSingle},
		ImportKeywords: []string{"import", "from"},
	}
}

// indentScan is the per-parse state of an IndentParser.
type indentScan struct {
	p      *IndentParser
	b      *builder
	group  importGroup
	blocks []int // indentation of each open block, parallel to the builder stack

	// Current statement.
	inStmt     bool
	stmtStart  int
	stmtIndent int
	stmtImport bool
	parens     int

	// Multi-line strings of the current statement, added once the
	// statement's own fold (if any) exists.
	strings    [][2]int
	stringOpen int

	lastContentEnd int
}

// Parse implements Parser.
func (p *IndentParser) Parse(src Source) (*Tree, error) {
	s := &indentScan{p: p, b: newBuilder(src, p.MaxDepth), stringOpen: -1}
	imports := newKeywordSet(p.ImportKeywords, false)

	for i := 0; i < src.LineCount(); i++ {
		line := src.Line(i)
		inString := p.isString(line.In)
		first, last := line.FirstCode(), line.LastCode()
		if !inString && first < 0 {
			continue // blank or comment only
		}

		if !s.inStmt && !inString {
			indent := p.indentOf(src.LineText(i))
			s.closeBlocks(indent)

			isImport := imports.leads(line)
			if s.group.active && (!isImport || indent != s.group.indent) {
				s.group.flush(s.b)
			}
			if isImport {
				if !s.group.active {
					s.group.indent = indent
				}
				s.group.extend(line.Tokens[first].Start, line.Tokens[last].End)
			}

			s.inStmt = true
			s.stmtStart = line.Tokens[first].Start
			s.stmtIndent = indent
			s.stmtImport = isImport
			s.parens = 0
		} else if s.stmtImport && last >= 0 && s.group.active {
			s.group.end = line.Tokens[last].End
		}

		s.scanTokens(line, inString)
		s.lastContentEnd = lineEnd(src, i)

		continued := s.parens > 0 || p.isString(line.Out) || endsWithBackslash(line)
		if !continued {
			if err := s.endStatement(line, last); err != nil {
				return nil, err
			}
		}
	}

	if s.stringOpen >= 0 {
		s.strings = append(s.strings, [2]int{s.stringOpen, EndOfDocument})
		s.lastContentEnd = EndOfDocument
	}
	s.addStrings()
	s.closeBlocks(-1)
	s.group.flush(s.b)
	return s.b.tree(), nil
}

// scanTokens tracks bracket depth and multi-line string boundaries.
func (s *indentScan) scanTokens(line token.Line, inString bool) {
	n := len(line.Tokens)
	for j, tok := range line.Tokens {
		switch {
		case tok.Type == token.LiteralStringDouble || tok.Type == token.LiteralChar:
			opens, closes := commentEdge(j, n, inString, s.p.isString(line.Out))
			if opens {
				s.stringOpen = tok.Start
			} else if closes && s.stringOpen >= 0 {
				s.strings = append(s.strings, [2]int{s.stringOpen, tok.End})
				s.stringOpen = -1
			}
		case tok.Type == token.Separator && len(tok.Text) == 1:
			switch tok.Text[0] {
			case '(', '[', '{':
				s.parens++
			case ')', ']', '}':
				if s.parens > 0 {
					s.parens--
				}
			}
		}
	}
}

// endStatement opens a block if the finished statement is a header and
// records the statement's multi-line strings.
func (s *indentScan) endStatement(line token.Line, last int) error {
	if s.inStmt && last >= 0 && line.Tokens[last].Is(token.Operator, s.p.BlockOpener) {
		if err := s.b.push(KindCode, "", s.stmtStart); err != nil {
			return err
		}
		s.blocks = append(s.blocks, s.stmtIndent)
	}
	s.addStrings()
	s.inStmt = false
	return nil
}

// addStrings records the pending string folds under the innermost block.
// Strings inside import statements are dropped so they cannot overlap the
// import group.
func (s *indentScan) addStrings() {
	if !s.p.SkipStrings && !s.stmtImport {
		for _, span := range s.strings {
			s.b.add(KindComment, span[0], span[1])
		}
	}
	s.strings = s.strings[:0]
}

// closeBlocks ends every open block indented at or deeper than indent.
// A pending import group belongs to the innermost block, so it is flushed
// before that block closes.
func (s *indentScan) closeBlocks(indent int) {
	for len(s.blocks) > 0 && s.blocks[len(s.blocks)-1] >= indent {
		s.group.flush(s.b)
		s.b.pop(s.lastContentEnd)
		s.blocks = s.blocks[:len(s.blocks)-1]
	}
}

func (p *IndentParser) isString(state token.State) bool {
	for _, st := range p.StringStates {
		if st == state {
			return true
		}
	}
	return false
}

// indentOf returns the indentation width of text.
func (p *IndentParser) indentOf(text string) int {
	tab := p.TabWidth
	if tab <= 0 {
		tab = 8
	}
	width := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ' ':
			width++
		case '\t':
			width += tab - width%tab
		case '\f':
			width = 0
		default:
			return width
		}
	}
	return width
}

func endsWithBackslash(line token.Line) bool {
	n := len(line.Tokens)
	return n > 0 && line.Tokens[n-1].Is(token.Operator, `\`)
}
