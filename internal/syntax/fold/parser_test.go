package fold

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/lexfold/internal/syntax/lexer"
	"github.com/dshills/lexfold/internal/syntax/token"
)

func cTokenizer() *lexer.CLike {
	return lexer.NewCLike(lexer.CLikeConfig{
		LineComments:      []string{"//"},
		BlockCommentStart: "/*",
		BlockCommentEnd:   "*/",
		DocCommentStart:   "/**",
		RawStringQuote:    '`',
		Keywords: lexer.NewKeywordTable(false).
			Add(token.ReservedWord, "import", "package", "func", "if", "else", "return"),
	})
}

func cSource(text string) *Lines {
	return TokenizeText(text, cTokenizer())
}

func vbTokenizer() *lexer.Basic {
	return lexer.NewBasic(lexer.NewKeywordTable(true).
		Add(token.ReservedWord, "Sub", "End", "If", "Then", "For", "Next", "Imports", "Property", "Interface", "Function"))
}

// span is the part of a fold the tests care about.
type span struct {
	Kind               Kind
	Start, End         int
	StartLine, EndLine int
	Parent             ID
}

func spans(t *Tree) []span {
	var out []span
	for _, f := range t.All() {
		out = append(out, span{f.Kind, f.Start, f.End, f.StartLine, f.EndLine, f.Parent})
	}
	return out
}

func mustParse(t *testing.T, p Parser, src Source) *Tree {
	t.Helper()
	tree, err := p.Parse(src)
	require.NoError(t, err)
	checkTree(t, tree)
	return tree
}

// tester is satisfied by *testing.T and *rapid.T.
type tester interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// checkTree asserts the structural invariants every tree must satisfy.
func checkTree(t tester, tree *Tree) {
	t.Helper()
	folds := tree.All()
	for i, f := range folds {
		require.Equal(t, ID(i), f.ID)
		assert.Less(t, f.Start, f.End, "fold %d is empty", i)
		assert.Greater(t, f.EndLine, f.StartLine, "fold %d is single-line", i)
		if f.Parent != NoID {
			p := folds[f.Parent]
			assert.Less(t, p.ID, f.ID, "parent precedes child")
			assert.LessOrEqual(t, p.Start, f.Start)
			assert.LessOrEqual(t, f.End, p.End)
		}
		for k := 1; k < len(f.Children); k++ {
			prev, next := folds[f.Children[k-1]], folds[f.Children[k]]
			assert.LessOrEqual(t, prev.End, next.Start, "siblings overlap")
		}
	}
	roots := tree.Roots()
	for k := 1; k < len(roots); k++ {
		assert.LessOrEqual(t, folds[roots[k-1]].End, folds[roots[k]].Start)
	}
}

func TestCurlyParserNesting(t *testing.T) {
	src := cSource("func a() {\n\tif x {\n\t\ty()\n\t}\n}")
	tree := mustParse(t, NewCurlyParser(), src)

	assert.Equal(t, []span{
		{KindCode, 9, 29, 0, 4, NoID},
		{KindCode, 17, 27, 1, 3, 0},
	}, spans(tree))
	assert.Equal(t, []ID{0}, tree.Roots())
	assert.Equal(t, []ID{1}, tree.At(0).Children)
	assert.Equal(t, 5, tree.LineCount())
}

func TestCurlyParserCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []span
	}{
		{
			name: "single-line braces are elided",
			text: "a { }\nb { c }",
			want: nil,
		},
		{
			name: "else merges into one block",
			text: "if a {\n\tx\n} else {\n\ty\n}",
			want: []span{{KindCode, 5, 23, 0, 4, NoID}},
		},
		{
			name: "unterminated block runs to end of document",
			text: "f {\n a\n b",
			want: []span{{KindCode, 2, EndOfDocument, 0, 2, NoID}},
		},
		{
			name: "unterminated block on last line is elided",
			text: "a\nf {",
			want: nil,
		},
		{
			name: "block comment",
			text: "/*\n a\n*/\nx",
			want: []span{{KindComment, 0, 8, 0, 2, NoID}},
		},
		{
			name: "single-line comment is not a fold",
			text: "/* a */\nx",
			want: nil,
		},
		{
			name: "braces inside comments are ignored",
			text: "/* {\n}\n*/",
			want: []span{{KindComment, 0, 9, 0, 2, NoID}},
		},
		{
			name: "braces inside strings are ignored",
			text: "s = \"{\"\nt = \"}\"",
			want: nil,
		},
		{
			name: "import group",
			text: "import \"a\"\nimport \"b\"\nimport \"c\"\nfunc f() {\n}",
			want: []span{
				{KindImports, 0, 32, 0, 2, NoID},
				{KindCode, 42, 45, 3, 4, NoID},
			},
		},
		{
			name: "single import is not a group",
			text: "import \"a\"\nfunc f() {\n}",
			want: []span{{KindCode, 20, 23, 1, 2, NoID}},
		},
		{
			name: "comment inside block",
			text: "f {\n/*\n*/\n}",
			want: []span{
				{KindCode, 2, 11, 0, 3, NoID},
				{KindComment, 4, 9, 1, 2, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, NewCurlyParser("import"), cSource(tt.text))
			assert.Equal(t, tt.want, spans(tree))
		})
	}
}

func TestCurlyParserStrayCloserIsIgnored(t *testing.T) {
	p := &CurlyParser{Brackets: true, KR: true}
	tests := []struct {
		name         string
		stray, clean string
	}{
		{"mismatched bracket inside block", "f {\n  ]\n  g\n}", "f {\n  )\n  g\n}"},
		{"closer at top level", "}\nf {\n}", " \nf {\n}"},
		{"extra closer after block", "f {\n}\n}\ng {\n}", "f {\n}\n \ng {\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stray := mustParse(t, p, cSource(tt.stray))
			clean := mustParse(t, p, cSource(tt.clean))
			assert.Equal(t, spans(clean), spans(stray))
		})
	}
}

func TestCurlyParserBrackets(t *testing.T) {
	text := "x = [\n  {\n  }\n]"
	plain := mustParse(t, &CurlyParser{}, cSource(text))
	assert.Equal(t, []span{{KindCode, 8, 13, 1, 2, NoID}}, spans(plain))

	json := mustParse(t, &CurlyParser{Brackets: true}, cSource(text))
	assert.Equal(t, []span{
		{KindCode, 4, 15, 0, 3, NoID},
		{KindCode, 8, 13, 1, 2, 0},
	}, spans(json))
}

func TestCurlyParserSkipComments(t *testing.T) {
	tree := mustParse(t, &CurlyParser{SkipComments: true}, cSource("/*\n*/"))
	assert.Zero(t, tree.Len())
}

func TestCurlyParserImportBlocks(t *testing.T) {
	blocks := NewCurlyParser("import")
	blocks.ImportBlocks = true

	tests := []struct {
		name string
		p    *CurlyParser
		text string
		want []span
	}{
		{
			name: "block",
			p:    blocks,
			text: "import (\n\t\"fmt\"\n\t\"os\"\n)\n\nfunc f() {\n}",
			want: []span{
				{KindImports, 0, 23, 0, 3, NoID},
				{KindCode, 34, 37, 5, 6, NoID},
			},
		},
		{
			name: "disabled",
			p:    NewCurlyParser("import"),
			text: "import (\n\t\"fmt\"\n\t\"os\"\n)\n\nfunc f() {\n}",
			want: []span{{KindCode, 34, 37, 5, 6, NoID}},
		},
		{
			name: "after single import",
			p:    blocks,
			text: "import \"a\"\nimport (\n\"b\"\n)",
			want: []span{{KindImports, 11, 25, 1, 3, NoID}},
		},
		{
			name: "one line",
			p:    blocks,
			text: "import (\"a\")\nimport \"b\"",
			want: []span{{KindImports, 0, 23, 0, 1, NoID}},
		},
		{
			name: "unterminated",
			p:    blocks,
			text: "import (\n\"a\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spans(mustParse(t, tt.p, cSource(tt.text))))
		})
	}
}

func TestCurlyParserTooDeep(t *testing.T) {
	_, err := (&CurlyParser{MaxDepth: 2}).Parse(cSource("{\n{\n{\n}\n}\n}"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooDeep))
}

func TestTagParser(t *testing.T) {
	tests := []struct {
		name   string
		parser *TagParser
		text   string
		want   []span
	}{
		{
			name:   "element ends at end tag name",
			parser: NewXMLParser(),
			text:   "<a>\n  <b/>\n</a>",
			want:   []span{{KindCode, 0, 14, 0, 2, NoID}},
		},
		{
			name:   "end tag closes unclosed children",
			parser: NewXMLParser(),
			text:   "<a>\n<b>\nx\n</a>",
			want: []span{
				{KindCode, 0, 13, 0, 3, NoID},
				{KindCode, 4, 10, 1, 2, 0},
			},
		},
		{
			name:   "unmatched end tag is ignored",
			parser: NewXMLParser(),
			text:   "<a>\n</b>\n</a>",
			want:   []span{{KindCode, 0, 12, 0, 2, NoID}},
		},
		{
			name:   "xml is case sensitive",
			parser: NewXMLParser(),
			text:   "<a>\n</A>",
			want:   []span{{KindCode, 0, EndOfDocument, 0, 1, NoID}},
		},
		{
			name:   "html is case insensitive",
			parser: NewHTMLParser(),
			text:   "<DIV>\n</div>",
			want:   []span{{KindCode, 0, 11, 0, 1, NoID}},
		},
		{
			name:   "html void elements never open",
			parser: NewHTMLParser(),
			text:   "<p>\n<br>\n</p>",
			want:   []span{{KindCode, 0, 12, 0, 2, NoID}},
		},
		{
			name:   "declarations never open",
			parser: NewXMLParser(),
			text:   "<?xml version=\"1.0\"?>\n<!DOCTYPE x>\n<r/>",
			want:   nil,
		},
		{
			name:   "multi-line comment",
			parser: NewXMLParser(),
			text:   "<!--\nx\n-->",
			want:   []span{{KindComment, 0, 10, 0, 2, NoID}},
		},
		{
			name:   "unterminated element",
			parser: NewXMLParser(),
			text:   "<a>\n<b>\n",
			want: []span{
				{KindCode, 0, EndOfDocument, 0, 2, NoID},
				{KindCode, 4, EndOfDocument, 1, 2, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, tt.parser, TokenizeText(tt.text, lexer.NewMarkup()))
			assert.Equal(t, tt.want, spans(tree))
		})
	}
}

func TestMarkerPairParser(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []span
	}{
		{
			name: "sub",
			text: "Sub Main()\n  x = 1\nEnd Sub",
			want: []span{{KindCode, 0, 26, 0, 2, NoID}},
		},
		{
			name: "case insensitive",
			text: "sub Main()\nend SUB",
			want: []span{{KindCode, 0, 18, 0, 1, NoID}},
		},
		{
			name: "mismatched end is ignored",
			text: "Sub A()\nEnd Function\nEnd Sub",
			want: []span{{KindCode, 0, 28, 0, 2, NoID}},
		},
		{
			name: "single-line if does not open",
			text: "Sub A()\nIf x Then y = 1\nEnd Sub",
			want: []span{{KindCode, 0, 31, 0, 2, NoID}},
		},
		{
			name: "block if and for loop",
			text: "If x Then\nFor i = 1 To 2\nNext\nEnd If",
			want: []span{
				{KindCode, 0, 36, 0, 3, NoID},
				{KindCode, 10, 29, 1, 2, 0},
			},
		},
		{
			name: "modifiers precede opener",
			text: "Public Shared Function F()\nEnd Function",
			want: []span{{KindCode, 0, 39, 0, 1, NoID}},
		},
		{
			name: "declare is suppressed",
			text: "Declare Function F Lib \"k\" ()\nx",
			want: nil,
		},
		{
			name: "auto property does not open",
			text: "Property P As Integer\nx\nEnd Sub",
			want: nil,
		},
		{
			name: "interface members do not open",
			text: "Interface I\nSub A()\nFunction B()\nEnd Interface",
			want: []span{{KindCode, 0, 46, 0, 3, NoID}},
		},
		{
			name: "imports group",
			text: "Imports A\nImports B\nModule M\nEnd Module",
			want: []span{
				{KindImports, 0, 19, 0, 1, NoID},
				{KindCode, 20, 39, 2, 3, NoID},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, NewVBParser(), TokenizeText(tt.text, vbTokenizer()))
			assert.Equal(t, tt.want, spans(tree))
		})
	}
}

func TestIndentParser(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []span
	}{
		{
			name: "function body",
			text: "def f():\n    x = 1\n    return x\ny = 2",
			want: []span{{KindCode, 0, 31, 0, 2, NoID}},
		},
		{
			name: "block ends at last content line",
			text: "if a:\n    b\n\nc",
			want: []span{{KindCode, 0, 11, 0, 1, NoID}},
		},
		{
			name: "nested blocks",
			text: "class A:\n  def f(self):\n    pass\nx",
			want: []span{
				{KindCode, 0, 32, 0, 2, NoID},
				{KindCode, 11, 32, 1, 2, 0},
			},
		},
		{
			name: "header continued in parentheses",
			text: "def f(a,\n      b):\n    pass",
			want: []span{{KindCode, 0, 27, 0, 2, NoID}},
		},
		{
			name: "statement without colon does not open",
			text: "x = 1\n    y = 2",
			want: nil,
		},
		{
			name: "docstring folds as comment",
			text: "def f():\n    \"\"\"doc\n    more\"\"\"\n    return 1",
			want: []span{
				{KindCode, 0, 44, 0, 3, NoID},
				{KindComment, 13, 31, 1, 2, 0},
			},
		},
		{
			name: "unterminated string",
			text: "x = '''\nabc",
			want: []span{{KindComment, 4, EndOfDocument, 0, 1, NoID}},
		},
		{
			name: "import group",
			text: "import os\nimport sys\nfrom a import b\nx = 1",
			want: []span{{KindImports, 0, 36, 0, 2, NoID}},
		},
		{
			name: "import group inside block",
			text: "def f():\n    import a\n    import b\n",
			want: []span{
				{KindCode, 0, 34, 0, 2, NoID},
				{KindImports, 13, 34, 1, 2, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, NewPythonParser(), TokenizeText(tt.text, lexer.Python()))
			assert.Equal(t, tt.want, spans(tree))
		})
	}
}

func TestIndentParserTabs(t *testing.T) {
	p := NewPythonParser()
	assert.Equal(t, 8, p.indentOf("\tx"))
	assert.Equal(t, 8, p.indentOf("  \tx"))
	assert.Equal(t, 4, p.indentOf("    x"))
	assert.Equal(t, 0, p.indentOf("x"))
}

func TestParserFunc(t *testing.T) {
	called := false
	p := ParserFunc(func(src Source) (*Tree, error) {
		called = true
		return EmptyTree(), nil
	})
	tree, err := p.Parse(cSource("x"))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Zero(t, tree.Len())
}

func TestParsersTolerateGarbage(t *testing.T) {
	garbage := strings.Repeat("}{)(][</a><b>End Sub\n\"'''/*", 20)
	parsers := map[string]struct {
		p   Parser
		tok lexer.Tokenizer
	}{
		"curly":  {NewCurlyParser("import"), cTokenizer()},
		"tag":    {NewHTMLParser(), lexer.NewMarkup()},
		"vb":     {NewVBParser(), vbTokenizer()},
		"python": {NewPythonParser(), lexer.Python()},
	}
	for name, tc := range parsers {
		t.Run(name, func(t *testing.T) {
			mustParse(t, tc.p, TokenizeText(garbage, tc.tok))
		})
	}
}

func TestCurlyParserNestingProperty(t *testing.T) {
	alphabet := []rune("{}[]/*\n x\"")
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringOf(rapid.SampledFrom(alphabet)).Draw(t, "text")
		p := &CurlyParser{Brackets: rapid.Bool().Draw(t, "brackets"), KR: rapid.Bool().Draw(t, "kr")}
		tree, err := p.Parse(cSource(text))
		require.NoError(t, err)
		checkTree(t, tree)
	})
}

func TestCurlyParserImportBlocksProperty(t *testing.T) {
	lines := []string{"import (", `"a"`, ")", `import "b"`, "f() {", "}", "/*", "*/", "x"}
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.SampledFrom(lines)).Draw(t, "lines")
		p := NewCurlyParser("import")
		p.ImportBlocks = true
		tree, err := p.Parse(cSource(strings.Join(parts, "\n")))
		require.NoError(t, err)
		checkTree(t, tree)
	})
}

func TestTagParserNestingProperty(t *testing.T) {
	lines := []string{"<a>", "</a>", "<b x=\"1\">", "</b>", "<br/>", "<p>", "</p>", "<!--", "-->", "text", `<c y="`, `">`}
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.SampledFrom(lines)).Draw(t, "lines")
		tree, err := NewHTMLParser().Parse(TokenizeText(strings.Join(parts, "\n"), lexer.NewMarkup()))
		require.NoError(t, err)
		checkTree(t, tree)
	})
}

func TestMarkerPairParserNestingProperty(t *testing.T) {
	lines := []string{
		"Sub A()", "End Sub", "Function F()", "End Function", "If x Then", "End If",
		"For i = 1 To 2", "Next", "Imports A", "' note", "x = 1", "Property P()", "End Property",
	}
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.SampledFrom(lines)).Draw(t, "lines")
		tree, err := NewVBParser().Parse(TokenizeText(strings.Join(parts, "\n"), vbTokenizer()))
		require.NoError(t, err)
		checkTree(t, tree)
	})
}

func TestIndentParserNestingProperty(t *testing.T) {
	lines := []string{"if a:", "    b", "        c:", "  d", "x = (", ")", `"""`, "import a", ""}
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.SampledFrom(lines)).Draw(t, "lines")
		tree, err := NewPythonParser().Parse(TokenizeText(strings.Join(parts, "\n"), lexer.Python()))
		require.NoError(t, err)
		checkTree(t, tree)
	})
}
