package fold

import (
	"strings"

	"github.com/dshills/lexfold/internal/syntax/token"
)

// TagParser folds markup documents.
//
// An element folds from its start tag to the name of its end tag. End tags
// are matched by name: an end tag closes the innermost open element with
// that name, closing any elements opened inside it that were never closed.
// End tags matching no open element are ignored. Self-closing tags, void
// elements, declarations and processing instructions never fold.
type TagParser struct {
	// CaseInsensitive matches tag names ignoring case (HTML).
	CaseInsensitive bool

	// VoidElements are element names that never have an end tag.
	VoidElements []string

	// SkipComments disables comment folds.
	SkipComments bool

	// MaxDepth bounds nesting; zero means DefaultMaxDepth.
	MaxDepth int
}

// HTMLVoidElements lists the HTML elements without end tags.
var HTMLVoidElements = []string{
	"area", "base", "br", "col", "embed", "hr", "img", "input",
	"link", "meta", "param", "source", "track", "wbr",
}

// NewXMLParser returns a case-sensitive tag parser.
func NewXMLParser() *TagParser {
	return &TagParser{}
}

// NewHTMLParser returns a case-insensitive tag parser that knows the HTML
// void elements.
func NewHTMLParser() *TagParser {
	return &TagParser{CaseInsensitive: true, VoidElements: HTMLVoidElements}
}

// pendingTag is a tag whose delimiters have been seen but not yet closed
// with '>'. Tags may span lines.
type pendingTag struct {
	active  bool
	closing bool
	skip    bool
	name    string
	start   int
}

// Parse implements Parser.
func (p *TagParser) Parse(src Source) (*Tree, error) {
	b := newBuilder(src, p.MaxDepth)
	void := newKeywordSet(p.VoidElements, p.CaseInsensitive)
	var tag pendingTag

	for i := 0; i < src.LineCount(); i++ {
		line := src.Line(i)
		inComment := line.In == token.StateMarkupComment
		outComment := line.Out == token.StateMarkupComment

		for j, tok := range line.Tokens {
			switch tok.Type {
			case token.CommentMultiline:
				if p.SkipComments {
					continue
				}
				opens, closes := commentEdge(j, len(line.Tokens), inComment, outComment)
				if opens {
					if err := b.push(KindComment, commentKey, tok.Start); err != nil {
						return nil, err
					}
				} else if closes {
					if top, ok := b.top(); ok && top.key == commentKey {
						b.pop(tok.End)
					}
				}

			case token.MarkupTagDelimiter:
				switch tok.Text {
				case "<":
					tag = pendingTag{active: true, start: tok.Start}
				case "</":
					tag = pendingTag{active: true, closing: true, start: tok.Start}
				case "<?", "<!":
					tag = pendingTag{active: true, skip: true}
				case ">":
					if tag.active && !tag.closing && !tag.skip && tag.name != "" && !void.has(tag.name) {
						if err := b.push(KindCode, tag.name, tag.start); err != nil {
							return nil, err
						}
					}
					tag = pendingTag{}
				case "/>", "?>":
					tag = pendingTag{}
				}

			case token.MarkupTagName:
				if !tag.active || tag.skip || tag.name != "" {
					continue
				}
				tag.name = p.normalize(tok.Text)
				if tag.closing {
					p.closeElement(b, tag.name, tag.start, tok.End)
				}
			}
		}
	}

	return b.tree(), nil
}

// closeElement closes the innermost open element named name at end.
// Elements opened inside it end where its end tag begins.
func (p *TagParser) closeElement(b *builder, name string, tagStart, end int) {
	idx := b.find(name)
	if idx < 0 {
		return
	}
	for b.depth()-1 > idx {
		b.pop(tagStart)
	}
	b.pop(end)
}

func (p *TagParser) normalize(name string) string {
	if p.CaseInsensitive {
		return strings.ToLower(name)
	}
	return name
}
