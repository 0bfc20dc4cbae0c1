package fold

import (
	"strings"

	"github.com/dshills/lexfold/internal/syntax/token"
)

// MarkerPairParser folds languages whose blocks are delimited by keyword
// pairs such as "Sub ... End Sub".
//
// A block opens on a line whose first keyword, after any modifiers, is one
// of Openers; the keyword is remembered. "End X" closes the innermost block
// only if it was opened by X, and a dedicated closer such as "Next" closes
// it only if it was opened by the keyword the closer belongs to. Anything
// else leaves the block stack untouched.
type MarkerPairParser struct {
	// Openers are the keywords opening a block.
	Openers []string

	// EndKeyword introduces a closing marker ("End").
	EndKeyword string

	// Closers maps stand-alone closing keywords to the opener they close,
	// e.g. "Next" to "For".
	Closers map[string]string

	// Conditional maps openers to the keyword that must end the line for
	// the block to open, e.g. "If" to "Then".
	Conditional map[string]string

	// RequireParens lists openers that only open when the line contains
	// "(", which tells a property with a body from an auto-property.
	RequireParens []string

	// Modifiers may precede an opener.
	Modifiers []string

	// Suppressors cancel the block when they precede an opener, e.g.
	// "Declare" or "MustOverride".
	Suppressors []string

	// Declarations are blocks whose members have no bodies (interfaces);
	// inside them the Members keywords do not open blocks.
	Declarations []string
	Members      []string

	// ImportKeywords start import statements.
	ImportKeywords []string

	// CaseInsensitive ignores keyword case.
	CaseInsensitive bool

	// MaxDepth bounds nesting; zero means DefaultMaxDepth.
	MaxDepth int
}

// NewVBParser returns a MarkerPairParser configured for Visual Basic.
func NewVBParser() *MarkerPairParser {
	return &MarkerPairParser{
		Openers: []string{
			"Sub", "Function", "Property", "Class", "Module", "Structure", "Enum",
			"Interface", "Namespace", "Select", "With", "Try", "While", "Using",
			"SyncLock", "If", "For", "Do", "Get", "Set", "Operator",
		},
		EndKeyword:    "End",
		Closers:       map[string]string{"Next": "For", "Loop": "Do", "Wend": "While"},
		Conditional:   map[string]string{"If": "Then"},
		RequireParens: []string{"Property"},
		Modifiers: []string{
			"Public", "Private", "Protected", "Friend", "Shared", "Overrides",
			"Overridable", "NotOverridable", "Overloads", "Shadows", "Static",
			"ReadOnly", "WriteOnly", "Partial", "MustInherit", "NotInheritable",
			"Async", "Iterator", "Default", "Widening", "Narrowing",
		},
		Suppressors:     []string{"Declare", "MustOverride", "Delegate"},
		Declarations:    []string{"Interface"},
		Members:         []string{"Sub", "Function", "Property", "Event"},
		ImportKeywords:  []string{"Imports"},
		CaseInsensitive: true,
	}
}

// Parse implements Parser.
func (p *MarkerPairParser) Parse(src Source) (*Tree, error) {
	b := newBuilder(src, p.MaxDepth)
	ci := p.CaseInsensitive
	openers := newKeywordSet(p.Openers, ci)
	modifiers := newKeywordSet(p.Modifiers, ci)
	suppressors := newKeywordSet(p.Suppressors, ci)
	parens := newKeywordSet(p.RequireParens, ci)
	decls := newKeywordSet(p.Declarations, ci)
	members := newKeywordSet(p.Members, ci)
	imports := newKeywordSet(p.ImportKeywords, ci)
	var group importGroup

	for i := 0; i < src.LineCount(); i++ {
		line := src.Line(i)
		words := codeTokens(line)
		if len(words) == 0 {
			continue
		}
		if imports.has(words[0].Text) {
			group.extend(words[0].Start, words[len(words)-1].End)
			continue
		}
		group.flush(b)

		lead := p.normalize(words[0].Text)

		// End X
		if p.EndKeyword != "" && lead == p.normalize(p.EndKeyword) {
			if len(words) > 1 {
				if top, ok := b.top(); ok && top.key == p.normalize(words[1].Text) {
					b.pop(words[1].End)
				}
			}
			continue
		}

		// Next, Loop, ...
		if target, ok := p.closerFor(lead); ok {
			if top, ok := b.top(); ok && top.key == target {
				b.pop(words[0].End)
			}
			continue
		}

		k := 0
		suppressed := false
		for k < len(words) && (modifiers.has(words[k].Text) || suppressors.has(words[k].Text)) {
			if suppressors.has(words[k].Text) {
				suppressed = true
			}
			k++
		}
		if suppressed || k == len(words) || !openers.has(words[k].Text) {
			continue
		}

		key := p.normalize(words[k].Text)
		if want, ok := p.conditionFor(key); ok && p.normalize(words[len(words)-1].Text) != want {
			continue
		}
		if parens.has(key) && !hasSeparator(words, '(') {
			continue
		}
		if top, ok := b.top(); ok && decls.has(top.key) && members.has(key) {
			continue
		}
		if err := b.push(KindCode, key, words[0].Start); err != nil {
			return nil, err
		}
	}

	group.flush(b)
	return b.tree(), nil
}

func (p *MarkerPairParser) normalize(word string) string {
	if p.CaseInsensitive {
		return strings.ToLower(word)
	}
	return word
}

func (p *MarkerPairParser) closerFor(word string) (string, bool) {
	for closer, opener := range p.Closers {
		if p.normalize(closer) == word {
			return p.normalize(opener), true
		}
	}
	return "", false
}

func (p *MarkerPairParser) conditionFor(opener string) (string, bool) {
	for o, want := range p.Conditional {
		if p.normalize(o) == opener {
			return p.normalize(want), true
		}
	}
	return "", false
}

// codeTokens returns the code tokens of a line.
func codeTokens(line token.Line) []token.Token {
	var out []token.Token
	for _, tok := range line.Tokens {
		if tok.Type.IsCode() {
			out = append(out, tok)
		}
	}
	return out
}

func hasSeparator(toks []token.Token, c byte) bool {
	for _, tok := range toks {
		if tok.IsSingleChar(token.Separator, c) {
			return true
		}
	}
	return false
}
