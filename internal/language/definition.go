package language

import (
	"errors"

	"github.com/dshills/lexfold/internal/config"
	"github.com/dshills/lexfold/internal/syntax/fold"
	"github.com/dshills/lexfold/internal/syntax/lexer"
	"github.com/dshills/lexfold/internal/syntax/token"
)

// FromDefinition builds a language from a validated definition. Curly
// definitions fold braces; indent definitions fold by indentation after
// lines ending in the block opener.
func FromDefinition(def *config.Definition) (*Language, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	cfg := scannerConfig(def)
	l := &Language{
		Name:       def.Name,
		Extensions: append([]string(nil), def.Extensions...),
		NewTokenizer: func() lexer.Tokenizer {
			return lexer.NewCLike(cfg)
		},
	}

	imports := append([]string(nil), def.ImportKeywords...)
	switch def.Family {
	case config.FamilyIndent:
		opener := def.BlockOpener
		if opener == "" {
			opener = ":"
		}
		l.NewParser = func(maxDepth int) fold.Parser {
			return &fold.IndentParser{
				BlockOpener:    opener,
				StringStates:   []token.State{token.StateRawString},
				ImportKeywords: imports,
				MaxDepth:       maxDepth,
			}
		}
	default:
		brackets := def.Brackets
		l.NewParser = func(maxDepth int) fold.Parser {
			p := fold.NewCurlyParser(imports...)
			p.Brackets = brackets
			p.MaxDepth = maxDepth
			return p
		}
	}
	return l, nil
}

func scannerConfig(def *config.Definition) lexer.CLikeConfig {
	kw := lexer.NewKeywordTable(def.CaseInsensitive)
	for typ, words := range def.KeywordTypes() {
		kw.Add(typ, words...)
	}
	cfg := lexer.CLikeConfig{
		LineComments:       append([]string(nil), def.LineComments...),
		DocCommentStart:    def.DocComment,
		SingleQuoteStrings: def.SingleQuoteStrings,
		Annotations:        def.Annotations,
		DollarIdentifiers:  def.DollarIdentifiers,
		Preprocessor:       def.Preprocessor,
		NumberSuffixes:     def.NumberSuffixes,
		Keywords:           kw,
	}
	if len(def.BlockComment) == 2 {
		cfg.BlockCommentStart = def.BlockComment[0]
		cfg.BlockCommentEnd = def.BlockComment[1]
	}
	if def.RawStringQuote != "" {
		cfg.RawStringQuote = def.RawStringQuote[0]
	}
	return cfg
}

// RegisterDefinitions adds a language for each definition, continuing past
// definitions that fail.
func (r *Registry) RegisterDefinitions(defs []*config.Definition) error {
	var errs []error
	for _, def := range defs {
		l, err := FromDefinition(def)
		if err == nil {
			err = r.Register(l)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyExtensions applies configured extension overrides.
func (r *Registry) ApplyExtensions(mapping map[string]string) error {
	var errs []error
	for ext, name := range mapping {
		if err := r.MapExtension(ext, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
