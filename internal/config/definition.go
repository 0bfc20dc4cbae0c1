package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/lexfold/internal/syntax/token"
)

// Fold families a definition may use.
const (
	FamilyCurly  = "curly"
	FamilyIndent = "indent"
)

// Definition describes a user-defined language.
type Definition struct {
	Name       string   `yaml:"name" toml:"name"`
	Extensions []string `yaml:"extensions" toml:"extensions"`

	// Family selects the fold parser: "curly" (default) or "indent".
	Family string `yaml:"family" toml:"family"`

	CaseInsensitive bool `yaml:"case_insensitive" toml:"case_insensitive"`

	LineComments []string `yaml:"line_comments" toml:"line_comments"`

	// BlockComment is the start and end delimiter of block comments.
	BlockComment []string `yaml:"block_comment" toml:"block_comment"`
	DocComment   string   `yaml:"doc_comment" toml:"doc_comment"`

	RawStringQuote     string `yaml:"raw_string_quote" toml:"raw_string_quote"`
	SingleQuoteStrings bool   `yaml:"single_quote_strings" toml:"single_quote_strings"`
	Annotations        bool   `yaml:"annotations" toml:"annotations"`
	DollarIdentifiers  bool   `yaml:"dollar_identifiers" toml:"dollar_identifiers"`
	Preprocessor       bool   `yaml:"preprocessor" toml:"preprocessor"`
	NumberSuffixes     string `yaml:"number_suffixes" toml:"number_suffixes"`

	// Brackets also folds [...] in the curly family.
	Brackets bool `yaml:"brackets" toml:"brackets"`

	// BlockOpener ends a block header in the indent family (default ":").
	BlockOpener string `yaml:"block_opener" toml:"block_opener"`

	ImportKeywords []string `yaml:"import_keywords" toml:"import_keywords"`

	// Keywords maps token type names ("reserved-word", "data-type", ...)
	// to words.
	Keywords map[string][]string `yaml:"keywords" toml:"keywords"`

	// Path is the file the definition was loaded from.
	Path string `yaml:"-" toml:"-"`
}

// Validate checks that the definition can build a language.
func (d *Definition) Validate() error {
	var errs []error
	bad := func(field, msg string, value any) {
		errs = append(errs, &ValidationError{
			Path:     d.label() + "." + field,
			Message:  msg,
			Value:    value,
			Sentinel: ErrInvalidDefinition,
		})
	}

	if strings.TrimSpace(d.Name) == "" {
		bad("name", "is required", nil)
	}
	switch d.Family {
	case "", FamilyCurly, FamilyIndent:
	default:
		bad("family", "must be curly or indent", d.Family)
	}
	if n := len(d.BlockComment); n != 0 && (n != 2 || d.BlockComment[0] == "" || d.BlockComment[1] == "") {
		bad("block_comment", "must be a start and end delimiter", d.BlockComment)
	}
	if d.DocComment != "" && len(d.BlockComment) == 0 {
		bad("doc_comment", "requires block_comment", d.DocComment)
	}
	if len(d.RawStringQuote) > 1 {
		bad("raw_string_quote", "must be a single character", d.RawStringQuote)
	}
	for _, ext := range d.Extensions {
		if ext == "" || strings.ContainsAny(ext, `/\`) {
			bad("extensions", "invalid extension", ext)
		}
	}
	for name := range d.Keywords {
		if _, ok := token.ParseType(name); !ok {
			bad("keywords", "unknown token type", name)
		}
	}
	return errors.Join(errs...)
}

func (d *Definition) label() string {
	if d.Name != "" {
		return d.Name
	}
	if d.Path != "" {
		return filepath.Base(d.Path)
	}
	return "definition"
}

// KeywordTypes resolves the Keywords map to token types. Validate must
// have succeeded.
func (d *Definition) KeywordTypes() map[token.Type][]string {
	out := make(map[token.Type][]string, len(d.Keywords))
	for name, words := range d.Keywords {
		if typ, ok := token.ParseType(name); ok {
			out[typ] = append(out[typ], words...)
		}
	}
	return out
}

// Supported definition file extensions.
var definitionFormats = map[string]func(path string, data []byte) (*Definition, error){
	".yaml": parseYAMLDefinition,
	".yml":  parseYAMLDefinition,
	".toml": parseTOMLDefinition,
	".lua":  parseLuaDefinition,
}

// IsDefinitionFile reports whether path has a definition file extension.
func IsDefinitionFile(path string) bool {
	_, ok := definitionFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadDefinition reads and validates the definition at path.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition %s: %w", path, err)
	}
	return ParseDefinition(path, data)
}

// ParseDefinition decodes a definition, choosing the format by the
// extension of path.
func ParseDefinition(path string, data []byte) (*Definition, error) {
	parse, ok := definitionFormats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	def, err := parse(path, data)
	if err != nil {
		return nil, err
	}
	def.Path = path
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func parseYAMLDefinition(path string, data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var te *yaml.TypeError
		if !errors.As(err, &te) {
			pe.Line = yamlErrorLine(err.Error())
		}
		return nil, pe
	}
	return &def, nil
}

// yamlErrorLine extracts the line from messages like "yaml: line 3: ...".
func yamlErrorLine(msg string) int {
	var line int
	if _, err := fmt.Sscanf(msg, "yaml: line %d:", &line); err != nil {
		return 0
	}
	return line
}

func parseTOMLDefinition(path string, data []byte) (*Definition, error) {
	var def Definition
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return nil, tomlParseError(path, err)
	}
	return &def, nil
}
