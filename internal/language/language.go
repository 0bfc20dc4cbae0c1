// Package language binds tokenizers and fold parsers to language names and
// file extensions.
//
// A Registry is an explicit value; hosts build one with Builtins and add
// languages loaded from definition files with FromDefinition.
package language

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/lexfold/internal/syntax/fold"
	"github.com/dshills/lexfold/internal/syntax/lexer"
)

var (
	// ErrInvalidLanguage is returned when registering an incomplete language.
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrUnknownLanguage is returned when a name does not resolve.
	ErrUnknownLanguage = errors.New("unknown language")
)

// Language describes how to tokenize and fold one language.
type Language struct {
	Name       string
	Extensions []string

	// NewTokenizer returns a tokenizer for the language.
	NewTokenizer func() lexer.Tokenizer

	// NewParser returns a fold parser bounded to maxDepth nesting levels.
	// Zero means fold.DefaultMaxDepth. Nil means the language has no
	// folding.
	NewParser func(maxDepth int) fold.Parser
}

// Tokenizer returns a new tokenizer for the language.
func (l *Language) Tokenizer() lexer.Tokenizer {
	return l.NewTokenizer()
}

// Parser returns a fold parser, or nil if the language does not fold.
func (l *Language) Parser(maxDepth int) fold.Parser {
	if l == nil || l.NewParser == nil {
		return nil
	}
	return l.NewParser(maxDepth)
}

func (l *Language) validate() error {
	if l == nil {
		return fmt.Errorf("%w: nil", ErrInvalidLanguage)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidLanguage)
	}
	if l.NewTokenizer == nil {
		return fmt.Errorf("%w: %s has no tokenizer", ErrInvalidLanguage, l.Name)
	}
	return nil
}

// Registry maps names and extensions to languages. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Language
	byExt  map[string]string // extension -> lower-case name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Language),
		byExt:  make(map[string]string),
	}
}

// Register adds a language, replacing any language with the same name.
// Its extensions take over existing mappings.
func (r *Registry) Register(l *Language) error {
	if err := l.validate(); err != nil {
		return err
	}
	key := strings.ToLower(l.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[key]; exists {
		for ext, name := range r.byExt {
			if name == key {
				delete(r.byExt, ext)
			}
		}
	}
	r.byName[key] = l
	for _, ext := range l.Extensions {
		r.byExt[normalizeExt(ext)] = key
	}
	return nil
}

// MustRegister registers a language and panics on error.
func (r *Registry) MustRegister(l *Language) {
	if err := r.Register(l); err != nil {
		panic(err)
	}
}

// MapExtension points ext at the named language.
func (r *Registry) MapExtension(ext, name string) error {
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
	}
	r.byExt[normalizeExt(ext)] = key
	return nil
}

// ByName returns the language with the given name, ignoring case.
func (r *Registry) ByName(name string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byName[strings.ToLower(name)]
	return l, ok
}

// ByExtension returns the language for ext, with or without the dot.
func (r *Registry) ByExtension(ext string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byExt[normalizeExt(ext)]
	if !ok {
		return nil, false
	}
	return r.byName[name], true
}

// ForFile returns the language for path based on its extension.
func (r *Registry) ForFile(path string) (*Language, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, false
	}
	return r.ByExtension(ext)
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for _, l := range r.byName {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered languages.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
