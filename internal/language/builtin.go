package language

import (
	"sync"

	"github.com/dshills/lexfold/internal/syntax/fold"
	"github.com/dshills/lexfold/internal/syntax/lexer"
	"github.com/dshills/lexfold/internal/syntax/token"
)

// Builtins returns a registry holding the built-in languages.
func Builtins() *Registry {
	r := NewRegistry()
	for _, l := range builtinLanguages() {
		r.MustRegister(l)
	}
	return r
}

func builtinLanguages() []*Language {
	return []*Language{
		curly("c", []string{".c", ".h"}, cConfig, "#include"),
		curly("cpp", []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"}, cppConfig, "#include", "using"),
		curly("java", []string{".java"}, javaConfig, "import"),
		curly("javascript", []string{".js", ".mjs", ".cjs", ".jsx"}, javascriptConfig, "import"),
		withImportBlocks(curly("go", []string{".go"}, goConfig, "import")),
		curly("css", []string{".css"}, cssConfig),
		{
			Name:         "json",
			Extensions:   []string{".json"},
			NewTokenizer: tokenizerOf(jsonConfig),
			NewParser: func(maxDepth int) fold.Parser {
				return &fold.CurlyParser{Brackets: true, MaxDepth: maxDepth}
			},
		},
		{
			Name:         "xml",
			Extensions:   []string{".xml", ".xsd", ".xsl", ".xslt", ".svg"},
			NewTokenizer: markupTokenizer,
			NewParser: func(maxDepth int) fold.Parser {
				p := fold.NewXMLParser()
				p.MaxDepth = maxDepth
				return p
			},
		},
		{
			Name:         "html",
			Extensions:   []string{".html", ".htm", ".xhtml"},
			NewTokenizer: markupTokenizer,
			NewParser: func(maxDepth int) fold.Parser {
				p := fold.NewHTMLParser()
				p.MaxDepth = maxDepth
				return p
			},
		},
		{
			Name:         "python",
			Extensions:   []string{".py", ".pyw", ".pyi"},
			NewTokenizer: func() lexer.Tokenizer { return pythonDFA() },
			NewParser: func(maxDepth int) fold.Parser {
				p := fold.NewPythonParser()
				p.MaxDepth = maxDepth
				return p
			},
		},
		{
			Name:       "vb",
			Extensions: []string{".vb", ".bas", ".vbs"},
			NewTokenizer: func() lexer.Tokenizer {
				return lexer.NewBasic(vbKeywords())
			},
			NewParser: func(maxDepth int) fold.Parser {
				p := fold.NewVBParser()
				p.MaxDepth = maxDepth
				return p
			},
		},
	}
}

// pythonDFA is built once; a DFA is read-only after construction.
var pythonDFA = sync.OnceValue(lexer.Python)

func markupTokenizer() lexer.Tokenizer {
	return lexer.NewMarkup()
}

// curly builds a brace-folding language from a scanner configuration.
func curly(name string, exts []string, cfg func() lexer.CLikeConfig, imports ...string) *Language {
	return &Language{
		Name:         name,
		Extensions:   exts,
		NewTokenizer: tokenizerOf(cfg),
		NewParser: func(maxDepth int) fold.Parser {
			p := fold.NewCurlyParser(imports...)
			p.MaxDepth = maxDepth
			return p
		},
	}
}

// withImportBlocks makes a brace language fold "import ( ... )" blocks.
func withImportBlocks(l *Language) *Language {
	newParser := l.NewParser
	l.NewParser = func(maxDepth int) fold.Parser {
		p := newParser(maxDepth).(*fold.CurlyParser)
		p.ImportBlocks = true
		return p
	}
	return l
}

func tokenizerOf(cfg func() lexer.CLikeConfig) func() lexer.Tokenizer {
	return func() lexer.Tokenizer {
		return lexer.NewCLike(cfg())
	}
}

var cTypes = []string{
	"char", "short", "int", "long", "float", "double", "void", "signed",
	"unsigned", "size_t", "bool", "_Bool",
}

func cConfig() lexer.CLikeConfig {
	kw := lexer.NewKeywordTable(false).
		Add(token.ReservedWord,
			"auto", "break", "case", "const", "continue", "default", "do", "else",
			"enum", "extern", "for", "goto", "if", "inline", "register", "restrict",
			"return", "sizeof", "static", "struct", "switch", "typedef", "union",
			"volatile", "while", "NULL",
			"#include", "#define", "#undef", "#if", "#ifdef", "#ifndef", "#else",
			"#elif", "#endif", "#pragma", "#error").
		Add(token.DataType, cTypes...).
		Add(token.LiteralBoolean, "true", "false")
	return lexer.CLikeConfig{
		LineComments:      []string{"//"},
		BlockCommentStart: "/*",
		BlockCommentEnd:   "*/",
		DocCommentStart:   "/**",
		Preprocessor:      true,
		NumberSuffixes:    "uUlLfF",
		Keywords:          kw,
	}
}

func cppConfig() lexer.CLikeConfig {
	cfg := cConfig()
	cfg.Keywords.
		Add(token.ReservedWord,
			"class", "namespace", "template", "typename", "public", "private",
			"protected", "virtual", "override", "final", "new", "delete", "this",
			"throw", "try", "catch", "using", "operator", "friend", "constexpr",
			"nullptr", "static_cast", "dynamic_cast", "reinterpret_cast",
			"const_cast", "noexcept", "explicit", "mutable").
		Add(token.DataType, "auto", "wchar_t", "char16_t", "char32_t", "string")
	return cfg
}

func javaConfig() lexer.CLikeConfig {
	kw := lexer.NewKeywordTable(false).
		Add(token.ReservedWord,
			"abstract", "assert", "break", "case", "catch", "class", "const",
			"continue", "default", "do", "else", "enum", "extends", "final",
			"finally", "for", "goto", "if", "implements", "import", "instanceof",
			"interface", "native", "new", "package", "private", "protected",
			"public", "return", "static", "strictfp", "super", "switch",
			"synchronized", "this", "throw", "throws", "transient", "try",
			"volatile", "while", "var", "record", "null").
		Add(token.DataType,
			"boolean", "byte", "char", "short", "int", "long", "float", "double",
			"void", "String", "Object").
		Add(token.LiteralBoolean, "true", "false")
	return lexer.CLikeConfig{
		LineComments:      []string{"//"},
		BlockCommentStart: "/*",
		BlockCommentEnd:   "*/",
		DocCommentStart:   "/**",
		Annotations:       true,
		DollarIdentifiers: true,
		NumberSuffixes:    "lLfFdD",
		Keywords:          kw,
	}
}

func javascriptConfig() lexer.CLikeConfig {
	kw := lexer.NewKeywordTable(false).
		Add(token.ReservedWord,
			"async", "await", "break", "case", "catch", "class", "const",
			"continue", "debugger", "default", "delete", "do", "else", "export",
			"extends", "finally", "for", "from", "function", "if", "import", "in",
			"instanceof", "let", "new", "of", "return", "static", "super",
			"switch", "this", "throw", "try", "typeof", "var", "void", "while",
			"with", "yield", "null", "undefined").
		Add(token.LiteralBoolean, "true", "false").
		Add(token.FunctionName, "console", "require")
	return lexer.CLikeConfig{
		LineComments:       []string{"//"},
		BlockCommentStart:  "/*",
		BlockCommentEnd:    "*/",
		DocCommentStart:    "/**",
		RawStringQuote:     '`',
		SingleQuoteStrings: true,
		DollarIdentifiers:  true,
		NumberSuffixes:     "n",
		Keywords:           kw,
	}
}

func goConfig() lexer.CLikeConfig {
	kw := lexer.NewKeywordTable(false).
		Add(token.ReservedWord,
			"break", "case", "chan", "const", "continue", "default", "defer",
			"else", "fallthrough", "for", "func", "go", "goto", "if", "import",
			"interface", "map", "package", "range", "return", "select", "struct",
			"switch", "type", "var", "nil", "iota").
		Add(token.DataType,
			"bool", "byte", "complex64", "complex128", "error", "float32",
			"float64", "int", "int8", "int16", "int32", "int64", "rune", "string",
			"uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "any").
		Add(token.FunctionName,
			"append", "cap", "clear", "close", "copy", "delete", "len", "make",
			"max", "min", "new", "panic", "print", "println", "recover").
		Add(token.LiteralBoolean, "true", "false")
	return lexer.CLikeConfig{
		LineComments:      []string{"//"},
		BlockCommentStart: "/*",
		BlockCommentEnd:   "*/",
		RawStringQuote:    '`',
		NumberSuffixes:    "i",
		Keywords:          kw,
	}
}

func cssConfig() lexer.CLikeConfig {
	kw := lexer.NewKeywordTable(true).
		Add(token.ReservedWord, "important", "inherit", "initial", "unset", "auto", "none")
	return lexer.CLikeConfig{
		BlockCommentStart:  "/*",
		BlockCommentEnd:    "*/",
		SingleQuoteStrings: true,
		Annotations:        true,
		NumberSuffixes:     "%abcdeghiklmnprstvwxz",
		Separators:         "(){}[];,.:",
		Operators:          "+-*/=>~|^$!#",
		Keywords:           kw,
	}
}

func jsonConfig() lexer.CLikeConfig {
	kw := lexer.NewKeywordTable(false).
		Add(token.LiteralBoolean, "true", "false").
		Add(token.ReservedWord, "null")
	return lexer.CLikeConfig{
		Separators: "{}[],:",
		Operators:  "-+",
		Keywords:   kw,
	}
}

func vbKeywords() *lexer.KeywordTable {
	return lexer.NewKeywordTable(true).
		Add(token.ReservedWord,
			"AddHandler", "AddressOf", "Alias", "And", "AndAlso", "As", "ByRef",
			"ByVal", "Call", "Case", "Catch", "Class", "Const", "Continue",
			"Declare", "Default", "Delegate", "Dim", "Do", "Each", "Else",
			"ElseIf", "End", "Enum", "Erase", "Error", "Event", "Exit", "Finally",
			"For", "Friend", "Function", "Get", "GoTo", "Handles", "If",
			"Implements", "Imports", "In", "Inherits", "Interface", "Is", "IsNot",
			"Let", "Lib", "Like", "Loop", "Me", "Mod", "Module", "MustInherit",
			"MustOverride", "MyBase", "Namespace", "Narrowing", "New", "Next",
			"Not", "Nothing", "NotInheritable", "NotOverridable", "Of", "On",
			"Operator", "Option", "Optional", "Or", "OrElse", "Overloads",
			"Overridable", "Overrides", "ParamArray", "Partial", "Private",
			"Property", "Protected", "Public", "RaiseEvent", "ReadOnly", "ReDim",
			"RemoveHandler", "Resume", "Return", "Select", "Set", "Shadows",
			"Shared", "Static", "Step", "Stop", "Structure", "Sub", "SyncLock",
			"Then", "Throw", "To", "Try", "TypeOf", "Until", "Using", "Wend",
			"When", "While", "Widening", "With", "WithEvents", "WriteOnly", "Xor").
		Add(token.DataType,
			"Boolean", "Byte", "Char", "Date", "Decimal", "Double", "Integer",
			"Long", "Object", "SByte", "Short", "Single", "String", "UInteger",
			"ULong", "UShort", "Variant").
		Add(token.LiteralBoolean, "True", "False")
}
