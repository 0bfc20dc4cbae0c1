// Package config loads lexfold settings and user language definitions.
//
// Settings live in a TOML file:
//
//	[folding]
//	enabled = true
//	debounce = "150ms"
//	max_depth = 256
//
//	[logging]
//	level = "info"
//	format = "console"
//
//	[languages]
//	definitions_dir = "~/.config/lexfold/languages"
//
//	[languages.extensions]
//	".h" = "cpp"
//
// A missing file yields Default(). ApplyEnv then overrides settings from
// LEXFOLD_ environment variables such as LEXFOLD_LOG_LEVEL.
//
// # Language definitions
//
// A definition describes a brace- or indentation-structured language in
// terms of the C-like tokenizer's options. Definitions are read from YAML,
// TOML or Lua files; a Lua file runs in a sandbox with only the base,
// table and string libraries and must return a table:
//
//	return {
//	  name = "toy",
//	  extensions = { ".toy" },
//	  line_comments = { "--" },
//	  keywords = { ["reserved-word"] = { "if", "end" } },
//	}
//
// LoadDefinitions reads every definition in a directory and
// WatchDefinitions reloads them when the directory changes.
package config
