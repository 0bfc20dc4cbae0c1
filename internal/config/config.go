package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the lexfold configuration.
type Config struct {
	Folding   FoldingConfig   `toml:"folding"`
	Logging   LoggingConfig   `toml:"logging"`
	Languages LanguagesConfig `toml:"languages"`
}

// FoldingConfig configures fold managers.
type FoldingConfig struct {
	// Enabled turns folding on for new documents.
	Enabled bool `toml:"enabled"`

	// Debounce is the delay between the last edit and the reparse.
	Debounce Duration `toml:"debounce"`

	// MaxDepth bounds fold nesting.
	MaxDepth int `toml:"max_depth"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LanguagesConfig configures the language registry.
type LanguagesConfig struct {
	// DefinitionsDir holds user language definitions. A leading "~" is
	// expanded to the home directory.
	DefinitionsDir string `toml:"definitions_dir"`

	// Extensions maps file extensions to language names, overriding the
	// languages' own extensions.
	Extensions map[string]string `toml:"extensions"`
}

// Duration is a time.Duration written as a string such as "150ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default values.
const (
	DefaultDebounce = 150 * time.Millisecond
	DefaultMaxDepth = 256
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Folding: FoldingConfig{
			Enabled:  true,
			Debounce: Duration(DefaultDebounce),
			MaxDepth: DefaultMaxDepth,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration at path on top of Default. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data)
}

// LoadFromReader reads the configuration from r.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse("<reader>", data)
}

// Parse decodes TOML data on top of Default and validates the result.
// Source names the data in errors.
func Parse(source string, data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, tomlParseError(source, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

// tomlParseError converts a go-toml error to a ParseError, keeping the
// position when the decoder reports one.
func tomlParseError(source string, err error) error {
	pe := &ParseError{Path: source, Message: err.Error(), Err: err}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		pe.Line, pe.Column = de.Position()
	}
	return pe
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Folding.Debounce < 0 {
		errs = append(errs, invalid("folding.debounce", "must not be negative", c.Folding.Debounce.Std()))
	}
	if c.Folding.MaxDepth < 1 {
		errs = append(errs, invalid("folding.max_depth", "must be at least 1", c.Folding.MaxDepth))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, invalid("logging.level", "must be debug, info, warn or error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, invalid("logging.format", "must be console or json", c.Logging.Format))
	}
	for ext, name := range c.Languages.Extensions {
		if name == "" {
			errs = append(errs, invalid("languages.extensions."+ext, "language name is empty", nil))
		}
	}
	return errors.Join(errs...)
}

func invalid(path, msg string, value any) error {
	return &ValidationError{Path: path, Message: msg, Value: value, Sentinel: ErrInvalidConfig}
}

// DefinitionsPath returns the definitions directory with "~" expanded, or
// "" if none is configured.
func (c *Config) DefinitionsPath() string {
	dir := c.Languages.DefinitionsDir
	if dir == "" {
		return ""
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lexfold", "config.toml")
}
