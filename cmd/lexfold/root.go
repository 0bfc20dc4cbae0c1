package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/lexfold/internal/config"
	"github.com/dshills/lexfold/internal/document"
	"github.com/dshills/lexfold/internal/language"
	"github.com/dshills/lexfold/internal/logging"
	"github.com/dshills/lexfold/internal/syntax/fold"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	langName   string
	logLevel   string
}

// env is the state shared by subcommands after configuration is loaded.
type env struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *language.Registry
	opts     *rootOptions
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "lexfold",
		Short: "Tokenize source files and compute their fold regions",
		Long: `lexfold runs the incremental tokenizers and fold parsers on files.

Examples:
  lexfold tokens main.go
  lexfold folds --lang python script
  lexfold view --collapse comment,imports Main.java
  lexfold langs

Settings from the config file can be overridden with LEXFOLD_LOG_LEVEL,
LEXFOLD_FOLDING_MAX_DEPTH and the other LEXFOLD_ variables.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/lexfold/config.toml)")
	flags.StringVarP(&opts.langName, "lang", "l", "", "language name, overriding detection by extension")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newTokensCmd(opts),
		newFoldsCmd(opts),
		newViewCmd(opts),
		newLangsCmd(opts),
	)
	return cmd
}

// setup loads configuration, builds the logger and the language registry.
func setup(cmd *cobra.Command, opts *rootOptions) (*env, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	levelName := cfg.Logging.Level
	if opts.logLevel != "" {
		levelName = opts.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
		Name:   "lexfold",
	})

	e := &env{cfg: cfg, logger: logger, opts: opts}
	e.registry, err = e.buildRegistry(cfg.DefinitionsPath())
	if err != nil {
		return nil, err
	}
	return e, nil
}

// buildRegistry returns the built-in languages plus those defined in dir.
// Broken definition files are logged and skipped.
func (e *env) buildRegistry(dir string) (*language.Registry, error) {
	var defs []*config.Definition
	if dir != "" {
		var err error
		defs, err = config.LoadDefinitions(dir)
		if err != nil {
			e.logger.Warn("some language definitions failed to load", zap.String("dir", dir), zap.Error(err))
		}
		e.logger.Debug("language definitions loaded", zap.String("dir", dir), zap.Int("count", len(defs)))
	}
	return e.registryFrom(defs)
}

// registryFrom registers defs over the built-in languages and applies the
// configured extension overrides.
func (e *env) registryFrom(defs []*config.Definition) (*language.Registry, error) {
	reg := language.Builtins()
	if err := reg.RegisterDefinitions(defs); err != nil {
		e.logger.Warn("some language definitions were rejected", zap.Error(err))
	}
	if err := reg.ApplyExtensions(e.cfg.Languages.Extensions); err != nil {
		return nil, fmt.Errorf("applying extension overrides: %w", err)
	}
	return reg, nil
}

// resolve picks the language for path.
func (e *env) resolve(path string) (*language.Language, error) {
	if e.opts.langName != "" {
		l, ok := e.registry.ByName(e.opts.langName)
		if !ok {
			return nil, fmt.Errorf("%w: %s", language.ErrUnknownLanguage, e.opts.langName)
		}
		return l, nil
	}
	l, ok := e.registry.ForFile(path)
	if !ok {
		return nil, fmt.Errorf("%w for %s (use --lang)", language.ErrUnknownLanguage, path)
	}
	return l, nil
}

// open reads path into a document.
func (e *env) open(path string) (*document.Document, error) {
	l, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	e.logger.Debug("opening file", zap.String("path", path), zap.String("language", l.Name))
	return document.New(l, string(data),
		document.WithLogger(e.logger),
		document.WithMaxDepth(e.cfg.Folding.MaxDepth),
		document.WithFoldOptions(
			fold.WithEnabled(e.cfg.Folding.Enabled),
			fold.WithDebounce(e.cfg.Folding.Debounce.Std()),
		),
	)
}
