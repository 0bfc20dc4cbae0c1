package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable ApplyEnv reads.
const EnvPrefix = "LEXFOLD_"

// envSetter applies one environment value to a config.
type envSetter func(c *Config, value string) error

// envMapping maps variable names (without prefix) to the setting they
// override.
var envMapping = map[string]envSetter{
	"FOLDING_ENABLED": func(c *Config, v string) error {
		b, err := parseEnvBool(v)
		c.Folding.Enabled = b
		return err
	},
	"FOLDING_DEBOUNCE": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.Folding.Debounce = Duration(d)
		return err
	},
	"FOLDING_MAX_DEPTH": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Folding.MaxDepth = n
		return err
	},
	"LOG_LEVEL": func(c *Config, v string) error {
		c.Logging.Level = v
		return nil
	},
	"LOG_FORMAT": func(c *Config, v string) error {
		c.Logging.Format = v
		return nil
	},
	"DEFINITIONS_DIR": func(c *Config, v string) error {
		c.Languages.DefinitionsDir = v
		return nil
	},
}

// EnvVars returns the names of the variables ApplyEnv reads, sorted.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, EnvPrefix+name)
	}
	sort.Strings(names)
	return names
}

// ApplyEnv overrides c with the LEXFOLD_ variables that lookup finds and
// validates the result. A nil lookup reads the process environment.
// Empty values are treated as set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []error
	for _, name := range EnvVars() {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		set := envMapping[strings.TrimPrefix(name, EnvPrefix)]
		if err := set(c, strings.TrimSpace(value)); err != nil {
			errs = append(errs, &ValidationError{
				Path:     name,
				Message:  fmt.Sprintf("cannot parse %q", value),
				Sentinel: ErrInvalidConfig,
			})
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return c.Validate()
}

// parseEnvBool accepts the usual spellings of true and false.
func parseEnvBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
