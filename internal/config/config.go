package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/quocvuong92/cmd-sage/internal/constants"
)

// Environment variable names
const (
	EnvProvider      = "CMD_SAGE_PROVIDER"
	EnvModel         = "CMD_SAGE_MODEL"
	EnvDefaultAction = "CMD_SAGE_DEFAULT_ACTION"
	EnvTheme         = "CMD_SAGE_THEME"
)

// Defaults - re-exported from constants for convenience
const (
	DefaultProvider = constants.DefaultProvider
	DefaultModel    = constants.DefaultModel
	DefaultTarget   = constants.DefaultTarget
	DefaultTheme    = constants.DefaultTheme
)

// ActionNames lists the values accepted for default_action.
var ActionNames = []string{"run", "revise", "explain", "copy", "cancel"}

// Targets lists the command families suggest can generate for.
var Targets = []string{"shell", "git", "gh"}

// ConfigError reports a config file that could not be read, parsed, validated
// or written.
type ConfigError struct {
	Path string
	Op   string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config holds the session configuration. It is read once at startup and
// passed explicitly to the components that need it.
type Config struct {
	Provider string
	Model    string
	// DefaultAction, when set, answers the action prompt without asking.
	DefaultAction string
	// Theme names the chroma style used for command highlighting.
	Theme  string
	Target string

	// Path is the file the values were read from, empty when none existed.
	Path string
}

// NewConfig returns a Config populated with defaults only.
func NewConfig() *Config {
	return &Config{
		Provider: DefaultProvider,
		Model:    DefaultModel,
		Theme:    DefaultTheme,
		Target:   DefaultTarget,
	}
}

// Load reads the first config file found on the search path, then applies
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	cfg := NewConfig()

	fc, path, err := LoadConfigFile()
	if err != nil {
		return nil, err
	}
	cfg.ApplyFileConfig(fc)
	cfg.Path = path

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvProvider)); v != "" {
		c.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvModel)); v != "" {
		c.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultAction)); v != "" {
		c.DefaultAction = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		c.Theme = v
	}
}

// Validate checks the enumerated fields. Provider ids are checked later by
// the provider registry so that the error names the offending provider.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return &ConfigError{Path: c.Path, Op: "validate", Err: fmt.Errorf("provider is empty")}
	}
	if c.Model == "" {
		return &ConfigError{Path: c.Path, Op: "validate", Err: fmt.Errorf("model is empty")}
	}
	if c.DefaultAction != "" && !slices.Contains(ActionNames, c.DefaultAction) {
		return &ConfigError{Path: c.Path, Op: "validate", Err: fmt.Errorf("unknown default_action %q (want one of %s)", c.DefaultAction, strings.Join(ActionNames, ", "))}
	}
	if c.Target != "" && !slices.Contains(Targets, c.Target) {
		return &ConfigError{Path: c.Path, Op: "validate", Err: fmt.Errorf("unknown target %q (want one of %s)", c.Target, strings.Join(Targets, ", "))}
	}
	return nil
}
