package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/quocvuong92/cmd-sage/internal/constants"
	"github.com/quocvuong92/cmd-sage/internal/fileutil"
)

// ConfigFileName is the name of the config file
const ConfigFileName = constants.ConfigFileName

// FileConfig represents the configuration file structure
type FileConfig struct {
	Provider      string `yaml:"provider,omitempty"`
	Model         string `yaml:"model,omitempty"`
	DefaultAction string `yaml:"default_action,omitempty"`
	Theme         string `yaml:"theme,omitempty"`
	Target        string `yaml:"target,omitempty"`
}

// GetConfigPaths returns the paths to check for config files (in order of priority)
func GetConfigPaths() []string {
	var paths []string

	// 1. Current directory
	paths = append(paths, filepath.Join(".", "."+constants.AppName, ConfigFileName))

	// 2. User config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, constants.AppName, ConfigFileName))
	}

	// 3. Home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", constants.AppName, ConfigFileName))
	}

	return paths
}

// UserConfigPath is where Save writes.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "", &ConfigError{Op: "locate", Err: fmt.Errorf("could not determine config directory: %w", err)}
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, constants.AppName, ConfigFileName), nil
}

// StateDir holds credentials and the model catalog cache. It is kept apart
// from the config directory because it carries secrets.
func StateDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, constants.AppName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "state", constants.AppName), nil
}

// LoadConfigFile loads the first config file that exists and returns it with
// its path. When none exists it returns an empty FileConfig and "".
func LoadConfigFile() (*FileConfig, string, error) {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			fc, err := loadConfigFromPath(path)
			return fc, path, err
		}
	}
	return &FileConfig{}, "", nil
}

func loadConfigFromPath(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Op: "read", Err: err}
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, &ConfigError{Path: path, Op: "parse", Err: err}
	}

	return &fc, nil
}

// ApplyFileConfig copies the non-empty file values over c.
func (c *Config) ApplyFileConfig(fc *FileConfig) {
	if fc == nil {
		return
	}
	if fc.Provider != "" {
		c.Provider = fc.Provider
	}
	if fc.Model != "" {
		c.Model = fc.Model
	}
	if fc.DefaultAction != "" {
		c.DefaultAction = fc.DefaultAction
	}
	if fc.Theme != "" {
		c.Theme = fc.Theme
	}
	if fc.Target != "" {
		c.Target = fc.Target
	}
}

// Save validates c and writes it atomically to the user config path,
// returning that path.
func Save(c *Config) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	path, err := UserConfigPath()
	if err != nil {
		return "", err
	}

	fc := FileConfig{
		Provider:      c.Provider,
		Model:         c.Model,
		DefaultAction: c.DefaultAction,
		Theme:         c.Theme,
	}
	if c.Target != DefaultTarget {
		fc.Target = c.Target
	}
	if fc.Theme == DefaultTheme {
		fc.Theme = ""
	}

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return "", &ConfigError{Path: path, Op: "encode", Err: err}
	}
	data = append([]byte("# "+constants.AppName+" configuration, written by '"+constants.AppName+" configure'\n"), data...)

	if err := fileutil.WriteFileAtomic(path, data, 0644, 0755); err != nil {
		return "", &ConfigError{Path: path, Op: "write", Err: err}
	}
	return path, nil
}
