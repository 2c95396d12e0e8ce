package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
)

// Config represents the factcheck configuration
type Config struct {
	// Output is console, json, junit or tap.
	Output          string         `json:"output,omitempty"`
	OutputFile      string         `json:"outputFile,omitempty"`
	// Matcher is regexp or glob.
	Matcher         string         `json:"matcher,omitempty"`
	Parallel        *bool          `json:"parallel,omitempty"`
	Concurrency     int            `json:"concurrency,omitempty"`
	Bail            *bool          `json:"bail,omitempty"`
	Verbose         *bool          `json:"verbose,omitempty"`
	NoColor         *bool          `json:"noColor,omitempty"`
	UpdateSnapshots *bool          `json:"updateSnapshots,omitempty"`
	History         *bool          `json:"history,omitempty"`
	HistoryPath     string         `json:"historyPath,omitempty"`
	EnvFile         string         `json:"envFile,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	// Variables override the variables of every case file.
	Variables       map[string]any `json:"variables,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetParallel returns the parallel setting, defaulting to false
func (c *Config) GetParallel() bool {
	return getBool(c.Parallel, false)
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetUpdateSnapshots returns the update snapshots setting, defaulting to false
func (c *Config) GetUpdateSnapshots() bool {
	return getBool(c.UpdateSnapshots, false)
}

// GetHistory returns whether runs are recorded, defaulting to false
func (c *Config) GetHistory() bool {
	return getBool(c.History, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".factcheck.json",
	"factcheck.config.json",
	".factcheckrc",
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Output:      "console",
		Matcher:     "regexp",
		Concurrency: 5,
		HistoryPath: ".factcheck/history.db",
	}
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Output {
	case "", "console", "json", "junit", "tap":
	default:
		return fmt.Errorf("unknown output %q", c.Output)
	}
	switch c.Matcher {
	case "", "regexp", "glob":
	default:
		return fmt.Errorf("unknown matcher %q", c.Matcher)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0, got %d", c.Concurrency)
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Output != "" {
		result.Output = other.Output
	}
	if other.OutputFile != "" {
		result.OutputFile = other.OutputFile
	}
	if other.Matcher != "" {
		result.Matcher = other.Matcher
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.HistoryPath != "" {
		result.HistoryPath = other.HistoryPath
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Parallel != nil {
		result.Parallel = other.Parallel
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.UpdateSnapshots != nil {
		result.UpdateSnapshots = other.UpdateSnapshots
	}
	if other.History != nil {
		result.History = other.History
	}

	if len(other.Tags) > 0 {
		result.Tags = other.Tags
	}
	if len(other.Variables) > 0 {
		result.Variables = make(map[string]any, len(c.Variables)+len(other.Variables))
		maps.Copy(result.Variables, c.Variables)
		maps.Copy(result.Variables, other.Variables)
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
