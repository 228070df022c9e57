package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/runger/cmdbook/internal/textmatch"
)

// ErrUnknownKey is returned by Get and Set for keys that do not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Config represents the cmdbook configuration.
type Config struct {
	Search     SearchConfig     `yaml:"search" toml:"search"`
	Logs       LogsConfig       `yaml:"logs" toml:"logs"`
	Completion CompletionConfig `yaml:"completion" toml:"completion"`
	Tuning     ScoringConfig    `yaml:"tuning" toml:"tuning"`
}

// SearchConfig holds search and picker settings.
type SearchConfig struct {
	Mode          string `yaml:"mode" toml:"mode"`                     // auto, fuzzy, regex, exact, relaxed
	Limit         int    `yaml:"limit" toml:"limit"`                   // Max results shown
	DebounceMs    int    `yaml:"debounce_ms" toml:"debounce_ms"`       // Picker keystroke debounce
	AliasShortcut bool   `yaml:"alias_shortcut" toml:"alias_shortcut"` // Exact alias match returns only that command
	CandidateCap  int    `yaml:"candidate_cap" toml:"candidate_cap"`   // Max rows pulled from storage per search
}

// LogsConfig holds logging settings.
type LogsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Level   string `yaml:"level" toml:"level"` // debug, info, warn, error
	File    string `yaml:"file" toml:"file"`   // Log file path (overrides default)
}

// CompletionConfig holds dynamic completion settings.
type CompletionConfig struct {
	TimeoutMs    int    `yaml:"timeout_ms" toml:"timeout_ms"`         // Per-command timeout
	Shell        string `yaml:"shell" toml:"shell"`                   // Shell used to run providers
	CacheTTLSecs int    `yaml:"cache_ttl_secs" toml:"cache_ttl_secs"` // 0 disables caching
	CacheSize    int    `yaml:"cache_size" toml:"cache_size"`
	Concurrency  int    `yaml:"concurrency" toml:"concurrency"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Mode:          textmatch.ModeAuto.String(),
			Limit:         50,
			DebounceMs:    80,
			AliasShortcut: true,
			CandidateCap:  2000,
		},
		Logs: LogsConfig{
			Enabled: false,
			Level:   "info",
		},
		Completion: CompletionConfig{
			TimeoutMs:    10000,
			Shell:        "sh",
			CacheTTLSecs: 30,
			CacheSize:    64,
			Concurrency:  4,
		},
		Tuning: DefaultScoringConfig(),
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file, in TOML when the
// path ends in .toml and YAML otherwise.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SearchMode returns the parsed default search mode.
func (c *Config) SearchMode() textmatch.Mode {
	mode, err := textmatch.ParseMode(c.Search.Mode)
	if err != nil {
		return textmatch.ModeAuto
	}
	return mode
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := textmatch.ParseMode(c.Search.Mode); err != nil {
		return fmt.Errorf("search.mode: %w", err)
	}

	if c.Search.Limit < 0 {
		return errors.New("search.limit must be >= 0")
	}

	if c.Search.DebounceMs < 0 {
		return errors.New("search.debounce_ms must be >= 0")
	}

	if c.Search.CandidateCap < 0 {
		return errors.New("search.candidate_cap must be >= 0")
	}

	if !isValidLogLevel(c.Logs.Level) {
		return fmt.Errorf("logs.level must be debug, info, warn, or error (got: %s)", c.Logs.Level)
	}

	if c.Completion.TimeoutMs < 0 {
		return errors.New("completion.timeout_ms must be >= 0")
	}

	if c.Completion.CacheTTLSecs < 0 {
		return errors.New("completion.cache_ttl_secs must be >= 0")
	}

	if c.Completion.Shell == "" {
		c.Completion.Shell = "sh"
	}

	if c.Completion.Concurrency < 1 {
		c.Completion.Concurrency = 1
	}

	// Tuning never fails validation; bad values fall back to defaults.
	c.Tuning.ValidateAndFix()

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CMDBOOK_SEARCH_MODE"); v != "" {
		if _, err := textmatch.ParseMode(v); err == nil {
			c.Search.Mode = strings.ToLower(v)
		}
	}
	if v := os.Getenv("CMDBOOK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Logs.Enabled = true
			c.Logs.Level = "debug"
		}
	}
	if v := os.Getenv("CMDBOOK_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Logs.Enabled = true
			c.Logs.Level = v
		}
	}
	if v := os.Getenv("CMDBOOK_LOG_FILE"); v != "" {
		c.Logs.File = v
	}
}
