package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxSearchLimit is the fixed upper bound on a search limit.
const MaxSearchLimit = 1000

// ProjectConfigFile is the per-directory configuration file name.
const ProjectConfigFile = ".cuse.yaml"

// Config represents the complete cuse configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Loader  LoaderConfig  `yaml:"loader" json:"loader"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig selects and locates the document index.
type IndexConfig struct {
	// Backend selects the index backend.
	// Options: "sqlite" (default, multi-process via WAL) or "bleve" (single-process)
	Backend string `yaml:"backend" json:"backend"`

	// DataDir is where index files and the record database live.
	// Default: ~/.cuse/data
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// SearchConfig configures search defaults.
type SearchConfig struct {
	// DefaultLimit is used when a search does not set a limit.
	// 0 means the index default.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// MaxLimit is the largest accepted limit. It cannot exceed MaxSearchLimit.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
}

// LoaderConfig configures entity hydration.
type LoaderConfig struct {
	// CacheSize is the number of hydrated entities kept in the LRU cache.
	// 0 disables caching.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// Workers bounds concurrent per-id fetches.
	Workers int `yaml:"workers" json:"workers"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`

	// File is the log file path. Empty disables file logging.
	File string `yaml:"file" json:"file"`

	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`

	// MaxFiles is the number of rotated files kept.
	MaxFiles int `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Backend: "sqlite",
			DataDir: defaultDataDir(),
		},
		Search: SearchConfig{
			DefaultLimit: 20,
			MaxLimit:     MaxSearchLimit,
		},
		Loader: LoaderConfig{
			CacheSize: 1000,
			Workers:   8,
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// defaultDataDir returns ~/.cuse/data.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".cuse", "data")
	}
	return filepath.Join(home, ".cuse", "data")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/cuse/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/cuse/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cuse", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "cuse", "config.yaml")
	}
	return filepath.Join(home, ".config", "cuse", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the given working directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config ($XDG_CONFIG_HOME/cuse/config.yaml)
//  3. Project config (.cuse.yaml in dir)
//  4. Environment variables (CUSE_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if path := filepath.Join(dir, ProjectConfigFile); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Index.Backend != "" {
		c.Index.Backend = other.Index.Backend
	}
	if other.Index.DataDir != "" {
		c.Index.DataDir = expandHome(other.Index.DataDir)
	}

	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.MaxLimit != 0 {
		c.Search.MaxLimit = other.Search.MaxLimit
	}

	if other.Loader.CacheSize != 0 {
		c.Loader.CacheSize = other.Loader.CacheSize
	}
	if other.Loader.Workers != 0 {
		c.Loader.Workers = other.Loader.Workers
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = expandHome(other.Logging.File)
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// envInt reads an integer environment variable into dst.
func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	*dst = n
	return nil
}

// applyEnvOverrides applies CUSE_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("CUSE_INDEX_BACKEND"); v != "" {
		c.Index.Backend = v
	}
	if v := os.Getenv("CUSE_DATA_DIR"); v != "" {
		c.Index.DataDir = expandHome(v)
	}
	if v := os.Getenv("CUSE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CUSE_LOG_FILE"); v != "" {
		c.Logging.File = expandHome(v)
	}

	for name, dst := range map[string]*int{
		"CUSE_DEFAULT_LIMIT":     &c.Search.DefaultLimit,
		"CUSE_MAX_LIMIT":         &c.Search.MaxLimit,
		"CUSE_LOADER_CACHE_SIZE": &c.Loader.CacheSize,
		"CUSE_LOADER_WORKERS":    &c.Loader.Workers,
	} {
		if err := envInt(name, dst); err != nil {
			return err
		}
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	validBackends := map[string]bool{"sqlite": true, "bleve": true}
	if !validBackends[strings.ToLower(c.Index.Backend)] {
		return fmt.Errorf("index.backend must be 'sqlite' or 'bleve', got %s", c.Index.Backend)
	}

	if c.Search.MaxLimit <= 0 || c.Search.MaxLimit > MaxSearchLimit {
		return fmt.Errorf("search.max_limit must be between 1 and %d, got %d", MaxSearchLimit, c.Search.MaxLimit)
	}
	if c.Search.DefaultLimit < 0 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit must be between 0 and %d, got %d", c.Search.MaxLimit, c.Search.DefaultLimit)
	}

	if c.Loader.CacheSize < 0 {
		return fmt.Errorf("loader.cache_size must be non-negative, got %d", c.Loader.CacheSize)
	}
	if c.Loader.Workers < 0 {
		return fmt.Errorf("loader.workers must be non-negative, got %d", c.Loader.Workers)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
