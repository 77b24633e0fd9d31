package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty temp dir and clears CUSE_* vars.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{
		"CUSE_INDEX_BACKEND", "CUSE_DATA_DIR", "CUSE_LOG_LEVEL", "CUSE_LOG_FILE",
		"CUSE_DEFAULT_LIMIT", "CUSE_MAX_LIMIT", "CUSE_LOADER_CACHE_SIZE", "CUSE_LOADER_WORKERS",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "sqlite", cfg.Index.Backend)
	assert.True(t, filepath.IsAbs(cfg.Index.DataDir))
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, MaxSearchLimit, cfg.Search.MaxLimit)
	assert.Equal(t, 1000, cfg.Loader.CacheSize)
	assert.Equal(t, 8, cfg.Loader.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	// Given: user config, project config and env each set something
	isolate(t)
	xdg := os.Getenv("XDG_CONFIG_HOME")
	writeFile(t, filepath.Join(xdg, "cuse", "config.yaml"), `
index:
  backend: bleve
  data_dir: /user/data
loader:
  workers: 2
`)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), `
index:
  data_dir: /project/data
search:
  default_limit: 50
`)
	t.Setenv("CUSE_LOADER_WORKERS", "16")

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: later layers win, untouched values fall through
	assert.Equal(t, "bleve", cfg.Index.Backend)
	assert.Equal(t, "/project/data", cfg.Index.DataDir)
	assert.Equal(t, 50, cfg.Search.DefaultLimit)
	assert.Equal(t, 16, cfg.Loader.Workers)
	assert.Equal(t, 1000, cfg.Loader.CacheSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CUSE_INDEX_BACKEND", "bleve")
	t.Setenv("CUSE_DATA_DIR", "/env/data")
	t.Setenv("CUSE_LOG_LEVEL", "debug")
	t.Setenv("CUSE_MAX_LIMIT", "500")
	t.Setenv("CUSE_LOADER_CACHE_SIZE", "0")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "bleve", cfg.Index.Backend)
	assert.Equal(t, "/env/data", cfg.Index.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 500, cfg.Search.MaxLimit)
	assert.Equal(t, 0, cfg.Loader.CacheSize)
}

func TestLoad_InvalidEnvInteger(t *testing.T) {
	isolate(t)
	t.Setenv("CUSE_LOADER_WORKERS", "many")

	_, err := Load(t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUSE_LOADER_WORKERS")
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), "index: [unclosed")

	_, err := Load(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_InvalidValueFailsValidation(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigFile), "search:\n  max_limit: 5000\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_ExpandsHome(t *testing.T) {
	isolate(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("CUSE_DATA_DIR", "~/somewhere")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "somewhere"), cfg.Index.DataDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "bleve backend", mutate: func(c *Config) { c.Index.Backend = "bleve" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Index.Backend = "elastic" }, wantErr: "index.backend"},
		{name: "max limit above bound", mutate: func(c *Config) { c.Search.MaxLimit = 1001 }, wantErr: "search.max_limit"},
		{name: "zero max limit", mutate: func(c *Config) { c.Search.MaxLimit = 0 }, wantErr: "search.max_limit"},
		{name: "default above max", mutate: func(c *Config) { c.Search.MaxLimit = 10; c.Search.DefaultLimit = 11 }, wantErr: "search.default_limit"},
		{name: "negative default", mutate: func(c *Config) { c.Search.DefaultLimit = -1 }, wantErr: "search.default_limit"},
		{name: "negative cache", mutate: func(c *Config) { c.Loader.CacheSize = -1 }, wantErr: "loader.cache_size"},
		{name: "negative workers", mutate: func(c *Config) { c.Loader.Workers = -1 }, wantErr: "loader.workers"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "log level case-insensitive", mutate: func(c *Config) { c.Logging.Level = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	isolate(t)

	// Given: a customized config written to a project file
	cfg := NewConfig()
	cfg.Index.Backend = "bleve"
	cfg.Search.DefaultLimit = 7
	dir := t.TempDir()
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectConfigFile)))

	// When: loading it back
	loaded, err := Load(dir)

	// Then: values survive
	require.NoError(t, err)
	assert.Equal(t, "bleve", loaded.Index.Backend)
	assert.Equal(t, 7, loaded.Search.DefaultLimit)
}

func TestGetUserConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "cuse", "config.yaml"), GetUserConfigPath())
}
