package jsonschema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Draft7, cfg.Loader.DefaultVersion)
	assert.Equal(t, 12, cfg.Validator.MultipleOfPrecision)
	assert.True(t, cfg.Fetch.HTTP.Enabled)
	assert.False(t, cfg.Loader.StrictRefSiblings)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"unknown default draft", func(c *Config) { c.Loader.DefaultVersion = DraftUnknown }, "loader.defaultVersion"},
		{"unknown strict draft", func(c *Config) { c.Loader.StrictVersions = []Draft{Draft4, DraftUnknown} }, "loader.strictVersions"},
		{"zero precision", func(c *Config) { c.Validator.MultipleOfPrecision = 0 }, "validator.multipleOfPrecision"},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch.timeout"},
		{"http without body limit", func(c *Config) { c.Fetch.HTTP.MaxBodyBytes = 0 }, "fetch.http.maxBodyBytes"},
		{"postgres without dsn", func(c *Config) { c.Fetch.Postgres.Enabled = true }, "fetch.postgres.dsn"},
		{"sql without dsn", func(c *Config) { c.Fetch.SQL.Enabled = true }, "fetch.sql"},
		{"directory without root", func(c *Config) { c.Fetch.Directory.Enabled = true }, "fetch.directory.root"},
		{"negative breaker threshold", func(c *Config) { c.Fetch.CircuitBreaker.Threshold = -1 }, "fetch.circuitBreaker.threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoaderConfigIsStrict(t *testing.T) {
	cfg := LoaderConfig{StrictVersions: []Draft{Draft3, Draft4}}
	assert.True(t, cfg.IsStrict(Draft4))
	assert.False(t, cfg.IsStrict(Draft7))
	assert.False(t, LoaderConfig{}.IsStrict(Draft3))
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
loader:
  defaultVersion: draft-4
  strictVersions: [draft-3, "7"]
  strictRefSiblings: true
validator:
  multipleOfPrecision: 8
  assertFormats: false
fetch:
  timeout: 3s
  http:
    enabled: false
  directory:
    enabled: true
    root: /srv/schemas
    baseUri: https://schemas.example.com/
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, Draft4, cfg.Loader.DefaultVersion)
	assert.Equal(t, []Draft{Draft3, Draft7}, cfg.Loader.StrictVersions)
	assert.True(t, cfg.Loader.StrictRefSiblings)
	assert.Equal(t, 8, cfg.Validator.MultipleOfPrecision)
	assert.False(t, cfg.Validator.AssertFormats)
	assert.True(t, cfg.Validator.CacheValidators, "unset fields keep their defaults")
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Fetch.HTTP.Enabled)
	assert.Equal(t, "/srv/schemas", cfg.Fetch.Directory.Root)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loader:\n  defaultVersion: draft-5\n"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validator:\n  multipleOfPrecision: -1\n"), 0o644))
	_, err = LoadConfigFile(path)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
