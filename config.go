package jsonschema

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config consolidates loader, validator and fetch settings
type Config struct {
	Loader    LoaderConfig    `json:"loader" yaml:"loader"`
	Validator ValidatorConfig `json:"validator" yaml:"validator"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// LoaderConfig contains schema loading settings
type LoaderConfig struct {
	// DefaultVersion applies to documents without a recognized $schema.
	DefaultVersion Draft `json:"defaultVersion" yaml:"defaultVersion"`
	// StrictVersions escalates shape and vocabulary issues to ERROR for
	// documents of these drafts.
	StrictVersions    []Draft `json:"strictVersions,omitempty" yaml:"strictVersions,omitempty"`
	StrictRefSiblings bool    `json:"strictRefSiblings" yaml:"strictRefSiblings"`
	FailOnWarnings    bool    `json:"failOnWarnings" yaml:"failOnWarnings"`
}

// IsStrict reports whether strict mode applies to documents of version d.
func (c LoaderConfig) IsStrict(d Draft) bool {
	return d.In(c.StrictVersions)
}

// ValidatorConfig contains validation settings
type ValidatorConfig struct {
	MultipleOfPrecision int  `json:"multipleOfPrecision" yaml:"multipleOfPrecision"`
	AssertFormats       bool `json:"assertFormats" yaml:"assertFormats"`
	CacheValidators     bool `json:"cacheValidators" yaml:"cacheValidators"`
}

// FetchConfig contains document fetching settings
type FetchConfig struct {
	Timeout        time.Duration        `json:"timeout" yaml:"timeout"`
	HTTP           HTTPFetchConfig      `json:"http" yaml:"http"`
	S3             S3FetchConfig        `json:"s3" yaml:"s3"`
	Postgres       PostgresFetchConfig  `json:"postgres" yaml:"postgres"`
	SQL            SQLFetchConfig       `json:"sql" yaml:"sql"`
	Directory      DirectoryFetchConfig `json:"directory" yaml:"directory"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker" yaml:"circuitBreaker"`
}

// HTTPFetchConfig configures the http(s) fetcher
type HTTPFetchConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	UserAgent    string `json:"userAgent" yaml:"userAgent"`
	MaxBodyBytes int64  `json:"maxBodyBytes" yaml:"maxBodyBytes"`
}

// S3FetchConfig configures the s3:// fetcher
type S3FetchConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	Region       string `json:"region" yaml:"region"`
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle" yaml:"usePathStyle"`
	AccessKey    string `json:"accessKey,omitempty" yaml:"accessKey,omitempty"`
	SecretKey    string `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`
}

// PostgresFetchConfig configures the fetcher reading documents from a Postgres table
type PostgresFetchConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	DSN            string `json:"dsn" yaml:"dsn"`
	Table          string `json:"table" yaml:"table"`
	URIColumn      string `json:"uriColumn" yaml:"uriColumn"`
	DocumentColumn string `json:"documentColumn" yaml:"documentColumn"`
}

// SQLFetchConfig configures the database/sql fetcher
type SQLFetchConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Driver         string `json:"driver" yaml:"driver"`
	DSN            string `json:"dsn" yaml:"dsn"`
	Table          string `json:"table" yaml:"table"`
	URIColumn      string `json:"uriColumn" yaml:"uriColumn"`
	DocumentColumn string `json:"documentColumn" yaml:"documentColumn"`
}

// DirectoryFetchConfig maps a base URI onto a local directory
type DirectoryFetchConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Root    string `json:"root" yaml:"root"`
	BaseURI string `json:"baseUri" yaml:"baseUri"`
}

// CircuitBreakerConfig controls when a failing fetcher is skipped
type CircuitBreakerConfig struct {
	Threshold    int           `json:"threshold" yaml:"threshold"`
	Window       time.Duration `json:"window" yaml:"window"`
	OpenDuration time.Duration `json:"openDuration" yaml:"openDuration"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Loader: LoaderConfig{
			DefaultVersion: Draft7,
		},
		Validator: ValidatorConfig{
			MultipleOfPrecision: 12,
			AssertFormats:       true,
			CacheValidators:     true,
		},
		Fetch: FetchConfig{
			Timeout: 10 * time.Second,
			HTTP: HTTPFetchConfig{
				Enabled:      true,
				UserAgent:    "jsonschema-fetcher/1.0",
				MaxBodyBytes: 10 * 1024 * 1024, // 10MB
			},
			S3: S3FetchConfig{
				Region: "us-east-1",
			},
			Postgres: PostgresFetchConfig{
				Table:          "schema_documents",
				URIColumn:      "uri",
				DocumentColumn: "document",
			},
			SQL: SQLFetchConfig{
				Driver:         "sqlite3",
				Table:          "schema_documents",
				URIColumn:      "uri",
				DocumentColumn: "document",
			},
			CircuitBreaker: CircuitBreakerConfig{
				Threshold:    5,
				Window:       30 * time.Second,
				OpenDuration: 30 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Loader.DefaultVersion == DraftUnknown {
		return &ConfigError{Field: "loader.defaultVersion", Message: "must be one of draft-3, draft-4, draft-6, draft-7"}
	}

	for _, d := range c.Loader.StrictVersions {
		if d == DraftUnknown {
			return &ConfigError{Field: "loader.strictVersions", Message: "contains an unknown draft"}
		}
	}

	if c.Validator.MultipleOfPrecision <= 0 {
		return &ConfigError{Field: "validator.multipleOfPrecision", Message: "must be greater than 0"}
	}

	if c.Fetch.Timeout <= 0 {
		return &ConfigError{Field: "fetch.timeout", Message: "must be greater than 0"}
	}

	if c.Fetch.HTTP.Enabled && c.Fetch.HTTP.MaxBodyBytes <= 0 {
		return &ConfigError{Field: "fetch.http.maxBodyBytes", Message: "must be greater than 0"}
	}

	if c.Fetch.Postgres.Enabled {
		if c.Fetch.Postgres.DSN == "" {
			return &ConfigError{Field: "fetch.postgres.dsn", Message: "is required when the postgres fetcher is enabled"}
		}
		if c.Fetch.Postgres.Table == "" {
			return &ConfigError{Field: "fetch.postgres.table", Message: "is required when the postgres fetcher is enabled"}
		}
	}

	if c.Fetch.SQL.Enabled {
		if c.Fetch.SQL.Driver == "" || c.Fetch.SQL.DSN == "" {
			return &ConfigError{Field: "fetch.sql", Message: "driver and dsn are required when the sql fetcher is enabled"}
		}
	}

	if c.Fetch.Directory.Enabled && c.Fetch.Directory.Root == "" {
		return &ConfigError{Field: "fetch.directory.root", Message: "is required when the directory fetcher is enabled"}
	}

	if c.Fetch.CircuitBreaker.Threshold < 0 {
		return &ConfigError{Field: "fetch.circuitBreaker.threshold", Message: "must not be negative"}
	}

	return nil
}

// LoadConfigFile reads a YAML or JSON config file over DefaultConfig.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
