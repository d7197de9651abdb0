package factory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/lychee-technology/jsonschema/internal"
	"go.uber.org/zap"
)

// Engine bundles a schema loader, a validator factory and the fetchers
// behind them. It is safe for concurrent use.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/jsonschema"
//	    "github.com/lychee-technology/jsonschema/factory"
//	)
//
//	engine, err := factory.NewEngine(ctx, jsonschema.DefaultConfig())
//	if err != nil {
//	    // handle error
//	}
//	defer engine.Close()
//
//	schema, _, err := engine.ReadSchemaString(ctx, `{"type": "string"}`)
//	if verr := engine.Validate(schema, "hello"); verr != nil {
//	    // instance is invalid
//	}
type Engine struct {
	config     *jsonschema.Config
	memory     *internal.MemoryFetcher
	race       *internal.FetchRace
	cache      *internal.DocumentCache
	loader     *internal.SchemaLoader
	formats    *internal.FormatRegistry
	validators *internal.ValidatorFactory
	closers    []func()
}

// NewEngine builds an engine from config. Fetchers are created for every
// enabled source; extra fetchers join the race after them. A nil config
// selects DefaultConfig.
func NewEngine(ctx context.Context, config *jsonschema.Config, extra ...jsonschema.DocumentFetcher) (*Engine, error) {
	if config == nil {
		config = jsonschema.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config: config,
		memory: internal.NewMemoryFetcher(nil),
	}
	fetchers := []jsonschema.DocumentFetcher{e.memory}

	fetch := config.Fetch
	if fetch.Directory.Enabled {
		fetchers = append(fetchers, internal.NewFSFetcher("directory", os.DirFS(fetch.Directory.Root), fetch.Directory.BaseURI))
	}
	if fetch.HTTP.Enabled {
		fetchers = append(fetchers, internal.NewHTTPFetcher(&http.Client{Timeout: fetch.Timeout}, fetch.HTTP))
	}
	if fetch.S3.Enabled {
		s3Fetcher, err := internal.NewS3FetcherFromConfig(ctx, fetch.S3)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to create s3 fetcher: %w", err)
		}
		fetchers = append(fetchers, s3Fetcher)
	}
	if fetch.Postgres.Enabled {
		pgFetcher, pool, err := internal.NewPostgresFetcherFromDSN(ctx, fetch.Postgres)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to create postgres fetcher: %w", err)
		}
		e.closers = append(e.closers, pool.Close)
		fetchers = append(fetchers, pgFetcher)
	}
	if fetch.SQL.Enabled {
		sqlFetcher, db, err := internal.OpenSQLFetcher(fetch.SQL)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to create sql fetcher: %w", err)
		}
		e.closers = append(e.closers, func() { _ = db.Close() })
		fetchers = append(fetchers, sqlFetcher)
	}
	fetchers = append(fetchers, extra...)

	names := make([]string, 0, len(fetchers))
	for _, f := range fetchers {
		names = append(names, f.Name())
	}
	zap.S().Infow("schema engine created", "fetchers", names, "defaultVersion", config.Loader.DefaultVersion.String())

	e.race = internal.NewFetchRace(fetchers, fetch.Timeout, fetch.CircuitBreaker, zap.L())
	e.cache = internal.NewDocumentCache(e.race)
	e.loader = internal.NewSchemaLoader(config.Loader, e.cache, zap.L())
	e.formats = internal.NewFormatRegistry()
	e.validators = internal.NewValidatorFactory(config.Validator, e.formats)
	return e, nil
}

// Close releases database pools opened by the engine.
func (e *Engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *jsonschema.Config { return e.config }

// AddDocument registers a document under uri so that references to it are
// served from memory.
func (e *Engine) AddDocument(uri string, data []byte) {
	e.memory.Put(uri, data)
}

// RegisterFormat adds or replaces a format validator.
func (e *Engine) RegisterFormat(name string, v jsonschema.FormatValidator) {
	e.formats.Register(name, v)
}

// ReadSchema loads a schema from a decoded document, JSON or YAML text, an
// io.Reader or a jsonschema.ValueWithPath.
func (e *Engine) ReadSchema(ctx context.Context, source any) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	return e.loader.ReadSchema(ctx, source)
}

// ReadSchemaString loads a schema from JSON or YAML text.
func (e *Engine) ReadSchemaString(ctx context.Context, text string) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	return e.loader.ReadSchemaBytes(ctx, []byte(text))
}

// ReadSchemaBytes loads a schema from JSON or YAML bytes.
func (e *Engine) ReadSchemaBytes(ctx context.Context, data []byte) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	return e.loader.ReadSchemaBytes(ctx, data)
}

// ReadSchemaReader loads a schema from r.
func (e *Engine) ReadSchemaReader(ctx context.Context, r io.Reader) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	return e.loader.ReadSchemaReader(ctx, r)
}

// ReadSchemaURI loads the schema at uri through the configured fetchers.
func (e *Engine) ReadSchemaURI(ctx context.Context, uri string) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	return e.loader.ReadSchemaURI(ctx, uri)
}

// HealthCheck pings the database-backed fetchers and returns the failures
// keyed by fetcher name. An empty map means every fetcher answered.
func (e *Engine) HealthCheck(ctx context.Context) map[string]error {
	return internal.CheckFetchers(ctx, e.race, e.config.Fetch.Timeout)
}

// Validator returns the compiled validator of schema.
func (e *Engine) Validator(schema *jsonschema.Schema) jsonschema.SchemaValidator {
	return e.validators.CreateValidator(schema)
}

// Validate returns nil when instance is valid, otherwise the violation.
func (e *Engine) Validate(schema *jsonschema.Schema, instance any) *jsonschema.ValidationError {
	return e.ValidateReport(context.Background(), schema, instance).Error()
}

// ValidateReport validates instance and returns every violation. instance
// is a decoded JSON value or a jsonschema.ValueWithPath.
func (e *Engine) ValidateReport(ctx context.Context, schema *jsonschema.Schema, instance any) *jsonschema.ValidationReport {
	start := time.Now()
	value, ok := instance.(jsonschema.ValueWithPath)
	if !ok {
		value = jsonschema.ValueWithPath{Value: instance, Path: jsonschema.JSONPointer{}, Document: instance}
	}
	report := jsonschema.NewValidationReport()
	e.validators.CreateValidator(schema).Validate(value, report)
	internal.EmitLatency(ctx, "validate", time.Since(start))
	internal.EmitViolationCount(ctx, report.ViolationCount())
	return report
}

// ValidateJSON decodes data, keeping numbers in their lexical form, and
// validates it.
func (e *Engine) ValidateJSON(ctx context.Context, schema *jsonschema.Schema, data []byte) (*jsonschema.ValidationReport, error) {
	instance, err := jsonschema.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return e.ValidateReport(ctx, schema, instance), nil
}

// Convert serializes schema in the shape of the given draft.
func (e *Engine) Convert(schema *jsonschema.Schema, version jsonschema.Draft) any {
	return schema.ToJSON(version)
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
	defaultErr    error
)

// Default returns a process-wide engine built from DefaultConfig on first
// use. Libraries should build their own engine instead.
func Default() (*Engine, error) {
	defaultOnce.Do(func() {
		defaultEngine, defaultErr = NewEngine(context.Background(), jsonschema.DefaultConfig())
	})
	return defaultEngine, defaultErr
}
