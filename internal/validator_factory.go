package internal

import (
	"sync"

	jsonschema "github.com/lychee-technology/jsonschema"
	"go.uber.org/zap"
)

// validatorCreator compiles one keyword value. It returns nil when the
// keyword does not constrain anything.
type validatorCreator func(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator

// ValidatorFactory compiles schemas into SchemaValidators. Compiled
// validators are cached by the schema's unique URI.
type ValidatorFactory struct {
	cfg      jsonschema.ValidatorConfig
	formats  jsonschema.FormatRegistry
	creators map[*jsonschema.KeywordInfo][]validatorCreator

	mu    sync.Mutex
	cache map[string]*SchemaValidator
}

// NewValidatorFactory creates a factory. A nil registry selects the
// default format validators.
func NewValidatorFactory(cfg jsonschema.ValidatorConfig, formats jsonschema.FormatRegistry) *ValidatorFactory {
	if formats == nil {
		formats = NewFormatRegistry()
	}
	if cfg.MultipleOfPrecision <= 0 {
		cfg.MultipleOfPrecision = 12
	}
	return &ValidatorFactory{
		cfg:      cfg,
		formats:  formats,
		creators: defaultCreators(),
		cache:    make(map[string]*SchemaValidator),
	}
}

// CreateValidator returns the validator of schema, compiling it and every
// schema it reaches on first use.
func (f *ValidatorFactory) CreateValidator(schema *jsonschema.Schema) jsonschema.SchemaValidator {
	return f.Compile(schema)
}

// Compile is CreateValidator returning the concrete type.
func (f *ValidatorFactory) Compile(schema *jsonschema.Schema) *SchemaValidator {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &compilation{factory: f, building: make(map[*jsonschema.Schema]*SchemaValidator)}
	return c.validator(schema)
}

// CachedCount returns the number of cached validators.
func (f *ValidatorFactory) CachedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

// compilation is one CreateValidator call. building holds every validator
// created during the call, so cycles terminate even without the cache.
type compilation struct {
	factory  *ValidatorFactory
	building map[*jsonschema.Schema]*SchemaValidator
}

func (c *compilation) validator(schema *jsonschema.Schema) *SchemaValidator {
	if schema == nil || jsonschema.IsNullSchema(schema) {
		v := newSchemaValidator(schema)
		v.mode = modeAlwaysValid
		return v
	}
	if jsonschema.IsFalseSchema(schema) {
		v := newSchemaValidator(schema)
		v.mode = modeAlwaysInvalid
		return v
	}
	if v, ok := c.building[schema]; ok {
		return v
	}

	f := c.factory
	key := schema.Location().UniqueURI()
	if f.cfg.CacheValidators && key != "" {
		if v, ok := f.cache[key]; ok && v.schema == schema {
			return v
		}
	}
	zap.S().Debugw("compiling schema validator", "schema", key)

	v := newSchemaValidator(schema)
	c.building[schema] = v
	if f.cfg.CacheValidators && key != "" {
		f.cache[key] = v
	}
	for _, info := range schema.SortedKeywords() {
		value, _ := schema.Keyword(info)
		for _, create := range f.creators[info] {
			if kv := create(c, schema, value); kv != nil {
				v.add(info.ApplicableTypes, kv)
			}
		}
	}
	v.seal()
	return v
}
