package jsonschema

// SchemaBuilder assembles a Schema while its keywords are digested. The
// pointer returned by Schema is stable from the start, so a reference
// cycle can point at a schema that is still being built; Build fills it.
type SchemaBuilder struct {
	schema   *Schema
	location SchemaLocation
	version  Draft
	keywords map[*KeywordInfo]KeywordValue
	extra    map[string]any
}

// NewSchemaBuilder starts a schema at location.
func NewSchemaBuilder(location SchemaLocation, version Draft) *SchemaBuilder {
	return &SchemaBuilder{
		schema:   &Schema{location: location, version: version},
		location: location,
		version:  version,
		keywords: make(map[*KeywordInfo]KeywordValue),
		extra:    make(map[string]any),
	}
}

// Schema returns the schema being built.
func (b *SchemaBuilder) Schema() *Schema { return b.schema }

// Location returns the location of the schema being built.
func (b *SchemaBuilder) Location() SchemaLocation { return b.location }

// Version returns the draft of the schema being built.
func (b *SchemaBuilder) Version() Draft { return b.version }

// Set stores a keyword value, replacing any previous one.
func (b *SchemaBuilder) Set(info *KeywordInfo, value KeywordValue) {
	b.keywords[info] = value
}

// Get returns a keyword value set earlier.
func (b *SchemaBuilder) Get(info *KeywordInfo) (KeywordValue, bool) {
	v, ok := b.keywords[info]
	return v, ok
}

// Delete removes a keyword.
func (b *SchemaBuilder) Delete(info *KeywordInfo) {
	delete(b.keywords, info)
}

// SetExtra preserves an unrecognized key.
func (b *SchemaBuilder) SetExtra(key string, value any) {
	b.extra[key] = value
}

// Build fills the schema and returns it.
func (b *SchemaBuilder) Build() *Schema {
	built := NewSchema(b.location, b.keywords, b.extra, b.version)
	*b.schema = *built
	return b.schema
}
