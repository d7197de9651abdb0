package factory

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineConfig() *jsonschema.Config {
	config := jsonschema.DefaultConfig()
	config.Fetch.HTTP.Enabled = false
	return config
}

func newTestEngine(t *testing.T, extra ...jsonschema.DocumentFetcher) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background(), offlineConfig(), extra...)
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

// countingFetcher serves a fixed set of documents and counts requests.
type countingFetcher struct {
	documents map[string]string
	calls     atomic.Int32
}

func (f *countingFetcher) Name() string             { return "counting" }
func (f *countingFetcher) Supports(uri string) bool { return true }

func (f *countingFetcher) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	f.calls.Add(1)
	doc, ok := f.documents[jsonschema.TrimFragment(uri)]
	if !ok {
		return nil, jsonschema.NewDocumentNotFoundError(uri)
	}
	return []byte(doc), nil
}

func TestNewEngineDefaults(t *testing.T) {
	engine, err := NewEngine(context.Background(), nil)
	require.NoError(t, err)
	defer engine.Close()
	assert.Equal(t, jsonschema.Draft7, engine.Config().Loader.DefaultVersion)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	config := offlineConfig()
	config.Validator.MultipleOfPrecision = 0
	_, err := NewEngine(context.Background(), config)
	require.Error(t, err)
	var cfgErr *jsonschema.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "validator.multipleOfPrecision", cfgErr.Field)
}

func TestEngineValidate(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	schema, report, err := engine.ReadSchemaString(ctx, `{"type": "string", "maxLength": 3}`)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Len())

	assert.Nil(t, engine.Validate(schema, "abc"))
	verr := engine.Validate(schema, "abcd")
	require.NotNil(t, verr)
	assert.Equal(t, "maxLength", verr.Keyword)
	assert.Equal(t, "#", verr.PointerToViolation.Fragment())

	verr = engine.Validate(schema, 12)
	require.NotNil(t, verr)
	assert.Equal(t, "type", verr.Keyword)
}

func TestEngineValidateJSONKeepsLexicalNumbers(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	draft4, _, err := engine.ReadSchemaString(ctx, `{"$schema": "http://json-schema.org/draft-04/schema#", "type": "integer"}`)
	require.NoError(t, err)
	draft6, _, err := engine.ReadSchemaString(ctx, `{"$schema": "http://json-schema.org/draft-06/schema#", "type": "integer"}`)
	require.NoError(t, err)

	report, err := engine.ValidateJSON(ctx, draft4, []byte(`1.0`))
	require.NoError(t, err)
	assert.False(t, report.IsValid())

	report, err = engine.ValidateJSON(ctx, draft6, []byte(`1.0`))
	require.NoError(t, err)
	assert.True(t, report.IsValid())

	_, err = engine.ValidateJSON(ctx, draft6, []byte(`{`))
	assert.Error(t, err)
}

func TestEngineAddDocumentResolvesReferences(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	engine.AddDocument("https://example.com/defs.json", []byte(`{"definitions": {"name": {"type": "string", "minLength": 1}}}`))
	schema, _, err := engine.ReadSchemaString(ctx, `{
		"$id": "https://example.com/person.json",
		"properties": {"name": {"$ref": "defs.json#/definitions/name"}}
	}`)
	require.NoError(t, err)

	assert.Nil(t, engine.Validate(schema, map[string]any{"name": "Ada"}))
	verr := engine.Validate(schema, map[string]any{"name": ""})
	require.NotNil(t, verr)
	assert.Equal(t, "#/name", verr.PointerToViolation.Fragment())
	assert.Equal(t, "minLength", verr.Keyword)
}

func TestEngineExtraFetcherIsCached(t *testing.T) {
	fetcher := &countingFetcher{documents: map[string]string{
		"https://example.com/positive.json": `{"type": "number", "exclusiveMinimum": 0}`,
	}}
	engine := newTestEngine(t, fetcher)
	ctx := context.Background()

	first, _, err := engine.ReadSchemaURI(ctx, "https://example.com/positive.json")
	require.NoError(t, err)
	second, _, err := engine.ReadSchemaURI(ctx, "https://example.com/positive.json")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.NotNil(t, engine.Validate(first, 0))
}

func TestEngineReadSchemaURIMissingDocument(t *testing.T) {
	engine := newTestEngine(t)
	schema, report, err := engine.ReadSchemaURI(context.Background(), "https://example.com/nowhere.json")
	assert.Nil(t, schema)
	require.Error(t, err)
	assert.True(t, report.HasCode(jsonschema.IssueDocumentFetch))
	var loadErr *jsonschema.SchemaLoadingError
	assert.True(t, errors.As(err, &loadErr))
}

func TestEngineDirectoryFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id.yaml"), []byte("type: string\nformat: uuid\n"), 0o644))

	config := offlineConfig()
	config.Fetch.Directory = jsonschema.DirectoryFetchConfig{Enabled: true, Root: dir, BaseURI: "https://schemas.example.com/"}
	engine, err := NewEngine(context.Background(), config)
	require.NoError(t, err)
	defer engine.Close()

	schema, _, err := engine.ReadSchemaURI(context.Background(), "https://schemas.example.com/id.yaml")
	require.NoError(t, err)
	assert.Nil(t, engine.Validate(schema, "6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.NotNil(t, engine.Validate(schema, "not-a-uuid"))
}

func TestEngineSQLFetcher(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "schemas.db")
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE schema_documents (uri TEXT PRIMARY KEY, document TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO schema_documents (uri, document) VALUES (?, ?)`,
		"urn:example:tags", `{"type": "array", "items": {"type": "string"}, "uniqueItems": true}`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	config := offlineConfig()
	config.Fetch.SQL.Enabled = true
	config.Fetch.SQL.DSN = dsn
	engine, err := NewEngine(context.Background(), config)
	require.NoError(t, err)
	defer engine.Close()

	schema, _, err := engine.ReadSchemaString(context.Background(), `{"properties": {"tags": {"$ref": "urn:example:tags"}}}`)
	require.NoError(t, err)
	assert.Nil(t, engine.Validate(schema, map[string]any{"tags": []any{"a", "b"}}))

	verr := engine.Validate(schema, map[string]any{"tags": []any{"a", "a"}})
	require.NotNil(t, verr)
	assert.Equal(t, jsonschema.CodeUniqueItems, verr.Code)
}

func TestEngineRegisterFormat(t *testing.T) {
	engine := newTestEngine(t)
	engine.RegisterFormat("even-length", jsonschema.FormatValidatorFunc(func(s string) error {
		if len(s)%2 != 0 {
			return errors.New("odd length")
		}
		return nil
	}))

	schema, _, err := engine.ReadSchemaString(context.Background(), `{"format": "even-length"}`)
	require.NoError(t, err)
	assert.Nil(t, engine.Validate(schema, "ab"))
	assert.NotNil(t, engine.Validate(schema, "abc"))
	assert.Nil(t, engine.Validate(schema, 3))
}

func TestEngineConvert(t *testing.T) {
	engine := newTestEngine(t)
	schema, _, err := engine.ReadSchemaString(context.Background(), `{
		"$schema": "http://json-schema.org/draft-04/schema#",
		"properties": {"a": {}},
		"required": ["a"]
	}`)
	require.NoError(t, err)

	converted, ok := engine.Convert(schema, jsonschema.Draft3).(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, converted, "required")
	props := converted["properties"].(map[string]any)
	assert.Equal(t, true, props["a"].(map[string]any)["required"])
	assert.Equal(t, jsonschema.Draft3.MetaschemaURI(), converted["$schema"])
}

func TestDefaultIsShared(t *testing.T) {
	first, err := Default()
	require.NoError(t, err)
	second, err := Default()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
