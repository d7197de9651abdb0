package internal

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocument_JSON(t *testing.T) {
	doc, err := DecodeDocument([]byte(`  {"minimum": 1.0, "enum": [1, "a", null]}  `))
	require.NoError(t, err)
	obj := doc.(map[string]any)
	assert.Equal(t, json.Number("1.0"), obj["minimum"])
	assert.Equal(t, []any{json.Number("1"), "a", nil}, obj["enum"])
}

func TestDecodeDocument_YAML(t *testing.T) {
	src := []byte(`
$schema: http://json-schema.org/draft-07/schema#
type: object
properties:
  age:
    type: integer
    minimum: 0
    multipleOf: 0.5
  active:
    type: boolean
    default: true
  nickname:
    type: [string, "null"]
    default: ~
required: [age]
`)
	doc, err := DecodeDocument(src)
	require.NoError(t, err)
	obj := doc.(map[string]any)
	assert.Equal(t, "object", obj["type"])
	age := obj["properties"].(map[string]any)["age"].(map[string]any)
	assert.Equal(t, json.Number("0"), age["minimum"])
	assert.Equal(t, json.Number("0.5"), age["multipleOf"])
	active := obj["properties"].(map[string]any)["active"].(map[string]any)
	assert.Equal(t, true, active["default"])
	nickname := obj["properties"].(map[string]any)["nickname"].(map[string]any)
	assert.Equal(t, []any{"string", "null"}, nickname["type"])
	assert.Nil(t, nickname["default"])
	assert.Equal(t, []any{"age"}, obj["required"])
}

func TestDecodeDocument_YAMLAnchors(t *testing.T) {
	src := []byte(`
definitions:
  name: &name
    type: string
    minLength: 1
properties:
  first: *name
`)
	doc, err := DecodeDocument(src)
	require.NoError(t, err)
	first := doc.(map[string]any)["properties"].(map[string]any)["first"]
	assert.Equal(t, map[string]any{"type": "string", "minLength": json.Number("1")}, first)
}

func TestDecodeDocument_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"empty":        "   ",
		"broken json":  `{"type": "object",}`,
		"bare scalar":  "just some words",
		"yaml list":    "- a\n- b\n",
		"invalid yaml": "a: [1, 2\nb: c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(src))
			var se *jsonschema.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, jsonschema.ErrCodeInvalidJSON, se.Code)
		})
	}
}

func TestDocumentCache_CacheDocumentKeepsFirst(t *testing.T) {
	cache := NewDocumentCache(nil)
	first := map[string]any{"v": "1"}
	assert.Equal(t, first, cache.CacheDocument("urn:a#/x", first))
	assert.Equal(t, first, cache.CacheDocument("urn:a", map[string]any{"v": "2"}))

	doc, ok := cache.LookupDocument("urn:a#/anything")
	require.True(t, ok)
	assert.Equal(t, first, doc)

	_, err := cache.FetchDocument(context.Background(), "urn:missing")
	var se *jsonschema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, jsonschema.ErrCodeNoFetcher, se.Code)
}

func TestDocumentCache_FetchOnce(t *testing.T) {
	fetcher := &stubFetcher{name: "slow", data: []byte(`{"type":"string"}`), delay: 50 * time.Millisecond}
	cache := NewDocumentCache(fetcher)

	var wg sync.WaitGroup
	docs := make([]any, 8)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := cache.FetchDocument(context.Background(), "urn:shared")
			assert.NoError(t, err)
			docs[i] = doc
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, doc := range docs {
		assert.Equal(t, map[string]any{"type": "string"}, doc)
	}

	_, err := cache.FetchDocument(context.Background(), "urn:shared#/type")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestDocumentCache_FetchMalformedDocument(t *testing.T) {
	cache := NewDocumentCache(&stubFetcher{name: "bad", data: []byte(`{"type":`)})
	_, err := cache.FetchDocument(context.Background(), "urn:bad")
	var se *jsonschema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, jsonschema.ErrCodeInvalidJSON, se.Code)
	assert.Equal(t, "urn:bad", se.URI)

	_, ok := cache.LookupDocument("urn:bad")
	assert.False(t, ok)
}

func TestDocumentCache_Schemas(t *testing.T) {
	cache := NewDocumentCache(nil)
	a := jsonschema.NewSchema(jsonschema.NewSchemaLocation("urn:a", nil, ""), nil, nil, jsonschema.Draft7)
	b := jsonschema.NewSchema(jsonschema.NewSchemaLocation("urn:a", nil, ""), nil, nil, jsonschema.Draft7)

	assert.Same(t, a, cache.CacheSchema("urn:a", a))
	assert.Same(t, a, cache.CacheSchema("urn:a", b))
	cache.ReplaceSchema("urn:a", b)
	got, ok := cache.LookupSchema("urn:a")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, 1, cache.SchemaCount())

	cache.RemoveSchema("urn:a")
	_, ok = cache.LookupSchema("urn:a")
	assert.False(t, ok)
}

func TestDocumentCache_ResolveUsingLocalIdentifiers(t *testing.T) {
	doc := map[string]any{
		"$id": "http://example.com/root.json",
		"definitions": map[string]any{
			"A": map[string]any{"$id": "#foo"},
			"B": map[string]any{
				"$id": "other.json",
				"definitions": map[string]any{
					"X": map[string]any{"$id": "#bar"},
					"Y": map[string]any{"$id": "t/inner.json"},
				},
			},
			"C": map[string]any{"$id": "urn:uuid:ee564b8a-7a87-4125-8c96-e9f123d6766f"},
		},
		"enum": []any{map[string]any{"$id": "http://example.com/not-a-schema.json"}},
	}
	cache := NewDocumentCache(nil)
	const base = "http://example.com/root.json"

	tests := []struct {
		target string
		want   string
		found  bool
	}{
		{"http://example.com/root.json", "", true},
		{"http://example.com/root.json#foo", "/definitions/A", true},
		{"http://example.com/other.json", "/definitions/B", true},
		{"http://example.com/other.json#bar", "/definitions/B/definitions/X", true},
		{"http://example.com/t/inner.json", "/definitions/B/definitions/Y", true},
		{"urn:uuid:ee564b8a-7a87-4125-8c96-e9f123d6766f", "/definitions/C", true},
		{"http://example.com/other.json#/definitions/X", "/definitions/B/definitions/X", true},
		{"http://example.com/root.json#/definitions/A", "/definitions/A", true},
		{"http://example.com/root.json#/definitions/Z", "", false},
		{"http://example.com/not-a-schema.json", "", false},
		{"http://example.com/root.json#nothing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			p, ok := cache.ResolveURIToDocumentUsingLocalIdentifiers(base, tt.target, doc)
			require.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.want, p.String())
			}
		})
	}
}
