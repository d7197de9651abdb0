package jsonschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocation() SchemaLocation {
	return NewSchemaLocation("http://example.com/s.json", nil, "")
}

func TestBooleanSchemas(t *testing.T) {
	assert.True(t, IsNullSchema(NullSchema()))
	assert.True(t, IsFalseSchema(FalseSchema()))
	assert.False(t, IsFalseSchema(NullSchema()))
	assert.False(t, IsNullSchema(nil))

	never := NewBooleanSchema(false, testLocation(), Draft7)
	assert.Equal(t, false, never.ToJSON(Draft7))
	assert.Equal(t, map[string]any{"not": map[string]any{}}, never.ToJSON(Draft4))

	always := NewBooleanSchema(true, testLocation(), Draft6)
	assert.Equal(t, true, always.ToJSON(Draft6))
	assert.Equal(t, map[string]any{}, always.ToJSON(Draft3))
}

func TestToJSONKeepsBooleanAdditionalProperties(t *testing.T) {
	loc := testLocation()
	s := NewSchema(loc, map[*KeywordInfo]KeywordValue{
		KeywordAdditionalProperties: &SingleSchemaKeyword{Schema: NewBooleanSchema(false, loc.Child("additionalProperties"), Draft4)},
	}, nil, Draft4)

	out := s.ToJSON(Draft4).(map[string]any)
	assert.Equal(t, false, out["additionalProperties"])
}

func TestToJSONLimitConversion(t *testing.T) {
	s := NewSchema(testLocation(), map[*KeywordInfo]KeywordValue{
		KeywordMinimum: &LimitKeyword{ExclusiveLimit: "5"},
		KeywordMaximum: &LimitKeyword{Limit: "10", ExclusiveLimit: "12"},
	}, nil, Draft7)

	draft4 := s.ToJSON(Draft4).(map[string]any)
	assert.Equal(t, json.Number("5"), draft4["minimum"])
	assert.Equal(t, true, draft4["exclusiveMinimum"])
	assert.Equal(t, json.Number("10"), draft4["maximum"])
	assert.NotContains(t, draft4, "exclusiveMaximum")

	draft7 := s.ToJSON(Draft7).(map[string]any)
	assert.Equal(t, json.Number("5"), draft7["exclusiveMinimum"])
	assert.NotContains(t, draft7, "minimum")
	assert.Equal(t, json.Number("12"), draft7["exclusiveMaximum"])
}

func TestToJSONRequiredConversion(t *testing.T) {
	loc := testLocation()
	props := map[string]*Schema{
		"name": NewSchema(loc.Child("properties", "name"), nil, nil, Draft4),
		"age":  NewSchema(loc.Child("properties", "age"), nil, nil, Draft4),
	}
	s := NewSchema(loc, map[*KeywordInfo]KeywordValue{
		KeywordProperties: &SchemaMapKeyword{Schemas: props},
		KeywordRequired:   &StringSetKeyword{Values: []string{"name"}},
	}, nil, Draft4)

	draft3 := s.ToJSON(Draft3).(map[string]any)
	assert.NotContains(t, draft3, "required")
	rendered := draft3["properties"].(map[string]any)
	assert.Equal(t, true, rendered["name"].(map[string]any)["required"])
	assert.NotContains(t, rendered["age"].(map[string]any), "required")

	legacy := NewSchema(loc, map[*KeywordInfo]KeywordValue{
		KeywordProperties: &SchemaMapKeyword{Schemas: map[string]*Schema{
			"id": NewSchema(loc.Child("properties", "id"), map[*KeywordInfo]KeywordValue{
				KeywordRequired: &BooleanKeyword{Value: true},
			}, nil, Draft3),
		}},
	}, nil, Draft3)

	draft4 := legacy.ToJSON(Draft4).(map[string]any)
	assert.Equal(t, []any{"id"}, draft4["required"])
	assert.NotContains(t, draft4["properties"].(map[string]any)["id"].(map[string]any), "required")
}

func TestToJSONRenamesVersionedKeys(t *testing.T) {
	s := NewSchema(testLocation(), map[*KeywordInfo]KeywordValue{
		KeywordID:         &StringKeyword{Value: "http://example.com/s.json"},
		KeywordMultipleOf: &NumberKeyword{Value: "0.5"},
	}, map[string]any{"x-owner": "team"}, Draft7)

	draft3 := s.ToJSON(Draft3).(map[string]any)
	assert.Equal(t, "http://example.com/s.json", draft3["id"])
	assert.Equal(t, json.Number("0.5"), draft3["divisibleBy"])
	assert.Equal(t, "team", draft3["x-owner"])

	draft6 := s.ToJSON(Draft6).(map[string]any)
	assert.Equal(t, "http://example.com/s.json", draft6["$id"])
	assert.Equal(t, json.Number("0.5"), draft6["multipleOf"])
}

func TestSchemaEqualHandlesCycles(t *testing.T) {
	build := func() *Schema {
		b := NewSchemaBuilder(testLocation(), Draft7)
		b.Set(KeywordNot, &SingleSchemaKeyword{Schema: b.Schema()})
		b.Set(KeywordMinLength, &NumberKeyword{Value: "2"})
		return b.Build()
	}
	a, b := build(), build()
	assert.True(t, a.Equal(b))

	c := NewSchemaBuilder(testLocation(), Draft7)
	c.Set(KeywordNot, &SingleSchemaKeyword{Schema: c.Schema()})
	c.Set(KeywordMinLength, &NumberKeyword{Value: "3"})
	assert.False(t, a.Equal(c.Build()))

	visited := 0
	Walk(a, func(*Schema) bool {
		visited++
		return true
	})
	assert.Equal(t, 1, visited)
}

func TestSchemaBuilderKeepsPointer(t *testing.T) {
	b := NewSchemaBuilder(testLocation(), Draft6)
	early := b.Schema()
	b.Set(KeywordTitle, &StringKeyword{Value: "x"})
	b.Set(KeywordDescription, &StringKeyword{Value: "y"})
	b.Delete(KeywordDescription)
	b.SetExtra("custom", json.Number("1"))

	built := b.Build()
	require.Same(t, early, built)
	assert.True(t, built.HasKeyword(KeywordTitle))
	assert.False(t, built.HasKeyword(KeywordDescription))
	assert.Equal(t, map[string]any{"custom": json.Number("1")}, built.ExtraProperties())
	assert.Equal(t, Draft6, built.Version())

	out, err := json.Marshal(built)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x","custom":1}`, string(out))
}
