package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsDraft4_MergesRequiredForms(t *testing.T) {
	loc := testLocation()
	id := NewSchema(loc.Child("properties", "id"), map[*KeywordInfo]KeywordValue{
		KeywordRequired: &BooleanKeyword{Value: true},
	}, nil, Draft3)
	name := NewSchema(loc.Child("properties", "name"), nil, nil, Draft3)
	s := NewSchema(loc, map[*KeywordInfo]KeywordValue{
		KeywordTitle:       &StringKeyword{Value: "Order"},
		KeywordProperties:  &SchemaMapKeyword{Schemas: map[string]*Schema{"id": id, "name": name}},
		KeywordRequired:    &StringSetKeyword{Values: []string{"name", "id"}},
		KeywordMinLength:   &NumberKeyword{Value: "2"},
		KeywordDivisibleBy: &NumberKeyword{Value: "3"},
	}, nil, Draft3)

	v := AsDraft4(s)
	assert.Same(t, s, v.Schema)
	assert.Equal(t, "Order", v.Title)
	assert.Equal(t, []string{"name", "id"}, v.Required)
	require.NotNil(t, v.MinLength)
	assert.Equal(t, 2, *v.MinLength)
	assert.Nil(t, v.MaxLength)
	assert.Equal(t, "3", v.MultipleOf)
	assert.Len(t, v.Properties, 2)

	d3 := AsDraft3(s)
	assert.Equal(t, "3", d3.DivisibleBy)
	assert.Nil(t, d3.Disallow)
}

func TestAsDraft7_ProjectsNewerKeywords(t *testing.T) {
	loc := testLocation()
	cond := NewSchema(loc.Child("if"), map[*KeywordInfo]KeywordValue{
		KeywordType: &TypeKeyword{Types: []JSONType{TypeInteger}},
	}, nil, Draft7)
	then := NewSchema(loc.Child("then"), nil, nil, Draft7)
	s := NewSchema(loc, map[*KeywordInfo]KeywordValue{
		KeywordConst:    &JSONValueKeyword{Value: nil},
		KeywordComment:  &StringKeyword{Value: "note"},
		KeywordReadOnly: &BooleanKeyword{Value: true},
		KeywordIf:       &SingleSchemaKeyword{Schema: cond},
		KeywordThen:     &SingleSchemaKeyword{Schema: then},
		KeywordExamples: &JSONArrayKeyword{Values: []any{"a"}},
	}, nil, Draft7)

	v := AsDraft7(s)
	assert.True(t, v.HasConst, "a null const is still present")
	assert.Nil(t, v.Const)
	assert.Equal(t, "note", v.Comment)
	assert.True(t, v.ReadOnly)
	assert.Same(t, cond, v.If)
	assert.Same(t, then, v.Then)
	assert.Nil(t, v.Else)
	assert.Equal(t, []any{"a"}, v.Examples)

	d6 := AsDraft6(NewSchema(loc, nil, nil, Draft6))
	assert.False(t, d6.HasConst)
	assert.Nil(t, d6.Contains)
}
