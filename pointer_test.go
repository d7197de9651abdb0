package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONPointer(t *testing.T) {
	p, err := ParseJSONPointer("/a~1b/m~0n/0")
	require.NoError(t, err)
	assert.Equal(t, JSONPointer{"a/b", "m~n", "0"}, p)
	assert.Equal(t, "/a~1b/m~0n/0", p.String())

	p, err = ParseJSONPointer("#/definitions/x")
	require.NoError(t, err)
	assert.Equal(t, JSONPointer{"definitions", "x"}, p)

	p, err = ParseJSONPointer("")
	require.NoError(t, err)
	assert.Empty(t, p)
	assert.Equal(t, "#", p.Fragment())

	_, err = ParseJSONPointer("a/b")
	assert.Error(t, err)
}

func TestParseFragmentPointer(t *testing.T) {
	p, err := ParseFragmentPointer("/with%20space/%25")
	require.NoError(t, err)
	assert.Equal(t, JSONPointer{"with space", "%"}, p)
}

func TestJSONPointerLookup(t *testing.T) {
	doc := map[string]any{"a": []any{map[string]any{"b": "found"}}}

	v, ok := JSONPointer{"a", "0", "b"}.Lookup(doc)
	require.True(t, ok)
	assert.Equal(t, "found", v)

	for _, p := range []JSONPointer{{"x"}, {"a", "1"}, {"a", "-1"}, {"a", "0", "b", "c"}} {
		_, ok := p.Lookup(doc)
		assert.False(t, ok, p.String())
	}
}

func TestJSONPointerAppendDoesNotAlias(t *testing.T) {
	base := make(JSONPointer, 1, 4)
	base[0] = "root"
	a := base.Append("a")
	b := base.AppendIndex(2)
	assert.Equal(t, "/root/a", a.String())
	assert.Equal(t, "/root/2", b.String())
	assert.True(t, a.Equal(JSONPointer{"root", "a"}))
	assert.False(t, a.Equal(b))
}
