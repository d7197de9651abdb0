package jsonschema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationFromID(t *testing.T) {
	loc, err := LocationFromID("http://example.com/s.json#/definitions/a")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/s.json", loc.DocumentURI())
	assert.Equal(t, JSONPointer{"definitions", "a"}, loc.JSONPath())
	assert.Empty(t, loc.ID())

	loc, err = LocationFromID("http://example.com/root.json")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/root.json", loc.ID())
	assert.Equal(t, "http://example.com/root.json", loc.UniqueURI())

	_, err = LocationFromID("relative.json")
	assert.Error(t, err)
}

func TestLocationFromIDNonAbsolute(t *testing.T) {
	loc := LocationFromIDNonAbsolute("person.json")
	assert.True(t, IsMarkerURI(loc.DocumentURI()))
	assert.True(t, strings.HasSuffix(loc.DocumentURI(), "/person.json"))

	abs := LocationFromIDNonAbsolute("urn:example:thing")
	assert.Equal(t, "urn:example:thing", abs.DocumentURI())
}

func TestLocationFromDocument(t *testing.T) {
	withID := map[string]any{"$id": "http://example.com/a.json", "type": "object"}
	loc := LocationFromDocument(withID, "$id", "id")
	assert.Equal(t, "http://example.com/a.json", loc.DocumentURI())

	legacy := map[string]any{"id": "http://example.com/b.json"}
	loc = LocationFromDocument(legacy, "$id", "id")
	assert.Equal(t, "http://example.com/b.json", loc.DocumentURI())

	anonymous := map[string]any{"type": "string"}
	first := LocationFromDocument(anonymous, "$id")
	second := LocationFromDocument(map[string]any{"type": "string"}, "$id")
	other := LocationFromDocument(map[string]any{"type": "number"}, "$id")
	assert.True(t, IsMarkerURI(first.DocumentURI()))
	assert.Equal(t, first.DocumentURI(), second.DocumentURI())
	assert.NotEqual(t, first.DocumentURI(), other.DocumentURI())

	fragmentOnly := LocationFromDocument(map[string]any{"$id": "#local"}, "$id")
	assert.True(t, IsMarkerURI(fragmentOnly.DocumentURI()))
}

func TestSchemaLocationScopes(t *testing.T) {
	root := NewSchemaLocation("http://example.com/dir/a.json", nil, "")
	assert.Equal(t, "http://example.com/dir/a.json", root.ResolutionScope())

	child := root.Child("properties", "p")
	assert.Equal(t, "/properties/p", child.JSONPath().String())
	assert.Equal(t, root.ResolutionScope(), child.ResolutionScope())

	scoped, err := child.WithID("b.json")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/dir/b.json", scoped.ResolutionScope())
	assert.Equal(t, "http://example.com/dir/b.json", scoped.UniqueURI())
	assert.Equal(t, "http://example.com/dir/a.json#/properties/p", scoped.CanonicalURI())

	ref, err := scoped.ResolveRef("#/definitions/x")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/dir/b.json#/definitions/x", ref)

	item := root.ChildIndex("items", 0)
	assert.Equal(t, "/items/0", item.JSONPath().String())
	assert.False(t, item.Equal(root))
	assert.True(t, root.Equal(NewSchemaLocation("http://example.com/dir/a.json", JSONPointer{}, "")))
}

func TestCanonicalURIEscapesFragment(t *testing.T) {
	loc := NewSchemaLocation("http://example.com/a.json", JSONPointer{"definitions", "a b"}, "")
	assert.Equal(t, "http://example.com/a.json#/definitions/a%20b", loc.CanonicalURI())
	assert.Equal(t, loc.CanonicalURI(), NormalizeURI("http://example.com/a.json#/definitions/a b"))
	assert.Equal(t, loc.CanonicalURI(), NormalizeURI("http://example.com/a.json#/definitions/a%20b"))
}

func TestURIHelpers(t *testing.T) {
	assert.Equal(t, "http://example.com/y", NormalizeURI("http://example.com/y#"))
	assert.Equal(t, "http://example.com/y", TrimFragment("http://example.com/y#/a"))

	base, fragment := SplitFragment("http://example.com/y#/a%20b")
	assert.Equal(t, "http://example.com/y", base)
	assert.Equal(t, "/a b", fragment)

	resolved, err := ResolveURI("http://example.com", "a.json")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/a.json", resolved)

	resolved, err = ResolveURI("", "urn:x")
	require.NoError(t, err)
	assert.Equal(t, "urn:x", resolved)

	assert.Equal(t, "http://example.com/y", JoinFragment("http://example.com/y", ""))
}
