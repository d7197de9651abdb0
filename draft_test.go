package jsonschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		input string
		want  Draft
	}{
		{"draft-4", Draft4},
		{"draft4", Draft4},
		{"4", Draft4},
		{"draft-07", Draft7},
		{"Draft-3", Draft3},
		{"6", Draft6},
		{"http://json-schema.org/draft-06/schema#", Draft6},
		{"https://json-schema.org/draft-07/schema", Draft7},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDraft(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"draft-5", "2019-09", ""} {
		_, err := ParseDraft(bad)
		assert.Error(t, err, bad)
	}
}

func TestDraftFromURI(t *testing.T) {
	d, ok := DraftFromURI("http://json-schema.org/draft-04/schema")
	assert.True(t, ok)
	assert.Equal(t, Draft4, d)

	_, ok = DraftFromURI("http://example.com/custom-meta#")
	assert.False(t, ok)
}

func TestDraftProperties(t *testing.T) {
	assert.Equal(t, []string{"id"}, Draft4.IDKeys())
	assert.Equal(t, "$id", Draft6.IDKey())
	assert.True(t, Draft3.LexicalIntegers())
	assert.False(t, Draft7.LexicalIntegers())
	assert.True(t, Draft6.In(AllDrafts))
	assert.False(t, DraftUnknown.In(AllDrafts))
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", Draft7.MetaschemaURI())
	assert.Equal(t, "unknown", DraftUnknown.String())
}

func TestDraftTextEncoding(t *testing.T) {
	type holder struct {
		Version Draft `json:"version"`
	}
	out, err := json.Marshal(holder{Version: Draft6})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"draft-6"}`, string(out))

	var h holder
	require.NoError(t, json.Unmarshal([]byte(`{"version":"draft-03"}`), &h))
	assert.Equal(t, Draft3, h.Version)

	assert.Error(t, json.Unmarshal([]byte(`{"version":"draft-9"}`), &h))
}
