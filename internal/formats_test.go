package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRegistry_BuiltIns(t *testing.T) {
	tests := []struct {
		format string
		value  string
		valid  bool
	}{
		{"date-time", "2024-01-02T03:04:05Z", true},
		{"date-time", "2024-01-02t03:04:05.25+02:00", true},
		{"date-time", "2024-01-02", false},
		{"date", "2024-02-29", true},
		{"date", "2024-13-01", false},
		{"time", "10:20:30Z", true},
		{"time", "10:20:30+02:00", true},
		{"time", "10:20", false},
		{"email", "a@example.com", true},
		{"email", "Alice <a@example.com>", false},
		{"email", "nope", false},
		{"hostname", "example.com", true},
		{"hostname", "-bad.example.com", false},
		{"hostname", "a..b", false},
		{"host-name", "example.com.", true},
		{"ipv4", "192.168.0.1", true},
		{"ipv4", "256.1.1.1", false},
		{"ipv4", "::1", false},
		{"ip-address", "10.0.0.1", true},
		{"ipv6", "::1", true},
		{"ipv6", "1.2.3.4", false},
		{"uri", "http://example.com/a?b#c", true},
		{"uri", "/relative", false},
		{"uri-reference", "/relative", true},
		{"uri-reference", "%zz", false},
		{"regex", "^a+$", true},
		{"regex", "(", false},
		{"json-pointer", "", true},
		{"json-pointer", "/a/b~0c", true},
		{"json-pointer", "a", false},
		{"json-pointer", "/a~2", false},
		{"json-pointer", "#/a", false},
		{"uuid", "123e4567-e89b-12d3-a456-426614174000", true},
		{"uuid", "123e4567e89b12d3a456426614174000", false},
	}

	registry := NewFormatRegistry()
	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.value, func(t *testing.T) {
			fv, ok := registry.FormatValidator(tt.format)
			require.True(t, ok)
			err := fv.Validate(tt.value)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFormatRegistry_Formats(t *testing.T) {
	registry := NewFormatRegistry()
	names := registry.Formats()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "date-time")
	assert.Contains(t, names, "uuid")

	_, ok := registry.FormatValidator("color")
	assert.False(t, ok)
}
