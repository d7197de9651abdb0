package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateECMAPattern(t *testing.T) {
	tests := map[string]string{
		`^[a-z]+$`:        `^[a-z]+$`,
		`a\u00e9b`:        `a\x{00e9}b`,
		`[\u0041-\u005A]`: `[\x{0041}-\x{005A}]`,
		`\\u0041`:         `\\u0041`,
		`\u12`:            `\u12`,
		`\d\u00zz`:        `\d\u00zz`,
	}
	for in, want := range tests {
		assert.Equal(t, want, translateECMAPattern(in), in)
	}
}

func TestCompilePattern(t *testing.T) {
	re, err := CompilePattern(`^\u00e9+$`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("\u00e9\u00e9"))
	assert.False(t, re.MatchString("e"))

	again, err := CompilePattern(`^\u00e9+$`)
	require.NoError(t, err)
	assert.Same(t, re, again)

	_, err = CompilePattern(`(?<=a)b`)
	assert.Error(t, err, "lookbehind is not supported")
	_, err = CompilePattern(`(`)
	assert.Error(t, err)
}
