package jsonschema

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadingReport(t *testing.T) {
	loc := NewSchemaLocation("http://example.com/s.json", JSONPointer{"properties", "a"}, "")
	report := NewLoadingReport()
	report.Warn(IssueUnknownKeyword, loc, "x-custom", "unknown keyword %q", "x-custom")
	report.Error(IssueInvalidPattern, loc, "(", "invalid pattern")

	assert.Equal(t, 2, report.Len())
	assert.True(t, report.HasErrors())
	assert.True(t, report.HasCode(IssueUnknownKeyword))
	assert.False(t, report.HasCode(IssueDocumentFetch))
	assert.Len(t, report.Warnings(), 1)
	assert.Len(t, report.Errors(), 1)

	warning := report.Warnings()[0]
	assert.Equal(t, `unknown keyword "x-custom"`, warning.FormattedMessage())
	assert.Equal(t, `[WARN unknownKeyword] http://example.com/s.json#/properties/a: unknown keyword "x-custom"`, warning.String())

	rendered := report.ToJSON()
	assert.Equal(t, map[string]any{
		"code":     IssueInvalidPattern,
		"level":    "ERROR",
		"location": "http://example.com/s.json#/properties/a",
		"message":  "invalid pattern",
		"value":    "(",
	}, rendered[1])
}

func TestLoadingReportConcurrentAdd(t *testing.T) {
	report := NewLoadingReport()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Warn(IssueInvalidValue, SchemaLocation{}, nil, "value")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, report.Len())
	assert.False(t, report.HasErrors())
}
