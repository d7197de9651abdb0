package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestRunValidateResolvesSiblingFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.json": `{"type": "object", "properties": {"count": {"$ref": "defs.json#/definitions/positive"}}}`,
		"defs.json": `{"definitions": {"positive": {"type": "integer", "exclusiveMinimum": 0}}}`,
		"good.json": `{"count": 3}`,
		"bad.yaml":  "count: 0\n",
	})

	var out bytes.Buffer
	valid, err := runValidate([]string{"-offline", "-schema", filepath.Join(dir, "main.json"), "-instance", filepath.Join(dir, "good.json")}, &out)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "valid\n", out.String())

	out.Reset()
	valid, err = runValidate([]string{"-offline", "-json", "-schema", filepath.Join(dir, "main.json"), "-instance", filepath.Join(dir, "bad.yaml")}, &out)
	require.NoError(t, err)
	assert.False(t, valid)

	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, false, report["valid"])
	assert.Equal(t, float64(1), report["violationCount"])
}

func TestRunValidateRequiresInstance(t *testing.T) {
	_, err := runValidate([]string{"-schema", "x.json"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunValidateMissingReference(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.json": `{"$ref": "missing.json"}`,
		"i.json":    `1`,
	})
	_, err := runValidate([]string{"-offline", "-schema", filepath.Join(dir, "main.json"), "-instance", filepath.Join(dir, "i.json")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunConvertToDraft4(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.json": `{"$schema": "http://json-schema.org/draft-06/schema#", "exclusiveMaximum": 10, "items": false}`,
	})
	outFile := filepath.Join(dir, "out", "draft4.json")

	var out bytes.Buffer
	require.NoError(t, runConvert([]string{"-offline", "-schema", filepath.Join(dir, "main.json"), "-to", "draft-4", "-out", outFile}, &out))
	assert.Contains(t, out.String(), outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var converted map[string]any
	require.NoError(t, json.Unmarshal(data, &converted))
	assert.Equal(t, float64(10), converted["maximum"])
	assert.Equal(t, true, converted["exclusiveMaximum"])
	assert.IsType(t, map[string]any{}, converted["items"])
}

func TestRunConvertRejectsUnknownDraft(t *testing.T) {
	err := runConvert([]string{"-schema", "main.json", "-to", "draft-5"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunCrossCheckAgrees(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.json": `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string", "minLength": 2}, "tags": {"type": "array", "uniqueItems": true}}}`,
		"instances.json": `[
			{"name": "ab"},
			{"name": "a"},
			{},
			{"name": "abc", "tags": ["x", "x"]},
			{"name": "abc", "tags": ["x", "y"]}
		]`,
	})

	var out bytes.Buffer
	err := runCrossCheck([]string{"-offline", "-schema", filepath.Join(dir, "main.json"), "-instances", filepath.Join(dir, "instances.json")}, &out)
	require.NoError(t, err, out.String())
	assert.Contains(t, out.String(), "count: 5, mismatches: 0")
}

func TestRunCrossCheckRequiresArray(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.json":      `{}`,
		"instances.json": `{"a": 1}`,
	})
	err := runCrossCheck([]string{"-offline", "-schema", filepath.Join(dir, "main.json"), "-instances", filepath.Join(dir, "instances.json")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestBuildConnString(t *testing.T) {
	got := buildConnString(initDBOptions{host: "db", port: 5433, database: "schemas", user: "app", password: "p@ss", sslMode: "disable"})
	assert.Equal(t, "postgres://app:p%40ss@db:5433/schemas?sslmode=disable", got)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"public"."schema_documents"`, quoteIdentifier("public.schema_documents"))
	assert.Equal(t, `"docs"`, quoteIdentifier(" docs "))
}

func TestCollectDocuments(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.json":    `{"$ref": "b.yaml"}`,
		"b.yaml":    "type: string\n",
		"notes.txt": "ignored",
	})
	docs, err := collectDocuments(t.Context(), dir, "https://schemas.example.com/v1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "https://schemas.example.com/v1/a.json", docs[0].uri)
	assert.Equal(t, "https://schemas.example.com/v1/b.yaml", docs[1].uri)
	assert.JSONEq(t, `{"type": "string"}`, string(docs[1].json))
}

func TestCollectDocumentsRejectsBrokenReference(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.json": `{"$ref": "missing.json"}`,
	})
	_, err := collectDocuments(t.Context(), dir, "https://schemas.example.com/v1/")
	assert.Error(t, err)
}

func TestRunInspect(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.json": `{
			"$schema": "http://json-schema.org/draft-03/schema#",
			"title": "Order",
			"type": "object",
			"properties": {"id": {"type": "string", "required": true}, "total": {"type": "number"}},
			"x-team": "billing"
		}`,
	})

	var out bytes.Buffer
	require.NoError(t, runInspect([]string{"-offline", "-schema", filepath.Join(dir, "main.json")}, &out))
	summary := out.String()
	assert.Contains(t, summary, "draft:       draft-3\n")
	assert.Contains(t, summary, "title:       Order\n")
	assert.Contains(t, summary, "type:        object\n")
	assert.Contains(t, summary, "properties:  id, total\n")
	assert.Contains(t, summary, "required:    id\n")
	assert.Contains(t, summary, "extras:      x-team\n")
}
