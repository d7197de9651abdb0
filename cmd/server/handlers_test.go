package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/lychee-technology/jsonschema/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	config := jsonschema.DefaultConfig()
	config.Fetch.HTTP.Enabled = false
	engine, err := factory.NewEngine(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	server := NewServer(engine)
	server.RegisterRoutes()
	return server
}

func doRequest(t *testing.T, server *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr.Code, out
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)
	code, body := doRequest(t, server, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestLoadAndValidateStoredSchema(t *testing.T) {
	server := newTestServer(t)

	code, body := doRequest(t, server, http.MethodPost, "/api/v1/schemas",
		`{"type": "object", "properties": {"age": {"type": "integer", "minimum": 0}}, "required": ["age"]}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "draft-7", body["version"])
	id, ok := body["id"].(string)
	require.True(t, ok)

	code, body = doRequest(t, server, http.MethodPost, "/api/v1/schemas/"+id+"/validate", `{"age": 42}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["valid"])

	code, body = doRequest(t, server, http.MethodPost, "/api/v1/schemas/"+id+"/validate", `{"age": -1}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, float64(1), body["violationCount"])
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]any)
	assert.Equal(t, "#/age", first["pointerToViolation"])
	assert.Equal(t, "minimum", first["keyword"])
}

func TestGetSchemaConvertsDraft(t *testing.T) {
	server := newTestServer(t)

	code, body := doRequest(t, server, http.MethodPost, "/api/v1/schemas", `{"exclusiveMinimum": 5}`)
	require.Equal(t, http.StatusCreated, code, body)
	id := body["id"].(string)

	code, body = doRequest(t, server, http.MethodGet, "/api/v1/schemas/"+id+"?version=draft-4", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(5), body["minimum"])
	assert.Equal(t, true, body["exclusiveMinimum"])

	code, _ = doRequest(t, server, http.MethodGet, "/api/v1/schemas/"+id+"?version=draft-5", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetSchemaErrors(t *testing.T) {
	server := newTestServer(t)

	code, body := doRequest(t, server, http.MethodGet, "/api/v1/schemas/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	code, _ = doRequest(t, server, http.MethodGet, "/api/v1/schemas/0b7c8f5e-4d4c-4b0a-9a51-1d6f3c2b9e10", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLoadSchemaRejectsNonSchema(t *testing.T) {
	server := newTestServer(t)

	code, body := doRequest(t, server, http.MethodPost, "/api/v1/schemas", `[1, 2, 3]`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])

	code, _ = doRequest(t, server, http.MethodPost, "/api/v1/schemas", `{"type": `)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestHandleValidateInline(t *testing.T) {
	server := newTestServer(t)

	code, body := doRequest(t, server, http.MethodPost, "/api/v1/validate",
		`{"schema": {"additionalProperties": false, "properties": {"a": {}}}, "instance": {"a": 1, "b": 2}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["valid"])
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "#/b", errs[0].(map[string]any)["pointerToViolation"])

	code, body = doRequest(t, server, http.MethodPost, "/api/v1/validate", `{"schema": true, "instance": [1]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["valid"])

	code, _ = doRequest(t, server, http.MethodPost, "/api/v1/validate", `{"instance": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doRequest(t, server, http.MethodPost, "/api/v1/validate", `[]`)
	assert.Equal(t, http.StatusBadRequest, code)
}
