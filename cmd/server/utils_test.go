package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, writeError(rr, http.StatusBadRequest, "bad input"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "bad input", resp.Error)
}

func TestParseUUID(t *testing.T) {
	_, err := parseUUID("0b7c8f5e-4d4c-4b0a-9a51-1d6f3c2b9e10")
	assert.NoError(t, err)
	_, err = parseUUID("nope")
	assert.Error(t, err)
}

func TestReadBodyIsBounded(t *testing.T) {
	big := strings.Repeat("x", maxBodyBytes+10)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(big))
	data, err := readBody(req)
	require.NoError(t, err)
	assert.Len(t, data, maxBodyBytes)
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	handler := requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
