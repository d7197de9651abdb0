package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	jsonschema "github.com/lychee-technology/jsonschema"
)

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	failures := s.engine.HealthCheck(r.Context())
	if len(failures) == 0 {
		writeSuccess(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	details := make(map[string]string, len(failures))
	for name, err := range failures {
		details[name] = err.Error()
	}
	writeSuccess(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "fetchers": details})
}

// handleLoadSchema handles POST /api/v1/schemas
func (s *Server) handleLoadSchema(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	schema, report, err := s.engine.ReadSchemaBytes(r.Context(), body)
	if schema == nil {
		writeLoadingFailure(w, report, err)
		return
	}

	id := uuid.New()
	s.mu.Lock()
	s.schemas[id] = schema
	s.mu.Unlock()

	writeSuccess(w, http.StatusCreated, map[string]any{
		"id":       id.String(),
		"version":  schema.Version().String(),
		"location": schema.Location().CanonicalURI(),
		"issues":   report.ToJSON(),
		"hasError": err != nil,
	})
}

// handleGetSchema handles GET /api/v1/schemas/{id}?version=draft-4
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schema, ok := s.lookup(w, r)
	if !ok {
		return
	}

	version := schema.Version()
	if v := r.URL.Query().Get("version"); v != "" {
		parsed, err := jsonschema.ParseDraft(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		version = parsed
	}
	writeSuccess(w, http.StatusOK, s.engine.Convert(schema, version))
}

// handleValidateStored handles POST /api/v1/schemas/{id}/validate
func (s *Server) handleValidateStored(w http.ResponseWriter, r *http.Request) {
	schema, ok := s.lookup(w, r)
	if !ok {
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	report, err := s.engine.ValidateJSON(r.Context(), schema, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	writeSuccess(w, http.StatusOK, report.ToJSON())
}

// handleValidateInline handles POST /api/v1/validate with a body of the
// form {"schema": {...}, "instance": ...}.
func (s *Server) handleValidateInline(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	decoded, err := jsonschema.DecodeJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	request, ok := decoded.(map[string]any)
	if !ok {
		writeError(w, http.StatusBadRequest, "body must be an object")
		return
	}
	rawSchema, ok := request["schema"]
	if !ok {
		writeError(w, http.StatusBadRequest, "schema is required")
		return
	}

	schema, report, err := s.engine.ReadSchema(r.Context(), rawSchema)
	if schema == nil {
		writeLoadingFailure(w, report, err)
		return
	}
	result := s.engine.ValidateReport(r.Context(), schema, request["instance"])
	writeSuccess(w, http.StatusOK, result.ToJSON())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*jsonschema.Schema, bool) {
	id, err := parseUUID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid schema id: %v", err))
		return nil, false
	}
	s.mu.RLock()
	schema, ok := s.schemas[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "schema not found")
		return nil, false
	}
	return schema, true
}

func writeLoadingFailure(w http.ResponseWriter, report *jsonschema.LoadingReport, err error) {
	status := http.StatusUnprocessableEntity
	var se *jsonschema.SchemaError
	if errors.As(err, &se) && (se.Type == jsonschema.ErrorTypeFetch || se.Type == jsonschema.ErrorTypeTimeout) {
		status = http.StatusBadGateway
	}
	message := "schema could not be loaded"
	if err != nil {
		message = err.Error()
	}
	var issues []any
	if report != nil {
		issues = report.ToJSON()
	}
	writeJSON(w, status, APIResponse{Success: false, Error: message, Data: map[string]any{"issues": issues}})
}
