package internal

import (
	"encoding/json"
	"fmt"

	gjs "github.com/google/jsonschema-go/jsonschema"
	jsonschema "github.com/lychee-technology/jsonschema"
)

// ReferenceValidator validates with github.com/google/jsonschema-go. It is
// used to cross-check verdicts on schemas both implementations understand.
type ReferenceValidator struct {
	resolved *gjs.Resolved
}

// NewReferenceValidator converts schema to draft-7 JSON and resolves it with
// the reference implementation. Schemas that reference other documents are
// rejected by the reference resolver.
func NewReferenceValidator(schema *jsonschema.Schema) (*ReferenceValidator, error) {
	doc := schema.ToJSON(jsonschema.Draft7)
	if obj, ok := doc.(map[string]any); ok {
		// the reference resolver only accepts its own metaschema URIs
		delete(obj, jsonschema.KeywordSchema.Key)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var ref gjs.Schema
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into reference schema: %w", err)
	}
	resolved, err := ref.Resolve(&gjs.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference schema: %w", err)
	}
	return &ReferenceValidator{resolved: resolved}, nil
}

// Validate returns the reference verdict for instance, which may hold
// json.Number values.
func (r *ReferenceValidator) Validate(instance any) error {
	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return fmt.Errorf("unmarshal instance: %w", err)
	}
	return r.resolved.Validate(plain)
}
