package internal

import (
	jsonschema "github.com/lychee-technology/jsonschema"
)

// keywordValidator checks one keyword against an instance, recording
// violations in report.
type keywordValidator func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool

type validatorMode int

const (
	modeDispatch validatorMode = iota
	modeAlwaysValid
	modeAlwaysInvalid
)

// SchemaValidator validates instances against one schema. Keyword
// validators are bucketed by the instance types they constrain so that a
// call only runs the validators relevant to the instance.
type SchemaValidator struct {
	schema  *jsonschema.Schema
	mode    validatorMode
	buckets map[jsonschema.JSONType][]keywordValidator
}

func newSchemaValidator(schema *jsonschema.Schema) *SchemaValidator {
	return &SchemaValidator{
		schema:  schema,
		buckets: make(map[jsonschema.JSONType][]keywordValidator),
	}
}

// Schema returns the schema the validator was compiled from.
func (v *SchemaValidator) Schema() *jsonschema.Schema { return v.schema }

func (v *SchemaValidator) add(types []jsonschema.JSONType, kv keywordValidator) {
	if len(types) == 0 {
		types = jsonschema.InstanceTypes
	}
	for _, t := range types {
		v.buckets[t] = append(v.buckets[t], kv)
	}
}

// seal switches a validator without keyword validators to the no-op path.
func (v *SchemaValidator) seal() {
	if v.mode == modeDispatch && len(v.buckets) == 0 {
		v.mode = modeAlwaysValid
	}
}

// Validate runs every validator bucketed for the instance type. All of them
// run, so one call reports every violation.
func (v *SchemaValidator) Validate(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
	switch v.mode {
	case modeAlwaysValid:
		return true
	case modeAlwaysInvalid:
		return report.AddError(jsonschema.NewValidationError(v.schema, instance.Path, "", jsonschema.CodeFalseSchema, "no value allowed"))
	}

	validators := v.buckets[instance.Type()]
	if len(validators) == 0 {
		return true
	}
	child := report.Child()
	for _, kv := range validators {
		kv(instance, child)
	}
	return report.Fold(child, v.schema, instance.Path, "")
}

// IsValid validates into a throwaway report.
func (v *SchemaValidator) IsValid(instance jsonschema.ValueWithPath) bool {
	return v.Validate(instance, jsonschema.NewValidationReport())
}
