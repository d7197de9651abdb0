package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validation error codes
const (
	CodeMultipleViolations   = "MULTIPLE_VIOLATIONS"
	CodeFalseSchema          = "FALSE_SCHEMA"
	CodeType                 = "TYPE"
	CodeDisallow             = "DISALLOW"
	CodeEnum                 = "ENUM"
	CodeConst                = "CONST"
	CodeMultipleOf           = "MULTIPLE_OF"
	CodeMinimum              = "MINIMUM"
	CodeExclusiveMinimum     = "EXCLUSIVE_MINIMUM"
	CodeMaximum              = "MAXIMUM"
	CodeExclusiveMaximum     = "EXCLUSIVE_MAXIMUM"
	CodeMinLength            = "MIN_LENGTH"
	CodeMaxLength            = "MAX_LENGTH"
	CodePattern              = "PATTERN"
	CodeFormat               = "FORMAT"
	CodeMinItems             = "MIN_ITEMS"
	CodeMaxItems             = "MAX_ITEMS"
	CodeUniqueItems          = "UNIQUE_ITEMS"
	CodeContains             = "CONTAINS"
	CodeAdditionalItems      = "ADDITIONAL_ITEMS"
	CodeRequired             = "REQUIRED"
	CodeMinProperties        = "MIN_PROPERTIES"
	CodeMaxProperties        = "MAX_PROPERTIES"
	CodeAdditionalProperties = "ADDITIONAL_PROPERTIES"
	CodeDependency           = "DEPENDENCY"
	CodePropertyNames        = "PROPERTY_NAMES"
	CodeAllOf                = "ALL_OF"
	CodeAnyOf                = "ANY_OF"
	CodeOneOf                = "ONE_OF"
	CodeNot                  = "NOT"
)

// ValidationError is one violation, possibly wrapping nested violations.
type ValidationError struct {
	ViolatedSchema     *Schema
	PointerToViolation JSONPointer
	Code               string
	Keyword            string
	MessageTemplate    string
	Arguments          []any
	Causes             []*ValidationError
}

// NewValidationError creates a leaf violation.
func NewValidationError(schema *Schema, pointer JSONPointer, keyword, code, template string, args ...any) *ValidationError {
	return &ValidationError{
		ViolatedSchema:     schema,
		PointerToViolation: pointer,
		Code:               code,
		Keyword:            keyword,
		MessageTemplate:    template,
		Arguments:          args,
	}
}

// Message formats the template with its arguments.
func (e *ValidationError) Message() string {
	if len(e.Arguments) == 0 {
		return e.MessageTemplate
	}
	return fmt.Sprintf(e.MessageTemplate, e.Arguments...)
}

func (e *ValidationError) Error() string {
	return e.PointerToViolation.Fragment() + ": " + e.Message()
}

// ViolationCount counts leaf violations; an error without causes counts 1.
func (e *ValidationError) ViolationCount() int {
	if len(e.Causes) == 0 {
		return 1
	}
	n := 0
	for _, c := range e.Causes {
		n += c.ViolationCount()
	}
	return n
}

// AllMessages flattens the tree into leaf messages prefixed by their pointer.
func (e *ValidationError) AllMessages() []string {
	if len(e.Causes) == 0 {
		return []string{e.Error()}
	}
	var out []string
	for _, c := range e.Causes {
		out = append(out, c.AllMessages()...)
	}
	return out
}

// SchemaLocation returns the canonical URI of the violated schema.
func (e *ValidationError) SchemaLocation() string {
	if e.ViolatedSchema == nil {
		return ""
	}
	return e.ViolatedSchema.Location().CanonicalURI()
}

// ToJSON renders the error tree.
func (e *ValidationError) ToJSON() map[string]any {
	causes := make([]any, len(e.Causes))
	for i, c := range e.Causes {
		causes[i] = c.ToJSON()
	}
	out := map[string]any{
		"message":            e.Message(),
		"keyword":            e.Keyword,
		"pointerToViolation": e.PointerToViolation.Fragment(),
		"code":               e.Code,
		"causes":             causes,
	}
	if loc := e.SchemaLocation(); loc != "" {
		out["schemaLocation"] = loc
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (e *ValidationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// WrapViolations wraps several violations under one parent error.
func WrapViolations(schema *Schema, pointer JSONPointer, keyword string, causes []*ValidationError) *ValidationError {
	err := NewValidationError(schema, pointer, keyword, CodeMultipleViolations, "%d schema violations found", countViolations(causes))
	err.Causes = causes
	return err
}

func countViolations(errs []*ValidationError) int {
	n := 0
	for _, e := range errs {
		n += e.ViolationCount()
	}
	return n
}

// ValidationReport accumulates the violations of one validation call.
type ValidationReport struct {
	errors []*ValidationError
}

// NewValidationReport creates an empty report.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{}
}

// Child returns an empty report for isolating a sub-validation.
func (r *ValidationReport) Child() *ValidationReport {
	return &ValidationReport{}
}

// AddError records a violation and returns false so validators can return
// its result directly.
func (r *ValidationReport) AddError(err *ValidationError) bool {
	r.errors = append(r.errors, err)
	return false
}

// Fold moves the violations of child into r: one is added as is, several
// are wrapped under a single error. It reports whether child was clean.
func (r *ValidationReport) Fold(child *ValidationReport, schema *Schema, pointer JSONPointer, keyword string) bool {
	switch len(child.errors) {
	case 0:
		return true
	case 1:
		r.errors = append(r.errors, child.errors[0])
	default:
		r.errors = append(r.errors, WrapViolations(schema, pointer, keyword, child.errors))
	}
	return false
}

// Merge appends the violations of child unchanged.
func (r *ValidationReport) Merge(child *ValidationReport) bool {
	r.errors = append(r.errors, child.errors...)
	return len(child.errors) == 0
}

// IsValid reports whether no violation was recorded.
func (r *ValidationReport) IsValid() bool {
	return len(r.errors) == 0
}

// Errors returns the top-level violations.
func (r *ValidationReport) Errors() []*ValidationError {
	return append([]*ValidationError(nil), r.errors...)
}

// Error returns nil for a valid report, the violation when there is one and
// a wrapping error otherwise.
func (r *ValidationReport) Error() *ValidationError {
	switch len(r.errors) {
	case 0:
		return nil
	case 1:
		return r.errors[0]
	}
	return WrapViolations(r.errors[0].ViolatedSchema, JSONPointer{}, "", r.errors)
}

// ViolationCount counts leaf violations across the report.
func (r *ValidationReport) ViolationCount() int {
	return countViolations(r.errors)
}

// AllMessages flattens every violation into leaf messages.
func (r *ValidationReport) AllMessages() []string {
	var out []string
	for _, e := range r.errors {
		out = append(out, e.AllMessages()...)
	}
	return out
}

// ToJSON renders the report.
func (r *ValidationReport) ToJSON() map[string]any {
	errs := make([]any, len(r.errors))
	for i, e := range r.errors {
		errs[i] = e.ToJSON()
	}
	return map[string]any{
		"valid":          r.IsValid(),
		"violationCount": r.ViolationCount(),
		"errors":         errs,
	}
}

// MarshalJSON implements json.Marshaler.
func (r *ValidationReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToJSON())
}

func (r *ValidationReport) String() string {
	if r.IsValid() {
		return "valid"
	}
	return strings.Join(r.AllMessages(), "\n")
}
