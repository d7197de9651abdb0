package jsonschema

import (
	"context"
	"io"
)

// DocumentFetcher retrieves raw schema documents by absolute URI. A fetcher
// that does not hold a document returns an error matching
// ErrDocumentNotFound.
type DocumentFetcher interface {
	Name() string
	Supports(uri string) bool
	FetchDocument(ctx context.Context, uri string) ([]byte, error)
}

// FormatValidator checks a string against a named format. It returns nil
// when the value conforms.
type FormatValidator interface {
	Validate(value string) error
}

// FormatValidatorFunc adapts a function to FormatValidator.
type FormatValidatorFunc func(value string) error

// Validate calls f.
func (f FormatValidatorFunc) Validate(value string) error {
	return f(value)
}

// FormatRegistry looks up format validators by format name.
type FormatRegistry interface {
	FormatValidator(name string) (FormatValidator, bool)
}

// SchemaReader loads schemas from the supported input forms.
type SchemaReader interface {
	// ReadSchema accepts a decoded document, a string, a []byte, an
	// io.Reader or a *ValueWithPath.
	ReadSchema(ctx context.Context, source any) (*Schema, *LoadingReport, error)
	ReadSchemaURI(ctx context.Context, uri string) (*Schema, *LoadingReport, error)
	ReadSchemaReader(ctx context.Context, r io.Reader) (*Schema, *LoadingReport, error)
}

// SchemaValidator validates instances against one schema.
type SchemaValidator interface {
	// Validate records violations in report and reports whether the
	// instance is valid.
	Validate(instance ValueWithPath, report *ValidationReport) bool
}

// ValidatorFactory compiles schemas into validators.
type ValidatorFactory interface {
	CreateValidator(schema *Schema) SchemaValidator
}
