package jsonschema

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeFetch           ErrorType = "fetch"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeParse           ErrorType = "parse"
	ErrorTypeLoading         ErrorType = "loading"
	ErrorTypeInternal        ErrorType = "internal"
)

// Error codes
const (
	ErrCodeInvalidArgument    = "INVALID_ARGUMENT"
	ErrCodeInvalidURI         = "INVALID_URI"
	ErrCodeDocumentNotFound   = "DOCUMENT_NOT_FOUND"
	ErrCodeFetchFailed        = "FETCH_FAILED"
	ErrCodeFetchTimeout       = "FETCH_TIMEOUT"
	ErrCodeNoFetcher          = "NO_FETCHER"
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeSchemaInvalid      = "SCHEMA_INVALID"
	ErrCodeUnsupportedDraft   = "UNSUPPORTED_DRAFT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeFetcherUnavailable = "FETCHER_UNAVAILABLE"
)

// ErrDocumentNotFound is reported by fetchers that do not hold a document.
var ErrDocumentNotFound = errors.New("document not found")

// SchemaError is the structured error returned by loading and fetching
// operations. Validation failures are reported as *ValidationError instead.
type SchemaError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	URI     string         `json:"uri,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.URI != "" {
		msg = fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.URI, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrDocumentNotFound) hold for not-found errors.
func (e *SchemaError) Is(target error) bool {
	return target == ErrDocumentNotFound && e.Code == ErrCodeDocumentNotFound
}

// WithDetails adds details to a SchemaError
func (e *SchemaError) WithDetails(details map[string]any) *SchemaError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail to a SchemaError
func (e *SchemaError) WithDetail(key string, value any) *SchemaError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to a SchemaError
func (e *SchemaError) WithCause(cause error) *SchemaError {
	e.Cause = cause
	return e
}

// WithURI records the document or schema URI the error is about.
func (e *SchemaError) WithURI(uri string) *SchemaError {
	e.URI = uri
	return e
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(errorType ErrorType, code, message string) *SchemaError {
	return &SchemaError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewInvalidArgumentError creates an invalid argument error
func NewInvalidArgumentError(message string) *SchemaError {
	return NewSchemaError(ErrorTypeInvalidArgument, ErrCodeInvalidArgument, message)
}

// NewInvalidURIError creates an error for a URI that cannot be used
func NewInvalidURIError(uri string, cause error) *SchemaError {
	return NewSchemaError(ErrorTypeInvalidArgument, ErrCodeInvalidURI, "invalid uri").WithURI(uri).WithCause(cause)
}

// NewDocumentNotFoundError creates a document not found error
func NewDocumentNotFoundError(uri string) *SchemaError {
	return NewSchemaError(ErrorTypeNotFound, ErrCodeDocumentNotFound, "document not found").WithURI(uri)
}

// NewFetchFailedError creates an error for a failed document fetch
func NewFetchFailedError(uri string, cause error) *SchemaError {
	return NewSchemaError(ErrorTypeFetch, ErrCodeFetchFailed, "failed to fetch document").WithURI(uri).WithCause(cause)
}

// NewFetchTimeoutError creates an error for a fetch that exceeded its deadline
func NewFetchTimeoutError(uri string, cause error) *SchemaError {
	return NewSchemaError(ErrorTypeTimeout, ErrCodeFetchTimeout, "document fetch timed out").WithURI(uri).WithCause(cause)
}

// NewNoFetcherError creates an error for a URI no fetcher supports
func NewNoFetcherError(uri string) *SchemaError {
	return NewSchemaError(ErrorTypeFetch, ErrCodeNoFetcher, "no fetcher supports this uri").WithURI(uri)
}

// NewFetcherUnavailableError is reported for a fetcher whose circuit breaker is open
func NewFetcherUnavailableError(name string) *SchemaError {
	return NewSchemaError(ErrorTypeFetch, ErrCodeFetcherUnavailable, "fetcher temporarily disabled").WithDetail("fetcher", name)
}

// NewInvalidJSONError creates a parse error
func NewInvalidJSONError(cause error) *SchemaError {
	return NewSchemaError(ErrorTypeParse, ErrCodeInvalidJSON, "malformed JSON document").WithCause(cause)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *SchemaError {
	return NewSchemaError(ErrorTypeInternal, ErrCodeInternalError, message).WithCause(cause)
}

// IsDocumentNotFound reports whether err means that a document does not exist.
func IsDocumentNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// SchemaLoadingError is returned when a schema cannot be loaded. The report
// holds every issue collected before loading stopped.
type SchemaLoadingError struct {
	Report *LoadingReport
	Cause  error
}

func (e *SchemaLoadingError) Error() string {
	msg := "schema loading failed"
	if e.Report != nil {
		if errs := e.Report.Errors(); len(errs) > 0 {
			// the issue message already quotes the cause
			msg = fmt.Sprintf("%s: %s", msg, errs[0].String())
			if len(errs) > 1 {
				msg = fmt.Sprintf("%s (and %d more)", msg, len(errs)-1)
			}
			return msg
		}
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SchemaLoadingError) Unwrap() error {
	return e.Cause
}
