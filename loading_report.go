package jsonschema

import (
	"fmt"
	"sync"
)

// IssueLevel is the severity of a loading issue.
type IssueLevel string

const (
	LevelWarn  IssueLevel = "WARN"
	LevelError IssueLevel = "ERROR"
)

// Loading issue codes
const (
	IssueTypeMismatch       = "typeMismatch"
	IssueUnknownKeyword     = "unknownKeyword"
	IssueKeywordNotInDraft  = "keywordNotInVersion"
	IssueInvalidRef         = "invalidRef"
	IssueRefResolution      = "refResolution"
	IssueInvalidID          = "invalidId"
	IssueInvalidPattern     = "invalidPattern"
	IssueInvalidValue       = "invalidValue"
	IssueRefSiblingsIgnored = "refSiblingsIgnored"
	IssueDocumentFetch      = "documentFetch"
)

// LoadingIssue is one problem found while reading a schema document.
type LoadingIssue struct {
	Code     string
	Location SchemaLocation
	Value    any
	Level    IssueLevel
	Message  string
	Args     []any
}

// FormattedMessage applies Args to Message.
func (i LoadingIssue) FormattedMessage() string {
	if len(i.Args) == 0 {
		return i.Message
	}
	return fmt.Sprintf(i.Message, i.Args...)
}

func (i LoadingIssue) String() string {
	return fmt.Sprintf("[%s %s] %s: %s", i.Level, i.Code, i.Location, i.FormattedMessage())
}

// ToJSON renders the issue for reports returned over the wire.
func (i LoadingIssue) ToJSON() map[string]any {
	out := map[string]any{
		"code":     i.Code,
		"level":    string(i.Level),
		"location": i.Location.CanonicalURI(),
		"message":  i.FormattedMessage(),
	}
	if i.Value != nil {
		out["value"] = i.Value
	}
	return out
}

// LoadingReport collects the issues of one load call, in order.
type LoadingReport struct {
	mu     sync.Mutex
	issues []LoadingIssue
}

// NewLoadingReport creates an empty report.
func NewLoadingReport() *LoadingReport {
	return &LoadingReport{}
}

// Add appends an issue.
func (r *LoadingReport) Add(issue LoadingIssue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = append(r.issues, issue)
}

// Log appends an issue built from its parts.
func (r *LoadingReport) Log(level IssueLevel, code string, loc SchemaLocation, value any, message string, args ...any) {
	r.Add(LoadingIssue{Code: code, Location: loc, Value: value, Level: level, Message: message, Args: args})
}

// Warn appends a WARN issue.
func (r *LoadingReport) Warn(code string, loc SchemaLocation, value any, message string, args ...any) {
	r.Log(LevelWarn, code, loc, value, message, args...)
}

// Error appends an ERROR issue.
func (r *LoadingReport) Error(code string, loc SchemaLocation, value any, message string, args ...any) {
	r.Log(LevelError, code, loc, value, message, args...)
}

// Issues returns every issue in the order found.
func (r *LoadingReport) Issues() []LoadingIssue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LoadingIssue(nil), r.issues...)
}

// Errors returns the ERROR issues.
func (r *LoadingReport) Errors() []LoadingIssue {
	return r.filter(LevelError)
}

// Warnings returns the WARN issues.
func (r *LoadingReport) Warnings() []LoadingIssue {
	return r.filter(LevelWarn)
}

func (r *LoadingReport) filter(level IssueLevel) []LoadingIssue {
	var out []LoadingIssue
	for _, issue := range r.Issues() {
		if issue.Level == level {
			out = append(out, issue)
		}
	}
	return out
}

// HasErrors reports whether an ERROR issue was recorded.
func (r *LoadingReport) HasErrors() bool {
	return len(r.Errors()) > 0
}

// HasCode reports whether an issue with the given code was recorded.
func (r *LoadingReport) HasCode(code string) bool {
	for _, issue := range r.Issues() {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// Len returns the number of issues.
func (r *LoadingReport) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issues)
}

// ToJSON renders all issues.
func (r *LoadingReport) ToJSON() []any {
	issues := r.Issues()
	out := make([]any, len(issues))
	for i, issue := range issues {
		out[i] = issue.ToJSON()
	}
	return out
}
