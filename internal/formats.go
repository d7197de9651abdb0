package internal

import (
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsonschema "github.com/lychee-technology/jsonschema"
)

// FormatRegistry holds the format validators consulted by the "format"
// keyword. Unknown formats are not asserted.
type FormatRegistry struct {
	mu         sync.RWMutex
	validators map[string]jsonschema.FormatValidator
}

// NewFormatRegistry returns a registry with the built-in formats.
func NewFormatRegistry() *FormatRegistry {
	r := &FormatRegistry{validators: make(map[string]jsonschema.FormatValidator)}
	r.Register("date-time", jsonschema.FormatValidatorFunc(validateDateTime))
	r.Register("date", jsonschema.FormatValidatorFunc(validateDate))
	r.Register("time", jsonschema.FormatValidatorFunc(validateTime))
	r.Register("email", jsonschema.FormatValidatorFunc(validateEmail))
	r.Register("hostname", jsonschema.FormatValidatorFunc(validateHostname))
	r.Register("host-name", jsonschema.FormatValidatorFunc(validateHostname))
	r.Register("ipv4", jsonschema.FormatValidatorFunc(validateIPv4))
	r.Register("ip-address", jsonschema.FormatValidatorFunc(validateIPv4))
	r.Register("ipv6", jsonschema.FormatValidatorFunc(validateIPv6))
	r.Register("uri", jsonschema.FormatValidatorFunc(validateURI))
	r.Register("uri-reference", jsonschema.FormatValidatorFunc(validateURIReference))
	r.Register("regex", jsonschema.FormatValidatorFunc(validateRegex))
	r.Register("json-pointer", jsonschema.FormatValidatorFunc(validateJSONPointer))
	r.Register("uuid", jsonschema.FormatValidatorFunc(validateUUID))
	return r
}

// Register adds or replaces the validator of a format.
func (r *FormatRegistry) Register(name string, v jsonschema.FormatValidator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = v
}

// FormatValidator looks up a format.
func (r *FormatRegistry) FormatValidator(name string) (jsonschema.FormatValidator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[name]
	return v, ok
}

// Formats returns the registered format names in sorted order.
func (r *FormatRegistry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return SortedMapKeys(r.validators)
}

func validateDateTime(s string) error {
	if _, err := time.Parse(time.RFC3339Nano, strings.ToUpper(s)); err != nil {
		return errors.New("expected RFC 3339 date-time")
	}
	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return errors.New("expected full-date yyyy-mm-dd")
	}
	return nil
}

func validateTime(s string) error {
	if _, err := time.Parse("15:04:05Z07:00", strings.ToUpper(s)); err != nil {
		return errors.New("expected RFC 3339 full-time")
	}
	return nil
}

func validateEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("expected an addr-spec")
	}
	return nil
}

var hostnameLabel = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)

func validateHostname(s string) error {
	name := strings.TrimSuffix(s, ".")
	if name == "" || len(name) > 253 {
		return errors.New("hostname length out of range")
	}
	for _, label := range strings.Split(name, ".") {
		if !hostnameLabel.MatchString(label) {
			return fmt.Errorf("invalid label %q", label)
		}
	}
	return nil
}

func validateIPv4(s string) error {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil || strings.Contains(s, ":") {
		return errors.New("expected dotted-quad IPv4 address")
	}
	return nil
}

func validateIPv6(s string) error {
	ip := net.ParseIP(s)
	if ip == nil || !strings.Contains(s, ":") {
		return errors.New("expected IPv6 address")
	}
	return nil
}

func validateURI(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if !u.IsAbs() {
		return errors.New("expected an absolute URI")
	}
	return nil
}

func validateURIReference(s string) error {
	_, err := url.Parse(s)
	return err
}

func validateRegex(s string) error {
	_, err := CompilePattern(s)
	return err
}

var badPointerEscape = regexp.MustCompile(`~([^01]|$)`)

func validateJSONPointer(s string) error {
	if strings.HasPrefix(s, "#") || badPointerEscape.MatchString(s) {
		return errors.New("expected an RFC 6901 pointer")
	}
	_, err := jsonschema.ParseJSONPointer(s)
	return err
}

func validateUUID(s string) error {
	if len(s) != 36 {
		return errors.New("expected 8-4-4-4-12 hex form")
	}
	_, err := uuid.Parse(s)
	return err
}
