package jsonschema

import (
	"fmt"
	"strings"
)

// Draft identifies a JSON Schema draft version.
type Draft int

const (
	DraftUnknown Draft = iota
	Draft3
	Draft4
	Draft6
	Draft7
)

// AllDrafts lists the supported drafts, oldest first.
var AllDrafts = []Draft{Draft3, Draft4, Draft6, Draft7}

var draftMetaschemas = map[Draft]string{
	Draft3: "http://json-schema.org/draft-03/schema#",
	Draft4: "http://json-schema.org/draft-04/schema#",
	Draft6: "http://json-schema.org/draft-06/schema#",
	Draft7: "http://json-schema.org/draft-07/schema#",
}

func (d Draft) String() string {
	switch d {
	case Draft3:
		return "draft-3"
	case Draft4:
		return "draft-4"
	case Draft6:
		return "draft-6"
	case Draft7:
		return "draft-7"
	}
	return "unknown"
}

// MetaschemaURI returns the canonical "$schema" value of the draft.
func (d Draft) MetaschemaURI() string {
	return draftMetaschemas[d]
}

// IDKeys returns the keys that carry a schema identifier, in preference order.
func (d Draft) IDKeys() []string {
	switch d {
	case Draft3, Draft4:
		return []string{"id"}
	}
	return []string{"$id", "id"}
}

// IDKey returns the identifier key written when serializing to this draft.
func (d Draft) IDKey() string {
	return d.IDKeys()[0]
}

// LexicalIntegers reports whether the draft treats only integer literals as integers.
func (d Draft) LexicalIntegers() bool {
	return d == Draft3 || d == Draft4
}

// In reports whether d is one of the given drafts.
func (d Draft) In(drafts []Draft) bool {
	for _, o := range drafts {
		if o == d {
			return true
		}
	}
	return false
}

// DraftFromURI recognizes the metaschema URI of a known draft. The scheme,
// a trailing "#" and a trailing "/" are not significant.
func DraftFromURI(uri string) (Draft, bool) {
	norm := normalizeMetaschemaURI(uri)
	for d, known := range draftMetaschemas {
		if normalizeMetaschemaURI(known) == norm {
			return d, true
		}
	}
	return DraftUnknown, false
}

func normalizeMetaschemaURI(uri string) string {
	s := strings.TrimSpace(uri)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "#")
	s = strings.TrimSuffix(s, "/")
	return s
}

// ParseDraft accepts "draft-4", "draft4", "4", "draft-07" and similar spellings.
func ParseDraft(s string) (Draft, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.TrimPrefix(norm, "draft")
	norm = strings.TrimPrefix(norm, "-")
	norm = strings.TrimLeft(norm, "0")
	switch norm {
	case "3":
		return Draft3, nil
	case "4":
		return Draft4, nil
	case "6":
		return Draft6, nil
	case "7":
		return Draft7, nil
	}
	if d, ok := DraftFromURI(s); ok {
		return d, nil
	}
	return DraftUnknown, NewInvalidArgumentError(fmt.Sprintf("unknown draft %q", s))
}

// MarshalText implements encoding.TextMarshaler.
func (d Draft) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Draft) UnmarshalText(text []byte) error {
	parsed, err := ParseDraft(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
