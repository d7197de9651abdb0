package jsonschema

import (
	"encoding/json"
	"sort"
)

// Schema is an immutable, digested JSON schema. Schemas reached through $ref
// may form cycles.
type Schema struct {
	location        SchemaLocation
	keywords        map[*KeywordInfo]KeywordValue
	extraProperties map[string]any
	version         Draft
	// boolForm is set for draft-6 boolean schemas so they serialize back as
	// true/false.
	boolForm *bool
}

// NewSchema builds a schema from digested keywords. The maps are copied.
func NewSchema(location SchemaLocation, keywords map[*KeywordInfo]KeywordValue, extra map[string]any, version Draft) *Schema {
	s := &Schema{
		location:        location,
		keywords:        make(map[*KeywordInfo]KeywordValue, len(keywords)),
		extraProperties: make(map[string]any, len(extra)),
		version:         version,
	}
	for k, v := range keywords {
		s.keywords[k] = v
	}
	for k, v := range extra {
		s.extraProperties[k] = v
	}
	return s
}

// NewBooleanSchema returns the schema form of a draft-6 boolean schema:
// true is the null schema, false is {"not": {}}.
func NewBooleanSchema(value bool, location SchemaLocation, version Draft) *Schema {
	var s *Schema
	if value {
		s = NewSchema(location, nil, nil, version)
	} else {
		s = NewSchema(location, map[*KeywordInfo]KeywordValue{
			KeywordNot: &SingleSchemaKeyword{Schema: NewSchema(location.Child(KeywordNot.Key), nil, nil, version)},
		}, nil, version)
	}
	s.boolForm = &value
	return s
}

var (
	nullSchema  = NewSchema(SchemaLocation{}, nil, nil, Draft7)
	falseSchema = NewBooleanSchema(false, SchemaLocation{}, Draft7)
)

// NullSchema returns the shared schema without keywords; it accepts everything.
func NullSchema() *Schema { return nullSchema }

// FalseSchema returns the shared never-matching schema, {"not": {}}.
func FalseSchema() *Schema { return falseSchema }

// IsNullSchema reports whether s has no keywords and no extra properties.
func IsNullSchema(s *Schema) bool {
	return s != nil && len(s.keywords) == 0 && len(s.extraProperties) == 0
}

// IsFalseSchema reports whether s is structurally {"not": {}}.
func IsFalseSchema(s *Schema) bool {
	if s == nil || len(s.keywords) != 1 {
		return false
	}
	not, ok := s.keywords[KeywordNot].(*SingleSchemaKeyword)
	return ok && IsNullSchema(not.Schema)
}

// Location returns the identity of the schema.
func (s *Schema) Location() SchemaLocation { return s.location }

// Version returns the draft the schema was read as.
func (s *Schema) Version() Draft { return s.version }

// Keyword returns the value digested for a keyword.
func (s *Schema) Keyword(info *KeywordInfo) (KeywordValue, bool) {
	v, ok := s.keywords[info]
	return v, ok
}

// HasKeyword reports whether the keyword is present.
func (s *Schema) HasKeyword(info *KeywordInfo) bool {
	_, ok := s.keywords[info]
	return ok
}

// Keywords returns a copy of the keyword map.
func (s *Schema) Keywords() map[*KeywordInfo]KeywordValue {
	out := make(map[*KeywordInfo]KeywordValue, len(s.keywords))
	for k, v := range s.keywords {
		out[k] = v
	}
	return out
}

// SortedKeywords returns the keyword descriptors ordered by key.
func (s *Schema) SortedKeywords() []*KeywordInfo {
	out := make([]*KeywordInfo, 0, len(s.keywords))
	for k := range s.keywords {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ExtraProperties returns the unrecognized keys, preserved verbatim.
func (s *Schema) ExtraProperties() map[string]any {
	out := make(map[string]any, len(s.extraProperties))
	for k, v := range s.extraProperties {
		out[k] = v
	}
	return out
}

// Subschemas lists the direct children of every keyword.
func (s *Schema) Subschemas() []*Schema {
	var out []*Schema
	for _, info := range s.SortedKeywords() {
		out = append(out, s.keywords[info].Subschemas()...)
	}
	return out
}

// Equal compares keyword maps structurally. Cycles are handled.
func (s *Schema) Equal(other *Schema) bool {
	return newSchemaComparer().equal(s, other)
}

// ToJSON re-serializes the schema using the keyword shapes of version.
func (s *Schema) ToJSON(version Draft) any {
	if version == DraftUnknown {
		version = s.version
	}
	return schemaJSON(s, version, false)
}

// MarshalJSON writes the schema in its own draft.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToJSON(s.version))
}

func (s *Schema) String() string {
	b, err := s.MarshalJSON()
	if err != nil {
		return s.location.String()
	}
	return string(b)
}

// schemaJSON renders a schema. Boolean schemas are written as booleans where
// the draft allows it (draft-6+, or additionalProperties/additionalItems).
func schemaJSON(s *Schema, version Draft, allowBool bool) any {
	if s == nil {
		return map[string]any{}
	}
	if s.boolForm != nil && (allowBool || version >= Draft6) {
		return *s.boolForm
	}
	out := make(map[string]any, len(s.keywords)+len(s.extraProperties))
	for k, v := range s.extraProperties {
		out[k] = v
	}
	for _, info := range s.SortedKeywords() {
		s.keywords[info].appendJSON(out, info, version)
	}
	adjustRequired(s, out, version)
	return out
}

// adjustRequired converts between the draft-3 property-level required flag
// and the draft-4 required array.
func adjustRequired(s *Schema, out map[string]any, version Draft) {
	props, ok := s.keywords[KeywordProperties].(*SchemaMapKeyword)
	if !ok {
		return
	}
	if version == Draft3 {
		set, ok := s.keywords[KeywordRequired].(*StringSetKeyword)
		if !ok {
			return
		}
		rendered, _ := out[KeywordProperties.Key].(map[string]any)
		for _, name := range set.Values {
			if child, ok := rendered[name].(map[string]any); ok {
				child[KeywordRequired.Key] = true
			}
		}
		return
	}
	var lifted []string
	for _, name := range sortedSchemaNames(props.Schemas) {
		if flag, ok := props.Schemas[name].keywords[KeywordRequired].(*BooleanKeyword); ok && flag.Value {
			lifted = append(lifted, name)
		}
	}
	if len(lifted) == 0 {
		return
	}
	existing, _ := out[KeywordRequired.Key].([]any)
	for _, name := range lifted {
		dup := false
		for _, e := range existing {
			if e == name {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, name)
		}
	}
	out[KeywordRequired.Key] = existing
}

func sortedSchemaNames(m map[string]*Schema) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type schemaComparer struct {
	seen map[[2]*Schema]bool
}

func newSchemaComparer() *schemaComparer {
	return &schemaComparer{seen: make(map[[2]*Schema]bool)}
}

func (c *schemaComparer) equal(a, b *Schema) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	key := [2]*Schema{a, b}
	if c.seen[key] {
		return true
	}
	c.seen[key] = true
	if len(a.keywords) != len(b.keywords) {
		return false
	}
	for info, av := range a.keywords {
		bv, ok := b.keywords[info]
		if !ok || !av.equal(bv, c) {
			return false
		}
	}
	return true
}

// Walk visits s and every schema reachable from it once, parents first.
func Walk(s *Schema, visit func(*Schema) bool) {
	seen := map[*Schema]bool{}
	var rec func(*Schema)
	rec = func(cur *Schema) {
		if cur == nil || seen[cur] {
			return
		}
		seen[cur] = true
		if !visit(cur) {
			return
		}
		for _, child := range cur.Subschemas() {
			rec(child)
		}
	}
	rec(s)
}
