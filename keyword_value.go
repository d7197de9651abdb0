package jsonschema

import (
	"encoding/json"
	"sort"
)

// KeywordValue is the digested value of one keyword. The set of
// implementations is closed; every implementation lives in this package.
type KeywordValue interface {
	// Subschemas lists the child schemas held by the value.
	Subschemas() []*Schema
	appendJSON(out map[string]any, info *KeywordInfo, version Draft)
	equal(other KeywordValue, c *schemaComparer) bool
}

// BooleanKeyword holds a boolean keyword such as uniqueItems or the
// draft-3 property-level required flag.
type BooleanKeyword struct {
	Value bool
}

func (k *BooleanKeyword) Subschemas() []*Schema { return nil }

func (k *BooleanKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	if info == KeywordRequired && version != Draft3 {
		// lifted into the parent's required array by Schema.ToJSON
		return
	}
	out[info.Key] = k.Value
}

func (k *BooleanKeyword) equal(other KeywordValue, _ *schemaComparer) bool {
	o, ok := other.(*BooleanKeyword)
	return ok && o.Value == k.Value
}

// StringKeyword holds a string keyword.
type StringKeyword struct {
	Value string
}

func (k *StringKeyword) Subschemas() []*Schema { return nil }

func (k *StringKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	key := info.Key
	if info == KeywordID || info == KeywordLegacyID {
		key = version.IDKey()
	}
	out[key] = k.Value
}

func (k *StringKeyword) equal(other KeywordValue, _ *schemaComparer) bool {
	o, ok := other.(*StringKeyword)
	return ok && o.Value == k.Value
}

// NumberKeyword holds a numeric keyword in its source lexical form.
type NumberKeyword struct {
	Value json.Number
}

func (k *NumberKeyword) Subschemas() []*Schema { return nil }

func (k *NumberKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	key := info.Key
	switch {
	case info == KeywordDivisibleBy && version != Draft3:
		key = KeywordMultipleOf.Key
	case info == KeywordMultipleOf && version == Draft3:
		key = KeywordDivisibleBy.Key
	}
	out[key] = k.Value
}

func (k *NumberKeyword) equal(other KeywordValue, _ *schemaComparer) bool {
	o, ok := other.(*NumberKeyword)
	return ok && o.Value == k.Value
}

// Int returns the value as an int when it is integral.
func (k *NumberKeyword) Int() (int, bool) {
	if !IsInteger(k.Value, false) {
		return 0, false
	}
	r, ok := NumberRat(k.Value)
	if !ok || !r.Num().IsInt64() {
		return 0, false
	}
	return int(r.Num().Int64()), true
}

// StringSetKeyword holds a set of strings, e.g. the draft-4 required array.
type StringSetKeyword struct {
	Values []string
}

func (k *StringSetKeyword) Subschemas() []*Schema { return nil }

func (k *StringSetKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	if info == KeywordRequired && version == Draft3 {
		// pushed down into property schemas by Schema.ToJSON
		return
	}
	arr := make([]any, len(k.Values))
	for i, v := range k.Values {
		arr[i] = v
	}
	out[info.Key] = arr
}

func (k *StringSetKeyword) equal(other KeywordValue, _ *schemaComparer) bool {
	o, ok := other.(*StringSetKeyword)
	if !ok || len(o.Values) != len(k.Values) {
		return false
	}
	a := append([]string(nil), k.Values...)
	b := append([]string(nil), o.Values...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Contains reports whether s is a member of the set.
func (k *StringSetKeyword) Contains(s string) bool {
	for _, v := range k.Values {
		if v == s {
			return true
		}
	}
	return false
}

// LimitKeyword is the normalized form of minimum/exclusiveMinimum (or
// maximum/exclusiveMaximum). Limit is inclusive, ExclusiveLimit exclusive;
// an empty number means unset. The draft-4 pair {minimum: 5,
// exclusiveMinimum: true} digests to ExclusiveLimit 5.
type LimitKeyword struct {
	Limit          json.Number
	ExclusiveLimit json.Number
}

func (k *LimitKeyword) Subschemas() []*Schema { return nil }

// IsSet reports whether any limit is present.
func (k *LimitKeyword) IsSet() bool {
	return k.Limit != "" || k.ExclusiveLimit != ""
}

func (k *LimitKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	limitKey, exclusiveKey := KeywordMinimum.Key, KeywordExclusiveMinimum.Key
	stricter := 1
	if info == KeywordMaximum {
		limitKey, exclusiveKey = KeywordMaximum.Key, KeywordExclusiveMaximum.Key
		stricter = -1
	}
	if version == Draft3 || version == Draft4 {
		switch {
		case k.ExclusiveLimit != "" && k.Limit != "":
			l, _ := NumberRat(k.Limit)
			e, _ := NumberRat(k.ExclusiveLimit)
			// keep whichever bound is stricter; equal values favour the exclusive form
			if l.Cmp(e)*stricter > 0 {
				out[limitKey] = k.Limit
				return
			}
			out[limitKey] = k.ExclusiveLimit
			out[exclusiveKey] = true
		case k.ExclusiveLimit != "":
			out[limitKey] = k.ExclusiveLimit
			out[exclusiveKey] = true
		case k.Limit != "":
			out[limitKey] = k.Limit
		}
		return
	}
	if k.Limit != "" {
		out[limitKey] = k.Limit
	}
	if k.ExclusiveLimit != "" {
		out[exclusiveKey] = k.ExclusiveLimit
	}
}

func (k *LimitKeyword) equal(other KeywordValue, _ *schemaComparer) bool {
	o, ok := other.(*LimitKeyword)
	return ok && o.Limit == k.Limit && o.ExclusiveLimit == k.ExclusiveLimit
}

// SingleSchemaKeyword holds one subschema (not, contains, if, ...).
type SingleSchemaKeyword struct {
	Schema *Schema
}

func (k *SingleSchemaKeyword) Subschemas() []*Schema { return []*Schema{k.Schema} }

func (k *SingleSchemaKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	allowBool := info == KeywordAdditionalProperties
	out[info.Key] = schemaJSON(k.Schema, version, allowBool)
}

func (k *SingleSchemaKeyword) equal(other KeywordValue, c *schemaComparer) bool {
	o, ok := other.(*SingleSchemaKeyword)
	return ok && c.equal(k.Schema, o.Schema)
}

// SchemaListKeyword holds an ordered list of subschemas (allOf, anyOf,
// oneOf, draft-3 extends).
type SchemaListKeyword struct {
	Schemas []*Schema
	// SingleForm marks a draft-3 extends written as one schema.
	SingleForm bool
}

func (k *SchemaListKeyword) Subschemas() []*Schema { return k.Schemas }

func (k *SchemaListKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	if info == KeywordExtends && version != Draft3 {
		existing, _ := out[KeywordAllOf.Key].([]any)
		for _, s := range k.Schemas {
			existing = append(existing, schemaJSON(s, version, false))
		}
		out[KeywordAllOf.Key] = existing
		return
	}
	if info == KeywordExtends && k.SingleForm && len(k.Schemas) == 1 {
		out[info.Key] = schemaJSON(k.Schemas[0], version, false)
		return
	}
	arr, _ := out[info.Key].([]any)
	for _, s := range k.Schemas {
		arr = append(arr, schemaJSON(s, version, false))
	}
	out[info.Key] = arr
}

func (k *SchemaListKeyword) equal(other KeywordValue, c *schemaComparer) bool {
	o, ok := other.(*SchemaListKeyword)
	if !ok || len(o.Schemas) != len(k.Schemas) {
		return false
	}
	for i := range k.Schemas {
		if !c.equal(k.Schemas[i], o.Schemas[i]) {
			return false
		}
	}
	return true
}

// SchemaMapKeyword holds named subschemas (properties, patternProperties,
// definitions).
type SchemaMapKeyword struct {
	Schemas map[string]*Schema
}

func (k *SchemaMapKeyword) Subschemas() []*Schema {
	keys := make([]string, 0, len(k.Schemas))
	for name := range k.Schemas {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	out := make([]*Schema, 0, len(keys))
	for _, name := range keys {
		out = append(out, k.Schemas[name])
	}
	return out
}

func (k *SchemaMapKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	obj := make(map[string]any, len(k.Schemas))
	for name, s := range k.Schemas {
		obj[name] = schemaJSON(s, version, false)
	}
	out[info.Key] = obj
}

func (k *SchemaMapKeyword) equal(other KeywordValue, c *schemaComparer) bool {
	o, ok := other.(*SchemaMapKeyword)
	if !ok || len(o.Schemas) != len(k.Schemas) {
		return false
	}
	for name, s := range k.Schemas {
		os, ok := o.Schemas[name]
		if !ok || !c.equal(s, os) {
			return false
		}
	}
	return true
}

// ItemsKeyword merges items and additionalItems. Exactly one of All and
// Tuple is used; Additional only matters with Tuple.
type ItemsKeyword struct {
	All        *Schema
	Tuple      []*Schema
	Additional *Schema
}

func (k *ItemsKeyword) Subschemas() []*Schema {
	var out []*Schema
	if k.All != nil {
		out = append(out, k.All)
	}
	out = append(out, k.Tuple...)
	if k.Additional != nil {
		out = append(out, k.Additional)
	}
	return out
}

func (k *ItemsKeyword) appendJSON(out map[string]any, _ *KeywordInfo, version Draft) {
	switch {
	case k.All != nil:
		out[KeywordItems.Key] = schemaJSON(k.All, version, false)
	case k.Tuple != nil:
		arr := make([]any, len(k.Tuple))
		for i, s := range k.Tuple {
			arr[i] = schemaJSON(s, version, false)
		}
		out[KeywordItems.Key] = arr
	}
	if k.Additional != nil {
		out[KeywordAdditionalItems.Key] = schemaJSON(k.Additional, version, true)
	}
}

func (k *ItemsKeyword) equal(other KeywordValue, c *schemaComparer) bool {
	o, ok := other.(*ItemsKeyword)
	if !ok || len(o.Tuple) != len(k.Tuple) || (o.Tuple == nil) != (k.Tuple == nil) {
		return false
	}
	if !c.equal(k.All, o.All) || !c.equal(k.Additional, o.Additional) {
		return false
	}
	for i := range k.Tuple {
		if !c.equal(k.Tuple[i], o.Tuple[i]) {
			return false
		}
	}
	return true
}

// TypeKeyword holds type (or draft-3 disallow). Draft-3 union types may mix
// type names and schemas.
type TypeKeyword struct {
	Types   []JSONType
	Schemas []*Schema
	// ArrayForm records that the source used an array.
	ArrayForm bool
}

func (k *TypeKeyword) Subschemas() []*Schema { return k.Schemas }

// Allows reports whether the type names accept an instance of type t.
// Integer acceptance is decided by the caller.
func (k *TypeKeyword) Allows(t JSONType) bool {
	for _, declared := range k.Types {
		if declared.Matches(t) {
			return true
		}
	}
	return false
}

// Has reports whether t is named explicitly.
func (k *TypeKeyword) Has(t JSONType) bool {
	for _, declared := range k.Types {
		if declared == t {
			return true
		}
	}
	return false
}

func (k *TypeKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	if !k.ArrayForm && len(k.Types) == 1 && len(k.Schemas) == 0 {
		out[info.Key] = string(k.Types[0])
		return
	}
	arr := make([]any, 0, len(k.Types)+len(k.Schemas))
	for _, t := range k.Types {
		arr = append(arr, string(t))
	}
	for _, s := range k.Schemas {
		arr = append(arr, schemaJSON(s, version, false))
	}
	out[info.Key] = arr
}

func (k *TypeKeyword) equal(other KeywordValue, c *schemaComparer) bool {
	o, ok := other.(*TypeKeyword)
	if !ok || len(o.Types) != len(k.Types) || len(o.Schemas) != len(k.Schemas) {
		return false
	}
	for _, t := range k.Types {
		if !o.Has(t) {
			return false
		}
	}
	for i := range k.Schemas {
		if !c.equal(k.Schemas[i], o.Schemas[i]) {
			return false
		}
	}
	return true
}

// DependenciesKeyword merges schema dependencies and property dependencies;
// both may exist for the same property.
type DependenciesKeyword struct {
	Schemas    map[string]*Schema
	Properties map[string][]string
	// StringForm marks draft-3 dependencies written as a single string.
	StringForm map[string]bool
}

func (k *DependenciesKeyword) Subschemas() []*Schema {
	keys := make([]string, 0, len(k.Schemas))
	for name := range k.Schemas {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	out := make([]*Schema, 0, len(keys))
	for _, name := range keys {
		out = append(out, k.Schemas[name])
	}
	return out
}

func (k *DependenciesKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	obj := make(map[string]any, len(k.Schemas)+len(k.Properties))
	for name, props := range k.Properties {
		if version == Draft3 && k.StringForm[name] && len(props) == 1 {
			obj[name] = props[0]
			continue
		}
		arr := make([]any, len(props))
		for i, p := range props {
			arr[i] = p
		}
		obj[name] = arr
	}
	for name, s := range k.Schemas {
		// a name with both forms can only be written once; the schema wins
		obj[name] = schemaJSON(s, version, false)
	}
	out[info.Key] = obj
}

func (k *DependenciesKeyword) equal(other KeywordValue, c *schemaComparer) bool {
	o, ok := other.(*DependenciesKeyword)
	if !ok || len(o.Schemas) != len(k.Schemas) || len(o.Properties) != len(k.Properties) {
		return false
	}
	for name, s := range k.Schemas {
		if !c.equal(s, o.Schemas[name]) {
			return false
		}
	}
	for name, props := range k.Properties {
		oprops, ok := o.Properties[name]
		if !ok || len(oprops) != len(props) {
			return false
		}
		for i := range props {
			if props[i] != oprops[i] {
				return false
			}
		}
	}
	return true
}

// JSONValueKeyword holds an arbitrary JSON value (default, const).
type JSONValueKeyword struct {
	Value any
}

func (k *JSONValueKeyword) Subschemas() []*Schema { return nil }

func (k *JSONValueKeyword) appendJSON(out map[string]any, info *KeywordInfo, _ Draft) {
	out[info.Key] = k.Value
}

func (k *JSONValueKeyword) equal(other KeywordValue, _ *schemaComparer) bool {
	o, ok := other.(*JSONValueKeyword)
	return ok && ValuesEqual(k.Value, o.Value)
}

// JSONArrayKeyword holds a list of JSON values (enum, examples).
type JSONArrayKeyword struct {
	Values []any
}

func (k *JSONArrayKeyword) Subschemas() []*Schema { return nil }

func (k *JSONArrayKeyword) appendJSON(out map[string]any, info *KeywordInfo, _ Draft) {
	out[info.Key] = append([]any(nil), k.Values...)
}

func (k *JSONArrayKeyword) equal(other KeywordValue, _ *schemaComparer) bool {
	o, ok := other.(*JSONArrayKeyword)
	return ok && ValuesEqual(k.Values, o.Values)
}

// RefKeyword is a resolved $ref. Target may still be under construction
// while its document is loading.
type RefKeyword struct {
	Ref    string
	Target *Schema
}

func (k *RefKeyword) Subschemas() []*Schema {
	if k.Target == nil {
		return nil
	}
	return []*Schema{k.Target}
}

func (k *RefKeyword) appendJSON(out map[string]any, info *KeywordInfo, _ Draft) {
	out[info.Key] = k.Ref
}

func (k *RefKeyword) equal(other KeywordValue, c *schemaComparer) bool {
	o, ok := other.(*RefKeyword)
	return ok && o.Ref == k.Ref && c.equal(k.Target, o.Target)
}

// SchemaURIKeyword holds $schema. When Draft is known the value is written
// back as the canonical metaschema URI of the output draft; otherwise URI is
// echoed verbatim.
type SchemaURIKeyword struct {
	Draft Draft
	URI   string
}

func (k *SchemaURIKeyword) Subschemas() []*Schema { return nil }

func (k *SchemaURIKeyword) appendJSON(out map[string]any, info *KeywordInfo, version Draft) {
	if k.Draft != DraftUnknown {
		out[info.Key] = version.MetaschemaURI()
		return
	}
	out[info.Key] = k.URI
}

func (k *SchemaURIKeyword) equal(other KeywordValue, _ *schemaComparer) bool {
	o, ok := other.(*SchemaURIKeyword)
	if !ok {
		return false
	}
	if k.Draft != DraftUnknown || o.Draft != DraftUnknown {
		return k.Draft == o.Draft
	}
	return k.URI == o.URI
}
