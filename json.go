package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// JSONType is the JSON-Schema name of a JSON value type.
type JSONType string

const (
	TypeNull    JSONType = "null"
	TypeBoolean JSONType = "boolean"
	TypeObject  JSONType = "object"
	TypeArray   JSONType = "array"
	TypeNumber  JSONType = "number"
	TypeString  JSONType = "string"
	TypeInteger JSONType = "integer"
	// TypeAny is the draft-3 "any" type.
	TypeAny JSONType = "any"
)

// InstanceTypes lists the concrete types TypeOf can return.
var InstanceTypes = []JSONType{TypeNull, TypeBoolean, TypeObject, TypeArray, TypeNumber, TypeString}

// ParseJSONType converts a type name found in a schema document.
func ParseJSONType(s string) (JSONType, bool) {
	switch JSONType(s) {
	case TypeNull, TypeBoolean, TypeObject, TypeArray, TypeNumber, TypeString, TypeInteger, TypeAny:
		return JSONType(s), true
	}
	return "", false
}

// TypeOf reports the JSON type of a decoded value. Integers are reported as
// TypeNumber; use IsInteger to distinguish them.
func TypeOf(v any) JSONType {
	switch v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	case string:
		return TypeString
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeNumber
	}
	return ""
}

// Matches reports whether an instance of type actual satisfies a declared type.
func (t JSONType) Matches(actual JSONType) bool {
	if t == actual || t == TypeAny {
		return true
	}
	return false
}

// NumberText returns the lexical form of a numeric value.
func NumberText(v any) (string, bool) {
	switch n := v.(type) {
	case json.Number:
		return n.String(), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	}
	return "", false
}

// ToNumber normalizes any numeric value to a json.Number.
func ToNumber(v any) (json.Number, bool) {
	s, ok := NumberText(v)
	if !ok {
		return "", false
	}
	return json.Number(s), true
}

// NumberRat parses a numeric value exactly.
func NumberRat(v any) (*big.Rat, bool) {
	s, ok := NumberText(v)
	if !ok {
		return nil, false
	}
	r, ok := new(big.Rat).SetString(s)
	return r, ok
}

// NumberFloat converts a numeric value to float64.
func NumberFloat(v any) (float64, bool) {
	s, ok := NumberText(v)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsInteger reports whether v is an integer. With lexical set, only numbers
// written without fraction or exponent count; otherwise any number with a
// zero fractional part does.
func IsInteger(v any, lexical bool) bool {
	s, ok := NumberText(v)
	if !ok {
		return false
	}
	if lexical {
		return !strings.ContainsAny(s, ".eE")
	}
	r, ok := new(big.Rat).SetString(s)
	return ok && r.IsInt()
}

// DecodeJSON decodes a single JSON document, keeping numbers as json.Number.
func DecodeJSON(data []byte) (any, error) {
	return DecodeJSONReader(bytes.NewReader(data))
}

// DecodeJSONReader decodes a single JSON document from r.
func DecodeJSONReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, NewInvalidJSONError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, NewInvalidJSONError(fmt.Errorf("unexpected data after top-level value"))
	}
	return v, nil
}

// ValuesEqual compares two JSON values. Numbers are compared by their
// lexical form, so 1 and 1.0 differ.
func ValuesEqual(a, b any) bool {
	ta, tb := TypeOf(a), TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta {
	case TypeNull:
		return true
	case TypeBoolean:
		return a.(bool) == b.(bool)
	case TypeString:
		return a.(string) == b.(string)
	case TypeNumber:
		sa, _ := NumberText(a)
		sb, _ := NumberText(b)
		return sa == sb
	case TypeArray:
		aa, ab := a.([]any), b.([]any)
		if len(aa) != len(ab) {
			return false
		}
		for i := range aa {
			if !ValuesEqual(aa[i], ab[i]) {
				return false
			}
		}
		return true
	case TypeObject:
		ma, mb := a.(map[string]any), b.(map[string]any)
		if len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !ValuesEqual(va, vb) {
				return false
			}
		}
		return true
	}
	return false
}

// SortedKeys returns the keys of an object in lexical order.
func SortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CanonicalJSON encodes v with sorted object keys. It is used for hashing and
// for messages, never for round-trip output.
func CanonicalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// ValueWithPath is a JSON value together with the document it was found in
// and its location inside that document.
type ValueWithPath struct {
	Value       any
	Path        JSONPointer
	Document    any
	DocumentURI string
}

// Child returns the wrapper for an object member.
func (v ValueWithPath) Child(key string) ValueWithPath {
	var child any
	if obj, ok := v.Value.(map[string]any); ok {
		child = obj[key]
	}
	return ValueWithPath{Value: child, Path: v.Path.Append(key), Document: v.Document, DocumentURI: v.DocumentURI}
}

// Index returns the wrapper for an array element.
func (v ValueWithPath) Index(i int) ValueWithPath {
	var child any
	if arr, ok := v.Value.([]any); ok && i >= 0 && i < len(arr) {
		child = arr[i]
	}
	return ValueWithPath{Value: child, Path: v.Path.AppendIndex(i), Document: v.Document, DocumentURI: v.DocumentURI}
}

// Type returns the JSON type of the wrapped value.
func (v ValueWithPath) Type() JSONType {
	return TypeOf(v.Value)
}
