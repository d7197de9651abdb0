package internal

import (
	"strconv"

	jsonschema "github.com/lychee-technology/jsonschema"
)

// keywordDigester converts the raw value of one key into a keyword value.
// info describes the raw key; the result is stored under store. A digester
// may return nil when it stores nothing.
type keywordDigester struct {
	info   *jsonschema.KeywordInfo
	store  *jsonschema.KeywordInfo
	digest func(dc *digestContext) jsonschema.KeywordValue
}

// digestContext is the input of a digester.
type digestContext struct {
	loader  *SchemaLoader
	lc      *loadContext
	builder *jsonschema.SchemaBuilder
	obj     map[string]any
	value   jsonschema.ValueWithPath
	key     string
	raw     any
}

func (dc *digestContext) version() jsonschema.Draft { return dc.builder.Version() }

func (dc *digestContext) issue(code, message string, args ...any) {
	dc.lc.report.Log(dc.loader.issueLevel(dc.version()), code, dc.builder.Location().Child(dc.key), dc.raw, message, args...)
}

func (dc *digestContext) warn(code, message string, args ...any) {
	dc.lc.report.Warn(code, dc.builder.Location().Child(dc.key), dc.raw, message, args...)
}

// subschemaAt builds the subschema found at segments below the current
// schema. raw must be an object, or a boolean schema.
func (dc *digestContext) subschemaAt(raw any, segments ...string) *jsonschema.Schema {
	loc := dc.builder.Location().Child(segments...)
	switch raw.(type) {
	case map[string]any:
	case bool:
		if dc.version() < jsonschema.Draft6 {
			dc.lc.report.Warn(jsonschema.IssueKeywordNotInDraft, loc, raw, "boolean schemas are not defined in %s", dc.version())
		}
	default:
		dc.lc.report.Log(dc.loader.issueLevel(dc.version()), jsonschema.IssueTypeMismatch, loc, raw,
			"expected a schema, found %s", jsonschema.TypeOf(raw))
		return nil
	}
	value := jsonschema.ValueWithPath{
		Value:       raw,
		Path:        dc.value.Path.Append(segments...),
		Document:    dc.value.Document,
		DocumentURI: dc.value.DocumentURI,
	}
	return dc.loader.subSchema(dc.lc, value, loc, dc.version())
}

func defaultDigesters() map[string][]keywordDigester {
	m := make(map[string][]keywordDigester)
	add := func(info, store *jsonschema.KeywordInfo, fn func(dc *digestContext) jsonschema.KeywordValue) {
		m[info.Key] = append(m[info.Key], keywordDigester{info: info, store: store, digest: fn})
	}
	same := func(info *jsonschema.KeywordInfo, fn func(dc *digestContext) jsonschema.KeywordValue) {
		add(info, info, fn)
	}

	same(jsonschema.KeywordSchema, digestSchemaURI)
	for _, info := range []*jsonschema.KeywordInfo{
		jsonschema.KeywordID, jsonschema.KeywordLegacyID, jsonschema.KeywordComment,
		jsonschema.KeywordTitle, jsonschema.KeywordDescription, jsonschema.KeywordFormat,
		jsonschema.KeywordContentMediaType, jsonschema.KeywordContentEncoding,
	} {
		same(info, digestString)
	}
	same(jsonschema.KeywordPattern, digestPattern)
	same(jsonschema.KeywordDefault, digestJSONValue)
	same(jsonschema.KeywordConst, digestJSONValue)
	same(jsonschema.KeywordEnum, digestEnum)
	same(jsonschema.KeywordExamples, digestJSONArray)
	for _, info := range []*jsonschema.KeywordInfo{
		jsonschema.KeywordReadOnly, jsonschema.KeywordWriteOnly, jsonschema.KeywordUniqueItems,
	} {
		same(info, digestBoolean)
	}

	same(jsonschema.KeywordMultipleOf, digestPositiveNumber)
	same(jsonschema.KeywordDivisibleBy, digestPositiveNumber)
	for _, info := range []*jsonschema.KeywordInfo{
		jsonschema.KeywordMinLength, jsonschema.KeywordMaxLength,
		jsonschema.KeywordMinItems, jsonschema.KeywordMaxItems,
		jsonschema.KeywordMinProperties, jsonschema.KeywordMaxProperties,
	} {
		same(info, digestCount)
	}
	minimum := limitDigester(jsonschema.KeywordMinimum.Key, jsonschema.KeywordExclusiveMinimum.Key)
	maximum := limitDigester(jsonschema.KeywordMaximum.Key, jsonschema.KeywordExclusiveMaximum.Key)
	add(jsonschema.KeywordMinimum, jsonschema.KeywordMinimum, minimum)
	add(jsonschema.KeywordExclusiveMinimum, jsonschema.KeywordMinimum, minimum)
	add(jsonschema.KeywordMaximum, jsonschema.KeywordMaximum, maximum)
	add(jsonschema.KeywordExclusiveMaximum, jsonschema.KeywordMaximum, maximum)

	same(jsonschema.KeywordType, digestType)
	same(jsonschema.KeywordDisallow, digestType)
	for _, info := range []*jsonschema.KeywordInfo{
		jsonschema.KeywordExtends, jsonschema.KeywordAllOf, jsonschema.KeywordAnyOf, jsonschema.KeywordOneOf,
	} {
		same(info, digestSchemaList)
	}
	same(jsonschema.KeywordProperties, digestSchemaMap)
	same(jsonschema.KeywordDefinitions, digestSchemaMap)
	same(jsonschema.KeywordPatternProperties, digestPatternProperties)
	same(jsonschema.KeywordAdditionalProperties, digestSchemaOrBoolean)
	add(jsonschema.KeywordItems, jsonschema.KeywordItems, digestItems)
	add(jsonschema.KeywordAdditionalItems, jsonschema.KeywordItems, digestItems)
	for _, info := range []*jsonschema.KeywordInfo{
		jsonschema.KeywordNot, jsonschema.KeywordContains, jsonschema.KeywordPropertyNames,
		jsonschema.KeywordIf, jsonschema.KeywordThen, jsonschema.KeywordElse,
	} {
		same(info, digestSingleSchema)
	}
	same(jsonschema.KeywordRequired, digestRequired)
	same(jsonschema.KeywordDependencies, digestDependencies)
	return m
}

func digestSchemaURI(dc *digestContext) jsonschema.KeywordValue {
	uri, _ := dc.raw.(string)
	if d, ok := jsonschema.DraftFromURI(uri); ok {
		return &jsonschema.SchemaURIKeyword{Draft: d, URI: uri}
	}
	return &jsonschema.SchemaURIKeyword{URI: uri}
}

func digestString(dc *digestContext) jsonschema.KeywordValue {
	s, ok := dc.raw.(string)
	if !ok {
		return nil
	}
	return &jsonschema.StringKeyword{Value: s}
}

func digestPattern(dc *digestContext) jsonschema.KeywordValue {
	s, ok := dc.raw.(string)
	if !ok {
		return nil
	}
	if _, err := CompilePattern(s); err != nil {
		dc.issue(jsonschema.IssueInvalidPattern, "invalid regular expression %q: %v", s, err)
		return nil
	}
	return &jsonschema.StringKeyword{Value: s}
}

func digestJSONValue(dc *digestContext) jsonschema.KeywordValue {
	return &jsonschema.JSONValueKeyword{Value: dc.raw}
}

func digestJSONArray(dc *digestContext) jsonschema.KeywordValue {
	arr, ok := dc.raw.([]any)
	if !ok {
		return nil
	}
	return &jsonschema.JSONArrayKeyword{Values: append([]any(nil), arr...)}
}

func digestEnum(dc *digestContext) jsonschema.KeywordValue {
	arr, ok := dc.raw.([]any)
	if !ok {
		return nil
	}
	if len(arr) == 0 {
		dc.warn(jsonschema.IssueInvalidValue, "enum should have at least one value")
	}
	return &jsonschema.JSONArrayKeyword{Values: append([]any(nil), arr...)}
}

func digestBoolean(dc *digestContext) jsonschema.KeywordValue {
	b, ok := dc.raw.(bool)
	if !ok {
		return nil
	}
	return &jsonschema.BooleanKeyword{Value: b}
}

func digestPositiveNumber(dc *digestContext) jsonschema.KeywordValue {
	n, ok := jsonschema.ToNumber(dc.raw)
	if !ok {
		return nil
	}
	r, ok := jsonschema.NumberRat(n)
	if !ok || r.Sign() <= 0 {
		dc.issue(jsonschema.IssueInvalidValue, "%s must be strictly greater than 0", dc.key)
		return nil
	}
	return &jsonschema.NumberKeyword{Value: n}
}

func digestCount(dc *digestContext) jsonschema.KeywordValue {
	n, ok := jsonschema.ToNumber(dc.raw)
	if !ok {
		return nil
	}
	r, ok := jsonschema.NumberRat(n)
	if !ok || r.Sign() < 0 || !jsonschema.IsInteger(n, false) {
		dc.issue(jsonschema.IssueInvalidValue, "%s must be a non-negative integer", dc.key)
		return nil
	}
	return &jsonschema.NumberKeyword{Value: n}
}

// limitDigester folds a bound and its exclusive companion into one
// LimitKeyword. It runs for either key and reads both from the object.
func limitDigester(limitKey, exclusiveKey string) func(dc *digestContext) jsonschema.KeywordValue {
	return func(dc *digestContext) jsonschema.KeywordValue {
		lk := &jsonschema.LimitKeyword{}
		limitValue, hasLimit := jsonschema.ToNumber(dc.obj[limitKey])
		switch ex := dc.obj[exclusiveKey].(type) {
		case bool:
			switch {
			case ex && hasLimit:
				lk.ExclusiveLimit = limitValue
			case ex:
				if dc.key == exclusiveKey {
					dc.issue(jsonschema.IssueInvalidValue, "%s requires %s", exclusiveKey, limitKey)
				}
			case hasLimit:
				lk.Limit = limitValue
			}
		case nil:
			if hasLimit {
				lk.Limit = limitValue
			}
		default:
			if n, ok := jsonschema.ToNumber(ex); ok {
				lk.ExclusiveLimit = n
			}
			if hasLimit {
				lk.Limit = limitValue
			}
		}
		if !lk.IsSet() {
			return nil
		}
		return lk
	}
}

func digestType(dc *digestContext) jsonschema.KeywordValue {
	tk := &jsonschema.TypeKeyword{}
	addName := func(name string) {
		t, ok := jsonschema.ParseJSONType(name)
		if !ok {
			dc.issue(jsonschema.IssueInvalidValue, "unknown type %q", name)
			return
		}
		if t == jsonschema.TypeAny && dc.version() != jsonschema.Draft3 {
			dc.warn(jsonschema.IssueKeywordNotInDraft, "type \"any\" is not defined in %s", dc.version())
		}
		tk.Types = append(tk.Types, t)
	}

	switch v := dc.raw.(type) {
	case string:
		addName(v)
	case []any:
		tk.ArrayForm = true
		for i, item := range v {
			switch it := item.(type) {
			case string:
				addName(it)
			case map[string]any:
				if dc.version() != jsonschema.Draft3 {
					dc.warn(jsonschema.IssueKeywordNotInDraft, "schemas inside %s are only defined in draft-3", dc.key)
				}
				if s := dc.subschemaAt(it, dc.key, strconv.Itoa(i)); s != nil {
					tk.Schemas = append(tk.Schemas, s)
				}
			default:
				dc.issue(jsonschema.IssueTypeMismatch, "%s entries must be type names, found %s", dc.key, jsonschema.TypeOf(item))
			}
		}
	}
	if len(tk.Types) == 0 && len(tk.Schemas) == 0 {
		dc.warn(jsonschema.IssueInvalidValue, "%s names no type", dc.key)
		return nil
	}
	return tk
}

func digestSchemaList(dc *digestContext) jsonschema.KeywordValue {
	switch v := dc.raw.(type) {
	case map[string]any:
		s := dc.subschemaAt(v, dc.key)
		if s == nil {
			return nil
		}
		return &jsonschema.SchemaListKeyword{Schemas: []*jsonschema.Schema{s}, SingleForm: true}
	case []any:
		if len(v) == 0 {
			dc.warn(jsonschema.IssueInvalidValue, "%s should have at least one schema", dc.key)
		}
		lk := &jsonschema.SchemaListKeyword{Schemas: make([]*jsonschema.Schema, 0, len(v))}
		for i, item := range v {
			if s := dc.subschemaAt(item, dc.key, strconv.Itoa(i)); s != nil {
				lk.Schemas = append(lk.Schemas, s)
			}
		}
		return lk
	}
	return nil
}

func digestSchemaMap(dc *digestContext) jsonschema.KeywordValue {
	obj, ok := dc.raw.(map[string]any)
	if !ok {
		return nil
	}
	mk := &jsonschema.SchemaMapKeyword{Schemas: make(map[string]*jsonschema.Schema, len(obj))}
	for _, name := range jsonschema.SortedKeys(obj) {
		if s := dc.subschemaAt(obj[name], dc.key, name); s != nil {
			mk.Schemas[name] = s
		}
	}
	return mk
}

func digestPatternProperties(dc *digestContext) jsonschema.KeywordValue {
	obj, ok := dc.raw.(map[string]any)
	if !ok {
		return nil
	}
	mk := &jsonschema.SchemaMapKeyword{Schemas: make(map[string]*jsonschema.Schema, len(obj))}
	for _, pattern := range jsonschema.SortedKeys(obj) {
		if _, err := CompilePattern(pattern); err != nil {
			dc.issue(jsonschema.IssueInvalidPattern, "invalid regular expression %q: %v", pattern, err)
			continue
		}
		if s := dc.subschemaAt(obj[pattern], dc.key, pattern); s != nil {
			mk.Schemas[pattern] = s
		}
	}
	return mk
}

// digestSchemaOrBoolean handles additionalProperties, where true and false
// are accepted in every draft.
func digestSchemaOrBoolean(dc *digestContext) jsonschema.KeywordValue {
	if b, ok := dc.raw.(bool); ok {
		return &jsonschema.SingleSchemaKeyword{
			Schema: jsonschema.NewBooleanSchema(b, dc.builder.Location().Child(dc.key), dc.version()),
		}
	}
	s := dc.subschemaAt(dc.raw, dc.key)
	if s == nil {
		return nil
	}
	return &jsonschema.SingleSchemaKeyword{Schema: s}
}

func digestSingleSchema(dc *digestContext) jsonschema.KeywordValue {
	s := dc.subschemaAt(dc.raw, dc.key)
	if s == nil {
		return nil
	}
	return &jsonschema.SingleSchemaKeyword{Schema: s}
}

// digestItems builds items and additionalItems together. It runs for
// whichever key comes first and stores directly on the builder.
func digestItems(dc *digestContext) jsonschema.KeywordValue {
	if _, done := dc.builder.Get(jsonschema.KeywordItems); done {
		return nil
	}
	ik := &jsonschema.ItemsKeyword{}
	itemsKey := jsonschema.KeywordItems.Key
	switch v := dc.obj[itemsKey].(type) {
	case []any:
		ik.Tuple = make([]*jsonschema.Schema, 0, len(v))
		for i, item := range v {
			if s := dc.subschemaAt(item, itemsKey, strconv.Itoa(i)); s != nil {
				ik.Tuple = append(ik.Tuple, s)
			}
		}
	case map[string]any, bool:
		ik.All = dc.subschemaAt(v, itemsKey)
	}

	additionalKey := jsonschema.KeywordAdditionalItems.Key
	switch v := dc.obj[additionalKey].(type) {
	case bool:
		ik.Additional = jsonschema.NewBooleanSchema(v, dc.builder.Location().Child(additionalKey), dc.version())
	case map[string]any:
		ik.Additional = dc.subschemaAt(v, additionalKey)
	}

	if ik.All == nil && ik.Tuple == nil && ik.Additional == nil {
		return nil
	}
	dc.builder.Set(jsonschema.KeywordItems, ik)
	return nil
}

func digestRequired(dc *digestContext) jsonschema.KeywordValue {
	switch v := dc.raw.(type) {
	case bool:
		return &jsonschema.BooleanKeyword{Value: v}
	case []any:
		sk := &jsonschema.StringSetKeyword{Values: make([]string, 0, len(v))}
		seen := NewSet[string]()
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				dc.issue(jsonschema.IssueTypeMismatch, "required entries must be strings, found %s", jsonschema.TypeOf(item))
				continue
			}
			if !seen.Add(name) {
				dc.warn(jsonschema.IssueInvalidValue, "required lists %q twice", name)
				continue
			}
			sk.Values = append(sk.Values, name)
		}
		return sk
	}
	return nil
}

func digestDependencies(dc *digestContext) jsonschema.KeywordValue {
	obj, ok := dc.raw.(map[string]any)
	if !ok {
		return nil
	}
	dk := &jsonschema.DependenciesKeyword{
		Schemas:    make(map[string]*jsonschema.Schema),
		Properties: make(map[string][]string),
		StringForm: make(map[string]bool),
	}
	for _, name := range jsonschema.SortedKeys(obj) {
		switch v := obj[name].(type) {
		case string:
			if dc.version() != jsonschema.Draft3 {
				dc.warn(jsonschema.IssueKeywordNotInDraft, "string dependencies are only defined in draft-3")
			}
			dk.Properties[name] = []string{v}
			dk.StringForm[name] = true
		case []any:
			props := make([]string, 0, len(v))
			for _, item := range v {
				p, ok := item.(string)
				if !ok {
					dc.issue(jsonschema.IssueTypeMismatch, "dependency %q must list property names", name)
					continue
				}
				props = append(props, p)
			}
			dk.Properties[name] = props
		default:
			if s := dc.subschemaAt(v, dc.key, name); s != nil {
				dk.Schemas[name] = s
			}
		}
	}
	return dk
}
