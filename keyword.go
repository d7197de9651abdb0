package jsonschema

import "sort"

// KeywordVariant is one accepted JSON shape of a keyword together with the
// drafts in which that shape is defined.
type KeywordVariant struct {
	Expects  JSONType
	Versions []Draft
}

// KeywordInfo is the static descriptor of a schema keyword. Descriptors are
// package-level values and are compared by identity.
type KeywordInfo struct {
	Key string
	// ApplicableTypes are the instance types the keyword constrains. Empty
	// means every type.
	ApplicableTypes []JSONType
	Variants        []KeywordVariant
}

func (k *KeywordInfo) String() string {
	return k.Key
}

// VariantFor returns the variant accepting a raw value of type t.
func (k *KeywordInfo) VariantFor(t JSONType) (KeywordVariant, bool) {
	for _, v := range k.Variants {
		if v.Expects == t {
			return v, true
		}
	}
	return KeywordVariant{}, false
}

// Versions returns every draft in which the keyword exists.
func (k *KeywordInfo) Versions() []Draft {
	seen := map[Draft]bool{}
	var out []Draft
	for _, v := range k.Variants {
		for _, d := range v.Versions {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SupportsVersion reports whether the keyword exists in draft d.
func (k *KeywordInfo) SupportsVersion(d Draft) bool {
	for _, v := range k.Variants {
		if d.In(v.Versions) {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the keyword constrains instances of type t.
func (k *KeywordInfo) AppliesTo(t JSONType) bool {
	if len(k.ApplicableTypes) == 0 {
		return true
	}
	for _, a := range k.ApplicableTypes {
		if a == t {
			return true
		}
	}
	return false
}

var (
	allDrafts  = []Draft{Draft3, Draft4, Draft6, Draft7}
	draft3Only = []Draft{Draft3}
	draft3And4 = []Draft{Draft3, Draft4}
	draft4Plus = []Draft{Draft4, Draft6, Draft7}
	draft6Plus = []Draft{Draft6, Draft7}
	draft7Only = []Draft{Draft7}
	numberOnly = []JSONType{TypeNumber}
	stringOnly = []JSONType{TypeString}
	arrayOnly  = []JSONType{TypeArray}
	objectOnly = []JSONType{TypeObject}
)

func variants(versions []Draft, shapes ...JSONType) []KeywordVariant {
	out := make([]KeywordVariant, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, KeywordVariant{Expects: s, Versions: versions})
	}
	return out
}

// subschemaVariants accepts an object in every draft and a boolean schema
// from draft-6 on.
func subschemaVariants(versions []Draft) []KeywordVariant {
	out := variants(versions, TypeObject)
	var boolVersions []Draft
	for _, d := range versions {
		if d >= Draft6 {
			boolVersions = append(boolVersions, d)
		}
	}
	if len(boolVersions) > 0 {
		out = append(out, KeywordVariant{Expects: TypeBoolean, Versions: boolVersions})
	}
	return out
}

func anyShape(versions []Draft) []KeywordVariant {
	return variants(versions, InstanceTypes...)
}

// Keyword descriptors.
var (
	KeywordSchema           = &KeywordInfo{Key: "$schema", Variants: variants(allDrafts, TypeString)}
	KeywordID               = &KeywordInfo{Key: "$id", Variants: variants(draft6Plus, TypeString)}
	KeywordLegacyID         = &KeywordInfo{Key: "id", Variants: variants(draft3And4, TypeString)}
	KeywordRef              = &KeywordInfo{Key: "$ref", Variants: variants(allDrafts, TypeString)}
	KeywordComment          = &KeywordInfo{Key: "$comment", Variants: variants(draft7Only, TypeString)}
	KeywordTitle            = &KeywordInfo{Key: "title", Variants: variants(allDrafts, TypeString)}
	KeywordDescription      = &KeywordInfo{Key: "description", Variants: variants(allDrafts, TypeString)}
	KeywordDefault          = &KeywordInfo{Key: "default", Variants: anyShape(allDrafts)}
	KeywordExamples         = &KeywordInfo{Key: "examples", Variants: variants(draft6Plus, TypeArray)}
	KeywordReadOnly         = &KeywordInfo{Key: "readOnly", Variants: variants(draft7Only, TypeBoolean)}
	KeywordWriteOnly        = &KeywordInfo{Key: "writeOnly", Variants: variants(draft7Only, TypeBoolean)}
	KeywordContentMediaType = &KeywordInfo{Key: "contentMediaType", Variants: variants(draft7Only, TypeString)}
	KeywordContentEncoding  = &KeywordInfo{Key: "contentEncoding", Variants: variants(draft7Only, TypeString)}
	KeywordDefinitions      = &KeywordInfo{Key: "definitions", Variants: variants(allDrafts, TypeObject)}

	KeywordType     = &KeywordInfo{Key: "type", Variants: variants(allDrafts, TypeString, TypeArray)}
	KeywordDisallow = &KeywordInfo{Key: "disallow", Variants: variants(draft3Only, TypeString, TypeArray)}
	KeywordExtends  = &KeywordInfo{Key: "extends", Variants: variants(draft3Only, TypeObject, TypeArray)}
	KeywordEnum     = &KeywordInfo{Key: "enum", Variants: variants(allDrafts, TypeArray)}
	KeywordConst    = &KeywordInfo{Key: "const", Variants: anyShape(draft6Plus)}

	KeywordMultipleOf       = &KeywordInfo{Key: "multipleOf", ApplicableTypes: numberOnly, Variants: variants(draft4Plus, TypeNumber)}
	KeywordDivisibleBy      = &KeywordInfo{Key: "divisibleBy", ApplicableTypes: numberOnly, Variants: variants(draft3Only, TypeNumber)}
	KeywordMinimum          = &KeywordInfo{Key: "minimum", ApplicableTypes: numberOnly, Variants: variants(allDrafts, TypeNumber)}
	KeywordMaximum          = &KeywordInfo{Key: "maximum", ApplicableTypes: numberOnly, Variants: variants(allDrafts, TypeNumber)}
	KeywordExclusiveMinimum = &KeywordInfo{Key: "exclusiveMinimum", ApplicableTypes: numberOnly, Variants: append(
		variants(draft3And4, TypeBoolean), variants(draft6Plus, TypeNumber)...)}
	KeywordExclusiveMaximum = &KeywordInfo{Key: "exclusiveMaximum", ApplicableTypes: numberOnly, Variants: append(
		variants(draft3And4, TypeBoolean), variants(draft6Plus, TypeNumber)...)}

	KeywordMinLength = &KeywordInfo{Key: "minLength", ApplicableTypes: stringOnly, Variants: variants(allDrafts, TypeNumber)}
	KeywordMaxLength = &KeywordInfo{Key: "maxLength", ApplicableTypes: stringOnly, Variants: variants(allDrafts, TypeNumber)}
	KeywordPattern   = &KeywordInfo{Key: "pattern", ApplicableTypes: stringOnly, Variants: variants(allDrafts, TypeString)}
	KeywordFormat    = &KeywordInfo{Key: "format", ApplicableTypes: stringOnly, Variants: variants(allDrafts, TypeString)}

	KeywordItems = &KeywordInfo{Key: "items", ApplicableTypes: arrayOnly, Variants: append(
		variants(allDrafts, TypeObject, TypeArray), KeywordVariant{Expects: TypeBoolean, Versions: draft6Plus})}
	KeywordAdditionalItems = &KeywordInfo{Key: "additionalItems", ApplicableTypes: arrayOnly, Variants: variants(allDrafts, TypeObject, TypeBoolean)}
	KeywordMinItems        = &KeywordInfo{Key: "minItems", ApplicableTypes: arrayOnly, Variants: variants(allDrafts, TypeNumber)}
	KeywordMaxItems        = &KeywordInfo{Key: "maxItems", ApplicableTypes: arrayOnly, Variants: variants(allDrafts, TypeNumber)}
	KeywordUniqueItems     = &KeywordInfo{Key: "uniqueItems", ApplicableTypes: arrayOnly, Variants: variants(allDrafts, TypeBoolean)}
	KeywordContains        = &KeywordInfo{Key: "contains", ApplicableTypes: arrayOnly, Variants: subschemaVariants(draft6Plus)}

	KeywordProperties           = &KeywordInfo{Key: "properties", ApplicableTypes: objectOnly, Variants: variants(allDrafts, TypeObject)}
	KeywordPatternProperties    = &KeywordInfo{Key: "patternProperties", ApplicableTypes: objectOnly, Variants: variants(allDrafts, TypeObject)}
	KeywordAdditionalProperties = &KeywordInfo{Key: "additionalProperties", ApplicableTypes: objectOnly, Variants: variants(allDrafts, TypeObject, TypeBoolean)}
	KeywordRequired             = &KeywordInfo{Key: "required", ApplicableTypes: objectOnly, Variants: append(
		variants(draft3Only, TypeBoolean), variants(draft4Plus, TypeArray)...)}
	KeywordMinProperties = &KeywordInfo{Key: "minProperties", ApplicableTypes: objectOnly, Variants: variants(draft4Plus, TypeNumber)}
	KeywordMaxProperties = &KeywordInfo{Key: "maxProperties", ApplicableTypes: objectOnly, Variants: variants(draft4Plus, TypeNumber)}
	KeywordDependencies  = &KeywordInfo{Key: "dependencies", ApplicableTypes: objectOnly, Variants: variants(allDrafts, TypeObject)}
	KeywordPropertyNames = &KeywordInfo{Key: "propertyNames", ApplicableTypes: objectOnly, Variants: subschemaVariants(draft6Plus)}

	KeywordAllOf = &KeywordInfo{Key: "allOf", Variants: variants(draft4Plus, TypeArray)}
	KeywordAnyOf = &KeywordInfo{Key: "anyOf", Variants: variants(draft4Plus, TypeArray)}
	KeywordOneOf = &KeywordInfo{Key: "oneOf", Variants: variants(draft4Plus, TypeArray)}
	KeywordNot   = &KeywordInfo{Key: "not", Variants: subschemaVariants(draft4Plus)}
	KeywordIf    = &KeywordInfo{Key: "if", Variants: subschemaVariants(draft7Only)}
	KeywordThen  = &KeywordInfo{Key: "then", Variants: subschemaVariants(draft7Only)}
	KeywordElse  = &KeywordInfo{Key: "else", Variants: subschemaVariants(draft7Only)}
)

// AllKeywords lists every descriptor known to the engine.
var AllKeywords = []*KeywordInfo{
	KeywordSchema, KeywordID, KeywordLegacyID, KeywordRef, KeywordComment, KeywordTitle,
	KeywordDescription, KeywordDefault, KeywordExamples, KeywordReadOnly, KeywordWriteOnly,
	KeywordContentMediaType, KeywordContentEncoding, KeywordDefinitions,
	KeywordType, KeywordDisallow, KeywordExtends, KeywordEnum, KeywordConst,
	KeywordMultipleOf, KeywordDivisibleBy, KeywordMinimum, KeywordMaximum,
	KeywordExclusiveMinimum, KeywordExclusiveMaximum,
	KeywordMinLength, KeywordMaxLength, KeywordPattern, KeywordFormat,
	KeywordItems, KeywordAdditionalItems, KeywordMinItems, KeywordMaxItems, KeywordUniqueItems, KeywordContains,
	KeywordProperties, KeywordPatternProperties, KeywordAdditionalProperties, KeywordRequired,
	KeywordMinProperties, KeywordMaxProperties, KeywordDependencies, KeywordPropertyNames,
	KeywordAllOf, KeywordAnyOf, KeywordOneOf, KeywordNot, KeywordIf, KeywordThen, KeywordElse,
}

var keywordsByKey = func() map[string]*KeywordInfo {
	m := make(map[string]*KeywordInfo, len(AllKeywords))
	for _, k := range AllKeywords {
		m[k.Key] = k
	}
	return m
}()

// LookupKeyword finds the descriptor for a raw schema key.
func LookupKeyword(key string) (*KeywordInfo, bool) {
	k, ok := keywordsByKey[key]
	return k, ok
}
