package jsonschema

// Draft4View projects the keywords of a schema that draft-4 defines.
type Draft4View struct {
	Schema *Schema

	ID                   string
	Ref                  *RefKeyword
	Title                string
	Description          string
	Default              any
	Type                 *TypeKeyword
	Enum                 []any
	MultipleOf           string
	Minimum              *LimitKeyword
	Maximum              *LimitKeyword
	MinLength            *int
	MaxLength            *int
	Pattern              string
	Format               string
	Items                *ItemsKeyword
	MinItems             *int
	MaxItems             *int
	UniqueItems          bool
	Properties           map[string]*Schema
	PatternProperties    map[string]*Schema
	AdditionalProperties *Schema
	Required             []string
	MinProperties        *int
	MaxProperties        *int
	Dependencies         *DependenciesKeyword
	Definitions          map[string]*Schema
	AllOf                []*Schema
	AnyOf                []*Schema
	OneOf                []*Schema
	Not                  *Schema
}

// Draft3View adds the draft-3 specific keywords.
type Draft3View struct {
	Draft4View

	DivisibleBy string
	Disallow    *TypeKeyword
	Extends     []*Schema
}

// Draft6View adds the keywords introduced by draft-6.
type Draft6View struct {
	Draft4View

	Const         any
	HasConst      bool
	Examples      []any
	Contains      *Schema
	PropertyNames *Schema
}

// Draft7View adds the keywords introduced by draft-7.
type Draft7View struct {
	Draft6View

	Comment          string
	ReadOnly         bool
	WriteOnly        bool
	ContentMediaType string
	ContentEncoding  string
	If               *Schema
	Then             *Schema
	Else             *Schema
}

// AsDraft4 projects s onto the draft-4 vocabulary.
func AsDraft4(s *Schema) Draft4View {
	v := Draft4View{Schema: s}
	if id, ok := stringKeyword(s, KeywordID, KeywordLegacyID); ok {
		v.ID = id
	}
	if ref, ok := s.keywords[KeywordRef].(*RefKeyword); ok {
		v.Ref = ref
	}
	v.Title, _ = stringKeyword(s, KeywordTitle)
	v.Description, _ = stringKeyword(s, KeywordDescription)
	if d, ok := s.keywords[KeywordDefault].(*JSONValueKeyword); ok {
		v.Default = d.Value
	}
	if t, ok := s.keywords[KeywordType].(*TypeKeyword); ok {
		v.Type = t
	}
	if e, ok := s.keywords[KeywordEnum].(*JSONArrayKeyword); ok {
		v.Enum = e.Values
	}
	if m, ok := numberKeyword(s, KeywordMultipleOf, KeywordDivisibleBy); ok {
		v.MultipleOf = m
	}
	if l, ok := s.keywords[KeywordMinimum].(*LimitKeyword); ok {
		v.Minimum = l
	}
	if l, ok := s.keywords[KeywordMaximum].(*LimitKeyword); ok {
		v.Maximum = l
	}
	v.MinLength = intKeyword(s, KeywordMinLength)
	v.MaxLength = intKeyword(s, KeywordMaxLength)
	v.Pattern, _ = stringKeyword(s, KeywordPattern)
	v.Format, _ = stringKeyword(s, KeywordFormat)
	if items, ok := s.keywords[KeywordItems].(*ItemsKeyword); ok {
		v.Items = items
	}
	v.MinItems = intKeyword(s, KeywordMinItems)
	v.MaxItems = intKeyword(s, KeywordMaxItems)
	if u, ok := s.keywords[KeywordUniqueItems].(*BooleanKeyword); ok {
		v.UniqueItems = u.Value
	}
	v.Properties = schemaMap(s, KeywordProperties)
	v.PatternProperties = schemaMap(s, KeywordPatternProperties)
	v.AdditionalProperties = singleSchema(s, KeywordAdditionalProperties)
	if r, ok := s.keywords[KeywordRequired].(*StringSetKeyword); ok {
		v.Required = r.Values
	}
	for _, name := range sortedSchemaNames(v.Properties) {
		if flag, ok := v.Properties[name].keywords[KeywordRequired].(*BooleanKeyword); ok && flag.Value {
			v.Required = appendUnique(v.Required, name)
		}
	}
	v.MinProperties = intKeyword(s, KeywordMinProperties)
	v.MaxProperties = intKeyword(s, KeywordMaxProperties)
	if d, ok := s.keywords[KeywordDependencies].(*DependenciesKeyword); ok {
		v.Dependencies = d
	}
	v.Definitions = schemaMap(s, KeywordDefinitions)
	v.AllOf = schemaList(s, KeywordAllOf)
	v.AnyOf = schemaList(s, KeywordAnyOf)
	v.OneOf = schemaList(s, KeywordOneOf)
	v.Not = singleSchema(s, KeywordNot)
	return v
}

// AsDraft3 projects s onto the draft-3 vocabulary.
func AsDraft3(s *Schema) Draft3View {
	v := Draft3View{Draft4View: AsDraft4(s)}
	v.DivisibleBy = v.MultipleOf
	if t, ok := s.keywords[KeywordDisallow].(*TypeKeyword); ok {
		v.Disallow = t
	}
	v.Extends = schemaList(s, KeywordExtends)
	return v
}

// AsDraft6 projects s onto the draft-6 vocabulary.
func AsDraft6(s *Schema) Draft6View {
	v := Draft6View{Draft4View: AsDraft4(s)}
	if c, ok := s.keywords[KeywordConst].(*JSONValueKeyword); ok {
		v.Const = c.Value
		v.HasConst = true
	}
	if e, ok := s.keywords[KeywordExamples].(*JSONArrayKeyword); ok {
		v.Examples = e.Values
	}
	v.Contains = singleSchema(s, KeywordContains)
	v.PropertyNames = singleSchema(s, KeywordPropertyNames)
	return v
}

// AsDraft7 projects s onto the draft-7 vocabulary.
func AsDraft7(s *Schema) Draft7View {
	v := Draft7View{Draft6View: AsDraft6(s)}
	v.Comment, _ = stringKeyword(s, KeywordComment)
	if b, ok := s.keywords[KeywordReadOnly].(*BooleanKeyword); ok {
		v.ReadOnly = b.Value
	}
	if b, ok := s.keywords[KeywordWriteOnly].(*BooleanKeyword); ok {
		v.WriteOnly = b.Value
	}
	v.ContentMediaType, _ = stringKeyword(s, KeywordContentMediaType)
	v.ContentEncoding, _ = stringKeyword(s, KeywordContentEncoding)
	v.If = singleSchema(s, KeywordIf)
	v.Then = singleSchema(s, KeywordThen)
	v.Else = singleSchema(s, KeywordElse)
	return v
}

func stringKeyword(s *Schema, infos ...*KeywordInfo) (string, bool) {
	for _, info := range infos {
		if k, ok := s.keywords[info].(*StringKeyword); ok {
			return k.Value, true
		}
	}
	return "", false
}

func numberKeyword(s *Schema, infos ...*KeywordInfo) (string, bool) {
	for _, info := range infos {
		if k, ok := s.keywords[info].(*NumberKeyword); ok {
			return k.Value.String(), true
		}
	}
	return "", false
}

func intKeyword(s *Schema, info *KeywordInfo) *int {
	k, ok := s.keywords[info].(*NumberKeyword)
	if !ok {
		return nil
	}
	n, ok := k.Int()
	if !ok {
		return nil
	}
	return &n
}

func schemaMap(s *Schema, info *KeywordInfo) map[string]*Schema {
	if k, ok := s.keywords[info].(*SchemaMapKeyword); ok {
		return k.Schemas
	}
	return nil
}

func schemaList(s *Schema, info *KeywordInfo) []*Schema {
	if k, ok := s.keywords[info].(*SchemaListKeyword); ok {
		return k.Schemas
	}
	return nil
}

func singleSchema(s *Schema, info *KeywordInfo) *Schema {
	if k, ok := s.keywords[info].(*SingleSchemaKeyword); ok {
		return k.Schema
	}
	return nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
