package internal

import (
	"math/big"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	jsonschema "github.com/lychee-technology/jsonschema"
)

func defaultCreators() map[*jsonschema.KeywordInfo][]validatorCreator {
	return map[*jsonschema.KeywordInfo][]validatorCreator{
		jsonschema.KeywordType:                 {createType},
		jsonschema.KeywordDisallow:             {createDisallow},
		jsonschema.KeywordEnum:                 {createEnum},
		jsonschema.KeywordConst:                {createConst},
		jsonschema.KeywordMultipleOf:           {createMultipleOf},
		jsonschema.KeywordDivisibleBy:          {createMultipleOf},
		jsonschema.KeywordMinimum:              {createMinimum},
		jsonschema.KeywordMaximum:              {createMaximum},
		jsonschema.KeywordMinLength:            {createMinLength},
		jsonschema.KeywordMaxLength:            {createMaxLength},
		jsonschema.KeywordPattern:              {createPattern},
		jsonschema.KeywordFormat:               {createFormat},
		jsonschema.KeywordItems:                {createItems},
		jsonschema.KeywordMinItems:             {createMinItems},
		jsonschema.KeywordMaxItems:             {createMaxItems},
		jsonschema.KeywordUniqueItems:          {createUniqueItems},
		jsonschema.KeywordContains:             {createContains},
		jsonschema.KeywordProperties:           {createProperties},
		jsonschema.KeywordPatternProperties:    {createPatternProperties},
		jsonschema.KeywordAdditionalProperties: {createAdditionalProperties},
		jsonschema.KeywordRequired:             {createRequired},
		jsonschema.KeywordMinProperties:        {createMinProperties},
		jsonschema.KeywordMaxProperties:        {createMaxProperties},
		jsonschema.KeywordDependencies:         {createDependencies},
		jsonschema.KeywordPropertyNames:        {createPropertyNames},
		jsonschema.KeywordAllOf:                {createAllOf},
		jsonschema.KeywordExtends:              {createAllOf},
		jsonschema.KeywordAnyOf:                {createAnyOf},
		jsonschema.KeywordOneOf:                {createOneOf},
		jsonschema.KeywordNot:                  {createNot},
		jsonschema.KeywordIf:                   {createIfThenElse},
		jsonschema.KeywordRef:                  {createRef},
	}
}

// ---- type ----

func typeMatches(tk *jsonschema.TypeKeyword, subs []*SchemaValidator, instance jsonschema.ValueWithPath, version jsonschema.Draft) bool {
	actual := instance.Type()
	for _, t := range tk.Types {
		switch {
		case t.Matches(actual):
			return true
		case t == jsonschema.TypeInteger && actual == jsonschema.TypeNumber:
			if jsonschema.IsInteger(instance.Value, version.LexicalIntegers()) {
				return true
			}
		}
	}
	for _, sub := range subs {
		if sub.IsValid(instance) {
			return true
		}
	}
	return false
}

func typeNames(tk *jsonschema.TypeKeyword) string {
	names := make([]string, 0, len(tk.Types)+len(tk.Schemas))
	for _, t := range tk.Types {
		names = append(names, string(t))
	}
	for range tk.Schemas {
		names = append(names, "schema")
	}
	return strings.Join(names, " or ")
}

func compileAll(c *compilation, schemas []*jsonschema.Schema) []*SchemaValidator {
	out := make([]*SchemaValidator, len(schemas))
	for i, s := range schemas {
		out[i] = c.validator(s)
	}
	return out
}

func createType(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	tk, ok := value.(*jsonschema.TypeKeyword)
	if !ok {
		return nil
	}
	subs := compileAll(c, tk.Schemas)
	expected := typeNames(tk)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		if typeMatches(tk, subs, instance, schema.Version()) {
			return true
		}
		return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "type", jsonschema.CodeType,
			"expected type: %s, found: %s", expected, describeType(instance, schema.Version())))
	}
}

func createDisallow(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	tk, ok := value.(*jsonschema.TypeKeyword)
	if !ok {
		return nil
	}
	subs := compileAll(c, tk.Schemas)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		if !typeMatches(tk, subs, instance, schema.Version()) {
			return true
		}
		return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "disallow", jsonschema.CodeDisallow,
			"type %s is disallowed", describeType(instance, schema.Version())))
	}
}

func describeType(instance jsonschema.ValueWithPath, version jsonschema.Draft) string {
	t := instance.Type()
	if t == jsonschema.TypeNumber && jsonschema.IsInteger(instance.Value, version.LexicalIntegers()) {
		return string(jsonschema.TypeInteger)
	}
	return string(t)
}

// ---- enum / const ----

func createEnum(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	ak, ok := value.(*jsonschema.JSONArrayKeyword)
	if !ok {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		for _, candidate := range ak.Values {
			if jsonschema.ValuesEqual(candidate, instance.Value) {
				return true
			}
		}
		return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "enum", jsonschema.CodeEnum,
			"%s is not a valid enum value", jsonschema.CanonicalJSON(instance.Value)))
	}
}

func createConst(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	vk, ok := value.(*jsonschema.JSONValueKeyword)
	if !ok {
		return nil
	}
	expected := jsonschema.CanonicalJSON(vk.Value)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		if jsonschema.ValuesEqual(vk.Value, instance.Value) {
			return true
		}
		return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "const", jsonschema.CodeConst,
			"value must be %s", expected))
	}
}

// ---- numbers ----

func createMultipleOf(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	nk, ok := value.(*jsonschema.NumberKeyword)
	if !ok {
		return nil
	}
	divisor, ok := jsonschema.NumberRat(nk.Value)
	if !ok || divisor.Sign() == 0 {
		return nil
	}
	keyword := jsonschema.KeywordMultipleOf.Key
	if schema.Version() == jsonschema.Draft3 {
		keyword = jsonschema.KeywordDivisibleBy.Key
	}
	epsilon := new(big.Rat).SetFrac(big.NewInt(1), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.factory.cfg.MultipleOfPrecision)), nil))
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		n, ok := jsonschema.NumberRat(instance.Value)
		if !ok || isMultipleOf(n, divisor, epsilon) {
			return true
		}
		return report.AddError(jsonschema.NewValidationError(schema, instance.Path, keyword, jsonschema.CodeMultipleOf,
			"%s is not a multiple of %s", numberText(instance.Value), nk.Value))
	}
}

// isMultipleOf reports whether n / divisor is within epsilon of an integer.
func isMultipleOf(n, divisor, epsilon *big.Rat) bool {
	q := new(big.Rat).Quo(n, divisor)
	if q.IsInt() {
		return true
	}
	floor := new(big.Int).Div(q.Num(), q.Denom())
	frac := new(big.Rat).Sub(q, new(big.Rat).SetInt(floor))
	if frac.Cmp(epsilon) < 0 {
		return true
	}
	rest := new(big.Rat).Sub(big.NewRat(1, 1), frac)
	return rest.Cmp(epsilon) < 0
}

func numberText(v any) string {
	s, _ := jsonschema.NumberText(v)
	return s
}

func createMinimum(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	lk, ok := value.(*jsonschema.LimitKeyword)
	if !ok || !lk.IsSet() {
		return nil
	}
	limit, hasLimit := jsonschema.NumberRat(lk.Limit)
	exclusive, hasExclusive := jsonschema.NumberRat(lk.ExclusiveLimit)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		n, ok := jsonschema.NumberRat(instance.Value)
		if !ok {
			return true
		}
		valid := true
		if hasLimit && n.Cmp(limit) < 0 {
			valid = report.AddError(jsonschema.NewValidationError(schema, instance.Path, "minimum", jsonschema.CodeMinimum,
				"%s is not greater or equal to %s", numberText(instance.Value), lk.Limit))
		}
		if hasExclusive && n.Cmp(exclusive) <= 0 {
			valid = report.AddError(jsonschema.NewValidationError(schema, instance.Path, "exclusiveMinimum", jsonschema.CodeExclusiveMinimum,
				"%s is not greater than %s", numberText(instance.Value), lk.ExclusiveLimit))
		}
		return valid
	}
}

func createMaximum(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	lk, ok := value.(*jsonschema.LimitKeyword)
	if !ok || !lk.IsSet() {
		return nil
	}
	limit, hasLimit := jsonschema.NumberRat(lk.Limit)
	exclusive, hasExclusive := jsonschema.NumberRat(lk.ExclusiveLimit)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		n, ok := jsonschema.NumberRat(instance.Value)
		if !ok {
			return true
		}
		valid := true
		if hasLimit && n.Cmp(limit) > 0 {
			valid = report.AddError(jsonschema.NewValidationError(schema, instance.Path, "maximum", jsonschema.CodeMaximum,
				"%s is not less or equal to %s", numberText(instance.Value), lk.Limit))
		}
		if hasExclusive && n.Cmp(exclusive) >= 0 {
			valid = report.AddError(jsonschema.NewValidationError(schema, instance.Path, "exclusiveMaximum", jsonschema.CodeExclusiveMaximum,
				"%s is not less than %s", numberText(instance.Value), lk.ExclusiveLimit))
		}
		return valid
	}
}

// ---- strings ----

func countLimit(value jsonschema.KeywordValue) (int, bool) {
	nk, ok := value.(*jsonschema.NumberKeyword)
	if !ok {
		return 0, false
	}
	return nk.Int()
}

func createMinLength(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	limit, ok := countLimit(value)
	if !ok {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		s, _ := instance.Value.(string)
		if n := utf8.RuneCountInString(s); n < limit {
			return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "minLength", jsonschema.CodeMinLength,
				"expected minLength: %d, actual: %d", limit, n))
		}
		return true
	}
}

func createMaxLength(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	limit, ok := countLimit(value)
	if !ok {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		s, _ := instance.Value.(string)
		if n := utf8.RuneCountInString(s); n > limit {
			return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "maxLength", jsonschema.CodeMaxLength,
				"expected maxLength: %d, actual: %d", limit, n))
		}
		return true
	}
}

func createPattern(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	sk, ok := value.(*jsonschema.StringKeyword)
	if !ok {
		return nil
	}
	re, err := CompilePattern(sk.Value)
	if err != nil {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		s, _ := instance.Value.(string)
		if re.MatchString(s) {
			return true
		}
		return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "pattern", jsonschema.CodePattern,
			"string [%s] does not match pattern %s", s, sk.Value))
	}
}

func createFormat(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	sk, ok := value.(*jsonschema.StringKeyword)
	if !ok || !c.factory.cfg.AssertFormats {
		return nil
	}
	fv, ok := c.factory.formats.FormatValidator(sk.Value)
	if !ok {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		s, _ := instance.Value.(string)
		if err := fv.Validate(s); err != nil {
			return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "format", jsonschema.CodeFormat,
				"[%s] is not a valid %s: %v", s, sk.Value, err))
		}
		return true
	}
}

// ---- arrays ----

func createItems(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	ik, ok := value.(*jsonschema.ItemsKeyword)
	if !ok {
		return nil
	}
	var all *SchemaValidator
	if ik.All != nil {
		all = c.validator(ik.All)
	}
	tuple := compileAll(c, ik.Tuple)
	var additional *SchemaValidator
	noAdditional := ik.Tuple != nil && ik.Additional != nil && jsonschema.IsFalseSchema(ik.Additional)
	if ik.Tuple != nil && ik.Additional != nil && !noAdditional {
		additional = c.validator(ik.Additional)
	}
	if all == nil && ik.Tuple == nil {
		return nil
	}

	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		arr, _ := instance.Value.([]any)
		child := report.Child()
		for i := range arr {
			item := instance.Index(i)
			switch {
			case all != nil:
				all.Validate(item, child)
			case i < len(tuple):
				tuple[i].Validate(item, child)
			case additional != nil:
				additional.Validate(item, child)
			}
		}
		valid := report.Fold(child, schema, instance.Path, "items")
		if noAdditional && len(arr) > len(tuple) {
			valid = report.AddError(jsonschema.NewValidationError(schema, instance.Path, "additionalItems", jsonschema.CodeAdditionalItems,
				"expected maximum item count: %d, found: %d", len(tuple), len(arr)))
		}
		return valid
	}
}

func createMinItems(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	limit, ok := countLimit(value)
	if !ok {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		arr, _ := instance.Value.([]any)
		if len(arr) < limit {
			return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "minItems", jsonschema.CodeMinItems,
				"expected minimum item count: %d, found: %d", limit, len(arr)))
		}
		return true
	}
}

func createMaxItems(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	limit, ok := countLimit(value)
	if !ok {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		arr, _ := instance.Value.([]any)
		if len(arr) > limit {
			return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "maxItems", jsonschema.CodeMaxItems,
				"expected maximum item count: %d, found: %d", limit, len(arr)))
		}
		return true
	}
}

func createUniqueItems(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	bk, ok := value.(*jsonschema.BooleanKeyword)
	if !ok || !bk.Value {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		arr, _ := instance.Value.([]any)
		for i := 1; i < len(arr); i++ {
			for j := 0; j < i; j++ {
				if jsonschema.ValuesEqual(arr[i], arr[j]) {
					return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "uniqueItems", jsonschema.CodeUniqueItems,
						"array items are not unique: items %d and %d are equal", j, i))
				}
			}
		}
		return true
	}
}

func createContains(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	sk, ok := value.(*jsonschema.SingleSchemaKeyword)
	if !ok {
		return nil
	}
	sub := c.validator(sk.Schema)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		arr, _ := instance.Value.([]any)
		for i := range arr {
			if sub.IsValid(instance.Index(i)) {
				return true
			}
		}
		return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "contains", jsonschema.CodeContains,
			"expected at least one array item to match 'contains' schema"))
	}
}

// ---- objects ----

func sortedMembers(obj map[string]any) []string {
	return SortedMapKeys(obj)
}

// requiredByProperty reports whether a property schema carries the draft-3
// boolean required flag.
func requiredByProperty(s *jsonschema.Schema) bool {
	if s == nil {
		return false
	}
	v, ok := s.Keyword(jsonschema.KeywordRequired)
	if !ok {
		return false
	}
	bk, ok := v.(*jsonschema.BooleanKeyword)
	return ok && bk.Value
}

func createProperties(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	mk, ok := value.(*jsonschema.SchemaMapKeyword)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(mk.Schemas))
	subs := make(map[string]*SchemaValidator, len(mk.Schemas))
	var required []string
	for name, s := range mk.Schemas {
		names = append(names, name)
		subs[name] = c.validator(s)
		if requiredByProperty(s) {
			required = append(required, name)
		}
	}
	sort.Strings(names)
	sort.Strings(required)

	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		obj, _ := instance.Value.(map[string]any)
		child := report.Child()
		for _, name := range names {
			if _, present := obj[name]; present {
				subs[name].Validate(instance.Child(name), child)
			}
		}
		for _, name := range required {
			if _, present := obj[name]; !present {
				child.AddError(jsonschema.NewValidationError(schema, instance.Path, "required", jsonschema.CodeRequired,
					"required key [%s] not found", name))
			}
		}
		return report.Fold(child, schema, instance.Path, "properties")
	}
}

type patternValidator struct {
	pattern string
	re      *regexp.Regexp
	sub     *SchemaValidator
}

func compilePatterns(c *compilation, mk *jsonschema.SchemaMapKeyword) []patternValidator {
	out := make([]patternValidator, 0, len(mk.Schemas))
	for _, pattern := range sortedSchemaKeys(mk.Schemas) {
		re, err := CompilePattern(pattern)
		if err != nil {
			continue
		}
		pv := patternValidator{pattern: pattern, re: re}
		if c != nil {
			pv.sub = c.validator(mk.Schemas[pattern])
		}
		out = append(out, pv)
	}
	return out
}

func sortedSchemaKeys(m map[string]*jsonschema.Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func createPatternProperties(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	mk, ok := value.(*jsonschema.SchemaMapKeyword)
	if !ok || len(mk.Schemas) == 0 {
		return nil
	}
	patterns := compilePatterns(c, mk)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		obj, _ := instance.Value.(map[string]any)
		child := report.Child()
		for _, name := range sortedMembers(obj) {
			for _, pv := range patterns {
				if pv.re.MatchString(name) {
					pv.sub.Validate(instance.Child(name), child)
				}
			}
		}
		return report.Fold(child, schema, instance.Path, "patternProperties")
	}
}

// createAdditionalProperties treats a member as additional when it is
// neither declared in properties nor matched by a patternProperties regex.
func createAdditionalProperties(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	sk, ok := value.(*jsonschema.SingleSchemaKeyword)
	if !ok || jsonschema.IsNullSchema(sk.Schema) {
		return nil
	}
	declared := NewSet[string]()
	if v, ok := schema.Keyword(jsonschema.KeywordProperties); ok {
		if mk, ok := v.(*jsonschema.SchemaMapKeyword); ok {
			for name := range mk.Schemas {
				declared.Add(name)
			}
		}
	}
	var patterns []patternValidator
	if v, ok := schema.Keyword(jsonschema.KeywordPatternProperties); ok {
		if mk, ok := v.(*jsonschema.SchemaMapKeyword); ok {
			patterns = compilePatterns(nil, mk)
		}
	}
	forbidden := jsonschema.IsFalseSchema(sk.Schema)
	var sub *SchemaValidator
	if !forbidden {
		sub = c.validator(sk.Schema)
	}

	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		obj, _ := instance.Value.(map[string]any)
		child := report.Child()
	members:
		for _, name := range sortedMembers(obj) {
			if declared.Contains(name) {
				continue
			}
			for _, pv := range patterns {
				if pv.re.MatchString(name) {
					continue members
				}
			}
			member := instance.Child(name)
			if forbidden {
				child.AddError(jsonschema.NewValidationError(schema, member.Path, "additionalProperties", jsonschema.CodeAdditionalProperties,
					"extraneous key [%s] is not permitted", name))
				continue
			}
			sub.Validate(member, child)
		}
		return report.Fold(child, schema, instance.Path, "additionalProperties")
	}
}

func createRequired(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	sk, ok := value.(*jsonschema.StringSetKeyword)
	if !ok || len(sk.Values) == 0 {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		obj, _ := instance.Value.(map[string]any)
		child := report.Child()
		for _, name := range sk.Values {
			if _, present := obj[name]; !present {
				child.AddError(jsonschema.NewValidationError(schema, instance.Path, "required", jsonschema.CodeRequired,
					"required key [%s] not found", name))
			}
		}
		return report.Fold(child, schema, instance.Path, "required")
	}
}

func createMinProperties(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	limit, ok := countLimit(value)
	if !ok {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		obj, _ := instance.Value.(map[string]any)
		if len(obj) < limit {
			return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "minProperties", jsonschema.CodeMinProperties,
				"minimum size: [%d], found: [%d]", limit, len(obj)))
		}
		return true
	}
}

func createMaxProperties(_ *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	limit, ok := countLimit(value)
	if !ok {
		return nil
	}
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		obj, _ := instance.Value.(map[string]any)
		if len(obj) > limit {
			return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "maxProperties", jsonschema.CodeMaxProperties,
				"maximum size: [%d], found: [%d]", limit, len(obj)))
		}
		return true
	}
}

func createDependencies(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	dk, ok := value.(*jsonschema.DependenciesKeyword)
	if !ok {
		return nil
	}
	subs := make(map[string]*SchemaValidator, len(dk.Schemas))
	for name, s := range dk.Schemas {
		subs[name] = c.validator(s)
	}
	propertyNames := make([]string, 0, len(dk.Properties))
	for name := range dk.Properties {
		propertyNames = append(propertyNames, name)
	}
	sort.Strings(propertyNames)
	schemaNames := sortedSchemaKeys(dk.Schemas)

	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		obj, _ := instance.Value.(map[string]any)
		child := report.Child()
		for _, name := range propertyNames {
			if _, present := obj[name]; !present {
				continue
			}
			for _, dep := range dk.Properties[name] {
				if _, present := obj[dep]; !present {
					child.AddError(jsonschema.NewValidationError(schema, instance.Path, "dependencies", jsonschema.CodeDependency,
						"property [%s] is required by [%s]", dep, name))
				}
			}
		}
		for _, name := range schemaNames {
			if _, present := obj[name]; present {
				subs[name].Validate(instance, child)
			}
		}
		return report.Fold(child, schema, instance.Path, "dependencies")
	}
}

func createPropertyNames(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	sk, ok := value.(*jsonschema.SingleSchemaKeyword)
	if !ok {
		return nil
	}
	sub := c.validator(sk.Schema)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		obj, _ := instance.Value.(map[string]any)
		child := report.Child()
		for _, name := range sortedMembers(obj) {
			sub.Validate(jsonschema.ValueWithPath{
				Value:       name,
				Path:        instance.Path.Append(name),
				Document:    instance.Document,
				DocumentURI: instance.DocumentURI,
			}, child)
		}
		if child.IsValid() {
			return true
		}
		err := jsonschema.NewValidationError(schema, instance.Path, "propertyNames", jsonschema.CodePropertyNames,
			"%d property names are invalid", child.ViolationCount())
		err.Causes = child.Errors()
		return report.AddError(err)
	}
}

// ---- combinators ----

func schemaList(value jsonschema.KeywordValue) ([]*jsonschema.Schema, bool) {
	lk, ok := value.(*jsonschema.SchemaListKeyword)
	if !ok {
		return nil, false
	}
	return lk.Schemas, true
}

func createAllOf(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	schemas, ok := schemaList(value)
	if !ok || len(schemas) == 0 {
		return nil
	}
	keyword := jsonschema.KeywordAllOf.Key
	if value == mustKeyword(schema, jsonschema.KeywordExtends) {
		keyword = jsonschema.KeywordExtends.Key
	}
	subs := compileAll(c, schemas)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		child := report.Child()
		matches := 0
		for _, sub := range subs {
			if sub.Validate(instance, child) {
				matches++
			}
		}
		if matches == len(subs) {
			return true
		}
		err := jsonschema.NewValidationError(schema, instance.Path, keyword, jsonschema.CodeAllOf,
			"only %d subschema matches out of %d", matches, len(subs))
		err.Causes = child.Errors()
		return report.AddError(err)
	}
}

func mustKeyword(schema *jsonschema.Schema, info *jsonschema.KeywordInfo) jsonschema.KeywordValue {
	v, _ := schema.Keyword(info)
	return v
}

func createAnyOf(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	schemas, ok := schemaList(value)
	if !ok {
		return nil
	}
	subs := compileAll(c, schemas)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		child := report.Child()
		for _, sub := range subs {
			if sub.Validate(instance, child) {
				return true
			}
		}
		err := jsonschema.NewValidationError(schema, instance.Path, "anyOf", jsonschema.CodeAnyOf,
			"no subschema matched out of the total %d subschemas", len(subs))
		err.Causes = child.Errors()
		return report.AddError(err)
	}
}

func createOneOf(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	schemas, ok := schemaList(value)
	if !ok {
		return nil
	}
	subs := compileAll(c, schemas)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		child := report.Child()
		matches := 0
		for _, sub := range subs {
			if sub.Validate(instance, child) {
				matches++
			}
		}
		if matches == 1 {
			return true
		}
		err := jsonschema.NewValidationError(schema, instance.Path, "oneOf", jsonschema.CodeOneOf,
			"%d subschemas matched instead of one", matches)
		if matches == 0 {
			err.Causes = child.Errors()
		}
		return report.AddError(err)
	}
}

func createNot(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	sk, ok := value.(*jsonschema.SingleSchemaKeyword)
	if !ok {
		return nil
	}
	sub := c.validator(sk.Schema)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		if !sub.IsValid(instance) {
			return true
		}
		return report.AddError(jsonschema.NewValidationError(schema, instance.Path, "not", jsonschema.CodeNot,
			"subject must not be valid against schema"))
	}
}

// createIfThenElse compiles if together with its then and else siblings.
// The outcome of if is never reported; the chosen branch reports directly.
func createIfThenElse(c *compilation, schema *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	sk, ok := value.(*jsonschema.SingleSchemaKeyword)
	if !ok {
		return nil
	}
	branch := func(info *jsonschema.KeywordInfo) *SchemaValidator {
		v, ok := schema.Keyword(info)
		if !ok {
			return nil
		}
		bk, ok := v.(*jsonschema.SingleSchemaKeyword)
		if !ok {
			return nil
		}
		return c.validator(bk.Schema)
	}
	thenV := branch(jsonschema.KeywordThen)
	elseV := branch(jsonschema.KeywordElse)
	if thenV == nil && elseV == nil {
		return nil
	}
	ifV := c.validator(sk.Schema)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		next := elseV
		if ifV.IsValid(instance) {
			next = thenV
		}
		if next == nil {
			return true
		}
		return next.Validate(instance, report)
	}
}

func createRef(c *compilation, _ *jsonschema.Schema, value jsonschema.KeywordValue) keywordValidator {
	rk, ok := value.(*jsonschema.RefKeyword)
	if !ok || rk.Target == nil {
		return nil
	}
	target := c.validator(rk.Target)
	return func(instance jsonschema.ValueWithPath, report *jsonschema.ValidationReport) bool {
		return target.Validate(instance, report)
	}
}
