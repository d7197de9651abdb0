package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	jsonschema "github.com/lychee-technology/jsonschema"
	"gopkg.in/yaml.v3"
)

// DecodeDocument parses a raw schema document. JSON is tried first; input
// that is not JSON is parsed as YAML, with numbers kept in their source form.
func DecodeDocument(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, jsonschema.NewInvalidJSONError(fmt.Errorf("empty document"))
	}
	doc, jsonErr := jsonschema.DecodeJSON(trimmed)
	if jsonErr == nil {
		return doc, nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		// flow-style YAML is a superset of JSON, but a broken JSON document
		// should be reported as such
		return nil, jsonErr
	}
	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, jsonErr
	}
	out, err := yamlNodeToJSON(&node)
	if err != nil {
		return nil, jsonschema.NewInvalidJSONError(err)
	}
	if _, ok := out.(map[string]any); !ok {
		// a bare scalar is almost certainly not meant as YAML
		return nil, jsonErr
	}
	return out, nil
}

func yamlNodeToJSON(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlNodeToJSON(n.Content[0])
	case yaml.AliasNode:
		return yamlNodeToJSON(n.Alias)
	case yaml.MappingNode:
		obj := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			v, err := yamlNodeToJSON(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj[key] = v
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlNodeToJSON(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, fmt.Errorf("unsupported yaml node kind %d at line %d", n.Kind, n.Line)
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			var v bool
			if err := n.Decode(&v); err != nil {
				return nil, err
			}
			return v, nil
		}
		return b, nil
	case "!!int", "!!float":
		if json.Valid([]byte(n.Value)) {
			return json.Number(n.Value), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	}
	return n.Value, nil
}
