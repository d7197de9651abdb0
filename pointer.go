package jsonschema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// JSONPointer is an RFC 6901 pointer held as unescaped reference tokens.
type JSONPointer []string

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")
var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// ParseJSONPointer parses "/a/b/0" (an optional leading "#" is accepted).
func ParseJSONPointer(s string) (JSONPointer, error) {
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return JSONPointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("json pointer %q must start with '/'", s)
	}
	parts := strings.Split(s[1:], "/")
	out := make(JSONPointer, len(parts))
	for i, p := range parts {
		out[i] = pointerUnescaper.Replace(p)
	}
	return out, nil
}

// ParseFragmentPointer parses a URI fragment that holds a percent-encoded pointer.
func ParseFragmentPointer(fragment string) (JSONPointer, error) {
	unescaped, err := url.PathUnescape(fragment)
	if err != nil {
		unescaped = fragment
	}
	return ParseJSONPointer(unescaped)
}

// String renders the pointer as "/a/b"; the root is "".
func (p JSONPointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, seg := range p {
		sb.WriteByte('/')
		sb.WriteString(pointerEscaper.Replace(seg))
	}
	return sb.String()
}

// Fragment renders the pointer as a URI fragment, "#/a/b".
func (p JSONPointer) Fragment() string {
	return "#" + p.String()
}

// Append returns a new pointer with the given segments added.
func (p JSONPointer) Append(segments ...string) JSONPointer {
	out := make(JSONPointer, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// AppendIndex returns a new pointer with an array index added.
func (p JSONPointer) AppendIndex(i int) JSONPointer {
	return p.Append(strconv.Itoa(i))
}

// Equal compares two pointers segment by segment.
func (p JSONPointer) Equal(o JSONPointer) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Lookup resolves the pointer against a decoded document.
func (p JSONPointer) Lookup(doc any) (any, bool) {
	cur := doc
	for _, seg := range p {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
