package jsonschema

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// MarkerScheme is the scheme of URIs synthesized for documents without an
// absolute identifier.
const MarkerScheme = "mem"

// SchemaLocation identifies a schema node: the document holding it, its
// position in that document and the base URI for resolving relative
// references below it.
type SchemaLocation struct {
	documentURI     string
	jsonPath        JSONPointer
	resolutionScope string
	id              string
}

// NewSchemaLocation builds a location from its parts. documentURI must not
// carry a fragment.
func NewSchemaLocation(documentURI string, path JSONPointer, resolutionScope string) SchemaLocation {
	if resolutionScope == "" {
		resolutionScope = documentURI
	}
	return SchemaLocation{
		documentURI:     TrimFragment(documentURI),
		jsonPath:        append(JSONPointer{}, path...),
		resolutionScope: resolutionScope,
	}
}

// LocationFromID builds the location of a schema identified by an absolute
// URI. A JSON-pointer fragment becomes the path.
func LocationFromID(id string) (SchemaLocation, error) {
	u, err := url.Parse(id)
	if err != nil {
		return SchemaLocation{}, NewInvalidURIError(id, err)
	}
	if !u.IsAbs() {
		return SchemaLocation{}, NewInvalidArgumentError(fmt.Sprintf("schema id %q is not an absolute uri", id))
	}
	return locationFromURL(u, id), nil
}

// LocationFromIDNonAbsolute accepts relative identifiers by resolving them
// against a random base URI.
func LocationFromIDNonAbsolute(id string) SchemaLocation {
	base := &url.URL{Scheme: MarkerScheme, Host: uuid.NewString(), Path: "/"}
	u, err := url.Parse(id)
	if err != nil {
		return locationFromURL(base, base.String())
	}
	if u.IsAbs() {
		return locationFromURL(u, id)
	}
	return locationFromURL(base.ResolveReference(u), id)
}

func locationFromURL(u *url.URL, id string) SchemaLocation {
	doc := *u
	doc.Fragment, doc.RawFragment = "", ""
	loc := SchemaLocation{
		documentURI:     doc.String(),
		jsonPath:        JSONPointer{},
		resolutionScope: doc.String(),
	}
	if strings.HasPrefix(u.Fragment, "/") {
		if p, err := ParseJSONPointer(u.Fragment); err == nil {
			loc.jsonPath = p
		}
	}
	if len(loc.jsonPath) == 0 {
		loc.id = id
	}
	return loc
}

// LocationFromDocument derives the location of a root document. The first
// of idKey and altKeys holding a string wins; without one the location is
// derived from the document content so equal documents share an identity.
func LocationFromDocument(doc any, idKey string, altKeys ...string) SchemaLocation {
	if obj, ok := doc.(map[string]any); ok {
		for _, key := range append([]string{idKey}, altKeys...) {
			id, ok := obj[key].(string)
			if !ok || id == "" || strings.HasPrefix(id, "#") {
				continue
			}
			if loc, err := LocationFromID(id); err == nil {
				return loc
			}
			return LocationFromIDNonAbsolute(id)
		}
	}
	return NewSchemaLocation(GenerateUniqueURI(doc), nil, "")
}

// GenerateUniqueURI returns a marker-scheme URI derived from a hash of the
// value and the length of its text. It only needs to be stable within one
// process.
func GenerateUniqueURI(value any) string {
	text := CanonicalJSON(value)
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("%s://%08x-%d", MarkerScheme, h.Sum32(), len(text))
}

// IsMarkerURI reports whether uri was synthesized by this package.
func IsMarkerURI(uri string) bool {
	return strings.HasPrefix(uri, MarkerScheme+"://")
}

// DocumentURI is the absolute, fragment-less URI of the containing document.
func (l SchemaLocation) DocumentURI() string { return l.documentURI }

// JSONPath is the position of the schema inside its document.
func (l SchemaLocation) JSONPath() JSONPointer { return l.jsonPath }

// ResolutionScope is the base URI for references below this schema.
func (l SchemaLocation) ResolutionScope() string { return l.resolutionScope }

// ID returns the identifier declared at this node, if any.
func (l SchemaLocation) ID() string { return l.id }

// IsZero reports whether the location is unset.
func (l SchemaLocation) IsZero() bool {
	return l.documentURI == "" && len(l.jsonPath) == 0 && l.resolutionScope == ""
}

// CanonicalURI is the document URI plus the JSON-pointer fragment.
func (l SchemaLocation) CanonicalURI() string {
	if len(l.jsonPath) == 0 {
		return l.documentURI
	}
	return l.documentURI + escapeFragment(l.jsonPath.String())
}

// UniqueURI is the cache key of the schema: the resolved identifier when
// one was declared, the canonical URI otherwise.
func (l SchemaLocation) UniqueURI() string {
	if l.id != "" && l.resolutionScope != "" {
		return l.resolutionScope
	}
	return l.CanonicalURI()
}

// Child returns the location of a nested node; the resolution scope is
// inherited.
func (l SchemaLocation) Child(segments ...string) SchemaLocation {
	return SchemaLocation{
		documentURI:     l.documentURI,
		jsonPath:        l.jsonPath.Append(segments...),
		resolutionScope: l.resolutionScope,
	}
}

// ChildIndex returns the location of an array element.
func (l SchemaLocation) ChildIndex(segment string, i int) SchemaLocation {
	return SchemaLocation{
		documentURI:     l.documentURI,
		jsonPath:        l.jsonPath.Append(segment).AppendIndex(i),
		resolutionScope: l.resolutionScope,
	}
}

// WithID applies an $id found at this node, changing the resolution scope.
func (l SchemaLocation) WithID(id string) (SchemaLocation, error) {
	scope, err := ResolveURI(l.resolutionScope, id)
	if err != nil {
		return l, err
	}
	out := l
	out.jsonPath = append(JSONPointer{}, l.jsonPath...)
	out.resolutionScope = scope
	out.id = id
	return out, nil
}

// ResolveRef resolves a reference against the resolution scope.
func (l SchemaLocation) ResolveRef(ref string) (string, error) {
	return ResolveURI(l.resolutionScope, ref)
}

// Equal compares document URI, path and resolution scope.
func (l SchemaLocation) Equal(o SchemaLocation) bool {
	return l.documentURI == o.documentURI &&
		l.jsonPath.Equal(o.jsonPath) &&
		l.resolutionScope == o.resolutionScope
}

func (l SchemaLocation) String() string {
	return l.CanonicalURI()
}

// ResolveURI resolves ref against base using RFC 3986 reference resolution.
func ResolveURI(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", NewInvalidURIError(ref, err)
	}
	if base == "" || r.IsAbs() {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", NewInvalidURIError(base, err)
	}
	if r.Path != "" && b.Host != "" && b.Path == "" {
		b.Path = "/"
	}
	return b.ResolveReference(r).String(), nil
}

// SplitFragment splits a URI into its fragment-less part and decoded fragment.
func SplitFragment(uri string) (string, string) {
	i := strings.IndexByte(uri, '#')
	if i < 0 {
		return uri, ""
	}
	fragment := uri[i+1:]
	if decoded, err := url.PathUnescape(fragment); err == nil {
		fragment = decoded
	}
	return uri[:i], fragment
}

// TrimFragment drops the fragment of a URI.
func TrimFragment(uri string) string {
	base, _ := SplitFragment(uri)
	return base
}

func escapeFragment(fragment string) string {
	u := url.URL{Fragment: fragment}
	return u.String()
}

// JoinFragment appends a fragment to a fragment-less URI, escaping it the way
// CanonicalURI does. An empty fragment yields base.
func JoinFragment(base, fragment string) string {
	if fragment == "" {
		return base
	}
	return base + escapeFragment(fragment)
}

// NormalizeURI rewrites uri so that it compares equal to canonical URIs:
// an empty fragment is dropped and the fragment is re-escaped.
func NormalizeURI(uri string) string {
	base, fragment := SplitFragment(uri)
	return JoinFragment(base, fragment)
}
