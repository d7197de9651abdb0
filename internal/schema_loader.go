package internal

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	jsonschema "github.com/lychee-technology/jsonschema"
	"go.uber.org/zap"
)

// SchemaLoader turns raw documents into schema graphs. Built schemas are
// shared through the DocumentCache, so loading the same document twice
// returns the same *Schema.
type SchemaLoader struct {
	cfg       jsonschema.LoaderConfig
	cache     *DocumentCache
	digesters map[string][]keywordDigester
	logger    *zap.Logger

	// loads are serialized: a schema registered in the cache may still be
	// under construction until its load returns
	mu sync.Mutex
}

// loadContext is the state of a single read call.
type loadContext struct {
	ctx    context.Context
	report *jsonschema.LoadingReport
	fatal  error
	added  []string
}

// NewSchemaLoader creates a loader backed by cache.
func NewSchemaLoader(cfg jsonschema.LoaderConfig, cache *DocumentCache, logger *zap.Logger) *SchemaLoader {
	if logger == nil {
		logger = zap.L()
	}
	if cfg.DefaultVersion == jsonschema.DraftUnknown {
		cfg.DefaultVersion = jsonschema.Draft7
	}
	return &SchemaLoader{
		cfg:       cfg,
		cache:     cache,
		digesters: defaultDigesters(),
		logger:    logger,
	}
}

// Cache returns the cache shared by every load.
func (l *SchemaLoader) Cache() *DocumentCache { return l.cache }

// ReadSchema loads a schema from a decoded document, JSON or YAML text
// (string or []byte), an io.Reader or a jsonschema.ValueWithPath.
func (l *SchemaLoader) ReadSchema(ctx context.Context, source any) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	switch v := source.(type) {
	case string:
		return l.ReadSchemaBytes(ctx, []byte(v))
	case []byte:
		return l.ReadSchemaBytes(ctx, v)
	case io.Reader:
		return l.ReadSchemaReader(ctx, v)
	case jsonschema.ValueWithPath:
		return l.readValue(ctx, v)
	case *jsonschema.ValueWithPath:
		return l.readValue(ctx, *v)
	}
	return l.ReadSchemaDocument(ctx, source, "")
}

// ReadSchemaReader reads a whole document from r.
func (l *SchemaLoader) ReadSchemaReader(ctx context.Context, r io.Reader) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		report := jsonschema.NewLoadingReport()
		return nil, report, &jsonschema.SchemaLoadingError{Report: report, Cause: err}
	}
	return l.ReadSchemaBytes(ctx, buf.Bytes())
}

// ReadSchemaBytes decodes data and loads it. Malformed input is fatal.
func (l *SchemaLoader) ReadSchemaBytes(ctx context.Context, data []byte) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		report := jsonschema.NewLoadingReport()
		return nil, report, &jsonschema.SchemaLoadingError{Report: report, Cause: err}
	}
	return l.ReadSchemaDocument(ctx, doc, "")
}

// ReadSchemaDocument loads a decoded document. documentURI may be empty, in
// which case the identity comes from the document's identifier or content.
func (l *SchemaLoader) ReadSchemaDocument(ctx context.Context, doc any, documentURI string) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	lc := l.newLoadContext(ctx)
	version := l.documentVersion(doc, l.cfg.DefaultVersion)

	var loc jsonschema.SchemaLocation
	if documentURI != "" {
		loc = jsonschema.NewSchemaLocation(documentURI, nil, "")
	} else {
		keys := version.IDKeys()
		loc = jsonschema.LocationFromDocument(doc, keys[0], keys[1:]...)
	}
	doc = l.cache.CacheDocument(loc.DocumentURI(), doc)

	value := jsonschema.ValueWithPath{Value: doc, Path: jsonschema.JSONPointer{}, Document: doc, DocumentURI: loc.DocumentURI()}
	schema := l.subSchema(lc, value, loc, version)
	return l.finish(lc, schema, start)
}

// ReadSchemaURI loads the schema at uri, fetching its document if needed.
// A fragment selects a schema inside the document.
func (l *SchemaLoader) ReadSchemaURI(ctx context.Context, uri string) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	lc := l.newLoadContext(ctx)
	target := jsonschema.NormalizeURI(uri)
	if s, ok := l.cache.LookupSchema(target); ok {
		return s, lc.report, nil
	}

	base := jsonschema.TrimFragment(target)
	doc, err := l.cache.FetchDocument(ctx, base)
	if err != nil {
		lc.report.Error(jsonschema.IssueDocumentFetch, jsonschema.NewSchemaLocation(base, nil, ""), uri, "cannot fetch document: %v", err)
		return nil, lc.report, &jsonschema.SchemaLoadingError{Report: lc.report, Cause: err}
	}
	version := l.documentVersion(doc, l.cfg.DefaultVersion)

	var schema *jsonschema.Schema
	if target == base {
		value := jsonschema.ValueWithPath{Value: doc, Path: jsonschema.JSONPointer{}, Document: doc, DocumentURI: base}
		schema = l.subSchema(lc, value, jsonschema.NewSchemaLocation(base, nil, ""), version)
	} else {
		schema = l.resolveInDocument(lc, base, target, doc, version)
		if schema == nil {
			lc.report.Error(jsonschema.IssueRefResolution, jsonschema.NewSchemaLocation(base, nil, ""), uri, "cannot resolve %s", uri)
		}
	}
	return l.finish(lc, schema, start)
}

func (l *SchemaLoader) readValue(ctx context.Context, v jsonschema.ValueWithPath) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	if len(v.Path) == 0 || v.Document == nil {
		return l.ReadSchemaDocument(ctx, v.Value, v.DocumentURI)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	lc := l.newLoadContext(ctx)
	docURI := v.DocumentURI
	if docURI == "" {
		docURI = jsonschema.GenerateUniqueURI(v.Document)
	}
	doc := l.cache.CacheDocument(docURI, v.Document)
	version := l.documentVersion(doc, l.cfg.DefaultVersion)
	loc := l.locationAt(docURI, doc, v.Path, version)
	schema := l.subSchema(lc, jsonschema.ValueWithPath{Value: v.Value, Path: v.Path, Document: doc, DocumentURI: docURI}, loc, version)
	return l.finish(lc, schema, start)
}

func (l *SchemaLoader) newLoadContext(ctx context.Context) *loadContext {
	return &loadContext{ctx: ctx, report: jsonschema.NewLoadingReport()}
}

func (l *SchemaLoader) finish(lc *loadContext, schema *jsonschema.Schema, start time.Time) (*jsonschema.Schema, *jsonschema.LoadingReport, error) {
	EmitLatency(lc.ctx, "load", time.Since(start))
	for _, issue := range lc.report.Issues() {
		l.logger.Debug("schema loading issue",
			zap.String("code", issue.Code),
			zap.String("level", string(issue.Level)),
			zap.String("location", issue.Location.CanonicalURI()),
			zap.String("message", issue.FormattedMessage()))
	}

	if lc.fatal != nil || schema == nil {
		// partially built schemas must not be served from the cache
		for _, key := range lc.added {
			l.cache.RemoveSchema(key)
		}
		cause := lc.fatal
		if cause == nil {
			cause = jsonschema.NewSchemaError(jsonschema.ErrorTypeLoading, jsonschema.ErrCodeSchemaInvalid, "document is not a schema")
		}
		return nil, lc.report, &jsonschema.SchemaLoadingError{Report: lc.report, Cause: cause}
	}
	if lc.report.HasErrors() || (l.cfg.FailOnWarnings && lc.report.Len() > 0) {
		return schema, lc.report, &jsonschema.SchemaLoadingError{Report: lc.report}
	}
	return schema, lc.report, nil
}

// documentVersion reads the draft from $schema, falling back to def.
func (l *SchemaLoader) documentVersion(doc any, def jsonschema.Draft) jsonschema.Draft {
	obj, ok := doc.(map[string]any)
	if !ok {
		return def
	}
	uri, ok := obj[jsonschema.KeywordSchema.Key].(string)
	if !ok {
		return def
	}
	if d, ok := jsonschema.DraftFromURI(uri); ok {
		return d
	}
	return def
}

func (l *SchemaLoader) issueLevel(version jsonschema.Draft) jsonschema.IssueLevel {
	if l.cfg.IsStrict(version) {
		return jsonschema.LevelError
	}
	return jsonschema.LevelWarn
}

// subSchema builds the schema at value. The schema is registered in the
// cache before its keywords are digested so that cycles terminate.
func (l *SchemaLoader) subSchema(lc *loadContext, value jsonschema.ValueWithPath, loc jsonschema.SchemaLocation, version jsonschema.Draft) *jsonschema.Schema {
	var obj map[string]any
	switch v := value.Value.(type) {
	case bool:
		return jsonschema.NewBooleanSchema(v, loc, version)
	case map[string]any:
		obj = v
	default:
		lc.report.Log(l.issueLevel(version), jsonschema.IssueTypeMismatch, loc, value.Value,
			"expected a schema object, found %s", jsonschema.TypeOf(value.Value))
		return nil
	}

	for _, key := range version.IDKeys() {
		id, ok := obj[key].(string)
		if !ok {
			continue
		}
		if loc.ID() != id {
			next, err := loc.WithID(id)
			if err != nil {
				lc.report.Log(l.issueLevel(version), jsonschema.IssueInvalidID, loc.Child(key), id, "invalid identifier: %v", err)
				break
			}
			loc = next
		}
		break
	}

	key := loc.CanonicalURI()
	if s, ok := l.cache.LookupSchema(key); ok {
		return s
	}
	b := jsonschema.NewSchemaBuilder(loc, version)
	l.register(lc, key, b.Schema())
	if loc.ID() != "" {
		unique := jsonschema.NormalizeURI(loc.UniqueURI())
		if unique != key {
			if existing, ok := l.cache.LookupSchema(unique); ok && existing != b.Schema() {
				lc.report.Warn(jsonschema.IssueInvalidID, loc, loc.ID(), "identifier %s is already bound to %s", unique, existing.Location())
			} else {
				l.register(lc, unique, b.Schema())
			}
		}
		if len(loc.JSONPath()) == 0 {
			l.cache.CacheDocument(jsonschema.TrimFragment(loc.ResolutionScope()), value.Document)
		}
	}

	l.digestInto(lc, b, value, obj)
	return b.Build()
}

func (l *SchemaLoader) register(lc *loadContext, key string, s *jsonschema.Schema) {
	if l.cache.CacheSchema(key, s) == s {
		lc.added = append(lc.added, key)
	}
}

// digestInto runs the digesters of every key of obj, in key order.
func (l *SchemaLoader) digestInto(lc *loadContext, b *jsonschema.SchemaBuilder, value jsonschema.ValueWithPath, obj map[string]any) {
	version := b.Version()
	loc := b.Location()
	strict := l.cfg.IsStrict(version)
	level := l.issueLevel(version)

	rawRef, hasRefKey := obj[jsonschema.KeywordRef.Key]
	ref, hasRef := rawRef.(string)
	if hasRefKey && !hasRef {
		lc.report.Log(level, jsonschema.IssueTypeMismatch, loc.Child(jsonschema.KeywordRef.Key), rawRef, "$ref must be a string")
	}

	keys := jsonschema.SortedKeys(obj)
	if hasRef && l.cfg.StrictRefSiblings {
		var ignored []string
		var kept []string
		for _, key := range keys {
			switch key {
			case jsonschema.KeywordRef.Key, jsonschema.KeywordSchema.Key, jsonschema.KeywordDefinitions.Key, "$id", "id":
				kept = append(kept, key)
			default:
				ignored = append(ignored, key)
			}
		}
		if len(ignored) > 0 {
			lc.report.Warn(jsonschema.IssueRefSiblingsIgnored, loc, ignored, "keywords next to $ref are ignored: %v", ignored)
		}
		keys = kept
	}

	for _, key := range keys {
		if key == jsonschema.KeywordRef.Key {
			continue
		}
		raw := obj[key]
		digesters, known := l.digesters[key]
		if !known {
			b.SetExtra(key, raw)
			if strict {
				lc.report.Warn(jsonschema.IssueUnknownKeyword, loc.Child(key), raw, "unknown keyword %q", key)
			}
			continue
		}

		info := digesters[0].info
		t := jsonschema.TypeOf(raw)
		variant, ok := info.VariantFor(t)
		if !ok {
			lc.report.Log(level, jsonschema.IssueTypeMismatch, loc.Child(key), raw,
				"keyword %s does not accept a %s value", key, t)
			continue
		}
		if !version.In(variant.Versions) {
			if strict {
				lc.report.Error(jsonschema.IssueKeywordNotInDraft, loc.Child(key), raw,
					"keyword %s with a %s value is not defined in %s", key, t, version)
				continue
			}
			lc.report.Warn(jsonschema.IssueKeywordNotInDraft, loc.Child(key), raw,
				"keyword %s with a %s value is not defined in %s", key, t, version)
		}

		dc := &digestContext{loader: l, lc: lc, builder: b, obj: obj, value: value, key: key, raw: raw}
		for _, d := range digesters {
			if kv := d.digest(dc); kv != nil {
				b.Set(d.store, kv)
			}
		}
	}

	if hasRef {
		target := l.loadRef(lc, ref, loc, version)
		b.Set(jsonschema.KeywordRef, &jsonschema.RefKeyword{Ref: ref, Target: target})
	}
}

// loadRef resolves a $ref found at loc. Targets inside the current document
// are located through its identifier index; other documents come from the
// cache, which fetches them on first use.
func (l *SchemaLoader) loadRef(lc *loadContext, ref string, loc jsonschema.SchemaLocation, version jsonschema.Draft) *jsonschema.Schema {
	refLoc := loc.Child(jsonschema.KeywordRef.Key)
	resolved, err := loc.ResolveRef(ref)
	if err != nil {
		lc.report.Error(jsonschema.IssueInvalidRef, refLoc, ref, "invalid reference: %v", err)
		return nil
	}
	target := jsonschema.NormalizeURI(resolved)
	if s, ok := l.cache.LookupSchema(target); ok {
		return s
	}

	if doc, ok := l.cache.LookupDocument(loc.DocumentURI()); ok {
		if s := l.resolveInDocument(lc, loc.DocumentURI(), target, doc, version); s != nil {
			return s
		}
	}

	base := jsonschema.TrimFragment(target)
	if base == loc.DocumentURI() {
		lc.report.Error(jsonschema.IssueRefResolution, refLoc, ref, "cannot resolve %s in its document", target)
		return nil
	}
	doc, ok := l.cache.LookupDocument(base)
	if !ok {
		fetched, err := l.cache.FetchDocument(lc.ctx, base)
		if err != nil {
			lc.report.Error(jsonschema.IssueDocumentFetch, refLoc, ref, "cannot fetch %s: %v", base, err)
			if lc.fatal == nil {
				lc.fatal = err
			}
			return nil
		}
		doc = fetched
	}
	s := l.resolveInDocument(lc, base, target, doc, l.documentVersion(doc, version))
	if s == nil {
		lc.report.Error(jsonschema.IssueRefResolution, refLoc, ref, "cannot resolve %s", target)
	}
	return s
}

// resolveInDocument builds the schema that target designates inside doc.
func (l *SchemaLoader) resolveInDocument(lc *loadContext, documentURI, target string, doc any, version jsonschema.Draft) *jsonschema.Schema {
	path, ok := l.cache.ResolveURIToDocumentUsingLocalIdentifiers(documentURI, target, doc)
	if !ok {
		return nil
	}
	node, ok := path.Lookup(doc)
	if !ok {
		return nil
	}
	loc := l.locationAt(documentURI, doc, path, version)
	value := jsonschema.ValueWithPath{Value: node, Path: path, Document: doc, DocumentURI: documentURI}
	return l.subSchema(lc, value, loc, version)
}

// locationAt computes the location of the node at path, applying the
// identifiers of its ancestors. The node's own identifier is left to
// subSchema.
func (l *SchemaLoader) locationAt(documentURI string, doc any, path jsonschema.JSONPointer, version jsonschema.Draft) jsonschema.SchemaLocation {
	loc := jsonschema.NewSchemaLocation(documentURI, nil, "")
	node := doc
	for i, seg := range path {
		loc = applyIdentifier(loc, node, version)
		switch n := node.(type) {
		case map[string]any:
			node = n[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(n) {
				node = nil
			} else {
				node = n[idx]
			}
		default:
			node = nil
		}
		loc = loc.Child(path[i])
	}
	return loc
}

func applyIdentifier(loc jsonschema.SchemaLocation, node any, version jsonschema.Draft) jsonschema.SchemaLocation {
	obj, ok := node.(map[string]any)
	if !ok {
		return loc
	}
	for _, key := range version.IDKeys() {
		if id, ok := obj[key].(string); ok {
			if next, err := loc.WithID(id); err == nil {
				return next
			}
			return loc
		}
	}
	return loc
}
