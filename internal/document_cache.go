package internal

import (
	"context"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/lychee-technology/jsonschema"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// identifierKeys are scanned when indexing a document; both spellings are
// honoured regardless of draft.
var identifierKeys = []string{"$id", "id"}

// keywords whose values are data, not schemas
var dataKeywords = map[string]bool{
	"enum":     true,
	"const":    true,
	"default":  true,
	"examples": true,
}

// DocumentCache caches raw documents, built schemas and the identifier index
// of every document. Entries are never evicted.
type DocumentCache struct {
	mu        sync.RWMutex
	documents map[string]any
	schemas   map[string]*jsonschema.Schema
	idIndexes map[string]map[string]jsonschema.JSONPointer

	fetcher jsonschema.DocumentFetcher
	group   singleflight.Group
}

// NewDocumentCache creates a cache. fetcher may be nil, in which case only
// cached documents can be resolved.
func NewDocumentCache(fetcher jsonschema.DocumentFetcher) *DocumentCache {
	return &DocumentCache{
		documents: make(map[string]any),
		schemas:   make(map[string]*jsonschema.Schema),
		idIndexes: make(map[string]map[string]jsonschema.JSONPointer),
		fetcher:   fetcher,
	}
}

// CacheDocument stores a document under its fragment-less URI. An existing
// entry is kept and returned.
func (c *DocumentCache) CacheDocument(uri string, doc any) any {
	key := jsonschema.TrimFragment(uri)
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.documents[key]; ok {
		return existing
	}
	c.documents[key] = doc
	return doc
}

// LookupDocument returns a cached document.
func (c *DocumentCache) LookupDocument(uri string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.documents[jsonschema.TrimFragment(uri)]
	return doc, ok
}

// FetchDocument returns the cached document or fetches, decodes and caches
// it. Concurrent requests for the same URI share one fetch.
func (c *DocumentCache) FetchDocument(ctx context.Context, uri string) (any, error) {
	key := jsonschema.TrimFragment(uri)
	if doc, ok := c.LookupDocument(key); ok {
		return doc, nil
	}
	if c.fetcher == nil {
		return nil, jsonschema.NewNoFetcherError(key)
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if doc, ok := c.LookupDocument(key); ok {
			return doc, nil
		}
		start := time.Now()
		data, err := c.fetcher.FetchDocument(ctx, key)
		if err != nil {
			return nil, err
		}
		doc, err := DecodeDocument(data)
		if err != nil {
			if se, ok := err.(*jsonschema.SchemaError); ok {
				se.WithURI(key)
			}
			return nil, err
		}
		zap.S().Debugw("document cached", "uri", key, "bytes", len(data), "elapsed", time.Since(start))
		return c.CacheDocument(key, doc), nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CacheSchema stores a schema under uri unless one is already present; the
// schema held by the cache is returned.
func (c *DocumentCache) CacheSchema(uri string, s *jsonschema.Schema) *jsonschema.Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.schemas[uri]; ok {
		return existing
	}
	c.schemas[uri] = s
	return s
}

// ReplaceSchema overwrites a cache entry.
func (c *DocumentCache) ReplaceSchema(uri string, s *jsonschema.Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemas[uri] = s
}

// LookupSchema returns a cached schema.
func (c *DocumentCache) LookupSchema(uri string) (*jsonschema.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[uri]
	return s, ok
}

// RemoveSchema drops a cache entry, used when a load fails.
func (c *DocumentCache) RemoveSchema(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.schemas, uri)
}

// SchemaCount returns the number of cached schemas.
func (c *DocumentCache) SchemaCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.schemas)
}

// ResolveURIToDocumentUsingLocalIdentifiers finds the position of targetURI
// inside document using the identifiers declared in it. The identifier
// index is built on first use and memoized per document.
func (c *DocumentCache) ResolveURIToDocumentUsingLocalIdentifiers(documentURI, targetURI string, document any) (jsonschema.JSONPointer, bool) {
	index := c.identifierIndex(documentURI, document)
	if p, ok := index[targetURI]; ok {
		return p, true
	}
	base, fragment := jsonschema.SplitFragment(targetURI)
	if fragment != "" && !strings.HasPrefix(fragment, "/") {
		return nil, false
	}
	basePath, ok := index[base]
	if !ok {
		return nil, false
	}
	ptr, err := jsonschema.ParseJSONPointer(fragment)
	if err != nil {
		return nil, false
	}
	full := basePath.Append(ptr...)
	if _, ok := full.Lookup(document); !ok {
		return nil, false
	}
	return full, true
}

func (c *DocumentCache) identifierIndex(documentURI string, document any) map[string]jsonschema.JSONPointer {
	key := jsonschema.TrimFragment(documentURI)
	c.mu.RLock()
	index, ok := c.idIndexes[key]
	c.mu.RUnlock()
	if ok {
		return index
	}
	index = buildIdentifierIndex(key, document)
	c.mu.Lock()
	if existing, ok := c.idIndexes[key]; ok {
		index = existing
	} else {
		c.idIndexes[key] = index
	}
	c.mu.Unlock()
	return index
}

// buildIdentifierIndex walks the whole document once and maps every
// resolved identifier to its pointer. The document URI maps to the root.
func buildIdentifierIndex(documentURI string, document any) map[string]jsonschema.JSONPointer {
	index := map[string]jsonschema.JSONPointer{documentURI: {}}
	var walk func(node any, path jsonschema.JSONPointer, scope string)
	walk = func(node any, path jsonschema.JSONPointer, scope string) {
		switch v := node.(type) {
		case map[string]any:
			for _, key := range identifierKeys {
				id, ok := v[key].(string)
				if !ok || id == "" {
					continue
				}
				resolved, err := jsonschema.ResolveURI(scope, id)
				if err != nil {
					continue
				}
				if _, taken := index[resolved]; !taken {
					index[resolved] = path
				}
				if trimmed := strings.TrimSuffix(resolved, "#"); trimmed != resolved {
					if _, taken := index[trimmed]; !taken {
						index[trimmed] = path
					}
				}
				scope = jsonschema.TrimFragment(resolved)
				break
			}
			for _, key := range jsonschema.SortedKeys(v) {
				if dataKeywords[key] {
					continue
				}
				walk(v[key], path.Append(key), scope)
			}
		case []any:
			for i, item := range v {
				walk(item, path.AppendIndex(i), scope)
			}
		}
	}
	walk(document, jsonschema.JSONPointer{}, documentURI)
	return index
}
