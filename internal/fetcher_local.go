package internal

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"
	"sync"

	jsonschema "github.com/lychee-technology/jsonschema"
)

// MemoryFetcher serves documents registered in memory, keyed by URI.
type MemoryFetcher struct {
	mu        sync.RWMutex
	documents map[string][]byte
}

// NewMemoryFetcher creates a fetcher preloaded with documents.
func NewMemoryFetcher(documents map[string][]byte) *MemoryFetcher {
	f := &MemoryFetcher{documents: make(map[string][]byte, len(documents))}
	for uri, data := range documents {
		f.documents[jsonschema.TrimFragment(uri)] = data
	}
	return f
}

// Put registers or replaces a document.
func (f *MemoryFetcher) Put(uri string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[jsonschema.TrimFragment(uri)] = data
}

func (f *MemoryFetcher) Name() string { return "memory" }

func (f *MemoryFetcher) Supports(uri string) bool { return true }

func (f *MemoryFetcher) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.documents[jsonschema.TrimFragment(uri)]
	if !ok {
		return nil, jsonschema.NewDocumentNotFoundError(uri)
	}
	return append([]byte(nil), data...), nil
}

// FSFetcher maps URIs below a base URI onto files of an fs.FS, e.g. an
// embedded mirror of well-known schemas or a local directory.
type FSFetcher struct {
	name    string
	fsys    fs.FS
	baseURI string
}

// NewFSFetcher creates a fetcher resolving baseURI+"a/b.json" to "a/b.json"
// in fsys.
func NewFSFetcher(name string, fsys fs.FS, baseURI string) *FSFetcher {
	if !strings.HasSuffix(baseURI, "/") {
		baseURI += "/"
	}
	return &FSFetcher{name: name, fsys: fsys, baseURI: baseURI}
}

func (f *FSFetcher) Name() string { return f.name }

func (f *FSFetcher) Supports(uri string) bool {
	return strings.HasPrefix(jsonschema.TrimFragment(uri), f.baseURI)
}

func (f *FSFetcher) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := strings.TrimPrefix(jsonschema.TrimFragment(uri), f.baseURI)
	name := path.Clean(rel)
	if !fs.ValidPath(name) {
		return nil, jsonschema.NewInvalidURIError(uri, errors.New("path escapes fetcher root"))
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, jsonschema.NewDocumentNotFoundError(uri)
		}
		return nil, jsonschema.NewFetchFailedError(uri, err)
	}
	return data, nil
}
