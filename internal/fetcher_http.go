package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsonschema "github.com/lychee-technology/jsonschema"
	"go.uber.org/zap"
)

// HTTPFetcher fetches http and https documents.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewHTTPFetcher creates an HTTP fetcher. A nil client uses http.DefaultClient.
func NewHTTPFetcher(client *http.Client, cfg jsonschema.HTTPFetchConfig) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		client:       client,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) Supports(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

func (f *HTTPFetcher) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	target := jsonschema.TrimFragment(uri)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, jsonschema.NewInvalidURIError(uri, err)
	}
	req.Header.Set("Accept", "application/schema+json, application/json;q=0.9, */*;q=0.1")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, jsonschema.NewFetchFailedError(uri, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, jsonschema.NewDocumentNotFoundError(uri)
	case resp.StatusCode != http.StatusOK:
		return nil, jsonschema.NewFetchFailedError(uri, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body io.Reader = resp.Body
	if f.maxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBodyBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, jsonschema.NewFetchFailedError(uri, err)
	}
	if f.maxBodyBytes > 0 && int64(len(data)) > f.maxBodyBytes {
		return nil, jsonschema.NewFetchFailedError(uri, fmt.Errorf("document exceeds %d bytes", f.maxBodyBytes))
	}
	zap.S().Debugw("fetched schema over http", "uri", target, "bytes", len(data))
	return data, nil
}
