package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	jsonschema "github.com/lychee-technology/jsonschema"
	"go.uber.org/zap"
)

type documentPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresFetcher reads schema documents from a table keyed by URI.
type PostgresFetcher struct {
	pool       documentPool
	table      string
	uriColumn  string
	docColumn  string
	fetchQuery string
	listQuery  string
}

// NewPostgresFetcher creates a fetcher over an existing pool.
func NewPostgresFetcher(pool documentPool, cfg jsonschema.PostgresFetchConfig) *PostgresFetcher {
	f := &PostgresFetcher{
		pool:      pool,
		table:     cfg.Table,
		uriColumn: cfg.URIColumn,
		docColumn: cfg.DocumentColumn,
	}
	f.fetchQuery = fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		pq.QuoteIdentifier(f.docColumn), pq.QuoteIdentifier(f.table), pq.QuoteIdentifier(f.uriColumn))
	f.listQuery = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		pq.QuoteIdentifier(f.uriColumn), pq.QuoteIdentifier(f.table), pq.QuoteIdentifier(f.uriColumn))
	return f
}

// NewPostgresFetcherFromDSN opens a pgx pool for cfg.DSN. The caller owns
// the returned pool.
func NewPostgresFetcherFromDSN(ctx context.Context, cfg jsonschema.PostgresFetchConfig) (*PostgresFetcher, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return NewPostgresFetcher(pool, cfg), pool, nil
}

func (f *PostgresFetcher) Name() string { return "postgres" }

func (f *PostgresFetcher) Supports(uri string) bool { return true }

func (f *PostgresFetcher) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	key := jsonschema.TrimFragment(uri)
	var data []byte
	if err := f.pool.QueryRow(ctx, f.fetchQuery, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jsonschema.NewDocumentNotFoundError(uri)
		}
		return nil, jsonschema.NewFetchFailedError(uri, fmt.Errorf("failed to query %s: %w", f.table, err))
	}
	return data, nil
}

// ListURIs returns the URIs of every stored document.
func (f *PostgresFetcher) ListURIs(ctx context.Context) ([]string, error) {
	rows, err := f.pool.Query(ctx, f.listQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema documents: %w", err)
	}
	defer rows.Close()

	var uris []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		uris = append(uris, uri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	zap.S().Infow("Listed schema documents", "table", f.table, "count", len(uris))
	return uris, nil
}

// Ping checks that the database answers.
func (f *PostgresFetcher) Ping(ctx context.Context) error {
	if err := f.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
