package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	jsonschema "github.com/lychee-technology/jsonschema"
	_ "github.com/mattn/go-sqlite3"
)

// SQLFetcher reads schema documents through database/sql, e.g. from a
// SQLite file shipped next to a service.
type SQLFetcher struct {
	db         *sql.DB
	table      string
	fetchQuery string
}

// NewSQLFetcher creates a fetcher over an open database.
func NewSQLFetcher(db *sql.DB, cfg jsonschema.SQLFetchConfig) *SQLFetcher {
	placeholder := "?"
	if cfg.Driver == "postgres" {
		placeholder = "$1"
	}
	return &SQLFetcher{
		db:    db,
		table: cfg.Table,
		fetchQuery: fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
			pq.QuoteIdentifier(cfg.DocumentColumn), pq.QuoteIdentifier(cfg.Table), pq.QuoteIdentifier(cfg.URIColumn), placeholder),
	}
}

// OpenSQLFetcher opens cfg.DSN with cfg.Driver. The caller owns the
// returned database.
func OpenSQLFetcher(cfg jsonschema.SQLFetchConfig) (*SQLFetcher, *sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	return NewSQLFetcher(db, cfg), db, nil
}

func (f *SQLFetcher) Name() string { return "sql" }

func (f *SQLFetcher) Supports(uri string) bool { return true }

func (f *SQLFetcher) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	var data []byte
	err := f.db.QueryRowContext(ctx, f.fetchQuery, jsonschema.TrimFragment(uri)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jsonschema.NewDocumentNotFoundError(uri)
		}
		return nil, jsonschema.NewFetchFailedError(uri, fmt.Errorf("failed to query %s: %w", f.table, err))
	}
	return data, nil
}

// Ping checks that the database answers.
func (f *SQLFetcher) Ping(ctx context.Context) error {
	if err := f.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sql ping failed: %w", err)
	}
	return nil
}
