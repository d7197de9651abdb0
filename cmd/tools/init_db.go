package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/lychee-technology/jsonschema/factory"
	"github.com/lychee-technology/jsonschema/internal"
)

type initDBOptions struct {
	host      string
	port      int
	database  string
	user      string
	password  string
	sslMode   string
	table     string
	schemaDir string
	baseURI   string
}

func runInitDB(args []string) error {
	flags := flag.NewFlagSet("init-db", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: jsonschema-tools init-db [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	opts := initDBOptions{}
	flags.StringVar(&opts.host, "db-host", getenvDefault("DB_HOST", "localhost"), "database host")
	flags.IntVar(&opts.port, "db-port", getenvDefaultInt("DB_PORT", 5432), "database port")
	flags.StringVar(&opts.database, "db-name", getenvDefault("DB_NAME", "jsonschema"), "database name")
	flags.StringVar(&opts.user, "db-user", getenvDefault("DB_USER", "postgres"), "database user")
	flags.StringVar(&opts.password, "db-password", getenvDefault("DB_PASSWORD", "postgres"), "database password")
	flags.StringVar(&opts.sslMode, "db-ssl-mode", getenvDefault("DB_SSL_MODE", "disable"), "database sslmode")
	flags.StringVar(&opts.table, "table", getenvDefault("SCHEMA_TABLE", "schema_documents"), "schema document table name")
	flags.StringVar(&opts.schemaDir, "schema-dir", getenvDefault("SCHEMA_DIR", ""), "Directory containing schema files to store (optional)")
	flags.StringVar(&opts.baseURI, "base-uri", getenvDefault("SCHEMA_BASE_URI", ""), "URI prefix the stored documents are addressed by (required with -schema-dir)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.schemaDir != "" && opts.baseURI == "" {
		return fmt.Errorf("-base-uri is required with -schema-dir")
	}

	return initDatabase(opts)
}

func initDatabase(opts initDBOptions) error {
	ctx := context.Background()

	var documents []storedDocument
	if opts.schemaDir != "" {
		var err error
		if documents, err = collectDocuments(ctx, opts.schemaDir, opts.baseURI); err != nil {
			return err
		}
	}

	pool, err := pgxpool.New(ctx, buildConnString(opts))
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := withTx(ctx, conn, func(tx pgx.Tx) error {
		if err := ensureTable(ctx, tx, opts.table); err != nil {
			return err
		}
		return storeDocuments(ctx, tx, opts.table, documents)
	}); err != nil {
		return err
	}

	fmt.Println("Database initialized successfully.")
	return nil
}

func buildConnString(opts initDBOptions) string {
	hostPort := fmt.Sprintf("%s:%d", opts.host, opts.port)

	var userInfo *url.Userinfo
	if opts.password != "" {
		userInfo = url.UserPassword(opts.user, opts.password)
	} else {
		userInfo = url.User(opts.user)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   hostPort,
		Path:   "/" + opts.database,
	}

	q := url.Values{}
	if opts.sslMode != "" {
		q.Set("sslmode", opts.sslMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func ensureTable(ctx context.Context, tx pgx.Tx, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		uri        TEXT PRIMARY KEY,
		document   JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, quoteIdentifier(table))

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema document table: %w", err)
	}
	fmt.Printf("Created schema document table: %s\n", table)
	return nil
}

// storedDocument is a schema file ready to be written to the table.
type storedDocument struct {
	uri  string
	json []byte
}

// collectDocuments reads every .json, .yaml and .yml file of dir, checks
// that it loads as a schema and re-encodes it as JSON. References between
// the files resolve against baseURI, so a broken reference is caught here
// rather than at validation time.
func collectDocuments(ctx context.Context, dir, baseURI string) ([]storedDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		fmt.Printf("No schema files found, dir: %s\n", dir)
		return nil, nil
	}

	config := jsonschema.DefaultConfig()
	config.Fetch.HTTP.Enabled = false
	config.Fetch.Directory = jsonschema.DirectoryFetchConfig{Enabled: true, Root: dir, BaseURI: baseURI}
	engine, err := factory.NewEngine(ctx, config)
	if err != nil {
		return nil, err
	}
	defer engine.Close()

	if !strings.HasSuffix(baseURI, "/") {
		baseURI += "/"
	}
	documents := make([]storedDocument, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		doc, err := internal.DecodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		uri := baseURI + name
		if _, _, err := engine.ReadSchemaURI(ctx, uri); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		encoded, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		documents = append(documents, storedDocument{uri: uri, json: encoded})
	}
	return documents, nil
}

func storeDocuments(ctx context.Context, tx pgx.Tx, table string, documents []storedDocument) error {
	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (uri, document) VALUES ($1, $2::jsonb)
		ON CONFLICT (uri) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
		quoteIdentifier(table),
	)
	for _, doc := range documents {
		if _, err := tx.Exec(ctx, insertSQL, doc.uri, string(doc.json)); err != nil {
			return fmt.Errorf("store document %s: %w", doc.uri, err)
		}
		fmt.Printf("Stored schema document, uri: %s\n", doc.uri)
	}
	if len(documents) > 0 {
		fmt.Printf("Stored schema documents, count: %d\n", len(documents))
	}
	return nil
}

func withTx(ctx context.Context, conn *pgxpool.Conn, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func quoteIdentifier(name string) string {
	return pgx.Identifier(splitIdentifier(name)).Sanitize()
}

func splitIdentifier(name string) []string {
	parts := strings.Split(name, ".")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return []string{name}
	}
	return result
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
