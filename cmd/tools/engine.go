package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/lychee-technology/jsonschema/factory"
	"go.uber.org/zap"
)

// engineOptions are the loader flags shared by the schema commands.
type engineOptions struct {
	schemaFile string
	draft      string
	strict     bool
	offline    bool
}

func (o *engineOptions) register(flags *flag.FlagSet) {
	flags.StringVar(&o.schemaFile, "schema", "", "Path to the schema file (required)")
	flags.StringVar(&o.draft, "draft", "draft-7", "Draft assumed for documents without $schema")
	flags.BoolVar(&o.strict, "strict", false, "Report shape and vocabulary issues as errors")
	flags.BoolVar(&o.offline, "offline", false, "Do not fetch http(s) references")
}

// loadSchemaFile builds an engine that resolves references relative to the
// schema file's directory and loads the file through it.
func loadSchemaFile(ctx context.Context, opts engineOptions, warnings io.Writer) (*factory.Engine, *jsonschema.Schema, error) {
	if opts.schemaFile == "" {
		return nil, nil, fmt.Errorf("-schema is required")
	}
	abs, err := filepath.Abs(opts.schemaFile)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve schema path: %w", err)
	}
	draft, err := jsonschema.ParseDraft(opts.draft)
	if err != nil {
		return nil, nil, err
	}

	config := jsonschema.DefaultConfig()
	config.Loader.DefaultVersion = draft
	if opts.strict {
		config.Loader.StrictVersions = jsonschema.AllDrafts
	}
	config.Fetch.HTTP.Enabled = !opts.offline
	config.Fetch.Directory = jsonschema.DirectoryFetchConfig{
		Enabled: true,
		Root:    filepath.Dir(abs),
		BaseURI: fileURI(filepath.Dir(abs)) + "/",
	}

	engine, err := factory.NewEngine(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	schema, report, err := engine.ReadSchemaURI(ctx, fileURI(abs))
	for _, issue := range report.Issues() {
		fmt.Fprintf(warnings, "%s\n", issue.String())
	}
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	zap.S().Debugw("schema loaded", "file", abs, "version", schema.Version().String())
	return engine, schema, nil
}

func fileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
