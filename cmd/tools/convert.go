package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsonschema "github.com/lychee-technology/jsonschema"
)

func runConvert(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("convert", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: jsonschema-tools convert -schema <file> -to <draft> [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	var opts engineOptions
	opts.register(flags)
	target := flags.String("to", "", "Draft to write, e.g. draft-4 (defaults to the schema's own draft)")
	outputFile := flags.String("out", "", "Path to write the converted schema (defaults to stdout)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	version := jsonschema.DraftUnknown
	if *target != "" {
		parsed, err := jsonschema.ParseDraft(*target)
		if err != nil {
			return err
		}
		version = parsed
	}

	engine, schema, err := loadSchemaFile(context.Background(), opts, os.Stderr)
	if err != nil {
		return err
	}
	defer engine.Close()

	encoded, err := json.MarshalIndent(engine.Convert(schema, version), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if *outputFile == "" {
		fmt.Fprintln(out, string(encoded))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(*outputFile), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(*outputFile, encoded, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	fmt.Fprintf(out, "Converted schema written, output: %s\n", *outputFile)
	return nil
}
