package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lychee-technology/jsonschema/internal"
)

// runValidate validates an instance file and writes the report to out. It
// reports whether the instance was valid.
func runValidate(args []string, out io.Writer) (bool, error) {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: jsonschema-tools validate -schema <file> -instance <file|-> [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	var opts engineOptions
	opts.register(flags)
	instanceFile := flags.String("instance", "", "Path to the JSON or YAML instance, - for stdin (required)")
	asJSON := flags.Bool("json", false, "Print the report as JSON")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	if *instanceFile == "" {
		return false, fmt.Errorf("-instance is required")
	}

	ctx := context.Background()
	engine, schema, err := loadSchemaFile(ctx, opts, os.Stderr)
	if err != nil {
		return false, err
	}
	defer engine.Close()

	data, err := readFile(*instanceFile)
	if err != nil {
		return false, fmt.Errorf("read instance: %w", err)
	}
	instance, err := internal.DecodeDocument(data)
	if err != nil {
		return false, fmt.Errorf("decode instance: %w", err)
	}

	report := engine.ValidateReport(ctx, schema, instance)
	if *asJSON {
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return false, fmt.Errorf("marshal report: %w", err)
		}
		fmt.Fprintln(out, string(encoded))
	} else {
		fmt.Fprintln(out, report.String())
	}
	return report.IsValid(), nil
}
