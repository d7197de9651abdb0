package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lychee-technology/jsonschema/internal"
)

// verdictMismatch is one instance on which both validators disagree.
type verdictMismatch struct {
	index     int
	ours      bool
	reference bool
	detail    string
}

func runCrossCheck(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("crosscheck", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: jsonschema-tools crosscheck -schema <file> -instances <file> [options]")
		fmt.Println("")
		fmt.Println("The instances file holds a JSON or YAML array; every element is validated.")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	var opts engineOptions
	opts.register(flags)
	instancesFile := flags.String("instances", "", "Path to a JSON or YAML array of instances (required)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *instancesFile == "" {
		return fmt.Errorf("-instances is required")
	}

	ctx := context.Background()
	engine, schema, err := loadSchemaFile(ctx, opts, os.Stderr)
	if err != nil {
		return err
	}
	defer engine.Close()

	data, err := readFile(*instancesFile)
	if err != nil {
		return fmt.Errorf("read instances: %w", err)
	}
	decoded, err := internal.DecodeDocument(data)
	if err != nil {
		return fmt.Errorf("decode instances: %w", err)
	}
	instances, ok := decoded.([]any)
	if !ok {
		return fmt.Errorf("instances file must hold an array")
	}

	reference, err := internal.NewReferenceValidator(schema)
	if err != nil {
		return err
	}

	var mismatches []verdictMismatch
	for i, instance := range instances {
		ours := engine.ValidateReport(ctx, schema, instance)
		refErr := reference.Validate(instance)
		if ours.IsValid() == (refErr == nil) {
			continue
		}
		m := verdictMismatch{index: i, ours: ours.IsValid(), reference: refErr == nil}
		if refErr != nil {
			m.detail = refErr.Error()
		} else {
			m.detail = ours.String()
		}
		mismatches = append(mismatches, m)
	}

	for _, m := range mismatches {
		fmt.Fprintf(out, "instance %d: valid=%t reference=%t: %s\n", m.index, m.ours, m.reference, m.detail)
	}
	fmt.Fprintf(out, "Checked instances, count: %d, mismatches: %d\n", len(instances), len(mismatches))
	if len(mismatches) > 0 {
		return fmt.Errorf("%d verdicts differ", len(mismatches))
	}
	return nil
}
