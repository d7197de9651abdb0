package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	jsonschema "github.com/lychee-technology/jsonschema"
)

// runInspect prints a summary of the root schema of a file: its identity and
// the object and combinator keywords as read through the draft-7 view.
func runInspect(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("inspect", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: jsonschema-tools inspect -schema <file> [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	var opts engineOptions
	opts.register(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	engine, schema, err := loadSchemaFile(context.Background(), opts, os.Stderr)
	if err != nil {
		return err
	}
	defer engine.Close()

	writeSummary(out, schema)
	return nil
}

func writeSummary(out io.Writer, schema *jsonschema.Schema) {
	view := jsonschema.AsDraft7(schema)
	fmt.Fprintf(out, "location:    %s\n", schema.Location().CanonicalURI())
	fmt.Fprintf(out, "draft:       %s\n", schema.Version())
	if view.Title != "" {
		fmt.Fprintf(out, "title:       %s\n", view.Title)
	}
	if view.Type != nil {
		names := make([]string, len(view.Type.Types))
		for i, t := range view.Type.Types {
			names[i] = string(t)
		}
		fmt.Fprintf(out, "type:        %s\n", strings.Join(names, ", "))
	}
	if len(view.Properties) > 0 {
		fmt.Fprintf(out, "properties:  %s\n", strings.Join(sortedNames(view.Properties), ", "))
	}
	if len(view.Required) > 0 {
		fmt.Fprintf(out, "required:    %s\n", strings.Join(view.Required, ", "))
	}
	if len(view.Definitions) > 0 {
		fmt.Fprintf(out, "definitions: %s\n", strings.Join(sortedNames(view.Definitions), ", "))
	}
	for _, c := range []struct {
		name    string
		schemas []*jsonschema.Schema
	}{{"allOf", view.AllOf}, {"anyOf", view.AnyOf}, {"oneOf", view.OneOf}} {
		if len(c.schemas) > 0 {
			fmt.Fprintf(out, "%-12s %d subschemas\n", c.name+":", len(c.schemas))
		}
	}
	if view.If != nil {
		fmt.Fprintf(out, "conditional: if/then=%t/else=%t\n", view.Then != nil, view.Else != nil)
	}
	if extras := schema.ExtraProperties(); len(extras) > 0 {
		keys := make([]string, 0, len(extras))
		for k := range extras {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(out, "extras:      %s\n", strings.Join(keys, ", "))
	}
}

func sortedNames(m map[string]*jsonschema.Schema) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
