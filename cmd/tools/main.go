package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		valid, err := runValidate(os.Args[2:], os.Stdout)
		if err != nil {
			sugar.Fatalf("validate: %v", err)
		}
		if !valid {
			os.Exit(2)
		}
	case "convert":
		if err := runConvert(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("convert: %v", err)
		}
	case "inspect":
		if err := runInspect(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("inspect: %v", err)
		}
	case "crosscheck":
		if err := runCrossCheck(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("crosscheck: %v", err)
		}
	case "init-db":
		if err := runInitDB(os.Args[2:]); err != nil {
			sugar.Fatalf("init-db: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: jsonschema-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  validate     Validate a JSON or YAML instance against a schema file")
	logger.Info("  convert      Rewrite a schema file in the shape of another draft")
	logger.Info("  inspect      Summarize the root schema of a file")
	logger.Info("  crosscheck   Compare validation verdicts with github.com/google/jsonschema-go")
	logger.Info("  init-db      Create the schema_documents table and load schema files into it")
}
