package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/lychee-technology/jsonschema/factory"
	"golang.org/x/sync/errgroup"
)

type options struct {
	schemaFile   string
	count        int
	workers      int
	invalidRatio float64
	seed         int64
	seedProvided bool
}

// leadSchema is validated when no -schema is given. It exercises
// references, patterns, formats and combinators.
const leadSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"$id": "https://bench.example.com/lead.json",
	"type": "object",
	"required": ["id", "email", "status", "score"],
	"additionalProperties": false,
	"definitions": {
		"tag": {"type": "string", "pattern": "^[a-z][a-z0-9-]*$", "maxLength": 24}
	},
	"properties": {
		"id": {"type": "string", "format": "uuid"},
		"email": {"type": "string", "format": "email"},
		"status": {"enum": ["new", "contacted", "qualified", "lost"]},
		"score": {"type": "number", "minimum": 0, "maximum": 100, "multipleOf": 0.5},
		"tags": {"type": "array", "items": {"$ref": "#/definitions/tag"}, "uniqueItems": true, "maxItems": 8},
		"phone": {"oneOf": [{"type": "null"}, {"type": "string", "minLength": 7}]}
	},
	"if": {"properties": {"status": {"const": "lost"}}},
	"then": {"required": ["tags"]}
}`

func main() {
	log.SetFlags(0)

	opts := parseFlags()
	ctx := context.Background()

	config := jsonschema.DefaultConfig()
	config.Fetch.HTTP.Enabled = false
	engine, err := factory.NewEngine(ctx, config)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	source := []byte(leadSchema)
	if opts.schemaFile != "" {
		if source, err = os.ReadFile(opts.schemaFile); err != nil {
			log.Fatalf("failed to read schema %s: %v", opts.schemaFile, err)
		}
	}
	loadStart := time.Now()
	schema, _, err := engine.ReadSchemaBytes(ctx, source)
	if err != nil {
		log.Fatalf("failed to load schema: %v", err)
	}
	log.Printf("[info] Schema loaded in %s", time.Since(loadStart))

	if !opts.seedProvided {
		log.Printf("[info] Using random seed %d", opts.seed)
	}
	random := rand.New(rand.NewSource(opts.seed))
	instances := make([]any, opts.count)
	for i := range instances {
		instances[i] = buildLead(random, random.Float64() < opts.invalidRatio)
	}

	result, err := run(ctx, engine, schema, instances, opts.workers)
	if err != nil {
		log.Fatalf("benchmark failed: %v", err)
	}
	result.print()
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.schemaFile, "schema", "", "Schema file to validate against (defaults to a built-in lead schema)")
	flag.IntVar(&opts.count, "count", getenvDefaultInt("BENCH_COUNT", 100000), "number of instances to validate")
	flag.IntVar(&opts.workers, "workers", getenvDefaultInt("BENCH_WORKERS", 8), "number of concurrent validators")
	flag.Float64Var(&opts.invalidRatio, "invalid-ratio", 0.2, "share of generated instances that violate the schema")
	seed := flag.String("seed", "", "random seed (defaults to the current time)")
	flag.Parse()

	if *seed != "" {
		parsed, err := strconv.ParseInt(*seed, 10, 64)
		if err != nil {
			log.Fatalf("invalid -seed: %v", err)
		}
		opts.seed = parsed
		opts.seedProvided = true
	} else {
		opts.seed = time.Now().UnixNano()
	}
	if opts.workers <= 0 {
		opts.workers = 1
	}
	return opts
}

type benchResult struct {
	total     int
	invalid   int
	elapsed   time.Duration
	latencies []time.Duration
}

// run validates instances with a fixed number of workers sharing one
// compiled validator.
func run(ctx context.Context, engine *factory.Engine, schema *jsonschema.Schema, instances []any, workers int) (*benchResult, error) {
	validator := engine.Validator(schema)
	latencies := make([]time.Duration, len(instances))
	var mu sync.Mutex
	invalid := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	start := time.Now()
	for i, instance := range instances {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t0 := time.Now()
			value := jsonschema.ValueWithPath{Value: instance, Path: jsonschema.JSONPointer{}, Document: instance}
			report := jsonschema.NewValidationReport()
			validator.Validate(value, report)
			latencies[i] = time.Since(t0)
			if !report.IsValid() {
				mu.Lock()
				invalid++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &benchResult{total: len(instances), invalid: invalid, elapsed: time.Since(start), latencies: latencies}, nil
}

func (r *benchResult) percentile(p float64) time.Duration {
	if len(r.latencies) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), r.latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func (r *benchResult) print() {
	throughput := float64(r.total) / r.elapsed.Seconds()
	fmt.Printf("instances:  %d (%d invalid)\n", r.total, r.invalid)
	fmt.Printf("elapsed:    %s\n", r.elapsed)
	fmt.Printf("throughput: %.0f/s\n", throughput)
	fmt.Printf("p50:        %s\n", r.percentile(0.50))
	fmt.Printf("p99:        %s\n", r.percentile(0.99))
}

var statuses = []string{"new", "contacted", "qualified", "lost"}

// buildLead generates a lead instance; broken leads carry one violation.
func buildLead(r *rand.Rand, broken bool) map[string]any {
	lead := map[string]any{
		"id":     fmt.Sprintf("%08x-%04x-4%03x-8%03x-%012x", r.Uint32(), r.Intn(1<<16), r.Intn(1<<12), r.Intn(1<<12), r.Int63n(1<<48)),
		"email":  fmt.Sprintf("lead%d@example.com", r.Intn(100000)),
		"status": statuses[r.Intn(len(statuses))],
		"score":  float64(r.Intn(201)) / 2,
		"tags":   []any{"inbound", fmt.Sprintf("campaign-%d", r.Intn(50))},
	}
	if r.Intn(2) == 0 {
		lead["phone"] = nil
	} else {
		lead["phone"] = fmt.Sprintf("+1555%07d", r.Intn(10000000))
	}
	if !broken {
		return lead
	}
	switch r.Intn(5) {
	case 0:
		lead["score"] = 100.25
	case 1:
		lead["status"] = "archived"
	case 2:
		lead["email"] = "not an email"
	case 3:
		lead["tags"] = []any{"dup", "dup"}
	default:
		lead["unexpected"] = true
	}
	return lead
}

func getenvDefaultInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
