package internal

import (
	"context"
	"sync"
	"testing"

	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/stretchr/testify/assert"
)

func TestTelemetry_LoadEmitsLatency(t *testing.T) {
	var mu sync.Mutex
	var stages []string
	RegisterTelemetryEmitter(func(_ context.Context, name string, labels map[string]string, _ any) {
		if name != "schema_stage_latency_ms" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		stages = append(stages, labels["stage"])
	})
	defer RegisterTelemetryEmitter(nil)

	loadString(t, newTestLoader(jsonschema.LoaderConfig{}, nil), `{"type": "null"}`)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, stages, "load")
}

func TestTelemetry_NilEmitterIsNoop(t *testing.T) {
	RegisterTelemetryEmitter(nil)
	assert.NotPanics(t, func() {
		EmitFetchResult(context.Background(), "memory", "hit")
		EmitViolationCount(context.Background(), 3)
	})
}
