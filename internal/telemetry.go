package internal

import (
	"context"
	"sync"
	"time"
)

// Telemetry hooks for fetch, load and validate stages. The default emitter
// is a no-op; service wiring or tests may register their own.

type telemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl telemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {}
)

// RegisterTelemetryEmitter registers a custom emitter function.
func RegisterTelemetryEmitter(fn telemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emitter() telemetryEmitter {
	teleMu.Lock()
	defer teleMu.Unlock()
	return teleImpl
}

// EmitLatency records a latency measure (milliseconds) for a named stage.
// name: "schema_stage_latency_ms" with label {"stage": "<fetch|load|validate>"}
func EmitLatency(ctx context.Context, stage string, d time.Duration) {
	emitter()(ctx, "schema_stage_latency_ms", map[string]string{"stage": stage}, d.Milliseconds())
}

// EmitFetchResult counts fetch outcomes per fetcher.
// name: "schema_fetch_result" with labels {"fetcher": "<name>", "outcome": "<hit|miss|error>"}
func EmitFetchResult(ctx context.Context, fetcher, outcome string) {
	emitter()(ctx, "schema_fetch_result", map[string]string{"fetcher": fetcher, "outcome": outcome}, int64(1))
}

// EmitViolationCount records the leaf violation count of one validation.
// name: "schema_violation_count"
func EmitViolationCount(ctx context.Context, count int) {
	emitter()(ctx, "schema_violation_count", nil, int64(count))
}
