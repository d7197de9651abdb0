package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	jsonschema "github.com/lychee-technology/jsonschema"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FetchRace queries every fetcher that supports a URI concurrently. The
// first success wins and cancels the others; when all fail their errors
// are aggregated.
type FetchRace struct {
	fetchers []jsonschema.DocumentFetcher
	// breakers[i] guards fetchers[i]; names need not be unique.
	breakers []*CircuitBreaker
	timeout  time.Duration
	logger   *zap.Logger
}

type fetchResult struct {
	index   int
	fetcher string
	data    []byte
	err     error
}

// NewFetchRace creates a race over fetchers. Each fetcher gets its own
// circuit breaker configured from breaker.
func NewFetchRace(fetchers []jsonschema.DocumentFetcher, timeout time.Duration, breaker jsonschema.CircuitBreakerConfig, logger *zap.Logger) *FetchRace {
	if logger == nil {
		logger = zap.L()
	}
	breakers := make([]*CircuitBreaker, len(fetchers))
	for i, f := range fetchers {
		breakers[i] = NewCircuitBreaker(f.Name(), breaker.Threshold, breaker.Window, breaker.OpenDuration)
	}
	return &FetchRace{
		fetchers: fetchers,
		breakers: breakers,
		timeout:  timeout,
		logger:   logger,
	}
}

// Name implements jsonschema.DocumentFetcher.
func (r *FetchRace) Name() string { return "race" }

// Supports reports whether any fetcher supports uri.
func (r *FetchRace) Supports(uri string) bool {
	for _, f := range r.fetchers {
		if f.Supports(uri) {
			return true
		}
	}
	return false
}

// Fetchers returns the fetchers taking part in the race.
func (r *FetchRace) Fetchers() []jsonschema.DocumentFetcher {
	return append([]jsonschema.DocumentFetcher(nil), r.fetchers...)
}

// FetchDocument runs the race for uri.
func (r *FetchRace) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	var candidates []int
	var skipped error
	for i, f := range r.fetchers {
		if !f.Supports(uri) {
			continue
		}
		if r.breakers[i].IsOpen() {
			skipped = multierr.Append(skipped, jsonschema.NewFetcherUnavailableError(f.Name()))
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		if skipped != nil {
			return nil, jsonschema.NewFetchFailedError(uri, skipped)
		}
		return nil, jsonschema.NewNoFetcherError(uri)
	}

	start := time.Now()
	raceCtx := ctx
	cancel := func() {}
	if r.timeout > 0 {
		raceCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	// buffered so losing fetchers never block after the race is decided
	results := make(chan fetchResult, len(candidates))
	for _, i := range candidates {
		go func(i int, f jsonschema.DocumentFetcher) {
			data, err := f.FetchDocument(raceCtx, uri)
			results <- fetchResult{index: i, fetcher: f.Name(), data: data, err: err}
		}(i, r.fetchers[i])
	}

	var errs error
	var missed []string
	allNotFound := true
	for pending := len(candidates); pending > 0; pending-- {
		select {
		case res := <-results:
			if res.err == nil {
				cancel()
				r.breakers[res.index].RecordSuccess()
				r.logger.Debug("document fetched", zap.String("uri", uri), zap.String("fetcher", res.fetcher), zap.Duration("elapsed", time.Since(start)))
				EmitFetchResult(ctx, res.fetcher, "hit")
				EmitLatency(ctx, "fetch", time.Since(start))
				return res.data, nil
			}
			if jsonschema.IsDocumentNotFound(res.err) {
				missed = append(missed, res.fetcher)
				EmitFetchResult(ctx, res.fetcher, "miss")
			} else {
				allNotFound = false
				r.breakers[res.index].RecordFailure()
				EmitFetchResult(ctx, res.fetcher, "error")
				r.logger.Warn("document fetch failed", zap.String("uri", uri), zap.String("fetcher", res.fetcher), zap.Error(res.err))
			}
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", res.fetcher, res.err))
		case <-raceCtx.Done():
			errs = multierr.Append(errs, raceCtx.Err())
			if errors.Is(raceCtx.Err(), context.DeadlineExceeded) {
				return nil, jsonschema.NewFetchTimeoutError(uri, errs)
			}
			return nil, jsonschema.NewFetchFailedError(uri, errs)
		}
	}

	if allNotFound {
		sort.Strings(missed)
		return nil, jsonschema.NewDocumentNotFoundError(uri).WithDetail("fetchers", missed)
	}
	return nil, jsonschema.NewFetchFailedError(uri, errs)
}
