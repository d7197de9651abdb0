package internal

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// pinger is implemented by fetchers backed by a connection that can be
// checked without fetching a document.
type pinger interface {
	Ping(ctx context.Context) error
}

// CheckFetchers pings every fetcher of the race that supports it and
// returns the failures keyed by fetcher name. timeout may be 0 to use a
// default of 5s.
func CheckFetchers(ctx context.Context, race *FetchRace, timeout time.Duration) map[string]error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	failures := make(map[string]error)
	for _, f := range race.Fetchers() {
		p, ok := f.(pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			zap.S().Warnw("fetcher health check failed", "fetcher", f.Name(), "error", err)
			failures[f.Name()] = err
		}
	}
	return failures
}
