package internal

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher answers every supported URI with data or err after delay. The
// delay ignores the context so that a race timeout can be observed.
type stubFetcher struct {
	name     string
	prefix   string
	data     []byte
	err      error
	delay    time.Duration
	calls    atomic.Int32
	canceled atomic.Bool
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Supports(uri string) bool {
	return f.prefix == "" || len(uri) >= len(f.prefix) && uri[:len(f.prefix)] == f.prefix
}

func (f *stubFetcher) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
		if ctx.Err() != nil {
			f.canceled.Store(true)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func newRace(timeout time.Duration, fetchers ...jsonschema.DocumentFetcher) *FetchRace {
	return NewFetchRace(fetchers, timeout, jsonschema.CircuitBreakerConfig{}, nil)
}

func TestFetchRace_FirstSuccessWins(t *testing.T) {
	slow := &stubFetcher{name: "slow", data: []byte(`{"from":"slow"}`), delay: 200 * time.Millisecond}
	fast := &stubFetcher{name: "fast", data: []byte(`{"from":"fast"}`)}
	race := newRace(time.Second, slow, fast)

	data, err := race.FetchDocument(context.Background(), "http://example.com/a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"fast"}`, string(data))

	assert.Eventually(t, slow.canceled.Load, time.Second, 10*time.Millisecond)
}

func TestFetchRace_SuccessBeatsNotFound(t *testing.T) {
	missing := &stubFetcher{name: "missing", err: jsonschema.NewDocumentNotFoundError("urn:x")}
	holder := &stubFetcher{name: "holder", data: []byte(`{}`), delay: 20 * time.Millisecond}
	race := newRace(time.Second, missing, holder)

	data, err := race.FetchDocument(context.Background(), "urn:x")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFetchRace_AllNotFound(t *testing.T) {
	a := &stubFetcher{name: "a", err: jsonschema.NewDocumentNotFoundError("urn:x")}
	b := &stubFetcher{name: "b", err: jsonschema.NewDocumentNotFoundError("urn:x")}
	race := newRace(time.Second, a, b)

	_, err := race.FetchDocument(context.Background(), "urn:x")
	require.Error(t, err)
	assert.True(t, jsonschema.IsDocumentNotFound(err))
	assert.Equal(t, "[not_found:DOCUMENT_NOT_FOUND] urn:x: document not found", err.Error())

	var se *jsonschema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"a", "b"}, se.Details["fetchers"])
}

func TestFetchRace_FailureIsNotReportedAsNotFound(t *testing.T) {
	a := &stubFetcher{name: "a", err: jsonschema.NewDocumentNotFoundError("urn:x")}
	b := &stubFetcher{name: "b", err: errors.New("connection refused")}
	race := newRace(time.Second, a, b)

	_, err := race.FetchDocument(context.Background(), "urn:x")
	var se *jsonschema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, jsonschema.ErrCodeFetchFailed, se.Code)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFetchRace_Timeout(t *testing.T) {
	stuck := &stubFetcher{name: "stuck", data: []byte(`{}`), delay: 300 * time.Millisecond}
	race := newRace(20*time.Millisecond, stuck)

	_, err := race.FetchDocument(context.Background(), "urn:x")
	var se *jsonschema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, jsonschema.ErrorTypeTimeout, se.Type)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchRace_NoSupportingFetcher(t *testing.T) {
	s3Only := &stubFetcher{name: "s3", prefix: "s3://", data: []byte(`{}`)}
	race := newRace(time.Second, s3Only)

	assert.False(t, race.Supports("http://example.com/a.json"))
	_, err := race.FetchDocument(context.Background(), "http://example.com/a.json")
	var se *jsonschema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, jsonschema.ErrCodeNoFetcher, se.Code)
	assert.Zero(t, s3Only.calls.Load())
	assert.Len(t, race.Fetchers(), 1)
}

func TestFetchRace_CircuitBreakerSkipsFailingFetcher(t *testing.T) {
	broken := &stubFetcher{name: "broken", err: errors.New("boom")}
	race := NewFetchRace([]jsonschema.DocumentFetcher{broken}, time.Second, jsonschema.CircuitBreakerConfig{
		Threshold:    2,
		Window:       time.Minute,
		OpenDuration: time.Minute,
	}, nil)

	for i := 0; i < 2; i++ {
		_, err := race.FetchDocument(context.Background(), "urn:x")
		require.Error(t, err)
	}

	_, err := race.FetchDocument(context.Background(), "urn:x")
	var se *jsonschema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, jsonschema.ErrCodeFetchFailed, se.Code)
	assert.Contains(t, err.Error(), "fetcher temporarily disabled")
	assert.Equal(t, int32(2), broken.calls.Load())
}

func TestFetchRace_BreakersAreKeyedPerFetcher(t *testing.T) {
	broken := &stubFetcher{name: "fs", prefix: "file:///broken/", err: errors.New("permission denied")}
	healthy := &stubFetcher{name: "fs", prefix: "file:///schemas/", data: []byte(`{}`)}
	race := NewFetchRace([]jsonschema.DocumentFetcher{broken, healthy}, time.Second, jsonschema.CircuitBreakerConfig{
		Threshold:    2,
		Window:       time.Minute,
		OpenDuration: time.Minute,
	}, nil)

	for i := 0; i < 2; i++ {
		_, err := race.FetchDocument(context.Background(), "file:///broken/a.json")
		require.Error(t, err)
	}
	_, err := race.FetchDocument(context.Background(), "file:///broken/a.json")
	assert.Contains(t, err.Error(), "fetcher temporarily disabled")

	data, err := race.FetchDocument(context.Background(), "file:///schemas/b.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.Equal(t, int32(1), healthy.calls.Load())
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("postgres", 3, time.Minute, 30*time.Second)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())

	// failures outside the window are forgotten
	now = now.Add(2 * time.Minute)
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())

	cb.RecordFailure()
	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	now = now.Add(31 * time.Second)
	assert.False(t, cb.IsOpen())

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	cb.RecordSuccess()
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb := NewCircuitBreaker("http", 0, time.Minute, time.Minute)
	for i := 0; i < 10; i++ {
		cb.RecordFailure()
	}
	assert.False(t, cb.IsOpen())

	var nilBreaker *CircuitBreaker
	nilBreaker.RecordFailure()
	assert.False(t, nilBreaker.IsOpen())
}
