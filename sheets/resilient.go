// ABOUTME: Circuit breaker and retry wrapper around a ValuesAPI
// ABOUTME: Retries transient failures with backoff and stops calling after repeated failures
package sheets

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sony/gobreaker"
)

// RetryConfig controls retries of a single Sheets call.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultRetry retries each call up to three times starting at 500ms.
var DefaultRetry = RetryConfig{MaxRetries: 3, InitialBackoff: 500 * time.Millisecond}

// Resilient guards a ValuesAPI with a circuit breaker. Each breaker call is
// retried with exponential backoff plus jitter.
type Resilient struct {
	api   ValuesAPI
	cb    *gobreaker.CircuitBreaker
	retry RetryConfig
}

func NewResilient(api ValuesAPI, retry RetryConfig) *Resilient {
	return &Resilient{
		api:   api,
		cb:    NewCircuitBreaker("google-sheets"),
		retry: retry,
	}
}

// NewCircuitBreaker opens after at least 5 calls with a 60% failure ratio and
// probes again after 10s.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})
}

func (r *Resilient) Clear(ctx context.Context, spreadsheetID, rng string) error {
	return r.call(ctx, func() error {
		return r.api.Clear(ctx, spreadsheetID, rng)
	})
}

func (r *Resilient) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	return r.call(ctx, func() error {
		return r.api.Update(ctx, spreadsheetID, rng, values)
	})
}

// State reports the breaker state, mostly for logging.
func (r *Resilient) State() gobreaker.State {
	return r.cb.State()
}

func (r *Resilient) call(ctx context.Context, fn func() error) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, retryWithBackoff(ctx, r.retry, fn)
	})
	return err
}

func retryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxRetries {
			wait := time.Duration(math.Pow(2, float64(attempt))) * cfg.InitialBackoff
			if half := int64(wait / 2); half > 0 {
				wait += time.Duration(rand.Int64N(half))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}
