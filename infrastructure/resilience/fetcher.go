// Package resilience provides resilient fetch execution using fortify.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/oversight/domain/action"
)

// Fetcher wraps an action.Fetcher with retry, per-attempt timeout, and a
// circuit breaker.
type Fetcher struct {
	inner   action.Fetcher
	breaker circuitbreaker.CircuitBreaker[action.Record]
	retry   retry.Retry[action.Record]
	timeout time.Duration
}

// FetcherConfig configures the resilient fetcher.
type FetcherConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// AttemptTimeout bounds each individual fetch attempt. Zero disables
	// the per-attempt timeout.
	AttemptTimeout time.Duration

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// BackoffMultiplier is the exponential backoff multiplier.
	BackoffMultiplier float64

	// BreakerThreshold is the number of consecutive failures before the
	// circuit opens.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration
}

// DefaultFetcherConfig returns a configuration with sensible defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		MaxRetries:        2,
		AttemptTimeout:    5 * time.Second,
		InitialDelay:      100 * time.Millisecond,
		BackoffMultiplier: 2.0,
		BreakerThreshold:  5,
		BreakerTimeout:    30 * time.Second,
	}
}

// NewFetcher wraps inner with the resilience patterns from config.
func NewFetcher(inner action.Fetcher, config FetcherConfig) *Fetcher {
	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}

	return &Fetcher{
		inner: inner,
		breaker: circuitbreaker.New[action.Record](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[action.Record](retry.Config{
			MaxAttempts:   maxRetries + 1,
			InitialDelay:  config.InitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.BackoffMultiplier,
		}),
		timeout: config.AttemptTimeout,
	}
}

// Fetch runs the inner fetch with the circuit breaker around the retry loop
// and a fresh timeout per attempt.
func (f *Fetcher) Fetch(ctx context.Context, referenceID, actor string) (action.Record, error) {
	return f.breaker.Execute(ctx, func(ctx context.Context) (action.Record, error) {
		return f.retry.Do(ctx, func(ctx context.Context) (action.Record, error) {
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}
			return f.inner.Fetch(ctx, referenceID, actor)
		})
	})
}

// BreakerState returns the current state of the circuit breaker.
func (f *Fetcher) BreakerState() circuitbreaker.State {
	return f.breaker.State()
}

// Ensure Fetcher implements action.Fetcher
var _ action.Fetcher = (*Fetcher)(nil)
