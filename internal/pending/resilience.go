package pending

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	gferrors "github.com/gateflow-tech/gateflow/internal/errors"
)

// ResilienceConfig configures retry and circuit breaking around the fetch
// boundary.
type ResilienceConfig struct {
	RetryAttempts    int
	RetryInitialWait time.Duration
	RetryMaxWait     time.Duration

	BreakerEnabled     bool
	BreakerThreshold   int           // consecutive failures before opening
	BreakerTimeout     time.Duration // how long to stay open
	BreakerMaxRequests int           // requests allowed in half-open
}

// DefaultResilienceConfig returns sensible defaults for a polling fetcher.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		RetryAttempts:      3,
		RetryInitialWait:   200 * time.Millisecond,
		RetryMaxWait:       5 * time.Second,
		BreakerEnabled:     true,
		BreakerThreshold:   5,
		BreakerTimeout:     30 * time.Second,
		BreakerMaxRequests: 3,
	}
}

// Resilience wraps Fortify resilience patterns around pending fetches.
type Resilience struct {
	retrier retry.Retry[[]approval.PendingItem]
	breaker circuitbreaker.CircuitBreaker[[]approval.PendingItem]
	config  ResilienceConfig
}

// NewResilience creates a resilience wrapper with the given configuration.
func NewResilience(cfg ResilienceConfig) *Resilience {
	r := &Resilience{config: cfg}

	if cfg.RetryAttempts > 0 {
		r.retrier = retry.New[[]approval.PendingItem](retry.Config{
			MaxAttempts:   cfg.RetryAttempts,
			InitialDelay:  cfg.RetryInitialWait,
			MaxDelay:      cfg.RetryMaxWait,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
			Jitter:        true,
			IsRetryable:   isRetryableError,
		})
	}

	if cfg.BreakerEnabled {
		threshold := cfg.BreakerThreshold
		r.breaker = circuitbreaker.New[[]approval.PendingItem](circuitbreaker.Config{
			MaxRequests: uint32(cfg.BreakerMaxRequests), // #nosec G115 -- bounded config value
			Interval:    cfg.BreakerTimeout,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounded config value
			},
		})
	}

	return r
}

// Execute runs the operation with the configured resilience patterns.
// Order: Circuit Breaker → Retry → Operation.
func (r *Resilience) Execute(ctx context.Context, operation func(context.Context) ([]approval.PendingItem, error)) ([]approval.PendingItem, error) {
	if r == nil {
		return operation(ctx)
	}
	if r.breaker != nil {
		return r.breaker.Execute(ctx, func(ctx context.Context) ([]approval.PendingItem, error) {
			return r.executeWithRetry(ctx, operation)
		})
	}
	return r.executeWithRetry(ctx, operation)
}

func (r *Resilience) executeWithRetry(ctx context.Context, operation func(context.Context) ([]approval.PendingItem, error)) ([]approval.PendingItem, error) {
	if r.retrier != nil {
		return r.retrier.Do(ctx, operation)
	}
	return operation(ctx)
}

// BreakerState returns "closed", "half-open", "open", or "disabled".
func (r *Resilience) BreakerState() string {
	if r == nil || r.breaker == nil {
		return "disabled"
	}
	return r.breaker.State().String()
}

// isRetryableError decides whether a fetch failure is worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch gferrors.GetKind(err) {
	case gferrors.KindNotFound, gferrors.KindPermission, gferrors.KindValidation,
		gferrors.KindDefinition, gferrors.KindState, gferrors.KindCanceled:
		return false
	case gferrors.KindTimeout, gferrors.KindIO, gferrors.KindConflict, gferrors.KindQuery:
		return true
	}
	// Unknown errors are assumed transient.
	return true
}

// ResilientFetcher decorates a Fetcher with retry and circuit breaking.
type ResilientFetcher struct {
	inner Fetcher
	res   *Resilience
}

// NewResilientFetcher wraps the fetcher with the given resilience config.
func NewResilientFetcher(inner Fetcher, cfg ResilienceConfig) *ResilientFetcher {
	return &ResilientFetcher{
		inner: inner,
		res:   NewResilience(cfg),
	}
}

// FetchPending implements Fetcher.
func (f *ResilientFetcher) FetchPending(ctx context.Context, principalID string) ([]approval.PendingItem, error) {
	return f.res.Execute(ctx, func(ctx context.Context) ([]approval.PendingItem, error) {
		return f.inner.FetchPending(ctx, principalID)
	})
}

// BreakerState exposes the underlying circuit breaker state.
func (f *ResilientFetcher) BreakerState() string {
	return f.res.BreakerState()
}
