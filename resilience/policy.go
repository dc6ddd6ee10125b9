// Package resilience implements the per-endpoint call governor and the retry policy
// applied to every outbound catalog call.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/log"
	"github.com/spf13/viper"
)

// StatusError reports a non-success HTTP status from the upstream service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// RetriesExhaustedError indicates that every retry attempt against an endpoint failed.
type RetriesExhaustedError struct {
	Endpoint string
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted for endpoint %q after %d attempts: %v", e.Endpoint, e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// IsRateLimitStatus reports whether an HTTP status belongs to the rate-limit
// class. 503 is included because the catalog fronts its overload shedding with
// Retry-After semantics.
func IsRateLimitStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// isRateLimited classifies an error as retryable under the rate-limit policy.
func isRateLimited(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return IsRateLimitStatus(se.Code)
	}
	return false
}

// Policy bounds the retry behavior of CallWithPolicy.
type Policy struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultPolicy returns the retry policy configured in the global settings.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: viper.GetInt(key.ResilienceMaxRetries),
		RetryDelay: time.Duration(viper.GetInt(key.ResilienceRetryDelayMs)) * time.Millisecond,
	}
}

// sleep waits for the given duration unless the context is cancelled first.
// Package-level and swappable so tests do not wait out real backoff.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CallWithPolicy wraps an outbound call with the governor's recommended delay
// and a linear-backoff retry loop.
//
// Only rate-limit-class failures are retried; any other failure is returned
// immediately. Exhausting the retry budget yields a RetriesExhaustedError that
// names the endpoint.
func (g *Governor) CallWithPolicy(ctx context.Context, endpoint string, fn func() error, p Policy) error {
	var last error

	for attempt := 1; attempt <= p.MaxRetries+1; attempt++ {
		if err := sleep(ctx, g.ShouldDelay(endpoint)); err != nil {
			return err
		}

		g.RecordCall(endpoint)
		err := fn()
		if err == nil {
			return nil
		}

		if !isRateLimited(err) {
			return err
		}

		var se *StatusError
		if errors.As(err, &se) {
			g.RecordFailure(endpoint, se.Code)
		}
		last = err

		if attempt > p.MaxRetries {
			break
		}

		backoff := p.RetryDelay * time.Duration(attempt)
		log.Warnf("endpoint %q rate limited, retrying in %s (attempt %d/%d)", endpoint, backoff, attempt, p.MaxRetries)
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
	}

	return &RetriesExhaustedError{Endpoint: endpoint, Attempts: p.MaxRetries + 1, Last: last}
}
