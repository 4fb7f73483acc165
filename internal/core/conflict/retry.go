// Package conflict retries transactions that lost a race on a uniqueness
// constraint (two primaries, two accountable owners).
package conflict

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/metrics"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultAttempts = 3
	DefaultBackoff  = 10 * time.Millisecond
)

type Policy struct {
	Attempts int
	Backoff  time.Duration
	Logger   *slog.Logger
}

func NewPolicy(attempts int, backoff time.Duration, logger *slog.Logger) Policy {
	return Policy{Attempts: attempts, Backoff: backoff, Logger: logger}
}

// Do runs fn until it succeeds, fails with anything other than
// ErrConcurrencyConflict, or the attempts are used up. Exhaustion returns
// ErrConcurrencyConflict so callers surface a "try again" failure.
func (p Policy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	attempt := 0
	b := retry.WithMaxRetries(uint64(attempts-1), retry.WithJitterPercent(20, retry.NewExponential(backoff)))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || !errors.Is(err, internal.ErrConcurrencyConflict) {
			return err
		}
		if attempt < attempts {
			metrics.ConflictRetries.WithLabelValues(operation).Inc()
			if p.Logger != nil {
				p.Logger.WarnContext(ctx, "concurrency conflict, retrying", "operation", operation, "attempt", attempt)
			}
		}
		return retry.RetryableError(err)
	})
}
