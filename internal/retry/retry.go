// Package retry applies bounded exponential-backoff retry to the two
// remote call sites of the pipeline. Only transient failures are
// retried; everything else surfaces immediately.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-qa-go/internal/logger"
	"call-qa-go/internal/remote"
)

// Policy bounds the retry loop. MaxAttempts counts the first call.
type Policy struct {
	MaxAttempts int
	MinWait     time.Duration
	MaxWait     time.Duration
}

// DefaultPolicy mirrors the upstream quota guidance: three attempts,
// waits clamped to the 4s..10s window.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		MinWait:     4 * time.Second,
		MaxWait:     10 * time.Second,
	}
}

// Do runs op under the policy. Transient errors are retried up to
// MaxAttempts total calls with exponential backoff; any other error
// stops the loop at once. The final error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, log *logger.Logger, name string, op func() (T, error)) (T, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if log == nil {
		log = logger.Quiet()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.MinWait
	bo.MaxInterval = p.MaxWait
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	var out T
	attempt := 0

	wrapped := func() error {
		attempt++
		v, err := op()
		if err == nil {
			out = v
			return nil
		}
		log.WithError(err).
			WithField("operation", name).
			WithField("attempt", attempt).
			WithField("max_attempts", p.MaxAttempts).
			Warn("operation failed")
		if !remote.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1)), ctx)
	if err := backoff.Retry(wrapped, b); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
