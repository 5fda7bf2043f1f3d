package model

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hupe1980/evalmesh/core"
	"github.com/hupe1980/evalmesh/logging"
)

// Backoff schedule for retryable provider failures.
const (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 30 * time.Second
	retryMultiplier      = 2.0
	retryJitter          = 0.5
)

// monotonicBackOff spreads retries by jittering the exponential base interval
// upward only, and clamps each delay to at least the previous one. The delay
// sequence is therefore non-decreasing, including once the base interval hits
// the max-interval cap.
type monotonicBackOff struct {
	base *backoff.ExponentialBackOff
	prev time.Duration
}

func (b *monotonicBackOff) NextBackOff() time.Duration {
	d := b.base.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	d += time.Duration(rand.Float64() * retryJitter * float64(d))
	if d < b.prev {
		d = b.prev
	}
	b.prev = d
	return d
}

func (b *monotonicBackOff) Reset() {
	b.base.Reset()
	b.prev = 0
}

func newRetryBackOff() *monotonicBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxInterval = retryMaxInterval
	bo.Multiplier = retryMultiplier
	bo.RandomizationFactor = 0 // jitter is applied upward in monotonicBackOff
	bo.MaxElapsedTime = 0      // bounded by MaxRetries, not wall clock
	return &monotonicBackOff{base: bo}
}

// generateWithRetry invokes fn up to maxRetries additional times on retryable
// failures, using exponential backoff with jitter capped at retryMaxInterval.
// Fatal errors (auth, invalid request) abort immediately.
func generateWithRetry(
	ctx context.Context,
	modelID string,
	maxRetries int,
	logger logging.Logger,
	fn func() (*Response, error),
) (*Response, error) {
	bo := newRetryBackOff()

	var resp *Response

	operation := func() error {
		var err error
		resp, err = fn()
		if err == nil {
			return nil
		}
		if !core.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("retrying model call",
			"model", modelID,
			"error", err.Error(),
			"backoff_ms", wait.Milliseconds(),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries)), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}
	return resp, nil
}
