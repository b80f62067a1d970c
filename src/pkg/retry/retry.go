package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

var logger = log.WithField("package", "retry")

// Policy bounds a transient-failure-prone operation with exponential
// backoff. Errors classified as non-retryable by models.IsRetryable
// propagate immediately without consuming an attempt. The caller bounds
// wall-clock time through the context deadline.
type Policy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
	Jitter        float64
}

// DefaultPolicy returns the standard policy: 3 attempts, 1s initial delay
// doubling up to 30s, with 10% jitter.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
		Jitter:        0.1,
	}
}

// Do runs op until it succeeds, fails permanently, exhausts the attempt
// budget, or the context deadline expires. Exhaustion is reported as
// KindRetryExhausted wrapping the last error; deadline expiry as
// KindTimeout.
func (p *Policy) Do(ctx context.Context, name string, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialDelay
	bo.Multiplier = p.BackoffFactor
	bo.MaxInterval = p.MaxDelay
	bo.RandomizationFactor = p.Jitter
	bo.MaxElapsedTime = 0 // the context deadline is the only time bound

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !models.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		logger.WithFields(log.Fields{
			"operation": name,
			"attempt":   attempt,
			"delay":     delay,
			"error":     err,
		}).Warn("Operation failed, retrying...")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1)), ctx)
	err := backoff.RetryNotify(wrapped, policy, notify)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.WrapError(models.KindTimeout, err, "%s: deadline exceeded after %d attempt(s)", name, attempt)
	}
	if !models.IsRetryable(err) {
		return err
	}
	return models.WrapError(models.KindRetryExhausted, err, "%s: exhausted %d attempt(s)", name, attempt)
}
