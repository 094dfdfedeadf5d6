package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"campusticketing/internal/domain"
)

// RetryPolicy bounds how often a transiently failing atomic section is re-run.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 25 * time.Millisecond,
		MaxInterval:     400 * time.Millisecond,
	}
}

// retryTransient runs fn until it succeeds, fails with a non-transient error, or the
// policy is exhausted. Only domain.ErrTransient is retried.
func retryTransient[T any](ctx context.Context, p RetryPolicy, logger *slog.Logger, metrics domain.MetricsRecorder, operation string, fn func() (T, error)) (T, error) {
	if p.MaxAttempts == 0 {
		p = DefaultRetryPolicy()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval

	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := fn()
		if err != nil && !errors.Is(err, domain.ErrTransient) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.RecordRetry(operation)
			logger.WarnContext(ctx, "retrying after transient failure", "operation", operation, "next_in", next, "err", err)
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return v, err
}
