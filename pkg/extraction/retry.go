package extraction

import (
	"context"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
)

const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = time.Second
)

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryStrategy retries the wrapped strategy with exponential backoff.
// The delay after failed attempt n (zero based) is baseDelay * 2^n, so the defaults wait 1s then 2s
// across three attempts. Only the last failure is returned.
type RetryStrategy struct {
	inner     Strategy
	attempts  int
	baseDelay time.Duration
	sleep     SleepFunc
}

type RetryOption func(*RetryStrategy)

func WithAttempts(attempts int) RetryOption {
	return func(r *RetryStrategy) {
		if attempts > 0 {
			r.attempts = attempts
		}
	}
}

func WithBaseDelay(delay time.Duration) RetryOption {
	return func(r *RetryStrategy) {
		if delay >= 0 {
			r.baseDelay = delay
		}
	}
}

func WithSleep(sleep SleepFunc) RetryOption {
	return func(r *RetryStrategy) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

func NewRetryStrategy(inner Strategy, opts ...RetryOption) *RetryStrategy {
	r := &RetryStrategy{
		inner:     inner,
		attempts:  DefaultRetryAttempts,
		baseDelay: DefaultRetryBaseDelay,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *RetryStrategy) Name() string { return r.inner.Name() }

func (r *RetryStrategy) Extract(ctx context.Context, transcript string, language model.Language) (model.TransactionData, error) {
	log := logging.NewLogger(ctx).WithField("strategy", r.inner.Name())

	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay * time.Duration(1<<(attempt-1))
			log.Debugf("retrying in %s attempt=%d/%d", delay, attempt+1, r.attempts)
			err := r.sleep(ctx, delay)
			if err != nil {
				return model.TransactionData{}, utils.WrapIfNotNil(err)
			}
		}

		tx, err := r.inner.Extract(ctx, transcript, language)
		if err == nil {
			return tx, nil
		}
		lastErr = err
		log.Warnf("attempt %d/%d failed: %v", attempt+1, r.attempts, err)
	}
	return model.TransactionData{}, utils.WrapIfNotNil(lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
