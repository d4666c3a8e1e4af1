// Package retry implements the bounded exponential-backoff decorator
// spec.md §4.2 requires around persistence adapter calls: on transient
// backend failures it retries up to MaxRetries times with delay
// BackoffFactor * 2^(attempt-1) seconds, surfacing
// kernelerr.ErrRetryableExhausted once the budget runs out. Grounded on
// the teacher's http/client.go Execute/calculateBackoff retry loop,
// adapted from HTTP-response retryability to backend-error retryability.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"eve.evalgo.org/kernel/internal/kernelerr"
)

// Config holds the retry parameters read from KERNEL_LIB_MAX_RETRIES and
// KERNEL_LIB_BACKOFF_FACTOR (spec.md §6.3). OnAttempt/OnExhausted are
// optional hooks a metrics sink can set to count retries without this
// package importing internal/metrics.
type Config struct {
	MaxRetries    int
	BackoffFactor float64

	OnAttempt   func()
	OnExhausted func()
}

// DefaultConfig matches spec.md §6.3's documented defaults.
func DefaultConfig() Config {
	return Config{MaxRetries: 4, BackoffFactor: 1.2}
}

// Transient classifies an error as retryable. The caller of Do supplies
// the classifier (kernel.Session passes its Transient field); kernelerr
// sentinels (not found, conflict, validation) are
// never retryable regardless of the classifier, matching spec.md §7:
// "non-transient errors... bypass retry."
type Transient func(error) bool

// Do calls fn, retrying up to cfg.MaxRetries times while isTransient(err)
// and the context is unexpired. The delay before attempt n (1-indexed,
// n>1) is cfg.BackoffFactor * 2^(n-2) seconds. After the budget is
// exhausted, the last error is wrapped in kernelerr.ErrRetryableExhausted.
func Do(ctx context.Context, cfg Config, isTransient Transient, fn func(ctx context.Context) error) error {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	attempts := cfg.MaxRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if nonTransientSentinel(err) || !isTransient(err) {
			return err
		}

		if attempt == attempts-1 {
			break
		}

		if cfg.OnAttempt != nil {
			cfg.OnAttempt()
		}

		delay := backoff(cfg.BackoffFactor, attempt)
		logrus.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay_s": delay.Seconds(),
			"error":   err.Error(),
		}).Warn("retry: transient backend failure, backing off")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if cfg.OnExhausted != nil {
		cfg.OnExhausted()
	}
	return fmt.Errorf("retry: exhausted %d attempts, last error: %v: %w", attempts, lastErr, kernelerr.ErrRetryableExhausted)
}

func nonTransientSentinel(err error) bool {
	return errors.Is(err, kernelerr.ErrNotFound) ||
		errors.Is(err, kernelerr.ErrAlreadyExists) ||
		errors.Is(err, kernelerr.ErrValidation) ||
		errors.Is(err, kernelerr.ErrAlreadyDeleted)
}

// backoff computes the delay before retrying after the (attempt+1)-th
// failure (attempt is 0-indexed), matching spec.md §4.2's
// backoff_factor * 2^(attempt-1) with attempt counted from 1.
func backoff(factor float64, attempt int) time.Duration {
	seconds := factor * math.Pow(2, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}
