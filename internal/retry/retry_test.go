package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eve.evalgo.org/kernel/internal/kernelerr"
)

var errTransient = errors.New("connection reset")

func alwaysTransient(err error) bool { return true }

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	cfg := Config{MaxRetries: 4, BackoffFactor: 0.001}
	calls := 0

	err := Do(context.Background(), cfg, alwaysTransient, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsRetryBudget(t *testing.T) {
	cfg := Config{MaxRetries: 2, BackoffFactor: 0.001}
	calls := 0

	err := Do(context.Background(), cfg, alwaysTransient, func(ctx context.Context) error {
		calls++
		return errTransient
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, kernelerr.ErrRetryableExhausted))
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestDoDoesNotRetryNonTransientSentinels(t *testing.T) {
	cfg := Config{MaxRetries: 4, BackoffFactor: 0.001}
	calls := 0

	err := Do(context.Background(), cfg, alwaysTransient, func(ctx context.Context) error {
		calls++
		return kernelerr.ErrNotFound
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, kernelerr.ErrNotFound))
	assert.False(t, errors.Is(err, kernelerr.ErrRetryableExhausted))
	assert.Equal(t, 1, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	cfg := Config{MaxRetries: 4, BackoffFactor: 10} // large delay so cancellation wins the race
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, cfg, alwaysTransient, func(ctx context.Context) error {
		calls++
		return errTransient
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
