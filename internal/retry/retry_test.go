package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var delays []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Linear(time.Millisecond),
		Retryable:   isTransient,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			delays = append(delays, delay)
		},
	}

	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestDo_StopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Retryable: isTransient}

	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	})
	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	permanent := errors.New("bad request")
	p := Policy{MaxAttempts: 3, Retryable: isTransient}

	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestDo_HonoursContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Linear(time.Hour),
		Retryable:   isTransient,
		OnRetry:     func(int, time.Duration, error) { cancel() },
	}

	err := p.Do(ctx, func(ctx context.Context) error { return errTransient })
	require.ErrorIs(t, err, context.Canceled)
}

func TestLinear(t *testing.T) {
	backoff := Linear(2 * time.Second)
	require.Equal(t, 2*time.Second, backoff(1))
	require.Equal(t, 4*time.Second, backoff(2))
	require.Equal(t, 6*time.Second, backoff(3))
}
