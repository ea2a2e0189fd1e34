package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{errors.New("rpc error: code = Unavailable desc = connection refused"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("rpc error: code = NotFound desc = job not found"), false},
		{errors.New("invalid variables"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestSendWithRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0
	err := SendWithRetry(context.Background(), fastRetry(), "complete", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestSendWithRetry_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	err := SendWithRetry(context.Background(), fastRetry(), "complete", func(context.Context) error {
		calls++
		return errors.New("job not found")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "complete")
}

func TestSendWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := SendWithRetry(context.Background(), fastRetry(), "complete", func(context.Context) error {
		calls++
		return errors.New("unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestSendWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	err := SendWithRetry(ctx, rc, "complete", func(context.Context) error {
		return errors.New("timeout")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
