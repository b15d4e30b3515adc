package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fast(opts ...Option) []Option {
	return append([]Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond), WithJitter(0)}, opts...)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, fast(WithMaxAttempts(3))...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsUnwrappedAfterLastAttempt(t *testing.T) {
	calls := 0
	var retries []int
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errBoom
	}, fast(WithMaxAttempts(2), WithOnRetry(func(attempt int, err error, d time.Duration) {
		retries = append(retries, attempt)
	}))...)

	assert.Same(t, errBoom, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retries)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	err := BackendConnectRetrier(fast()...).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(errBoom)
	})

	assert.Same(t, errBoom, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryIfRejects(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errBoom
	}, fast(WithRetryIf(func(error) bool { return false }))...)

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentWrapsAndUnwraps(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	wrapped := Permanent(errBoom)
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, errBoom)
	assert.False(t, IsPermanent(errBoom))
}

func TestBackendConnectRetrier_RetriesPlainErrors(t *testing.T) {
	calls := 0
	err := BackendConnectRetrier(fast()...).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errBoom
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(ctx context.Context) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay_CappedWithoutJitter(t *testing.T) {
	r := New(WithInitialDelay(100*time.Millisecond), WithMaxDelay(300*time.Millisecond), WithJitter(0))

	assert.Equal(t, 100*time.Millisecond, r.delay(1))
	assert.Equal(t, 200*time.Millisecond, r.delay(2))
	assert.Equal(t, 300*time.Millisecond, r.delay(3))
}
