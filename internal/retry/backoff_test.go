package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/types"
)

func fastRetryer(maxRetries int) *Retryer {
	r := New(Policy{MaxRetries: maxRetries, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}, zap.NewNop())
	r.wait = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	r := fastRetryer(3)
	calls := 0

	got, err := Do(context.Background(), r, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", types.NewTransportError(503, "unavailable")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	r := fastRetryer(3)
	calls := 0
	perm := types.NewTransportError(401, "unauthorized")

	_, err := Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		return 0, perm
	})

	assert.Same(t, perm, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedReturnsLastError(t *testing.T) {
	r := fastRetryer(2)
	var attempts []int
	r.policy.OnRetry = func(attempt int, _ error, _ time.Duration) { attempts = append(attempts, attempt) }
	last := types.NewTransportError(500, "boom")

	_, err := Do(context.Background(), r, func(context.Context) (int, error) { return 0, last })

	assert.Same(t, last, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	r := New(Policy{MaxRetries: 3, InitialDelay: time.Hour, MaxDelay: time.Hour}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, r, func(context.Context) (int, error) {
		return 0, types.NewTransportError(502, "bad gateway")
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDelay_Bounds(t *testing.T) {
	r := New(Policy{MaxRetries: 5, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}, nil)
	r.policy.Jitter = false

	assert.Equal(t, 100*time.Millisecond, r.delay(1))
	assert.Equal(t, 400*time.Millisecond, r.delay(3))
	assert.Equal(t, time.Second, r.delay(10))

	r.policy.Jitter = true
	for i := 1; i < 6; i++ {
		d := r.delay(i)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}
