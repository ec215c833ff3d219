package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestMemoryThrottleHonoursHint(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(DefaultFallback)

	state, err := th.RecordThrottled(ctx, t0, 30*time.Second, true)
	require.NoError(t, err)
	assert.True(t, state.Throttled)
	assert.Equal(t, t0.Add(30*time.Second), state.ExpiresAt)

	for _, at := range []time.Duration{0, time.Second, 29 * time.Second, 30 * time.Second} {
		cleared, err := th.ClearIfExpired(ctx, t0.Add(at))
		require.NoError(t, err)
		assert.False(t, cleared, "must still be throttled at +%s", at)

		throttled, _ := IsThrottled(ctx, th)
		assert.True(t, throttled)
	}

	cleared, err := th.ClearIfExpired(ctx, t0.Add(30*time.Second+time.Nanosecond))
	require.NoError(t, err)
	assert.True(t, cleared)

	state, _ = th.Current(ctx)
	assert.Equal(t, State{}, state, "flag and expiry clear together")
}

func TestMemoryThrottleFallbackWindow(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(0)

	state, _ := th.RecordThrottled(ctx, t0, 0, false)
	assert.Equal(t, t0.Add(600*time.Second), state.ExpiresAt)
}

func TestMemoryThrottleLastWriteWins(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(DefaultFallback)

	th.RecordThrottled(ctx, t0, 0, false)
	state, _ := th.RecordThrottled(ctx, t0.Add(time.Second), 5*time.Second, true)

	assert.Equal(t, t0.Add(6*time.Second), state.ExpiresAt, "shorter window overwrites the longer one")

	cleared, _ := th.ClearIfExpired(ctx, t0.Add(7*time.Second))
	assert.True(t, cleared)
}

func TestMemoryThrottleNonPositiveHintStillInFuture(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(DefaultFallback)

	state, _ := th.RecordThrottled(ctx, t0, 0, true)
	assert.True(t, state.ExpiresAt.After(t0))

	state, _ = th.RecordThrottled(ctx, t0, -5*time.Second, true)
	assert.True(t, state.ExpiresAt.After(t0))
}

func TestClearIfExpiredWhenIdleIsNoop(t *testing.T) {
	th := NewMemoryThrottle(DefaultFallback)
	cleared, err := th.ClearIfExpired(context.Background(), t0)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestStateRemaining(t *testing.T) {
	s := State{Throttled: true, ExpiresAt: t0.Add(10 * time.Second)}
	assert.Equal(t, 10*time.Second, s.Remaining(t0))
	assert.Equal(t, time.Duration(0), s.Remaining(t0.Add(11*time.Second)))
	assert.Equal(t, time.Duration(0), State{}.Remaining(t0))
}
