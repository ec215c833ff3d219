package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTokenBucket(t *testing.T) {
	clock := &fakeClock{now: t0}
	tb := NewTokenBucket(3, time.Minute)
	tb.now = clock.Now
	tb.lastRefill = clock.now

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow())

	clock.Advance(59 * time.Second)
	assert.False(t, tb.Allow())

	clock.Advance(time.Second)
	assert.True(t, tb.Allow())

	tb.Reset()
	assert.Equal(t, 3, tb.tokens)
}

func TestSlidingWindow(t *testing.T) {
	clock := &fakeClock{now: t0}
	sw := NewSlidingWindow(2, time.Minute)
	sw.now = clock.Now

	assert.True(t, sw.Allow())
	clock.Advance(30 * time.Second)
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	clock.Advance(30 * time.Second)
	assert.True(t, sw.Allow(), "first request has left the window")
	assert.False(t, sw.Allow())

	sw.Reset()
	assert.True(t, sw.Allow())
}

func TestPacerWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewPacer(t *testing.T) {
	p, err := NewPacer("token_bucket", 0)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewPacer("token_bucket", 30)
	require.NoError(t, err)
	assert.IsType(t, &TokenBucket{}, p)

	p, err = NewPacer("sliding_window", 30)
	require.NoError(t, err)
	assert.IsType(t, &SlidingWindow{}, p)

	_, err = NewPacer("leaky", 30)
	assert.Error(t, err)
}
