package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultFallback is the throttle window used when the server gives no hint.
const DefaultFallback = 600 * time.Second

// minimumWindow keeps a zero or negative hint from producing an expiry that
// is not in the future.
const minimumWindow = time.Second

// State is the process-wide throttle state. ExpiresAt is only meaningful
// while Throttled is true.
type State struct {
	Throttled bool
	ExpiresAt time.Time
}

// Remaining returns how long the throttle has left at now.
func (s State) Remaining(now time.Time) time.Duration {
	if !s.Throttled || !now.Before(s.ExpiresAt) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// Throttle tracks whether the profile endpoint is currently rejecting us.
//
// RecordThrottled always overwrites the expiry (last write wins), and
// ClearIfExpired is the only way throttling ends: it clears the flag and the
// expiry together, and only once now is strictly after the expiry.
type Throttle interface {
	Current(ctx context.Context) (State, error)
	RecordThrottled(ctx context.Context, now time.Time, retryAfter time.Duration, hinted bool) (State, error)
	ClearIfExpired(ctx context.Context, now time.Time) (bool, error)
}

// IsThrottled is a convenience over Current.
func IsThrottled(ctx context.Context, t Throttle) (bool, error) {
	s, err := t.Current(ctx)
	return s.Throttled, err
}

func expiryFor(now time.Time, retryAfter time.Duration, hinted bool, fallback time.Duration) time.Time {
	window := fallback
	if hinted {
		window = retryAfter
	}
	if window < minimumWindow {
		window = minimumWindow
	}
	return now.Add(window)
}

// MemoryThrottle keeps the throttle state in process memory.
type MemoryThrottle struct {
	mu       sync.Mutex
	state    State
	fallback time.Duration
}

// NewMemoryThrottle creates an in-memory throttle. A non-positive fallback
// selects DefaultFallback.
func NewMemoryThrottle(fallback time.Duration) *MemoryThrottle {
	if fallback <= 0 {
		fallback = DefaultFallback
	}
	return &MemoryThrottle{fallback: fallback}
}

func (m *MemoryThrottle) Current(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MemoryThrottle) RecordThrottled(ctx context.Context, now time.Time, retryAfter time.Duration, hinted bool) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{Throttled: true, ExpiresAt: expiryFor(now, retryAfter, hinted, m.fallback)}
	return m.state, nil
}

func (m *MemoryThrottle) ClearIfExpired(ctx context.Context, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Throttled || !now.After(m.state.ExpiresAt) {
		return false, nil
	}
	m.state = State{}
	return true, nil
}
