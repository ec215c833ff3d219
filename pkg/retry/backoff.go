package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff maps a failed attempt (1-based) to the pause before the next one.
type Backoff interface {
	Delay(attempt int) time.Duration
}

// Exponential grows the pause by Factor from Initial until it reaches Max.
// Each pause is spread by up to +/- Jitter of itself.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	Jitter  float64

	// rand returns values in [0, 1); nil uses math/rand.
	rand func() float64
}

// PageLoadBackoff is 1s, 2s, 4s ... up to 30s with 10% jitter.
func PageLoadBackoff() *Exponential {
	return &Exponential{
		Initial: time.Second,
		Max:     30 * time.Second,
		Factor:  2,
		Jitter:  0.1,
	}
}

func (e *Exponential) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	d := float64(e.Initial)
	for i := 1; i < attempt && d < float64(e.Max); i++ {
		d *= e.Factor
	}
	if e.Max > 0 && d > float64(e.Max) {
		d = float64(e.Max)
	}

	if e.Jitter > 0 {
		r := rand.Float64
		if e.rand != nil {
			r = e.rand
		}
		d += d * e.Jitter * (2*r() - 1)
	}
	return time.Duration(max(d, 0))
}

// Fixed pauses the same time after every failure.
type Fixed time.Duration

func (f Fixed) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(f)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
