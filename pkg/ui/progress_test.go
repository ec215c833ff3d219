package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bottagger/internal/scheduler"
	"bottagger/pkg/scoring"
)

type staticStats struct{ st scheduler.Stats }

func (s *staticStats) Stats() scheduler.Stats { return s.st }

func high() scoring.Result {
	return scoring.Result{RawRatio: scoring.Defined(200), Adjusted: scoring.Defined(190), Label: scoring.High}
}

func TestTally(t *testing.T) {
	tally := NewTally()
	assert.Equal(t, "░░░░", tally.Bar(scoring.High, 4))

	tally.Add(scoring.High)
	tally.Add(scoring.High)
	tally.Add(scoring.Low)
	tally.Add(scoring.NotApplicable)

	assert.Equal(t, 4, tally.Total())
	assert.Equal(t, 2, tally.Count(scoring.High))
	assert.Equal(t, 0, tally.Count(scoring.Medium))
	assert.Equal(t, "████░░░░", tally.Bar(scoring.High, 8))
	assert.Contains(t, tally.Summary(), "High 2")
	assert.Contains(t, tally.Summary(), "N/A 1")
}

func TestProgressDisplayLine(t *testing.T) {
	src := &staticStats{st: scheduler.Stats{QueueDepth: 3, CacheEntries: 7, Annotated: 5, Hidden: 1, Dropped: 2}}
	var out bytes.Buffer
	p := NewProgressDisplay(&out, src, time.Second, false)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.OnAnnotated("karmafarm", high(), true)
	line := p.Line(src.st)
	assert.Contains(t, line, "[SCANNING]")
	assert.Contains(t, line, "queue 3")
	assert.Contains(t, line, "cached 7")
	assert.Contains(t, line, "1 hidden")
	assert.Contains(t, line, "2 errors")
	assert.Contains(t, line, "u/karmafarm")

	src.st.State = scheduler.Throttled
	src.st.ThrottledUntil = now.Add(90 * time.Second)
	assert.Contains(t, p.Line(src.st), "[THROTTLED 1m30s]")

	// Non-verbose mode keeps annotations off their own lines.
	assert.Empty(t, out.String())
}

func TestProgressDisplayVerbose(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressDisplay(&out, &staticStats{}, time.Second, true)

	p.OnAnnotated("karmafarm", high(), false)
	p.OnDropped("ghost", errors.New("not_found"))
	p.Refresh()

	assert.Contains(t, out.String(), "u/karmafarm")
	assert.Contains(t, out.String(), "190.00")
	assert.Contains(t, out.String(), "u/ghost: not_found")
	assert.NotContains(t, out.String(), "[SCANNING]")
}

func TestProgressDisplayRunPrintsSummary(t *testing.T) {
	var out bytes.Buffer
	src := &staticStats{st: scheduler.Stats{Annotated: 2, Fetches: 4, Throttles: 1}}
	p := NewProgressDisplay(&out, src, 10*time.Millisecond, false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, p.Run(ctx))
	assert.Contains(t, out.String(), "Annotated 2 accounts")
	assert.Contains(t, out.String(), "4 fetches, 1 throttle windows")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", formatDuration(-time.Second))
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "10m0s", formatDuration(10*time.Minute))
	assert.Equal(t, "2h5m", formatDuration(2*time.Hour+5*time.Minute))
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	old := Output
	Output = &out
	defer func() { Output = old }()

	PrintResult("karmafarm", high())
	assert.Contains(t, out.String(), "karmafarm")
	assert.Contains(t, out.String(), "adjusted 190.00")
	assert.Contains(t, out.String(), "ratio 200.00")
}
