package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func yearsAgo(years float64) *time.Time {
	t := now.Add(-time.Duration(years * SecondsPerYear * float64(time.Second)))
	return &t
}

func TestScoreBelowFloorIsIneligible(t *testing.T) {
	p := DefaultPolicy()

	for _, stats := range []ProfileStats{
		{Primary: 50000},
		{Primary: 50000, Secondary: 1},
		{Primary: 50000, Secondary: 0, CreatedAt: yearsAgo(10)},
		{Primary: 99999, Secondary: 1},
	} {
		_, ok := p.Score(stats, now)
		assert.False(t, ok, "stats %+v", stats)
	}

	_, ok := p.Score(ProfileStats{Primary: 100000, Secondary: 1}, now)
	assert.True(t, ok, "floor itself is eligible")
}

func TestScoreZeroSecondaryIsNotApplicable(t *testing.T) {
	r, ok := DefaultPolicy().Score(ProfileStats{Primary: 200000, Secondary: 0, CreatedAt: yearsAgo(3)}, now)
	require.True(t, ok)

	assert.False(t, r.RawRatio.Valid)
	assert.False(t, r.Adjusted.Valid)
	assert.Equal(t, NotApplicable, r.Label)
	assert.Equal(t, "N/A", r.Adjusted.String())
}

func TestScoreWithAgeDecay(t *testing.T) {
	r, ok := DefaultPolicy().Score(ProfileStats{Primary: 200000, Secondary: 1000, CreatedAt: yearsAgo(2)}, now)
	require.True(t, ok)

	assert.Equal(t, Defined(200), r.RawRatio)
	assert.InDelta(t, 190, r.Adjusted.Float, 1e-9)
	assert.Equal(t, High, r.Label)
}

func TestScoreWithoutAgeDecay(t *testing.T) {
	p := DefaultPolicy()
	p.AgeDecay = false

	r, ok := p.Score(ProfileStats{Primary: 200000, Secondary: 1000, CreatedAt: yearsAgo(2)}, now)
	require.True(t, ok)

	assert.Equal(t, Defined(200), r.RawRatio)
	assert.Equal(t, r.RawRatio, r.Adjusted)
	assert.Equal(t, High, r.Label)
}

func TestScoreMissingCreatedAtSkipsDecay(t *testing.T) {
	r, ok := DefaultPolicy().Score(ProfileStats{Primary: 300000, Secondary: 5000}, now)
	require.True(t, ok)
	assert.Equal(t, Defined(60), r.Adjusted)
	assert.Equal(t, Medium, r.Label)
}

func TestScoreLabelBands(t *testing.T) {
	p := DefaultPolicy()
	p.AgeDecay = false

	tests := []struct {
		secondary int64
		want      Label
	}{
		{secondary: 10000, want: Low},   // 10
		{secondary: 2001, want: Low},    // 49.97
		{secondary: 2000, want: Medium}, // 50
		{secondary: 1001, want: Medium}, // 99.9
		{secondary: 1000, want: High},   // 100
	}

	for _, tt := range tests {
		r, ok := p.Score(ProfileStats{Primary: 100000, Secondary: tt.secondary}, now)
		require.True(t, ok)
		assert.Equal(t, tt.want, r.Label, "ratio %v", r.RawRatio)
	}
}

func TestScoreDecayCanPushBelowZero(t *testing.T) {
	r, ok := DefaultPolicy().Score(ProfileStats{Primary: 100000, Secondary: 10000, CreatedAt: yearsAgo(15)}, now)
	require.True(t, ok)
	assert.InDelta(t, -65, r.Adjusted.Float, 1e-6)
	assert.Equal(t, Low, r.Label)
}

func TestScoreIsIdempotent(t *testing.T) {
	p := DefaultPolicy()
	stats := ProfileStats{Primary: 123457, Secondary: 977, CreatedAt: yearsAgo(1.37)}

	a, okA := p.Score(stats, now)
	b, okB := p.Score(stats, now)

	require.Equal(t, okA, okB)
	assert.Equal(t, math.Float64bits(a.RawRatio.Float), math.Float64bits(b.RawRatio.Float))
	assert.Equal(t, math.Float64bits(a.Adjusted.Float), math.Float64bits(b.Adjusted.Float))
	assert.Equal(t, a, b)
}

func TestLabelStringRoundTrip(t *testing.T) {
	for _, l := range []Label{NotApplicable, Low, Medium, High} {
		parsed, err := ParseLabel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}
	_, err := ParseLabel("Extreme")
	assert.Error(t, err)
}
