package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"bottagger/pkg/reddit"
	"bottagger/pkg/scoring"
)

type fakeFetcher struct {
	results map[string]reddit.FetchResult
	calls   []string
}

func (f *fakeFetcher) FetchProfile(ctx context.Context, username string) reddit.FetchResult {
	f.calls = append(f.calls, username)
	if r, ok := f.results[username]; ok {
		return r
	}
	return reddit.FetchResult{Outcome: reddit.OutcomeFailure, Err: errors.New("not found")}
}

var fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func success(primary, secondary int64) reddit.FetchResult {
	return reddit.FetchResult{
		Outcome: reddit.OutcomeSuccess,
		Stats:   scoring.ProfileStats{Primary: primary, Secondary: secondary},
	}
}

func TestScoreUsernames(t *testing.T) {
	f := &fakeFetcher{results: map[string]reddit.FetchResult{
		"farmer": success(500000, 1000),
		"casual": success(120, 5000),
	}}

	rows := scoreUsernames(context.Background(), f, scoring.DefaultPolicy(), nil,
		func() time.Time { return fixedNow }, []string{"u/farmer", "casual", "not valid!", "ghost"})

	require.Len(t, rows, 4)

	assert.Equal(t, "farmer", rows[0].Username)
	assert.True(t, rows[0].Eligible)
	assert.Equal(t, "High", rows[0].Label)
	assert.Equal(t, "https://www.reddit.com/user/farmer/", rows[0].Profile)
	require.NotNil(t, rows[0].RawRatio)
	assert.InDelta(t, 500.0, *rows[0].RawRatio, 0.001)

	assert.False(t, rows[1].Eligible)
	assert.Empty(t, rows[1].Label)
	assert.Nil(t, rows[1].RawRatio)

	assert.Equal(t, "invalid username", rows[2].Error)
	assert.Equal(t, "not found", rows[3].Error)

	// invalid names are never requested
	assert.Equal(t, []string{"farmer", "casual", "ghost"}, f.calls)
}

func TestScoreUsernamesStopsWhenThrottled(t *testing.T) {
	f := &fakeFetcher{results: map[string]reddit.FetchResult{
		"first":  success(500000, 1000),
		"second": {Outcome: reddit.OutcomeThrottled, RetryAfter: 90 * time.Second, HasRetryAfter: true},
		"third":  success(500000, 1000),
	}}

	rows := scoreUsernames(context.Background(), f, scoring.DefaultPolicy(), nil,
		func() time.Time { return fixedNow }, []string{"first", "second", "third"})

	require.Len(t, rows, 2)
	assert.True(t, rows[1].Throttled)
	assert.Equal(t, "rate limited, retry in 1m30s", rows[1].Error)
	assert.Equal(t, []string{"first", "second"}, f.calls)
}

func TestPrintScores(t *testing.T) {
	ratio := 500.0
	rows := []scoreRow{
		{Username: "farmer", Eligible: true, Label: "High", RawRatio: &ratio, Adjusted: &ratio},
		{Username: "casual"},
		{Username: "slow", Throttled: true, Error: "rate limited"},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printScores(&buf, "json", rows))

		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 3)
		assert.Equal(t, "High", got[0]["label"])
		assert.NotContains(t, got[1], "raw_ratio")
		assert.Equal(t, true, got[2]["throttled"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printScores(&buf, "yaml", rows))

		var got []scoreRow
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 3)
		assert.Equal(t, "farmer", got[0].Username)
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printScores(&buf, "table", rows))

		out := buf.String()
		assert.Contains(t, out, "farmer")
		assert.Contains(t, out, "below eligibility floor")
		assert.Contains(t, out, "Stopped early")
	})
}
