package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bottagger/pkg/config"
	"bottagger/pkg/logger"
	"bottagger/pkg/page"
	"bottagger/pkg/ratelimit"
	"bottagger/pkg/reddit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `<html><body>
<div class="thing link" id="t3_a"><p class="tagline">submitted by <a class="author" href="/user/karmafarm">karmafarm</a></p></div>
<div class="thing link" id="t3_b"><p class="tagline">submitted by <a class="author" href="/user/painter">painter</a></p></div>
<div class="thing link" id="t3_c"><p class="tagline">submitted by <a class="author" href="/user/lurker">lurker</a></p></div>
</body></html>`

// profileServer serves about.json for a fixed set of users and answers the
// first request for karmafarm with a 429.
func profileServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	var throttledOnce int32
	created := float64(time.Now().Add(-2 * 365 * 24 * time.Hour).Unix())

	karma := map[string][2]int64{
		"karmafarm": {200000, 1000},
		"painter":   {150000, 2000},
		"lurker":    {900, 40},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "user" || parts[2] != "about.json" {
			http.NotFound(w, r)
			return
		}
		name := parts[1]
		if name == "karmafarm" && atomic.CompareAndSwapInt32(&throttledOnce, 0, 1) {
			w.Header().Set("x-ratelimit-reset", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		k, ok := karma[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"kind":"t2","data":{"name":%q,"link_karma":%d,"comment_karma":%d,"created_utc":%f}}`, name, k[0], k[1], created)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestSessionAgainstRealClientAndPage(t *testing.T) {
	srv, hits := profileServer(t)

	cfg := config.DefaultConfig().Reddit
	cfg.BaseURL = srv.URL
	cfg.RequestTimeout = 2 * time.Second
	client := reddit.NewClient(cfg, logger.NewNopLogger())

	doc, err := page.ParseString(listing)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Now()}
	opts := DefaultOptions()
	opts.Now = clock.Now
	sched := New(doc, client, doc, ratelimit.NewMemoryThrottle(ratelimit.DefaultFallback), opts)
	ctx := context.Background()

	report := sched.ScanTick(ctx)
	require.Equal(t, page.KindOld, report.Layout)
	require.Equal(t, 3, report.Enqueued)

	// karmafarm is throttled with a 3s hint and goes to the back
	require.Equal(t, DrainThrottled, sched.DrainTick(ctx))
	assert.Equal(t, []string{"painter", "lurker", "karmafarm"}, sched.QueuedUsernames())

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		require.Equal(t, DrainPaused, sched.DrainTick(ctx))
	}
	clock.Advance(time.Second)

	assert.Equal(t, DrainAnnotated, sched.DrainTick(ctx))  // painter
	assert.Equal(t, DrainIneligible, sched.DrainTick(ctx)) // lurker
	assert.Equal(t, DrainAnnotated, sched.DrainTick(ctx))  // karmafarm
	assert.Equal(t, DrainEmpty, sched.DrainTick(ctx))

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "Bot Likelihood: High")
	assert.Contains(t, html, "Bot Likelihood: Medium")
	assert.Equal(t, 2, strings.Count(html, `class="bot-likelihood"`))

	// Annotated authors are skipped; the ineligible one is queued again
	report = sched.ScanTick(ctx)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Enqueued)
	assert.Equal(t, int32(4), atomic.LoadInt32(hits))
}

func TestSessionAutoFilterHidesPost(t *testing.T) {
	srv, _ := profileServer(t)

	cfg := config.DefaultConfig().Reddit
	cfg.BaseURL = srv.URL
	client := reddit.NewClient(cfg, logger.NewNopLogger())

	doc, err := page.ParseString(listing)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Now()}
	opts := DefaultOptions()
	opts.AutoFilter = true
	opts.Now = clock.Now
	sched := New(doc, client, doc, nil, opts)
	ctx := context.Background()

	sched.ScanTick(ctx)
	require.Equal(t, DrainThrottled, sched.DrainTick(ctx))
	clock.Advance(4 * time.Second)
	for i := 0; i < 3; i++ {
		sched.DrainTick(ctx)
	}

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `id="t3_a" style="display: none;"`)
	assert.Contains(t, html, `data-bot-likelihood="hidden"`)
	assert.Contains(t, html, "Bot Likelihood: Medium")
	assert.NotContains(t, html, "Bot Likelihood: High")
	assert.Equal(t, 1, sched.Stats().Hidden)
}
