package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"bottagger/internal/metrics"
	"bottagger/pkg/cache"
	"bottagger/pkg/logger"
	"bottagger/pkg/page"
	"bottagger/pkg/queue"
	"bottagger/pkg/ratelimit"
	"bottagger/pkg/reddit"
	"bottagger/pkg/scoring"

	"golang.org/x/sync/errgroup"
)

// State is the drain loop's state.
type State int

const (
	Idle State = iota
	Throttled
)

func (s State) String() string {
	if s == Throttled {
		return "throttled"
	}
	return "idle"
}

// DrainOutcome says what one drain tick did.
type DrainOutcome int

const (
	// DrainEmpty: nothing queued.
	DrainEmpty DrainOutcome = iota
	// DrainPaused: throttled, nothing popped.
	DrainPaused
	// DrainBusy: a previous fetch is still running.
	DrainBusy
	// DrainPaced: the pacer denied a request slot.
	DrainPaced
	// DrainSkipped: the throttle store could not be read.
	DrainSkipped
	// DrainAnnotated: the profile scored and its post was badged or hidden.
	DrainAnnotated
	// DrainIneligible: the profile is below the eligibility floor.
	DrainIneligible
	// DrainThrottled: the fetch was rejected and the entry requeued.
	DrainThrottled
	// DrainTimedOut: the fetch ran out of time and the entry was requeued.
	DrainTimedOut
	// DrainDropped: the fetch failed and the entry was discarded.
	DrainDropped
)

var drainOutcomeNames = map[DrainOutcome]string{
	DrainEmpty:      "empty",
	DrainPaused:     "paused",
	DrainBusy:       "busy",
	DrainPaced:      "paced",
	DrainSkipped:    "skipped",
	DrainAnnotated:  "annotated",
	DrainIneligible: "ineligible",
	DrainThrottled:  "throttled",
	DrainTimedOut:   "timed_out",
	DrainDropped:    "dropped",
}

func (o DrainOutcome) String() string { return drainOutcomeNames[o] }

// ScanReport summarizes one scan tick.
type ScanReport struct {
	Layout     page.Kind
	Candidates int
	CacheHits  int
	Enqueued   int
	Skipped    int
}

// Stats is a point-in-time view for status displays.
type Stats struct {
	State          State
	ThrottledUntil time.Time
	QueueDepth     int
	QueueCapacity  int
	CacheEntries   int
	InFlight       int
	LastLayout     page.Kind

	Scans      int
	Fetches    int
	Annotated  int
	Hidden     int
	Ineligible int
	Dropped    int
	Requeued   int
	Throttles  int
}

// Scheduler is one annotation session: the queue, the cache and the
// throttle state plus the two ticks that move work between them.
type Scheduler struct {
	discoverer Discoverer
	fetcher    Fetcher
	sink       Sink
	throttle   ratelimit.Throttle

	queue *queue.Queue[*page.Target]
	cache *cache.Results

	opts Options
	log  logger.Logger

	// mu guards the fields below. Pop and in-flight registration happen
	// under it together, as do the in-flight check and enqueue.
	mu             sync.Mutex
	inFlight       map[string]struct{}
	draining       bool
	state          State
	throttledUntil time.Time
	stats          Stats
}

// New creates a session. A nil throttle selects an in-memory one with the
// default fallback window.
func New(d Discoverer, f Fetcher, s Sink, t ratelimit.Throttle, opts Options) *Scheduler {
	opts.fill()
	if t == nil {
		t = ratelimit.NewMemoryThrottle(ratelimit.DefaultFallback)
	}
	return &Scheduler{
		discoverer: d,
		fetcher:    f,
		sink:       s,
		throttle:   t,
		queue:      queue.New[*page.Target](opts.QueueCapacity, opts.Overflow),
		cache:      cache.NewResults(),
		opts:       opts,
		log:        opts.Logger.WithField("component", "scheduler"),
		inFlight:   make(map[string]struct{}),
	}
}

// Cache exposes the session's result cache.
func (s *Scheduler) Cache() *cache.Results { return s.cache }

// QueuedUsernames lists the backlog in order.
func (s *Scheduler) QueuedUsernames() []string { return s.queue.Usernames() }

// Stats returns a snapshot of the session.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	st := s.stats
	st.State = s.state
	st.ThrottledUntil = s.throttledUntil
	st.InFlight = len(s.inFlight)
	s.mu.Unlock()

	st.QueueDepth = s.queue.Len()
	st.QueueCapacity = s.opts.QueueCapacity
	st.CacheEntries = s.cache.Len()
	return st
}

// State returns the current drain state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run drives both ticks until ctx is done. It returns immediately when the
// feature is disabled.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.opts.FeatureEnabled {
		s.log.Info("Feature disabled, not scanning")
		return nil
	}

	logger.LogComponentStart(s.log, "scheduler", map[string]interface{}{
		"scan_interval":  s.opts.ScanInterval.String(),
		"drain_interval": s.opts.DrainInterval.String(),
		"auto_filter":    s.opts.AutoFilter,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.ScanTick(ctx)
		return every(ctx, s.opts.ScanInterval, func() { s.ScanTick(ctx) })
	})
	g.Go(func() error {
		return every(ctx, s.opts.DrainInterval, func() { s.DrainTick(ctx) })
	})

	err := g.Wait()
	logger.LogComponentStop(s.log, "scheduler", "context done")
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn()
		}
	}
}

// ScanTick discovers authors on the page, annotates cache hits and enqueues
// everyone else who is not already queued or being fetched.
func (s *Scheduler) ScanTick(ctx context.Context) ScanReport {
	var report ScanReport
	if !s.opts.FeatureEnabled {
		return report
	}

	kind, candidates, err := s.discoverer.Scan()
	metrics.ObserveScan(string(kind))

	s.mu.Lock()
	s.stats.Scans++
	s.stats.LastLayout = kind
	s.mu.Unlock()

	report.Layout = kind
	if err != nil {
		if errors.Is(err, page.ErrNoLayout) {
			s.log.Debug("No known layout on page")
		} else {
			s.log.WithError(err).Warn("Page scan failed")
		}
		return report
	}
	report.Candidates = len(candidates)

	for _, c := range candidates {
		if c.Annotated || c.Username == "" || reddit.IsDeleted(c.Username) {
			report.Skipped++
			continue
		}

		if r, ok := s.cache.Get(c.Username); ok {
			s.deliver(c.Username, c.Target, r)
			report.CacheHits++
			continue
		}

		outcome := s.enqueue(c.Username, c.Target)
		if outcome.Added() {
			report.Enqueued++
		}
	}

	for _, e := range s.queue.DrainEvicted() {
		s.log.WithField("username", e.Username).Debug("Evicted from full queue")
	}
	metrics.SetQueueDepth(s.queue.Len())

	s.log.DebugWithFields("Scan complete", map[string]interface{}{
		"layout":     string(kind),
		"candidates": report.Candidates,
		"cache_hits": report.CacheHits,
		"enqueued":   report.Enqueued,
	})
	return report
}

func (s *Scheduler) enqueue(username string, target *page.Target) queue.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[username]; busy {
		return queue.Duplicate
	}
	outcome := s.queue.EnqueueIfAbsent(username, target)
	if outcome != queue.Duplicate {
		metrics.ObserveEnqueue(outcome.String())
	}
	if outcome == queue.Dropped {
		s.log.WithField("username", username).Debug("Queue full, dropping username")
	}
	return outcome
}

// DrainTick clears an expired throttle, then pops and fetches at most one
// queued username. Nothing is popped while throttled.
func (s *Scheduler) DrainTick(ctx context.Context) DrainOutcome {
	now := s.opts.Now()

	if _, err := s.throttle.ClearIfExpired(ctx, now); err != nil {
		s.log.WithError(err).Warn("Throttle store unavailable, skipping drain")
		return DrainSkipped
	}

	current, err := s.throttle.Current(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Throttle store unavailable, skipping drain")
		return DrainSkipped
	}
	if current.Throttled {
		// Another process sharing the store may have set it.
		s.enterThrottled(current.ExpiresAt)
		return DrainPaused
	}
	// The window may have been cleared by whoever shares the store, or
	// simply expired there.
	s.resume()

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return DrainBusy
	}
	if s.queue.Len() == 0 {
		s.mu.Unlock()
		return DrainEmpty
	}
	if s.opts.Pacer != nil && !s.opts.Pacer.Allow() {
		s.mu.Unlock()
		return DrainPaced
	}
	entry, ok := s.queue.DequeueOne()
	if !ok {
		s.mu.Unlock()
		return DrainEmpty
	}
	s.draining = true
	s.inFlight[entry.Username] = struct{}{}
	s.stats.Fetches++
	s.mu.Unlock()

	metrics.SetQueueDepth(s.queue.Len())
	return s.process(ctx, entry)
}

func (s *Scheduler) process(ctx context.Context, entry queue.Entry[*page.Target]) DrainOutcome {
	log := s.log.WithField("username", entry.Username)

	fetchCtx := ctx
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	res := s.fetcher.FetchProfile(fetchCtx, entry.Username)
	metrics.ObserveFetch(fetchLabel(res), time.Since(start))

	switch res.Outcome {
	case reddit.OutcomeSuccess:
		r, eligible := s.opts.Policy.Score(res.Stats, s.opts.Now())
		if !eligible {
			s.release(entry, false)
			s.count(func(st *Stats) { st.Ineligible++ })
			log.Debug("Profile below eligibility floor")
			return DrainIneligible
		}
		// Cache before releasing so no scan can enqueue the name in between.
		s.cache.Put(entry.Username, r)
		metrics.SetCacheEntries(s.cache.Len())
		s.release(entry, false)
		s.deliver(entry.Username, entry.Target, r)
		return DrainAnnotated

	case reddit.OutcomeThrottled:
		st, err := s.throttle.RecordThrottled(ctx, s.opts.Now(), res.RetryAfter, res.HasRetryAfter)
		s.release(entry, true)
		if err != nil {
			log.WithError(err).Error("Failed to record throttle")
			return DrainThrottled
		}
		s.count(func(st *Stats) { st.Throttles++ })
		logger.LogThrottle(log, entry.Username, st.ExpiresAt, res.HasRetryAfter)
		s.enterThrottled(st.ExpiresAt)
		return DrainThrottled

	default:
		if res.Timeout() && s.opts.RequeueOnTimeout {
			s.release(entry, true)
			log.WithError(res.Err).Warn("Profile request timed out, requeued")
			return DrainTimedOut
		}
		s.release(entry, false)
		s.count(func(st *Stats) { st.Dropped++ })
		log.WithError(res.Err).Warn("Profile request failed, dropping")
		s.opts.Observer.OnDropped(entry.Username, res.Err)
		return DrainDropped
	}
}

// release ends the in-flight window for entry, putting it back at the tail
// of the queue first when requeue is set.
func (s *Scheduler) release(entry queue.Entry[*page.Target], requeue bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requeue {
		outcome := s.queue.Requeue(entry)
		if outcome.Added() {
			s.stats.Requeued++
		} else if outcome == queue.Dropped {
			s.log.WithField("username", entry.Username).Warn("Queue full, could not requeue")
		}
	}
	delete(s.inFlight, entry.Username)
	s.draining = false
}

func (s *Scheduler) deliver(username string, target *page.Target, r scoring.Result) {
	hidden := false
	if s.opts.AutoFilter && r.Label == scoring.High {
		hidden = s.sink.HidePost(target)
	}
	if !hidden {
		s.sink.RenderBadge(target, r, s.opts.Palette.Color(r))
	}

	s.count(func(st *Stats) {
		st.Annotated++
		if hidden {
			st.Hidden++
		}
	})
	metrics.ObserveAnnotation(r.Label.String(), hidden)
	s.opts.Observer.OnAnnotated(username, r, hidden)
}

func (s *Scheduler) enterThrottled(until time.Time) {
	s.mu.Lock()
	changed := s.state != Throttled || !s.throttledUntil.Equal(until)
	s.state = Throttled
	s.throttledUntil = until
	s.mu.Unlock()

	if changed {
		metrics.SetThrottled(true)
		s.opts.Observer.OnThrottled(until)
	}
}

// resume leaves Throttled. It does nothing when already Idle.
func (s *Scheduler) resume() {
	s.mu.Lock()
	if s.state != Throttled {
		s.mu.Unlock()
		return
	}
	s.state = Idle
	s.throttledUntil = time.Time{}
	s.mu.Unlock()

	metrics.SetThrottled(false)
	s.log.Info("Throttle window over, resuming")
	s.opts.Observer.OnResumed()
}

func (s *Scheduler) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

func fetchLabel(res reddit.FetchResult) string {
	if res.Timeout() {
		return "timeout"
	}
	return res.Outcome.String()
}
