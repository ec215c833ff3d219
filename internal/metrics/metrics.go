package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bottagger"

// Gauges are only written from the scheduler's drain and scan ticks, which
// already serialize against the structures they mirror.
var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Profile lookups by outcome (success, throttled, timeout, failure).",
		},
		[]string{"outcome"},
	)

	fetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Profile lookup latency.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	enqueueTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "enqueue_total",
			Help:      "Enqueue attempts by outcome.",
		},
		[]string{"outcome"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Usernames waiting for a lookup.",
		},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Scored profiles held in the session cache.",
		},
	)

	throttled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "throttled",
			Help:      "1 while lookups are paused by a rate limit.",
		},
	)

	throttleEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "events_total",
			Help:      "Rate limit responses received.",
		},
	)

	annotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "annotations_total",
			Help:      "Results delivered to the page by label and action (badge, hidden).",
		},
		[]string{"label", "action"},
	)

	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "scans_total",
			Help:      "Page scans by detected layout.",
		},
		[]string{"layout"},
	)
)

// ObserveFetch records one lookup.
func ObserveFetch(outcome string, d time.Duration) {
	fetchesTotal.WithLabelValues(outcome).Inc()
	fetchDuration.Observe(d.Seconds())
}

func ObserveEnqueue(outcome string) { enqueueTotal.WithLabelValues(outcome).Inc() }

func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }

func SetCacheEntries(n int) { cacheEntries.Set(float64(n)) }

// SetThrottled flips the throttled gauge. Entering the throttled state also
// counts an event.
func SetThrottled(on bool) {
	if on {
		throttled.Set(1)
		throttleEventsTotal.Inc()
		return
	}
	throttled.Set(0)
}

func ObserveAnnotation(label string, hidden bool) {
	action := "badge"
	if hidden {
		action = "hidden"
	}
	annotationsTotal.WithLabelValues(label, action).Inc()
}

// ObserveScan counts a scan; an empty layout means none matched.
func ObserveScan(layout string) {
	if layout == "" {
		layout = "none"
	}
	scansTotal.WithLabelValues(layout).Inc()
}
