package scheduler

import (
	"context"
	"time"

	"bottagger/pkg/page"
	"bottagger/pkg/reddit"
	"bottagger/pkg/scoring"
)

// Discoverer finds post authors in the current page.
type Discoverer interface {
	Scan() (page.Kind, []page.Candidate, error)
}

// Fetcher issues one profile lookup.
type Fetcher interface {
	FetchProfile(ctx context.Context, username string) reddit.FetchResult
}

// Sink delivers results to the page.
type Sink interface {
	RenderBadge(t *page.Target, r scoring.Result, color string)
	// HidePost returns false when the target has no post container.
	HidePost(t *page.Target) bool
}

// Observer is told about state changes. Calls happen on the scheduler's
// goroutines and must not block.
type Observer interface {
	OnThrottled(until time.Time)
	OnResumed()
	OnAnnotated(username string, r scoring.Result, hidden bool)
	OnDropped(username string, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnThrottled(time.Time)                    {}
func (NopObserver) OnResumed()                               {}
func (NopObserver) OnAnnotated(string, scoring.Result, bool) {}
func (NopObserver) OnDropped(string, error)                  {}

// MultiObserver fans events out in order.
type MultiObserver []Observer

func (m MultiObserver) OnThrottled(until time.Time) {
	for _, o := range m {
		o.OnThrottled(until)
	}
}

func (m MultiObserver) OnResumed() {
	for _, o := range m {
		o.OnResumed()
	}
}

func (m MultiObserver) OnAnnotated(username string, r scoring.Result, hidden bool) {
	for _, o := range m {
		o.OnAnnotated(username, r, hidden)
	}
}

func (m MultiObserver) OnDropped(username string, err error) {
	for _, o := range m {
		o.OnDropped(username, err)
	}
}
