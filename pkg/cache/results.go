// Package cache holds scored results for the lifetime of a session.
package cache

import (
	"sync"

	"bottagger/pkg/scoring"
)

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries  int
	Hits     uint64
	Misses   uint64
	Rejected uint64 // writes for a username that was already cached
}

// Results maps usernames to their scored result. Entries are written at most
// once and never evicted or expired.
type Results struct {
	mu      sync.RWMutex
	entries map[string]scoring.Result
	stats   Stats
}

// NewResults returns an empty cache.
func NewResults() *Results {
	return &Results{entries: make(map[string]scoring.Result)}
}

// Get returns the cached result for username.
func (c *Results) Get(username string) (scoring.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.entries[username]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return r, ok
}

// Contains reports membership without touching hit statistics.
func (c *Results) Contains(username string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[username]
	return ok
}

// Put stores r for username unless an entry already exists. It reports
// whether the write happened; an existing entry is never replaced.
func (c *Results) Put(username string, r scoring.Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[username]; exists {
		c.stats.Rejected++
		return false
	}
	c.entries[username] = r
	return true
}

// Len returns the number of cached usernames.
func (c *Results) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Results) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// Snapshot copies every entry, for display.
func (c *Results) Snapshot() map[string]scoring.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]scoring.Result, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
