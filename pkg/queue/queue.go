// Package queue implements the deduplicated FIFO backlog of usernames
// waiting for a profile fetch.
package queue

import (
	"fmt"
	"sync"
)

// OverflowPolicy decides what happens when a bounded queue is full.
type OverflowPolicy int

const (
	// DropNew rejects the incoming entry.
	DropNew OverflowPolicy = iota
	// DropOldest evicts the head to make room.
	DropOldest
)

// ParseOverflowPolicy accepts "drop_new" and "drop_oldest".
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "drop_new":
		return DropNew, nil
	case "drop_oldest":
		return DropOldest, nil
	}
	return DropNew, fmt.Errorf("unknown overflow policy %q", s)
}

func (p OverflowPolicy) String() string {
	if p == DropOldest {
		return "drop_oldest"
	}
	return "drop_new"
}

// Outcome describes what an insertion did.
type Outcome int

const (
	Enqueued Outcome = iota
	Duplicate
	Dropped
	// EnqueuedEvicting means the entry was added and the oldest one evicted.
	EnqueuedEvicting
)

func (o Outcome) String() string {
	switch o {
	case Enqueued:
		return "enqueued"
	case Duplicate:
		return "duplicate"
	case Dropped:
		return "dropped"
	case EnqueuedEvicting:
		return "enqueued_evicting"
	}
	return "unknown"
}

// Added reports whether the entry is now in the queue.
func (o Outcome) Added() bool {
	return o == Enqueued || o == EnqueuedEvicting
}

// Entry is a username awaiting a fetch plus the handle used to deliver
// the result.
type Entry[T any] struct {
	Username string
	Target   T
}

// Queue is a FIFO of entries holding at most one entry per username.
// A capacity of zero means unbounded.
type Queue[T any] struct {
	mu       sync.Mutex
	entries  []Entry[T]
	members  map[string]struct{}
	capacity int
	overflow OverflowPolicy

	evicted []Entry[T]
}

// New creates a queue.
func New[T any](capacity int, overflow OverflowPolicy) *Queue[T] {
	return &Queue[T]{
		members:  make(map[string]struct{}),
		capacity: capacity,
		overflow: overflow,
	}
}

// EnqueueIfAbsent appends an entry for username unless one is present.
func (q *Queue[T]) EnqueueIfAbsent(username string, target T) Outcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.members[username]; ok {
		return Duplicate
	}
	return q.push(Entry[T]{Username: username, Target: target})
}

// Requeue puts a previously dequeued entry back at the tail. If the
// username was enqueued again in the meantime the existing entry wins.
func (q *Queue[T]) Requeue(e Entry[T]) Outcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.members[e.Username]; ok {
		return Duplicate
	}
	return q.push(e)
}

func (q *Queue[T]) push(e Entry[T]) Outcome {
	outcome := Enqueued
	if q.capacity > 0 && len(q.entries) >= q.capacity {
		if q.overflow == DropNew {
			return Dropped
		}
		head := q.entries[0]
		q.entries = q.entries[1:]
		delete(q.members, head.Username)
		q.evicted = append(q.evicted, head)
		outcome = EnqueuedEvicting
	}
	q.entries = append(q.entries, e)
	q.members[e.Username] = struct{}{}
	return outcome
}

// DequeueOne pops the head of the queue.
func (q *Queue[T]) DequeueOne() (Entry[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		var zero Entry[T]
		return zero, false
	}
	e := q.entries[0]
	var zero Entry[T]
	q.entries[0] = zero
	q.entries = q.entries[1:]
	delete(q.members, e.Username)
	return e, true
}

// DrainEvicted returns and forgets entries evicted by DropOldest.
func (q *Queue[T]) DrainEvicted() []Entry[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.evicted
	q.evicted = nil
	return out
}

// Contains reports whether username is queued.
func (q *Queue[T]) Contains(username string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.members[username]
	return ok
}

// Len returns the number of queued entries.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Usernames lists queued usernames in order.
func (q *Queue[T]) Usernames() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Username
	}
	return out
}
