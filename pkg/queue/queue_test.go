package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueIfAbsentDedups(t *testing.T) {
	q := New[int](0, DropNew)

	assert.Equal(t, Enqueued, q.EnqueueIfAbsent("a", 1))
	assert.Equal(t, Duplicate, q.EnqueueIfAbsent("a", 2))
	assert.Equal(t, Enqueued, q.EnqueueIfAbsent("b", 3))

	assert.Equal(t, 2, q.Len())
	e, ok := q.DequeueOne()
	require.True(t, ok)
	assert.Equal(t, Entry[int]{Username: "a", Target: 1}, e, "first target wins")
}

func TestFIFOOrder(t *testing.T) {
	q := New[string](0, DropNew)
	for _, u := range []string{"a", "b", "c"} {
		q.EnqueueIfAbsent(u, "t-"+u)
	}

	var got []string
	for {
		e, ok := q.DequeueOne()
		if !ok {
			break
		}
		got = append(got, e.Username)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestRequeueGoesToTail(t *testing.T) {
	q := New[int](0, DropNew)
	q.EnqueueIfAbsent("a", 0)
	q.EnqueueIfAbsent("b", 0)
	q.EnqueueIfAbsent("c", 0)

	e, _ := q.DequeueOne()
	assert.False(t, q.Contains("a"))
	assert.Equal(t, Enqueued, q.Requeue(e))

	assert.Equal(t, []string{"b", "c", "a"}, q.Usernames())
}

func TestRequeueAfterRediscoveryKeepsSingleEntry(t *testing.T) {
	q := New[int](0, DropNew)
	q.EnqueueIfAbsent("a", 1)
	e, _ := q.DequeueOne()

	q.EnqueueIfAbsent("a", 2)
	assert.Equal(t, Duplicate, q.Requeue(e))
	assert.Equal(t, 1, q.Len())
}

func TestDequeueEmpty(t *testing.T) {
	q := New[int](0, DropNew)
	_, ok := q.DequeueOne()
	assert.False(t, ok)
}

func TestOverflowDropNew(t *testing.T) {
	q := New[int](2, DropNew)
	q.EnqueueIfAbsent("a", 0)
	q.EnqueueIfAbsent("b", 0)

	assert.Equal(t, Dropped, q.EnqueueIfAbsent("c", 0))
	assert.False(t, q.Contains("c"))
	assert.Equal(t, []string{"a", "b"}, q.Usernames())
	assert.Empty(t, q.DrainEvicted())
}

func TestOverflowDropOldest(t *testing.T) {
	q := New[int](2, DropOldest)
	q.EnqueueIfAbsent("a", 0)
	q.EnqueueIfAbsent("b", 0)

	out := q.EnqueueIfAbsent("c", 0)
	assert.Equal(t, EnqueuedEvicting, out)
	assert.True(t, out.Added())
	assert.Equal(t, []string{"b", "c"}, q.Usernames())

	evicted := q.DrainEvicted()
	require.Len(t, evicted, 1)
	assert.Equal(t, "a", evicted[0].Username)

	// An evicted username can be discovered again
	assert.Equal(t, EnqueuedEvicting, q.EnqueueIfAbsent("a", 0))
}

func TestParseOverflowPolicy(t *testing.T) {
	p, err := ParseOverflowPolicy("drop_oldest")
	require.NoError(t, err)
	assert.Equal(t, DropOldest, p)
	assert.Equal(t, "drop_oldest", p.String())

	p, err = ParseOverflowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DropNew, p)

	_, err = ParseOverflowPolicy("spill")
	assert.Error(t, err)
}

func TestNeverHoldsDuplicatesUnderConcurrency(t *testing.T) {
	q := New[int](0, DropNew)
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				q.EnqueueIfAbsent(fmt.Sprintf("user-%d", i%25), w)
				if i%7 == 0 {
					if e, ok := q.DequeueOne(); ok {
						q.Requeue(e)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, u := range q.Usernames() {
		assert.False(t, seen[u], "duplicate %s", u)
		seen[u] = true
	}
}
