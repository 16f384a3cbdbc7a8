package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func entry(id string, at time.Time, interests ...string) *WaitingEntry {
	return &WaitingEntry{ID: id, Interests: interests, EnqueuedAt: at}
}

func TestQueue_PreservesArrivalOrder(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(entry("a", now))
	q.Enqueue(entry("b", now.Add(time.Second)))
	q.Enqueue(entry("c", now.Add(2*time.Second)))

	all := q.Candidates(func(string) bool { return true })
	ids := make([]string, len(all))
	for i, e := range all {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestQueue_RemoveByID(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(entry("a", now))
	q.Enqueue(entry("b", now))

	q.RemoveByID("a")
	assert.False(t, q.Contains("a"))
	assert.True(t, q.Contains("b"))
	assert.Equal(t, 1, q.Len())

	// Absent ids are a no-op, not an error.
	q.RemoveByID("a")
	q.RemoveByID("ghost")
	assert.Equal(t, 1, q.Len())
}

func TestQueue_GetReturnsTheExactEntry(t *testing.T) {
	q := NewQueue()
	first := entry("a", time.Now())
	q.Enqueue(first)

	assert.Same(t, first, q.Get("a"))
	assert.Nil(t, q.Get("ghost"))

	// A replaced entry is a different object; identity distinguishes them.
	q.RemoveByID("a")
	second := entry("a", time.Now())
	q.Enqueue(second)
	assert.NotSame(t, first, q.Get("a"))
	assert.Same(t, second, q.Get("a"))
}

func TestQueue_CandidatesPrunesDeadEntries(t *testing.T) {
	q := NewQueue()
	now := time.Now()

	q.Enqueue(entry("a", now))
	q.Enqueue(entry("b", now))
	q.Enqueue(entry("c", now))

	alive := map[string]bool{"a": true, "c": true}
	got := q.Candidates(func(id string) bool { return alive[id] })

	ids := make([]string, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a", "c"}, ids)

	// Dead entries are gone for good, not just filtered from the view.
	assert.False(t, q.Contains("b"))
	assert.Equal(t, 2, q.Len())
}
