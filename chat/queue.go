package chat

import "time"

// WaitingEntry is a client waiting for a partner. Promoted marks a client
// whose fallback timer already fired: it accepts, and is acceptable to,
// partners with no interest overlap.
type WaitingEntry struct {
	ID         string
	Interests  []string
	EnqueuedAt time.Time
	Promoted   bool
}

// Queue is the ordered collection of clients seeking a partner. Insertion
// order is arrival order and doubles as the matching tie-break. Not safe for
// concurrent use on its own; the coordinator serializes access under its lock.
type Queue struct {
	entries []*WaitingEntry
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends an entry to the back of the queue.
func (q *Queue) Enqueue(entry *WaitingEntry) {
	q.entries = append(q.entries, entry)
}

// RemoveByID removes the entry for an id. No-op if absent.
func (q *Queue) RemoveByID(id string) {
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

// Get returns the entry for an id, or nil if absent.
func (q *Queue) Get(id string) *WaitingEntry {
	for _, e := range q.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Contains reports whether an id is currently enqueued.
func (q *Queue) Contains(id string) bool {
	for _, e := range q.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Candidates returns the live entries in arrival order, lazily pruning
// entries whose client has gone away.
func (q *Queue) Candidates(alive func(id string) bool) []*WaitingEntry {
	live := q.entries[:0]
	for _, e := range q.entries {
		if alive(e.ID) {
			live = append(live, e)
		}
	}
	q.entries = live

	out := make([]*WaitingEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of entries, live or not.
func (q *Queue) Len() int {
	return len(q.entries)
}
