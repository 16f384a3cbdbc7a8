package chat

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/xenoxavier/Tamvibe/broker"
	"github.com/xenoxavier/Tamvibe/metrics"
)

// sessionTimer drives one session's countdown. The tick callback holds only
// the chat id and re-validates against the coordinator's timer set under the
// lock, so a timer that fires after teardown is a no-op rather than a
// dangling reference into dead session state.
type sessionTimer struct {
	chatID    string
	a, b      string
	remaining int
	timer     *clock.Timer
}

func (st *sessionTimer) stop() {
	if st.timer != nil {
		st.timer.Stop()
	}
}

// startTimerLocked begins a fresh countdown for a newly created session.
// Both sides get the full value immediately, then one decrementing update
// per second down to zero.
func (c *Coordinator) startTimerLocked(chatID, a, b string) {
	st := &sessionTimer{
		chatID:    chatID,
		a:         a,
		b:         b,
		remaining: c.cfg.DurationSeconds,
	}
	c.timers[chatID] = st

	c.sendLocked(a, EventTimerUpdate, st.remaining)
	c.sendLocked(b, EventTimerUpdate, st.remaining)

	st.timer = c.clock.AfterFunc(time.Second, func() {
		c.tick(chatID)
	})
}

// tick is the once-per-second countdown step. At zero it either renews the
// session (both extend flags set) or ends it.
func (c *Coordinator) tick(chatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.timers[chatID]
	if !ok {
		// Session already torn down by disconnect or skip.
		return
	}

	st.remaining--
	c.sendLocked(st.a, EventTimerUpdate, st.remaining)
	c.sendLocked(st.b, EventTimerUpdate, st.remaining)

	if st.remaining > 0 {
		st.timer = c.clock.AfterFunc(time.Second, func() {
			c.tick(chatID)
		})
		return
	}

	sessA, okA := c.registry.Lookup(st.a)
	sessB, okB := c.registry.Lookup(st.b)

	if okA && okB && sessA.ExtendRequest && sessB.ExtendRequest {
		// Mutual consent: consume both flags and restart the countdown
		// with the same chat id.
		c.registry.ClearExtendFlags(st.a, st.b)
		metrics.SessionsExtended.Inc()

		for _, id := range []string{st.a, st.b} {
			c.sendLocked(id, EventSystemMessage, "Chat extended by both users!")
			c.sendLocked(id, EventChatExtended, nil)
		}

		st.remaining = c.cfg.DurationSeconds
		c.sendLocked(st.a, EventTimerUpdate, st.remaining)
		c.sendLocked(st.b, EventTimerUpdate, st.remaining)

		c.publishLocked(broker.Event{
			Type:         broker.EventSessionExtended,
			ChatID:       chatID,
			Participants: []string{st.a, st.b},
		})

		st.timer = c.clock.AfterFunc(time.Second, func() {
			c.tick(chatID)
		})
		return
	}

	for _, id := range []string{st.a, st.b} {
		c.sendLocked(id, EventSystemMessage, "Chat ended due to time limit.")
		c.sendLocked(id, EventChatEnded, nil)
	}
	c.endSessionLocked(st.a, st.b, "timeout")
}
