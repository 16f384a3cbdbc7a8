package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/xenoxavier/Tamvibe/broker"
	"github.com/xenoxavier/Tamvibe/config"
	"github.com/xenoxavier/Tamvibe/metrics"
)

const publishTimeout = 10 * time.Second

// Coordinator is the process-wide matchmaking and session-lifecycle service.
// All shared state (waiting queue, session registry, timers, declared
// interests) is guarded by one mutex; every public operation takes it.
type Coordinator struct {
	mu sync.Mutex

	cfg      *config.ChatConfig
	clock    clock.Clock
	peers    PeerDirectory
	serverID string

	registry  *Registry
	queue     *Queue
	timers    map[string]*sessionTimer
	interests map[string][]string // last declared interests, reused on next/skip

	events       broker.MessageBroker
	eventChannel string
}

// NewCoordinator creates a coordinator. The clock is injected so tests can
// drive countdowns deterministically; pass clock.New() in production.
func NewCoordinator(cfg *config.ChatConfig, peers PeerDirectory, clk clock.Clock, events broker.MessageBroker, eventChannel, serverID string) *Coordinator {
	return &Coordinator{
		cfg:          cfg,
		clock:        clk,
		peers:        peers,
		serverID:     serverID,
		registry:     NewRegistry(),
		queue:        NewQueue(),
		timers:       make(map[string]*sessionTimer),
		interests:    make(map[string][]string),
		events:       events,
		eventChannel: eventChannel,
	}
}

// FindPartner enters a client into matching with its declared interests.
// A client that is already paired is rejected; a client already waiting has
// its entry replaced so re-declared interests take effect.
func (c *Coordinator) FindPartner(id string, interests []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registry.Lookup(id); ok {
		log.Printf("Client %s requested a partner while already paired, ignoring", id)
		return
	}

	norm := normalizeInterests(interests)
	c.interests[id] = norm
	c.queue.RemoveByID(id)

	c.findMatchLocked(id, norm, false, true)
}

// ExtendRequest marks the sender as wanting to extend its session and lets
// the partner know. No-op for clients with no session.
func (c *Coordinator) ExtendRequest(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.registry.Lookup(id)
	if !ok {
		return
	}
	c.registry.SetExtendFlag(id)
	c.sendLocked(sess.PartnerID, EventSystemMessage, "Your partner wants to extend the chat!")
}

// Next ends the client's current session, if any, and re-enters matching
// with the interests it last declared.
func (c *Coordinator) Next(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.registry.Lookup(id); ok {
		c.sendLocked(sess.PartnerID, EventSystemMessage, "Partner disconnected.")
		c.sendLocked(sess.PartnerID, EventPartnerDisconnected, nil)
		c.endSessionLocked(id, sess.PartnerID, "skip")
	}

	c.queue.RemoveByID(id)
	c.findMatchLocked(id, c.interests[id], false, true)
}

// Disconnect tears down whatever state the client holds: its session (the
// partner is notified), its queue entry, its declared interests. Safe to
// call for clients holding none of those, and safe to call twice.
func (c *Coordinator) Disconnect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.registry.Lookup(id); ok {
		c.sendLocked(sess.PartnerID, EventSystemMessage, "Partner disconnected.")
		c.sendLocked(sess.PartnerID, EventPartnerDisconnected, nil)
		c.endSessionLocked(id, sess.PartnerID, "disconnect")
	}

	c.queue.RemoveByID(id)
	c.syncQueueGaugeLocked()
	delete(c.interests, id)
}

// ActiveSessionCount returns the number of active chat sessions.
func (c *Coordinator) ActiveSessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Len() / 2
}

// findMatchLocked implements the matching policy: pick the waiting client
// with the strictly greatest interest overlap, earliest-enqueued on ties.
// With allowFallback false an overlap of zero never matches; the requester
// is enqueued and a one-shot fallback timer is armed instead.
func (c *Coordinator) findMatchLocked(id string, interests []string, allowFallback, notifySearching bool) {
	requester, ok := c.peers.Peer(id)
	if !ok || !requester.Alive() {
		return
	}

	for {
		best := c.bestCandidateLocked(id, interests, allowFallback)
		if best == nil {
			c.enqueueLocked(id, interests, allowFallback, notifySearching)
			return
		}

		// The candidate may have dropped between the scan and here.
		// Re-check and rescan rather than pairing a dead peer.
		partner, ok := c.peers.Peer(best.ID)
		if !ok || !partner.Alive() {
			c.queue.RemoveByID(best.ID)
			continue
		}

		chatID, err := c.registry.Pair(id, best.ID)
		if err != nil {
			// The candidate keeps its queue slot and the requester goes
			// back into the pool; neither side is stranded.
			log.Printf("Failed to pair %s with %s: %v", id, best.ID, err)
			c.enqueueLocked(id, interests, allowFallback, notifySearching)
			return
		}

		c.queue.RemoveByID(best.ID)
		c.syncQueueGaugeLocked()

		shared := sharedInterests(interests, best.Interests)
		log.Printf("Matched %s with %s, shared interests: %v", id, best.ID, shared)

		kind := "interest"
		if len(shared) == 0 {
			kind = "fallback"
		}
		metrics.MatchesMade.WithLabelValues(kind).Inc()
		metrics.ActiveSessions.Set(float64(c.registry.Len() / 2))

		notice := matchNotice(shared)
		for _, pid := range []string{id, best.ID} {
			c.sendLocked(pid, EventPartnerFound, nil)
			c.sendLocked(pid, EventSystemMessage, notice)
		}

		c.startTimerLocked(chatID, id, best.ID)

		c.publishLocked(broker.Event{
			Type:            broker.EventSessionStarted,
			ChatID:          chatID,
			Participants:    []string{id, best.ID},
			SharedInterests: shared,
			Fallback:        len(shared) == 0,
		})
		return
	}
}

// bestCandidateLocked scans the queue for the best overlap candidate.
// Returns nil when nothing qualifies under the current fallback policy.
func (c *Coordinator) bestCandidateLocked(id string, interests []string, allowFallback bool) *WaitingEntry {
	var best *WaitingEntry
	bestOverlap := -1

	for _, entry := range c.queue.Candidates(c.aliveLocked) {
		if entry.ID == id {
			continue
		}
		overlap := len(sharedInterests(interests, entry.Interests))
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = entry
		}
	}

	if best == nil {
		return nil
	}
	if bestOverlap > 0 || allowFallback {
		return best
	}

	// Zero overlap under the strict policy: only a candidate whose own
	// fallback timer already fired qualifies. Earliest promoted wins.
	for _, entry := range c.queue.Candidates(c.aliveLocked) {
		if entry.ID != id && entry.Promoted {
			return entry
		}
	}
	return nil
}

// enqueueLocked adds the requester to the waiting queue and arms the
// fallback timer. The timer is never cancelled on an early match; its
// callback re-checks that the client is still enqueued before acting.
// A client enqueued after its fallback fired stays promoted.
func (c *Coordinator) enqueueLocked(id string, interests []string, promoted, notifySearching bool) {
	entry := &WaitingEntry{
		ID:         id,
		Interests:  interests,
		EnqueuedAt: c.clock.Now(),
		Promoted:   promoted,
	}
	c.queue.Enqueue(entry)
	c.syncQueueGaugeLocked()
	if notifySearching {
		c.sendLocked(id, EventSearching, nil)
	}
	log.Printf("Client %s queued, waiting for match with interests: %v", id, interests)

	wait := time.Duration(c.cfg.FallbackWaitSeconds) * time.Second
	c.clock.AfterFunc(wait, func() {
		c.fallbackFired(entry)
	})
}

// fallbackFired runs when a waiting client's fallback timer expires. The
// timer is bound to the exact entry it was armed for: a client that left the
// queue, or re-entered it since (re-declared interests, next/skip), has a
// fresh entry and a fresh timer, and the stale timer is a no-op.
func (c *Coordinator) fallbackFired(entry *WaitingEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue.Get(entry.ID) != entry {
		return
	}
	if !c.aliveLocked(entry.ID) {
		c.queue.RemoveByID(entry.ID)
		c.syncQueueGaugeLocked()
		return
	}

	c.queue.RemoveByID(entry.ID)
	c.syncQueueGaugeLocked()
	c.findMatchLocked(entry.ID, c.interests[entry.ID], true, false)
}

func (c *Coordinator) aliveLocked(id string) bool {
	peer, ok := c.peers.Peer(id)
	return ok && peer.Alive()
}

// endSessionLocked cancels the session timer and removes both registry
// entries. Every step tolerates state that is already gone.
func (c *Coordinator) endSessionLocked(a, b, reason string) {
	sess, ok := c.registry.Lookup(a)
	if !ok {
		return
	}

	if st, ok := c.timers[sess.ChatID]; ok {
		st.stop()
		delete(c.timers, sess.ChatID)
	}

	c.registry.Unpair(a, b)
	metrics.ActiveSessions.Set(float64(c.registry.Len() / 2))
	metrics.SessionsEnded.WithLabelValues(reason).Inc()

	c.publishLocked(broker.Event{
		Type:         broker.EventSessionEnded,
		ChatID:       sess.ChatID,
		Participants: []string{a, b},
		Reason:       reason,
	})
}

// sendLocked delivers an event to a peer if it is still reachable. Send
// failures are absorbed; the peer's read loop handles its own teardown.
func (c *Coordinator) sendLocked(id, event string, data interface{}) {
	peer, ok := c.peers.Peer(id)
	if !ok {
		return
	}
	if err := peer.Send(event, data); err != nil {
		log.Printf("Failed to send %s to client %s: %v", event, id, err)
	}
}

// publishLocked emits a lifecycle event to the broker, fire and forget.
// Request handlers never wait on the broker.
func (c *Coordinator) publishLocked(event broker.Event) {
	if c.events == nil {
		return
	}
	event.ServerID = c.serverID
	event.At = c.clock.Now()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := c.events.Publish(ctx, c.eventChannel, event); err != nil {
			log.Printf("Failed to publish %s for chat %s: %v", event.Type, event.ChatID, err)
			return
		}
		metrics.BrokerEventsPublished.WithLabelValues(c.events.Type()).Inc()
	}()
}

func (c *Coordinator) syncQueueGaugeLocked() {
	metrics.WaitingClients.Set(float64(c.queue.Len()))
}

// normalizeInterests trims, lowercases and dedupes free-form interest tags,
// preserving declaration order.
func normalizeInterests(interests []string) []string {
	seen := make(map[string]struct{}, len(interests))
	out := make([]string, 0, len(interests))
	for _, raw := range interests {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// sharedInterests returns the tags common to both sets, in a's order.
func sharedInterests(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, tag := range b {
		inB[tag] = struct{}{}
	}
	var shared []string
	for _, tag := range a {
		if _, ok := inB[tag]; ok {
			shared = append(shared, tag)
		}
	}
	return shared
}

// matchNotice builds the system message shown to a freshly paired couple.
// Fallback matches get a generic notice that names no interests.
func matchNotice(shared []string) string {
	if len(shared) == 0 {
		return "✨ You're now connected! Say hi to your tambay buddy 💬"
	}
	display := make([]string, len(shared))
	for i, tag := range shared {
		display[i] = capitalize(tag)
	}
	return "🎯 Perfect match! You both love: " + strings.Join(display, ", ") + " 💫"
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
