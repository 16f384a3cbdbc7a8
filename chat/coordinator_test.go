package chat

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenoxavier/Tamvibe/config"
)

type fakeEvent struct {
	Name string
	Data interface{}
}

// fakePeer records everything the coordinator sends it.
type fakePeer struct {
	mu     sync.Mutex
	id     string
	alive  bool
	events []fakeEvent
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *fakePeer) Send(event string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fakeEvent{Name: event, Data: data})
	return nil
}

func (p *fakePeer) kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
}

func (p *fakePeer) received(name string) []fakeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []fakeEvent
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (p *fakePeer) has(name string) bool {
	return len(p.received(name)) > 0
}

func (p *fakePeer) systemMessages() []string {
	var out []string
	for _, e := range p.received(EventSystemMessage) {
		if s, ok := e.Data.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (p *fakePeer) timerValues() []int {
	var out []int
	for _, e := range p.received(EventTimerUpdate) {
		if n, ok := e.Data.(int); ok {
			out = append(out, n)
		}
	}
	return out
}

type fakeDirectory struct {
	peers map[string]*fakePeer
}

func (d *fakeDirectory) Peer(id string) (Peer, bool) {
	p, ok := d.peers[id]
	if !ok {
		return nil, false
	}
	return p, true
}

func (d *fakeDirectory) add(id string) *fakePeer {
	p := &fakePeer{id: id, alive: true}
	d.peers[id] = p
	return p
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeDirectory, *clock.Mock) {
	t.Helper()
	cfg := &config.ChatConfig{DurationSeconds: 300, FallbackWaitSeconds: 15}
	dir := &fakeDirectory{peers: make(map[string]*fakePeer)}
	mock := clock.NewMock()
	return NewCoordinator(cfg, dir, mock, nil, "tambay:lifecycle", "test-server"), dir, mock
}

func TestImmediatePairingOnSharedInterests(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	a := dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"music", "gaming"})
	assert.True(t, a.has(EventSearching))
	assert.False(t, a.has(EventPartnerFound))

	c.FindPartner("b", []string{"gaming", "music"})
	require.True(t, a.has(EventPartnerFound))
	require.True(t, b.has(EventPartnerFound))
	assert.Equal(t, 1, c.ActiveSessionCount())

	// The match notice names both shared interests, capitalized.
	require.NotEmpty(t, a.systemMessages())
	notice := a.systemMessages()[0]
	assert.Contains(t, notice, "Music")
	assert.Contains(t, notice, "Gaming")
	assert.Equal(t, b.systemMessages()[0], notice)

	// The countdown starts at the full duration for both sides.
	require.NotEmpty(t, a.timerValues())
	assert.Equal(t, 300, a.timerValues()[0])
	require.NotEmpty(t, b.timerValues())
	assert.Equal(t, 300, b.timerValues()[0])
}

func TestMatchingPrefersOverlapOverArrivalOrder(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	first := dir.add("first")
	second := dir.add("second")
	requester := dir.add("req")

	c.FindPartner("first", []string{"hiking"})
	c.FindPartner("second", []string{"music"})
	c.FindPartner("req", []string{"music"})

	assert.False(t, first.has(EventPartnerFound), "zero-overlap client must keep waiting")
	assert.True(t, second.has(EventPartnerFound))
	assert.True(t, requester.has(EventPartnerFound))
}

func TestMatchingBreaksTiesByEarliestEnqueue(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	early := dir.add("early")
	late := dir.add("late")
	dir.add("req")

	c.FindPartner("early", []string{"music"})
	c.FindPartner("late", []string{"music"})
	c.FindPartner("req", []string{"music"})

	assert.True(t, early.has(EventPartnerFound))
	assert.False(t, late.has(EventPartnerFound))
}

func TestNoPairingWithoutOverlapBeforeFallback(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	a := dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"anime"})
	c.FindPartner("b", []string{"sports"})

	assert.False(t, a.has(EventPartnerFound))
	assert.False(t, b.has(EventPartnerFound))
	assert.Equal(t, 0, c.ActiveSessionCount())
}

func TestFallbackPairsAnyoneAfterWait(t *testing.T) {
	c, dir, mock := newTestCoordinator(t)
	a := dir.add("a")

	c.FindPartner("a", []string{"anime"})
	require.Len(t, a.received(EventSearching), 1)

	// Fallback fires with an empty queue: silently re-enqueued, promoted.
	mock.Add(15 * time.Second)
	assert.False(t, a.has(EventPartnerFound))
	assert.Len(t, a.received(EventSearching), 1, "re-enqueue must not repeat the searching notice")
	assert.True(t, c.queue.Contains("a"))

	// Still waiting after another fallback cycle, no crash, still queued.
	mock.Add(15 * time.Second)
	assert.True(t, c.queue.Contains("a"))

	// A zero-overlap arrival now pairs with the promoted waiter at once.
	b := dir.add("b")
	c.FindPartner("b", []string{"sports"})
	require.True(t, a.has(EventPartnerFound))
	require.True(t, b.has(EventPartnerFound))

	// Generic notice only: a fallback match names no interests.
	require.NotEmpty(t, b.systemMessages())
	notice := b.systemMessages()[0]
	assert.NotContains(t, notice, "Anime")
	assert.NotContains(t, notice, "Sports")
	assert.NotContains(t, notice, "Perfect match")
}

func TestRedeclareRestartsFallbackWait(t *testing.T) {
	c, dir, mock := newTestCoordinator(t)
	a := dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"anime"})
	mock.Add(14 * time.Second)
	c.FindPartner("a", []string{"anime"})

	// The original timer fires at t+15 against the replaced entry: it must
	// not promote the fresh one armed at t+14.
	mock.Add(1 * time.Second)
	c.FindPartner("b", []string{"sports"})
	assert.False(t, a.has(EventPartnerFound))
	assert.False(t, b.has(EventPartnerFound))

	// Only the re-declare's own timer matures the wait, at t+29.
	mock.Add(14 * time.Second)
	assert.True(t, a.has(EventPartnerFound))
	assert.True(t, b.has(EventPartnerFound))
}

func TestPairFailureStrandsNeitherSide(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	a := dir.add("a")
	dir.add("b")
	dir.add("x")

	c.FindPartner("b", []string{"music"})

	// Force the defensive branch: b acquires a session out-of-band while
	// still holding a queue slot.
	_, err := c.registry.Pair("b", "x")
	require.NoError(t, err)

	c.FindPartner("a", []string{"music"})

	assert.False(t, a.has(EventPartnerFound))
	assert.True(t, a.has(EventSearching), "the requester keeps matching")
	assert.True(t, c.queue.Contains("a"))
	assert.True(t, c.queue.Contains("b"), "the candidate keeps its queue slot")
}

func TestCountdownEmitsFullDecrementingSequence(t *testing.T) {
	c, dir, mock := newTestCoordinator(t)
	a := dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"music"})
	c.FindPartner("b", []string{"music"})

	mock.Add(300 * time.Second)

	vals := a.timerValues()
	require.Len(t, vals, 301)
	for i, v := range vals {
		assert.Equal(t, 300-i, v)
	}
	assert.Equal(t, vals, b.timerValues())

	assert.True(t, a.has(EventChatEnded))
	assert.True(t, b.has(EventChatEnded))
	assert.Contains(t, a.systemMessages(), "Chat ended due to time limit.")
	assert.Equal(t, 0, c.ActiveSessionCount())

	// Registry is clean for both ids afterwards.
	_, okA := c.registry.Lookup("a")
	_, okB := c.registry.Lookup("b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestMutualExtensionRestartsCountdown(t *testing.T) {
	c, dir, mock := newTestCoordinator(t)
	a := dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"music"})
	c.FindPartner("b", []string{"music"})

	c.ExtendRequest("a")
	assert.Contains(t, b.systemMessages(), "Your partner wants to extend the chat!")
	c.ExtendRequest("b")

	mock.Add(300 * time.Second)

	require.True(t, a.has(EventChatExtended))
	require.True(t, b.has(EventChatExtended))
	assert.Contains(t, a.systemMessages(), "Chat extended by both users!")
	assert.Equal(t, 1, c.ActiveSessionCount())

	// The countdown restarted at the full duration.
	vals := a.timerValues()
	assert.Equal(t, 300, vals[len(vals)-1])

	// Flags were consumed: without fresh requests the next expiry ends it.
	mock.Add(300 * time.Second)
	assert.True(t, a.has(EventChatEnded))
	assert.Equal(t, 0, c.ActiveSessionCount())
}

func TestSingleSidedExtensionEndsSession(t *testing.T) {
	c, dir, mock := newTestCoordinator(t)
	a := dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"music"})
	c.FindPartner("b", []string{"music"})

	c.ExtendRequest("a")
	mock.Add(300 * time.Second)

	assert.True(t, a.has(EventChatEnded))
	assert.True(t, b.has(EventChatEnded))
	assert.False(t, a.has(EventChatExtended))
	assert.Equal(t, 0, c.ActiveSessionCount())
}

func TestDisconnectDuringFallbackWaitIsNotReenqueued(t *testing.T) {
	c, dir, mock := newTestCoordinator(t)
	a := dir.add("a")

	c.FindPartner("a", []string{"anime"})
	require.True(t, c.queue.Contains("a"))

	a.kill()
	c.Disconnect("a")
	assert.False(t, c.queue.Contains("a"))

	// The armed fallback timer fires into nothing.
	mock.Add(15 * time.Second)
	assert.False(t, c.queue.Contains("a"))
	assert.Zero(t, c.queue.Len())
}

func TestDisconnectEndsSessionAndNotifiesPartner(t *testing.T) {
	c, dir, mock := newTestCoordinator(t)
	a := dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"music"})
	c.FindPartner("b", []string{"music"})

	a.kill()
	c.Disconnect("a")

	assert.True(t, b.has(EventPartnerDisconnected))
	assert.Contains(t, b.systemMessages(), "Partner disconnected.")
	assert.Equal(t, 0, c.ActiveSessionCount())

	// Disconnect is idempotent.
	c.Disconnect("a")

	// The cancelled session timer must not keep ticking.
	before := len(b.received(EventTimerUpdate))
	mock.Add(5 * time.Second)
	assert.Equal(t, before, len(b.received(EventTimerUpdate)))
}

func TestSkipEndsSessionAndReentersMatching(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	a := dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"music"})
	c.FindPartner("b", []string{"music"})
	require.Equal(t, 1, c.ActiveSessionCount())

	c.Next("a")

	assert.True(t, b.has(EventPartnerDisconnected))
	assert.Equal(t, 0, c.ActiveSessionCount())

	// The skipper is waiting again with the interests it declared before.
	assert.True(t, a.has(EventSearching))
	require.True(t, c.queue.Contains("a"))

	d := dir.add("d")
	c.FindPartner("d", []string{"music"})
	assert.True(t, d.has(EventPartnerFound))
	assert.Equal(t, 1, c.ActiveSessionCount())
}

func TestFindPartnerWhilePairedIsRejected(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	dir.add("a")
	dir.add("b")

	c.FindPartner("a", []string{"music"})
	c.FindPartner("b", []string{"music"})

	c.FindPartner("a", []string{"music"})
	assert.False(t, c.queue.Contains("a"))
	assert.Equal(t, 1, c.ActiveSessionCount())

	sess, ok := c.registry.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "b", sess.PartnerID)
}

func TestRedeclaringInterestsReplacesQueueEntry(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"music"})
	c.FindPartner("a", []string{"gaming"})
	assert.Equal(t, 1, c.queue.Len())

	c.FindPartner("b", []string{"gaming"})
	assert.True(t, b.has(EventPartnerFound))
}

func TestStaleCandidateIsSkipped(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	stale := dir.add("stale")
	b := dir.add("b")

	c.FindPartner("stale", []string{"music"})
	stale.kill()

	c.FindPartner("b", []string{"music"})
	assert.False(t, b.has(EventPartnerFound), "dead candidate must not be paired")
	assert.True(t, b.has(EventSearching))
	assert.False(t, c.queue.Contains("stale"), "dead entries are pruned during the scan")
}

func TestRelayDropsEventsWithoutSession(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	a := dir.add("a")

	c.FindPartner("a", []string{"music"})
	c.RelayMessage("a", "anyone there?", "")
	c.RelayReaction("a", "m1", "🔥")

	assert.False(t, a.has(EventMessage))
	assert.False(t, a.has(EventReaction))
}

func TestRelayStampsPayloadsAsPartner(t *testing.T) {
	c, dir, _ := newTestCoordinator(t)
	dir.add("a")
	b := dir.add("b")

	c.FindPartner("a", []string{"music"})
	c.FindPartner("b", []string{"music"})

	c.RelayMessage("a", "hello", "")
	msgs := b.received(EventMessage)
	require.Len(t, msgs, 1)
	msg, ok := msgs[0].Data.(RelayedMessage)
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "partner", msg.Sender)
	assert.Equal(t, "text", msg.Type)
	assert.NotEmpty(t, msg.ID)
	assert.NotEmpty(t, msg.Timestamp)
	assert.NotNil(t, msg.Reactions)

	c.RelayReaction("b", "m1", "🔥")
	// Reactions flow the other way too; only the partner sees them.
	assert.False(t, b.has(EventReaction))

	c.RelayMusic("a", json.RawMessage(`{"title":"song"}`), "play")
	music := b.received(EventMusicShare)
	require.Len(t, music, 1)
	share, ok := music[0].Data.(RelayedMusic)
	require.True(t, ok)
	assert.Equal(t, "play", share.Action)
	assert.Equal(t, "partner", share.Sender)

	c.RelayPlaylist("a", json.RawMessage(`[]`), "")
	playlists := b.received(EventPlaylistReceived)
	require.Len(t, playlists, 1)
	pl, ok := playlists[0].Data.(RelayedPlaylist)
	require.True(t, ok)
	assert.Equal(t, "Your tambay buddy", pl.SenderName)
}

func TestInterestNormalization(t *testing.T) {
	testCases := []struct {
		name     string
		in       []string
		expected []string
	}{
		{
			name:     "lowercases and trims",
			in:       []string{" Music ", "GAMING"},
			expected: []string{"music", "gaming"},
		},
		{
			name:     "drops empties and duplicates",
			in:       []string{"music", "", "  ", "Music", "music"},
			expected: []string{"music"},
		},
		{
			name:     "nil stays empty",
			in:       nil,
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, normalizeInterests(tc.in))
		})
	}
}
