package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/xenoxavier/Tamvibe/metrics"
)

// RelayedMessage is a chat message as delivered to the partner: re-stamped
// as coming from "partner", with a server-assigned id and timestamp.
type RelayedMessage struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Timestamp string         `json:"timestamp"`
	Sender    string         `json:"sender"`
	Type      string         `json:"type"`
	Reactions map[string]int `json:"reactions"`
}

// RelayedReaction is an emoji reaction as delivered to the partner.
type RelayedReaction struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	Sender    string `json:"sender"`
}

// RelayedMusic is a music-share payload as delivered to the partner. The
// track object is opaque to the coordinator.
type RelayedMusic struct {
	Track  json.RawMessage `json:"track"`
	Action string          `json:"action"`
	Sender string          `json:"sender"`
}

// RelayedPlaylist is a shared playlist as delivered to the partner.
type RelayedPlaylist struct {
	Playlist   json.RawMessage `json:"playlist"`
	SenderName string          `json:"senderName"`
	Sender     string          `json:"sender"`
}

// RelayMessage forwards a chat message to the sender's partner. Messages
// from clients with no active session are dropped: that desync is expected
// around matching and teardown, not an error.
func (c *Coordinator) RelayMessage(senderID, text, msgType string) {
	if msgType == "" {
		msgType = "text"
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.relayLocked(senderID, EventMessage, RelayedMessage{
		ID:        uuid.New().String(),
		Text:      text,
		Timestamp: c.clock.Now().UTC().Format(time.RFC3339),
		Sender:    senderPartner,
		Type:      msgType,
		Reactions: map[string]int{},
	})
}

// RelayReaction forwards an emoji reaction to the sender's partner.
func (c *Coordinator) RelayReaction(senderID, messageID, emoji string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.relayLocked(senderID, EventReaction, RelayedReaction{
		MessageID: messageID,
		Emoji:     emoji,
		Sender:    senderPartner,
	})
}

// RelayMusic forwards a music-share action to the sender's partner.
func (c *Coordinator) RelayMusic(senderID string, track json.RawMessage, action string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.relayLocked(senderID, EventMusicShare, RelayedMusic{
		Track:  track,
		Action: action,
		Sender: senderPartner,
	})
}

// RelayPlaylist forwards a shared playlist to the sender's partner.
func (c *Coordinator) RelayPlaylist(senderID string, playlist json.RawMessage, senderName string) {
	if senderName == "" {
		senderName = "Your tambay buddy"
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.relayLocked(senderID, EventPlaylistReceived, RelayedPlaylist{
		Playlist:   playlist,
		SenderName: senderName,
		Sender:     senderPartner,
	})
}

func (c *Coordinator) relayLocked(senderID, event string, payload interface{}) {
	sess, ok := c.registry.Lookup(senderID)
	if !ok {
		return
	}
	c.sendLocked(sess.PartnerID, event, payload)
	metrics.MessagesRelayed.Inc()
}
