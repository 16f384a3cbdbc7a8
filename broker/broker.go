package broker

import (
	"context"
	"encoding/json"
	"time"
)

// Event kinds published on the lifecycle channel.
const (
	EventSessionStarted  = "session_started"
	EventSessionExtended = "session_extended"
	EventSessionEnded    = "session_ended"
)

// Event is a chat-session lifecycle notification. It carries no message
// content, only pairing metadata for out-of-process consumers.
type Event struct {
	Type            string    `json:"type"`
	ChatID          string    `json:"chat_id"`
	ServerID        string    `json:"server_id"`
	Participants    []string  `json:"participants,omitempty"`
	SharedInterests []string  `json:"shared_interests,omitempty"`
	Fallback        bool      `json:"fallback,omitempty"`
	Reason          string    `json:"reason,omitempty"` // "timeout", "skip" or "disconnect"
	At              time.Time `json:"at"`
}

// MarshalBinary implements encoding.BinaryMarshaler for the Redis client.
func (e Event) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for the Redis client.
func (e *Event) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

// MessageBroker abstracts the lifecycle-event transport.
type MessageBroker interface {
	// Publish sends an event to the specified channel.
	Publish(ctx context.Context, channel string, event Event) error
	// Subscribe starts listening for events on the specified channel.
	Subscribe(ctx context.Context, channel string) (<-chan Event, error)
	// Close cleans up broker resources.
	Close() error
	// Type returns the broker implementation name, for logs and metrics.
	Type() string
}
