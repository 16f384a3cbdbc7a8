package chat

import (
	"errors"
	"fmt"
)

// ErrAlreadyPaired is returned when pairing an id that already has a session.
var ErrAlreadyPaired = errors.New("client already paired")

// Session is one side of an active pairing.
type Session struct {
	ChatID        string
	PartnerID     string
	ExtendRequest bool
}

// Registry maps client ids to their active pairing. Both sides of a pairing
// are inserted and removed together. Not safe for concurrent use on its own;
// the coordinator serializes all access under its lock.
type Registry struct {
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Pair creates a session for both ids atomically and returns the chat id.
// Fails with ErrAlreadyPaired, leaving no partial state, if either id is
// already in a session.
func (r *Registry) Pair(a, b string) (string, error) {
	if _, ok := r.sessions[a]; ok {
		return "", fmt.Errorf("pairing %s with %s: %w", a, b, ErrAlreadyPaired)
	}
	if _, ok := r.sessions[b]; ok {
		return "", fmt.Errorf("pairing %s with %s: %w", a, b, ErrAlreadyPaired)
	}

	chatID := a + "-" + b
	r.sessions[a] = &Session{ChatID: chatID, PartnerID: b}
	r.sessions[b] = &Session{ChatID: chatID, PartnerID: a}
	return chatID, nil
}

// Lookup returns the session for an id, if any.
func (r *Registry) Lookup(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// SetExtendFlag marks an id as wanting to extend its session. No-op for ids
// with no session.
func (r *Registry) SetExtendFlag(id string) {
	if s, ok := r.sessions[id]; ok {
		s.ExtendRequest = true
	}
}

// ClearExtendFlags resets both sides' extend flags after a renewal.
func (r *Registry) ClearExtendFlags(a, b string) {
	if s, ok := r.sessions[a]; ok {
		s.ExtendRequest = false
	}
	if s, ok := r.sessions[b]; ok {
		s.ExtendRequest = false
	}
}

// Unpair removes both entries. Ids with no session are ignored, so partial
// or duplicate teardown calls are safe.
func (r *Registry) Unpair(a, b string) {
	delete(r.sessions, a)
	delete(r.sessions, b)
}

// Len returns the number of paired clients (two per session).
func (r *Registry) Len() int {
	return len(r.sessions)
}
