package websocket

import "encoding/json"

// Inbound event names. Each maps to one coordinator operation; anything else
// is dropped by the dispatcher.
const (
	EventFindPartner   = "findPartner"
	EventMessage       = "message"
	EventReaction      = "reaction"
	EventMusicShare    = "musicShare"
	EventSharePlaylist = "sharePlaylist"
	EventExtendRequest = "extendRequest"
	EventNext          = "next"
)

// Envelope is the wire format for inbound client events.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outboundEnvelope is the wire format for events sent to clients.
type outboundEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type FindPartnerPayload struct {
	Interests []string `json:"interests"`
}

type MessagePayload struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type MusicSharePayload struct {
	Track  json.RawMessage `json:"track"`
	Action string          `json:"action"`
}

type SharePlaylistPayload struct {
	Playlist   json.RawMessage `json:"playlist"`
	SenderName string          `json:"senderName"`
}
