package chat

// Outbound event names delivered to clients.
const (
	EventSearching           = "searching"
	EventPartnerFound        = "partnerFound"
	EventSystemMessage       = "systemMessage"
	EventTimerUpdate         = "timerUpdate"
	EventChatExtended        = "chatExtended"
	EventChatEnded           = "chatEnded"
	EventPartnerDisconnected = "partnerDisconnected"
	EventMessage             = "message"
	EventReaction            = "reaction"
	EventMusicShare          = "musicShare"
	EventPlaylistReceived    = "playlistReceived"
)

// senderPartner is how relayed payloads are stamped for the receiving side.
const senderPartner = "partner"

// Peer is the coordinator's view of a connected client. Implemented by the
// websocket layer; the coordinator never touches the connection directly.
type Peer interface {
	// ID returns the client's connection-scoped identity.
	ID() string
	// Alive reports whether the underlying connection is still usable.
	Alive() bool
	// Send delivers a named event with an optional payload to the client.
	Send(event string, data interface{}) error
}

// PeerDirectory resolves client ids to live peers.
type PeerDirectory interface {
	Peer(id string) (Peer, bool)
}
