package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xenoxavier/Tamvibe/chat"
	"github.com/xenoxavier/Tamvibe/config"
	"github.com/xenoxavier/Tamvibe/metrics"
)

// Upgrader for websocket connections
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler accepts websocket connections and routes inbound client events to
// the matchmaking coordinator. It is the event-dispatch surface: one case
// per inbound event, each with a typed payload.
type Handler struct {
	manager     *ClientManager
	coordinator *chat.Coordinator
	cfg         *config.WebSocketConfig
}

// NewHandler creates a new websocket handler
func NewHandler(manager *ClientManager, coordinator *chat.Coordinator, cfg *config.WebSocketConfig) *Handler {
	upgrader.HandshakeTimeout = time.Duration(cfg.HandshakeTimeout) * time.Second
	return &Handler{
		manager:     manager,
		coordinator: coordinator,
		cfg:         cfg,
	}
}

// HandleWebSocket handles incoming websocket connections
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(int64(h.cfg.MessageSizeLimit))

	// Identity is connection-scoped: a fresh id per connect, no accounts.
	clientID := uuid.New().String()

	session := NewClientSession(clientID, conn, h.cfg)
	session.StartTimers()

	if err := h.manager.AddClient(r.Context(), session); err != nil {
		conn.Close()
		return
	}
	defer func() {
		h.manager.RemoveClient(clientID)
		// Tear down any pairing or queue entry the client held. The
		// coordinator notifies the partner.
		h.coordinator.Disconnect(clientID)
	}()
	conn.SetPongHandler(session.GetPongHandler())

	// Send client ID to client for reference
	if err := session.Send("connected", map[string]string{"clientId": clientID}); err != nil {
		log.Printf("Failed to send client ID: %v", err)
		return // defer will handle cleanup
	}

	// Read messages from client
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, net.ErrClosed) {
				log.Printf("Read error from client %s: %v", clientID, err)
			}
			session.Close(websocket.CloseNormalClosure, "Client disconnected")
			break
		}
		metrics.MessagesReceived.Inc()
		session.UpdateActivity()
		h.manager.RefreshPresenceTTL(r.Context(), clientID)

		h.dispatch(clientID, msg)
	}
}

// dispatch routes one inbound event to the coordinator. Malformed envelopes
// and unknown events are dropped; a client desynced from server state gets
// no error, just silence.
func (h *Handler) dispatch(clientID string, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("Malformed event from client %s: %v", clientID, err)
		return
	}

	switch env.Event {
	case EventFindPartner:
		var p FindPartnerPayload
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &p); err != nil {
				log.Printf("Malformed %s payload from client %s: %v", env.Event, clientID, err)
				return
			}
		}
		h.coordinator.FindPartner(clientID, p.Interests)

	case EventMessage:
		var p MessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("Malformed %s payload from client %s: %v", env.Event, clientID, err)
			return
		}
		h.coordinator.RelayMessage(clientID, p.Text, p.Type)

	case EventReaction:
		var p ReactionPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("Malformed %s payload from client %s: %v", env.Event, clientID, err)
			return
		}
		h.coordinator.RelayReaction(clientID, p.MessageID, p.Emoji)

	case EventMusicShare:
		var p MusicSharePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("Malformed %s payload from client %s: %v", env.Event, clientID, err)
			return
		}
		h.coordinator.RelayMusic(clientID, p.Track, p.Action)

	case EventSharePlaylist:
		var p SharePlaylistPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("Malformed %s payload from client %s: %v", env.Event, clientID, err)
			return
		}
		h.coordinator.RelayPlaylist(clientID, p.Playlist, p.SenderName)

	case EventExtendRequest:
		h.coordinator.ExtendRequest(clientID)

	case EventNext:
		h.coordinator.Next(clientID)

	default:
		log.Printf("Unknown event %q from client %s", env.Event, clientID)
	}
}
