package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xenoxavier/Tamvibe/chat"
	"github.com/xenoxavier/Tamvibe/metrics"
	"github.com/xenoxavier/Tamvibe/presence"
)

// ClientManager manages connected websocket clients for a single server
// instance. It coordinates between the in-memory connection map and the
// Redis presence store, and acts as the coordinator's peer directory.
type ClientManager struct {
	clients       sync.Map // In-memory map of active connections for this instance
	presenceStore presence.Store
	serverID      string
}

// NewClientManager creates a new client manager.
func NewClientManager(store presence.Store, serverID string) *ClientManager {
	return &ClientManager{
		clients:       sync.Map{},
		presenceStore: store,
		serverID:      serverID,
	}
}

// AddClient adds a client to the manager, storing the connection in-memory
// and creating a presence record in the store.
func (m *ClientManager) AddClient(ctx context.Context, clientSession *ClientSession) error {
	record := &presence.Record{
		ClientID:    clientSession.ID(),
		ServerID:    m.serverID,
		ConnectedAt: time.Now(),
	}
	if err := m.presenceStore.Create(ctx, record); err != nil {
		log.Printf("Failed to create presence record for client %s: %v", clientSession.ID(), err)
		return err
	}

	// If successful, store the live connection in the local map
	m.clients.Store(clientSession.ID(), clientSession)
	metrics.ActiveConnections.Inc()
	metrics.TotalConnections.Inc()
	log.Printf("Client %s connected to server %s", clientSession.ID(), m.serverID)
	return nil
}

// RemoveClient removes a client from the in-memory map and the presence store.
func (m *ClientManager) RemoveClient(clientID string) {
	// Remove from the local map first
	m.clients.Delete(clientID)

	// Then remove the presence record. Use a background context as the
	// original request context may be cancelled.
	if err := m.presenceStore.Delete(context.Background(), clientID); err != nil {
		log.Printf("Failed to delete presence record for client %s: %v", clientID, err)
	}
	metrics.ActiveConnections.Dec()
	log.Printf("Client %s disconnected", clientID)
}

// GetClient retrieves a live client connection by ID from the in-memory map.
func (m *ClientManager) GetClient(clientID string) (*ClientSession, bool) {
	if client, ok := m.clients.Load(clientID); ok {
		return client.(*ClientSession), true
	}
	return nil, false
}

// Peer implements chat.PeerDirectory.
func (m *ClientManager) Peer(clientID string) (chat.Peer, bool) {
	return m.GetClient(clientID)
}

// RefreshPresenceTTL extends the client's presence record in the store.
func (m *ClientManager) RefreshPresenceTTL(ctx context.Context, clientID string) {
	if err := m.presenceStore.RefreshTTL(ctx, clientID); err != nil {
		// Log but don't disconnect the client for this; it might be a
		// transient Redis issue.
		log.Printf("Failed to refresh presence TTL for client %s: %v", clientID, err)
	}
}

// CloseAllConnections sends close messages to all clients and removes them
func (m *ClientManager) CloseAllConnections(reason string) {
	m.clients.Range(func(key, value interface{}) bool {
		clientID := key.(string)
		session := value.(*ClientSession)

		log.Printf("Closing connection for client %s: %s", clientID, reason)
		session.Close(websocket.CloseGoingAway, reason)
		m.RemoveClient(clientID)

		return true
	})
}
