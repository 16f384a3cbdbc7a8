package presence

import (
	"context"
	"time"
)

// Record holds metadata about a connected client.
// This is the data that will be stored in a persistent store like Redis.
type Record struct {
	ClientID    string    `json:"client_id"`
	ServerID    string    `json:"server_id"` // ID of the instance handling the connection
	ConnectedAt time.Time `json:"connected_at"`
}

// Store defines the interface for presence tracking.
type Store interface {
	// Create stores a new presence record.
	Create(ctx context.Context, record *Record) error
	// Get retrieves a record by client ID.
	Get(ctx context.Context, clientID string) (*Record, error)
	// Delete removes a record.
	Delete(ctx context.Context, clientID string) error
	// RefreshTTL extends the record's lifetime in the store.
	RefreshTTL(ctx context.Context, clientID string) error
}
