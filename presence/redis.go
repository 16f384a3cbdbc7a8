package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore implements the Store interface using Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func presenceKey(clientID string) string {
	return fmt.Sprintf("presence:%s", clientID)
}

// Create stores a new presence record in Redis with a TTL.
func (s *RedisStore) Create(ctx context.Context, record *Record) error {
	key := presenceKey(record.ClientID)
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal presence record: %w", err)
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

// Get retrieves a presence record from Redis.
func (s *RedisStore) Get(ctx context.Context, clientID string) (*Record, error) {
	key := presenceKey(clientID)
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Not found is not an error, just means not present
		}
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence record: %w", err)
	}
	return &record, nil
}

// Delete removes a presence record from Redis.
func (s *RedisStore) Delete(ctx context.Context, clientID string) error {
	key := presenceKey(clientID)
	return s.client.Del(ctx, key).Err()
}

// RefreshTTL updates the expiration time of a presence key in Redis.
func (s *RedisStore) RefreshTTL(ctx context.Context, clientID string) error {
	key := presenceKey(clientID)
	// Expire is a no-op if the key doesn't exist, which is fine.
	return s.client.Expire(ctx, key, s.ttl).Err()
}
