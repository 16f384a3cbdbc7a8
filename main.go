package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/xenoxavier/Tamvibe/broker"
	"github.com/xenoxavier/Tamvibe/chat"
	"github.com/xenoxavier/Tamvibe/config"
	"github.com/xenoxavier/Tamvibe/metrics"
	"github.com/xenoxavier/Tamvibe/presence"
	"github.com/xenoxavier/Tamvibe/server"
	"github.com/xenoxavier/Tamvibe/websocket"
)

func main() {
	// Initialize context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize config
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	if err := config.Initialize(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	cfg := config.Get()

	// Generate a unique ID for this server instance
	serverID := uuid.New().String()
	log.Printf("Starting server instance with ID: %s", serverID)

	// Presence always uses Redis in this architecture.
	redisClient, err := newRedisClient(&cfg.Presence)
	if err != nil {
		log.Fatalf("Failed to connect to Redis for presence store: %v", err)
	}
	defer redisClient.Close()

	presenceStore := presence.NewRedisStore(redisClient, time.Duration(cfg.Presence.TTL)*time.Second)

	// --- Dynamic Broker Initialization ---
	var messageBroker broker.MessageBroker

	log.Printf("Initializing message broker of type: %s", cfg.Broker.Type)
	switch strings.ToLower(cfg.Broker.Type) {
	case "none":
		messageBroker = broker.NewNoopBroker()
	case "redis":
		// The Redis broker can re-use the same client as the presence store
		// when both point at the same instance.
		if cfg.Broker.Redis.Address == cfg.Presence.Address {
			messageBroker = broker.NewRedisBroker(redisClient)
		} else {
			brokerClient, err := newBrokerRedisClient(&cfg.Broker.Redis)
			if err != nil {
				log.Fatalf("Failed to connect to Redis for broker: %v", err)
			}
			messageBroker = broker.NewRedisBroker(brokerClient)
		}
	case "kafka":
		messageBroker, err = broker.NewKafkaBroker(cfg.Broker.Kafka.Brokers, cfg.Broker.Kafka.GroupID)
		if err != nil {
			log.Fatalf("Failed to create Kafka broker: %v", err)
		}
	default:
		// This should be caught by config validation, but we check again as a safeguard.
		log.Fatalf("Invalid broker type specified: %s", cfg.Broker.Type)
	}
	// --- End of Broker Initialization ---

	// Create client manager (also the coordinator's peer directory)
	clientManager := websocket.NewClientManager(presenceStore, serverID)

	// Create the matchmaking coordinator
	coordinator := chat.NewCoordinator(&cfg.Chat, clientManager, clock.New(), messageBroker, cfg.Broker.Channel, serverID)

	// Initialize handler
	handler := websocket.NewHandler(clientManager, coordinator, &cfg.WebSocket)

	// Start metrics server
	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// Create and start server
	srv := server.NewServer(&cfg.Server, handler.HandleWebSocket, coordinator.ActiveSessionCount)
	go srv.Start()
	log.Printf("TamVibe server started on port %d", cfg.Server.Port)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received")

	// Graceful shutdown
	srv.Shutdown(ctx, clientManager, messageBroker)
}

func newRedisClient(cfg *config.PresenceConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func newBrokerRedisClient(cfg *config.RedisBrokerConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
