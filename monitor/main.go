package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/xenoxavier/Tamvibe/broker"
)

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// The monitor subscribes to the coordinator's lifecycle channel and logs a
// running tally. Useful for watching match quality in real time without
// touching the server.
func main() {
	redisAddr := getEnv("REDIS_ADDRESS", "localhost:6379")
	channel := getEnv("LIFECYCLE_CHANNEL", "tambay:lifecycle")
	log.Printf("Connecting to Redis at %s", redisAddr)

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	lifecycleBroker := broker.NewRedisBroker(rdb)
	events, err := lifecycleBroker.Subscribe(ctx, channel)
	if err != nil {
		log.Fatalf("Failed to subscribe to %s: %v", channel, err)
	}

	log.Printf("Monitor started. Listening on %s...", channel)

	var started, extended, ended, fallback int
	for event := range events {
		switch event.Type {
		case broker.EventSessionStarted:
			started++
			if event.Fallback {
				fallback++
			}
			log.Printf("Chat %s started (server %s, shared interests: %v, fallback: %v)",
				event.ChatID, event.ServerID, event.SharedInterests, event.Fallback)
		case broker.EventSessionExtended:
			extended++
			log.Printf("Chat %s extended", event.ChatID)
		case broker.EventSessionEnded:
			ended++
			log.Printf("Chat %s ended (%s)", event.ChatID, event.Reason)
		default:
			log.Printf("Unknown event type %q on %s", event.Type, channel)
			continue
		}
		log.Printf("Totals: %d started (%d fallback), %d extended, %d ended",
			started, fallback, extended, ended)
	}
}
