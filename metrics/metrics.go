// File: metrics/metrics.go
package metrics

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebSocket Metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "The current number of active WebSocket connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_connections_total",
		Help: "The total number of WebSocket connections accepted.",
	})
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_messages_received_total",
		Help: "The total number of events received from clients.",
	})
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_messages_sent_total",
		Help: "The total number of events sent to clients.",
	})

	// Matchmaking Metrics
	WaitingClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tambay_waiting_clients",
		Help: "The current number of clients in the waiting queue.",
	})
	MatchesMade = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tambay_matches_total",
		Help: "The total number of pairings, by match kind.",
	}, []string{"kind"}) // "interest" or "fallback"

	// Session Metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tambay_sessions_active",
		Help: "The current number of active chat sessions.",
	})
	SessionsExtended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tambay_sessions_extended_total",
		Help: "The total number of mutual-consent session extensions.",
	})
	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tambay_sessions_ended_total",
		Help: "The total number of sessions ended, by reason.",
	}, []string{"reason"}) // "timeout", "skip" or "disconnect"
	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tambay_messages_relayed_total",
		Help: "The total number of in-session payloads relayed between partners.",
	})

	// Broker Metrics
	BrokerEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broker_events_published_total",
		Help: "The total number of lifecycle events published to the message broker.",
	}, []string{"broker_type"})
	BrokerPublishRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broker_publish_retries_total",
		Help: "The total number of retries when publishing to the message broker.",
	}, []string{"broker_type"})
)

// StartServer starts the HTTP server for Prometheus metrics.
func StartServer(port int, path string) {
	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting metrics server on %s%s", addr, path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatalf("Failed to start metrics server: %v", err)
		}
	}()
}
