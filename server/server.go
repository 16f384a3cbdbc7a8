package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/xenoxavier/Tamvibe/broker"
	"github.com/xenoxavier/Tamvibe/config"
	"github.com/xenoxavier/Tamvibe/websocket"
)

const shutdownTimeout = 10 * time.Second

// healthResponse is the /health payload. ActiveChats mirrors the
// coordinator's active session count.
type healthResponse struct {
	Status      string `json:"status"`
	ActiveChats int    `json:"activeChats"`
}

// Server wraps the HTTP server exposing the websocket and health endpoints.
type Server struct {
	httpServer *http.Server
}

// NewServer creates the server. activeChats is polled on each /health call.
func NewServer(cfg *config.ServerConfig, wsHandler http.HandlerFunc, activeChats func() int) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{
			Status:      "OK",
			ActiveChats: activeChats(),
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + strconv.Itoa(cfg.Port),
			Handler:      mux,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		},
	}
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}

// Shutdown drains clients, stops the HTTP server and closes the broker.
func (s *Server) Shutdown(ctx context.Context, manager *websocket.ClientManager, messageBroker broker.MessageBroker) {
	log.Println("Shutting down server")

	manager.CloseAllConnections("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := messageBroker.Close(); err != nil {
		log.Printf("Broker close error: %v", err)
	}
}
