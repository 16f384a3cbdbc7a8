package websocket

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/xenoxavier/Tamvibe/config"
	"github.com/xenoxavier/Tamvibe/metrics"
)

const websocketRetryDelay = 200 * time.Millisecond

// ClientSession represents a connected websocket client
type ClientSession struct {
	id            string
	conn          *websocket.Conn
	ctx           context.Context
	cfg           *config.WebSocketConfig
	lastActivity  atomic.Int64
	closed        atomic.Bool
	pingTicker    *time.Ticker
	activityTimer *time.Timer
	cancel        context.CancelFunc
	mu            sync.Mutex
}

// NewClientSession creates a new client session
func NewClientSession(id string, conn *websocket.Conn, cfg *config.WebSocketConfig) *ClientSession {
	ctx, cancel := context.WithCancel(context.Background())
	cs := &ClientSession{
		id:     id,
		conn:   conn,
		cfg:    cfg,
		cancel: cancel,
		ctx:    ctx,
	}
	cs.lastActivity.Store(time.Now().Unix())
	return cs
}

// ID returns the connection-scoped client identity.
func (s *ClientSession) ID() string {
	return s.id
}

// Alive reports whether the connection is still usable. The coordinator
// consults this when scanning the waiting queue and before pairing.
func (s *ClientSession) Alive() bool {
	return !s.closed.Load()
}

// Send delivers a named event to the client, wrapped in the wire envelope.
func (s *ClientSession) Send(event string, data interface{}) error {
	if err := s.SafeWriteJSON(outboundEnvelope{Event: event, Data: data}); err != nil {
		return err
	}
	metrics.MessagesSent.Inc()
	return nil
}

// SafeWriteJSON writes data to the websocket with retry capability
func (s *ClientSession) SafeWriteJSON(data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	operation := func() error {
		// Bound every attempt: a stalled TCP connection must not hold the
		// caller (and whatever lock it holds) past the write timeout.
		deadline := time.Now().Add(time.Duration(s.cfg.WriteTimeout) * time.Second)
		if err := s.conn.SetWriteDeadline(deadline); err != nil {
			return backoff.Permanent(err)
		}
		return s.conn.WriteJSON(data)
	}

	backoffStrategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(websocketRetryDelay),
			uint64(s.cfg.MaxRetries),
		),
		s.ctx,
	)

	return backoff.RetryNotify(operation, backoffStrategy, func(err error, d time.Duration) {
		log.Printf("Retrying WebSocket write: %v (next attempt in %s)", err, d)
	})
}

// UpdateActivity updates the last activity timestamp and resets the timeout timer
// This should only be called for actual client messages, not pong responses
func (s *ClientSession) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity.Store(time.Now().Unix())

	// Reset the activity timer
	if s.activityTimer != nil {
		s.activityTimer.Stop()
		s.activityTimer = time.AfterFunc(
			time.Duration(s.cfg.ActivityTimeout)*time.Second,
			s.onActivityTimeout,
		)
	}
}

// LastActivityTime returns the time of last activity
func (s *ClientSession) LastActivityTime() time.Time {
	return time.Unix(s.lastActivity.Load(), 0)
}

func (s *ClientSession) StartTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activityTimer = time.AfterFunc(
		time.Duration(s.cfg.ActivityTimeout)*time.Second,
		s.onActivityTimeout,
	)

	s.pingTicker = time.NewTicker(
		time.Duration(s.cfg.PingInterval) * time.Second,
	)
	go s.pingLoop()
}

func (s *ClientSession) pingLoop() {
	defer s.pingTicker.Stop()

	for {
		select {
		case <-s.pingTicker.C:
			if err := s.SendPing(); err != nil {
				log.Printf("Failed to send ping to %s: %v", s.id, err)
				s.Close(websocket.CloseInternalServerErr, "Ping failure")
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ClientSession) onActivityTimeout() {
	log.Printf("Connection %s timed out", s.id)
	s.Close(websocket.ClosePolicyViolation, "Inactivity timeout")
}

func (s *ClientSession) SendPing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn.WriteControl(
		websocket.PingMessage,
		[]byte{},
		time.Now().Add(time.Duration(s.cfg.WriteTimeout)*time.Second),
	)
}

// UpdateLastSeen updates only the timestamp (for pong responses)
// Does NOT reset the activity timer
func (s *ClientSession) UpdateLastSeen() {
	s.lastActivity.Store(time.Now().Unix())
}

// GetPongHandler returns a pong handler function based on configuration
func (s *ClientSession) GetPongHandler() func(string) error {
	return func(msg string) error {
		if s.cfg.KeepAlive {
			s.UpdateActivity() // Reset timeout timer
		} else {
			s.UpdateLastSeen() // Just update timestamp
		}
		return nil
	}
}

// Close closes the websocket connection. Idempotent: only the first call
// writes the close frame.
func (s *ClientSession) Close(code int, text string) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop timers
	if s.pingTicker != nil {
		s.pingTicker.Stop()
	}
	if s.activityTimer != nil {
		s.activityTimer.Stop()
	}

	// Cancel context
	if s.cancel != nil {
		s.cancel()
	}

	writeTimeout := time.Duration(s.cfg.WriteTimeout) * time.Second
	err := s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(writeTimeout),
	)
	if err != nil {
		log.Printf("Error sending close message: %v", err)
	}

	return s.conn.Close()
}
