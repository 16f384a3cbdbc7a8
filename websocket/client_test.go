package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenoxavier/Tamvibe/config"
)

// dialStalledServer returns a client connection whose server side upgrades
// and then never reads, so the client's TCP send buffer eventually fills.
func dialStalledServer(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-done
	}))
	t.Cleanup(func() {
		close(done)
		srv.Close()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSafeWriteJSONBoundedOnStalledConnection(t *testing.T) {
	conn := dialStalledServer(t)
	cfg := &config.WebSocketConfig{
		WriteTimeout: 1,
		MaxRetries:   0,
	}
	s := NewClientSession("c1", conn, cfg)

	// Flood the connection until the kernel buffers fill and a write
	// blocks. The write deadline must surface an error instead of hanging
	// the caller indefinitely.
	payload := map[string]string{"data": strings.Repeat("x", 1<<20)}
	start := time.Now()
	var err error
	for i := 0; i < 256 && err == nil; i++ {
		err = s.SafeWriteJSON(payload)
	}

	require.Error(t, err, "a write into a stalled connection must fail, not block")
	assert.Less(t, time.Since(start), 30*time.Second)
}
