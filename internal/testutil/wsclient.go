package testutil

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/masterminds-game/masterminds/internal/protocol"
)

// WSClient is a websocket test client for server integration testing.
type WSClient struct {
	conn *websocket.Conn
	t    *testing.T
}

// NewWSClient dials the given websocket URL and returns a test client.
//
// Precondition: wsURL must point at a listening /ws endpoint.
// Postcondition: Returns a connected WSClient or fails the test.
func NewWSClient(t *testing.T, wsURL string) *WSClient {
	t.Helper()
	start := time.Now()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", wsURL, err, time.Since(start))
	}

	c := &WSClient{conn: conn, t: t}
	t.Cleanup(func() { _ = conn.Close() })
	return c
}

// Send writes one event frame, failing the test on error.
func (c *WSClient) Send(event string, payload any) {
	c.t.Helper()

	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		c.t.Fatalf("encoding %s: %v", event, err)
	}
	if err := c.conn.WriteJSON(env); err != nil {
		c.t.Fatalf("sending %s: %v", event, err)
	}
}

// SendRaw writes raw bytes as a single text frame. Used to exercise the
// server's handling of malformed input.
func (c *WSClient) SendRaw(raw []byte) {
	c.t.Helper()
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.t.Fatalf("sending raw frame: %v", err)
	}
}

// Expect reads frames until one with the given event name arrives,
// skipping other events, and returns its envelope. Fails the test after
// the timeout.
func (c *WSClient) Expect(event string, timeout time.Duration) protocol.Envelope {
	c.t.Helper()

	deadline := time.Now().Add(timeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		c.t.Fatalf("setting read deadline: %v", err)
	}

	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.t.Fatalf("waiting for %s: %v", event, err)
		}
		if env.Event == event {
			return env
		}
	}
}

// Close closes the underlying connection.
func (c *WSClient) Close() {
	_ = c.conn.Close()
}
