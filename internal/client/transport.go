package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/masterminds-game/masterminds/internal/protocol"
)

// Transport is one logical socket connection to the server.
type Transport interface {
	// Send writes one event frame.
	Send(env protocol.Envelope) error
	// Receive blocks until the next event frame or a transport error.
	Receive() (protocol.Envelope, error)
	// Close tears the connection down. Receive then returns an error.
	Close() error
}

// Dialer opens new transport connections.
type Dialer interface {
	Dial(ctx context.Context, wsURL string) (Transport, error)
}

// Prober checks server availability before the transport is opened.
type Prober interface {
	Probe(ctx context.Context) error
}

// wsTransport is the gorilla/websocket Transport implementation.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Send(env protocol.Envelope) error {
	return t.conn.WriteJSON(env)
}

func (t *wsTransport) Receive() (protocol.Envelope, error) {
	var env protocol.Envelope
	if err := t.conn.ReadJSON(&env); err != nil {
		return protocol.Envelope{}, err
	}
	return env, nil
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

// WSDialer opens gorilla/websocket transports.
type WSDialer struct {
	// HandshakeTimeout bounds the websocket handshake.
	HandshakeTimeout time.Duration
	// Narrowed disables optional transport features (per-message
	// compression) after repeated failures, trading throughput for a
	// more reliable connection mode.
	Narrowed bool
}

// Dial opens a websocket connection to wsURL.
func (d *WSDialer) Dial(ctx context.Context, wsURL string) (Transport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout:  d.HandshakeTimeout,
		EnableCompression: !d.Narrowed,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", wsURL, err)
	}
	return &wsTransport{conn: conn}, nil
}

// isServerClose reports whether err is a close initiated by the server
// rather than a local failure. A server-initiated close warrants an
// immediate fresh connect attempt instead of waiting out the backoff.
func isServerClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseServiceRestart,
	)
}

// WebsocketURL converts the configured HTTP base URL into the websocket
// endpoint URL.
//
// Precondition: baseURL must be a valid http or https URL.
func WebsocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	return u.String(), nil
}

// HTTPProber probes the server's liveness endpoint.
type HTTPProber struct {
	// BaseURL is the server's HTTP base URL.
	BaseURL string
	// Timeout bounds the probe request.
	Timeout time.Duration
	// Client is the HTTP client; http.DefaultClient when nil.
	Client *http.Client
}

// Probe issues a GET against /healthz and succeeds on any 2xx reply.
func (p *HTTPProber) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probing server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}
