// Package server hosts the websocket hub that owns all room state
// mutation, the HTTP surface around it, and the lifecycle management
// for graceful startup and shutdown.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/masterminds-game/masterminds/internal/game/room"
	"github.com/masterminds-game/masterminds/internal/protocol"
	"github.com/masterminds-game/masterminds/internal/storage"
)

// sendBuffer is the per-client outbound queue length. A client that
// falls this far behind is disconnected rather than allowed to stall
// the hub.
const sendBuffer = 32

// Client is one connected websocket. The hub owns the socket ID; it is
// the identity every registry operation keys on.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan protocol.Envelope
	logger *zap.Logger
}

// ID returns the socket ID assigned at registration.
func (c *Client) ID() string {
	return c.id
}

type inboundMessage struct {
	client *Client
	msg    protocol.ClientMessage
}

// Hub owns all registry mutation. A single goroutine consumes the
// register, unregister, and inbound channels, so every handler runs to
// completion before the next event is dequeued; the only concurrency
// the registry sees is the asynchronous persistence write, which works
// on a snapshot taken synchronously inside the handler.
type Hub struct {
	registry    *room.Registry
	store       *storage.Tiered
	logger      *zap.Logger
	saveTimeout time.Duration

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	quit       chan struct{}
	done       chan struct{}
	saves      sync.WaitGroup
}

// NewHub creates a Hub over the given registry and store.
//
// Precondition: registry, store, and logger must be non-nil;
// saveTimeout must be positive.
func NewHub(registry *room.Registry, store *storage.Tiered, logger *zap.Logger, saveTimeout time.Duration) *Hub {
	return &Hub{
		registry:    registry,
		store:       store,
		logger:      logger,
		saveTimeout: saveTimeout,
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		inbound:     make(chan inboundMessage, 64),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the hub event loop. It blocks until Stop is called.
func (h *Hub) Start() error {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.clients[c.id] = c
			h.logger.Info("client connected",
				zap.String("socket_id", c.id),
				zap.Int("clients", len(h.clients)),
			)

		case c := <-h.unregister:
			if _, ok := h.clients[c.id]; !ok {
				continue
			}
			delete(h.clients, c.id)
			close(c.send)
			h.handleDeparture(c.id)
			h.logger.Info("client disconnected",
				zap.String("socket_id", c.id),
				zap.Int("clients", len(h.clients)),
			)

		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)

		case <-h.quit:
			for _, c := range h.clients {
				close(c.send)
				c.conn.Close()
			}
			h.clients = make(map[string]*Client)
			return nil
		}
	}
}

// Stop shuts the hub down, closing every client connection.
//
// Postcondition: The event loop has exited and every in-flight save has
// completed when Stop returns.
func (h *Hub) Stop() {
	close(h.quit)
	<-h.done
	h.saves.Wait()
}

// sendTo queues an event for a single client. A client whose queue is
// full is dropped; its read pump will then unregister it.
//
// Precondition: called only from the hub goroutine.
func (h *Hub) sendTo(c *Client, event string, payload any) {
	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		h.logger.Error("encoding outbound event",
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}

	select {
	case c.send <- env:
	default:
		h.logger.Warn("client send buffer full, dropping connection",
			zap.String("socket_id", c.id),
		)
		c.conn.Close()
	}
}

// broadcastToRoom queues an event for every client whose user is in the
// given room.
//
// Precondition: called only from the hub goroutine.
func (h *Hub) broadcastToRoom(code, event string, payload any) {
	for _, user := range h.registry.GetUsers(code) {
		if c, ok := h.clients[user.SocketID]; ok {
			h.sendTo(c, event, payload)
		}
	}
}

// persistAsync snapshots the registry's game states synchronously and
// saves the snapshot off the hub goroutine. The snapshot is taken before
// yielding because the registry may be mutated by later events while the
// save is pending.
//
// Precondition: called only from the hub goroutine.
func (h *Hub) persistAsync() {
	snapshot := h.registry.SnapshotStates()

	h.saves.Add(1)
	go func() {
		defer h.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.saveTimeout)
		defer cancel()

		if err := h.store.Save(ctx, snapshot); err != nil {
			// Persistence failures are logged and never surfaced to
			// players.
			h.logger.Error("saving game states",
				zap.Error(err),
				zap.Int("rooms", len(snapshot)),
			)
		}
	}()
}

// readPump consumes frames from the socket until it closes, decoding
// each at the boundary and forwarding valid requests to the hub.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.Decode(raw)
		if err != nil {
			// A bad frame is scoped to this socket: log and keep reading.
			c.logger.Debug("rejecting client frame",
				zap.String("socket_id", c.id),
				zap.Error(err),
			)
			continue
		}

		h.inbound <- inboundMessage{client: c, msg: msg}
	}
}

// writePump drains the send queue onto the socket.
func (c *Client) writePump() {
	defer c.conn.Close()

	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			return
		}
	}
}
