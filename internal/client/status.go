// Package client implements the connection-resilience layer for the
// Masterminds client: the transport lifecycle state machine, the
// reconnection policy, and the room view proxy that mirrors registry
// events into local state.
package client

import "sync"

// Status is the client's current view of transport health.
type Status string

// Connection statuses. Exactly one is current at any instant.
const (
	StatusChecking          Status = "checking"
	StatusConnecting        Status = "connecting"
	StatusConnected         Status = "connected"
	StatusError             Status = "error"
	StatusDisconnected      Status = "disconnected"
	StatusFailed            Status = "failed"
	StatusTimeout           Status = "timeout"
	StatusServerUnavailable Status = "server_unavailable"
)

// Message returns the user-facing text for a status banner.
func (s Status) Message() string {
	switch s {
	case StatusChecking:
		return "Checking server availability..."
	case StatusConnecting:
		return "Connecting to game server..."
	case StatusConnected:
		return "Connected."
	case StatusError:
		return "Error connecting to game server."
	case StatusDisconnected:
		return "Disconnected from game server."
	case StatusFailed:
		return "Failed to connect to game server."
	case StatusTimeout:
		return "Connection to game server timed out."
	case StatusServerUnavailable:
		return "Game server is currently unavailable. Please try again later."
	}
	return ""
}

// StatusHolder publishes the latest connection status to subscribers.
//
// It is a single-slot stream: a late subscriber receives the most recent
// value immediately, never historical ones.
type StatusHolder struct {
	mu      sync.Mutex
	current Status
	nextID  int
	subs    map[int]func(Status)
}

// NewStatusHolder creates a holder with the given initial status.
func NewStatusHolder(initial Status) *StatusHolder {
	return &StatusHolder{
		current: initial,
		subs:    make(map[int]func(Status)),
	}
}

// Current returns the current status.
func (h *StatusHolder) Current() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Set publishes a new status to every subscriber. Setting the current
// value again is not deduplicated; observers see every transition the
// state machine makes.
func (h *StatusHolder) Set(s Status) {
	h.mu.Lock()
	h.current = s
	callbacks := make([]func(Status), 0, len(h.subs))
	for _, fn := range h.subs {
		callbacks = append(callbacks, fn)
	}
	h.mu.Unlock()

	// Callbacks run outside the lock so a subscriber may call back into
	// the holder.
	for _, fn := range callbacks {
		fn(s)
	}
}

// Subscribe registers a callback for status changes and invokes it once
// immediately with the current value.
//
// Postcondition: Returns an unsubscribe handle; calling it more than
// once is harmless.
func (h *StatusHolder) Subscribe(fn func(Status)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	current := h.current
	h.mu.Unlock()

	fn(current)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}
