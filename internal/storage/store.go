// Package storage defines the game-state store contract and the tiered
// store that layers an optional remote backend over a local-file
// durability floor.
package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/masterminds-game/masterminds/internal/game/state"
)

// Backend is a single persistence tier for room game states.
type Backend interface {
	// Load returns the state for one room.
	Load(ctx context.Context, roomCode string) (*state.GameState, error)
	// LoadAll returns every stored room state.
	LoadAll(ctx context.Context) (map[string]*state.GameState, error)
	// Save persists the full room-code → state mapping.
	Save(ctx context.Context, states map[string]*state.GameState) error
}

// Tiered combines an optional remote backend with a required local-file
// backend.
//
// Saves always complete the file write even when the remote write fails
// or no remote is configured. Loads prefer the remote when it is
// configured and reachable, and otherwise fall back to the file; a load
// never fails the caller, it degrades to an empty mapping.
type Tiered struct {
	remote Backend // nil when no remote backend is configured
	local  Backend
	logger *zap.Logger
}

// NewTiered creates a Tiered store. remote may be nil.
//
// Precondition: local and logger must be non-nil.
func NewTiered(remote, local Backend, logger *zap.Logger) *Tiered {
	return &Tiered{
		remote: remote,
		local:  local,
		logger: logger,
	}
}

// LoadAll returns every stored room state, preferring the remote
// backend. Falls back to the local file when the remote is missing,
// unreachable, or holds no rooms.
//
// Postcondition: Never returns nil; a failed load yields an empty map.
func (t *Tiered) LoadAll(ctx context.Context) map[string]*state.GameState {
	if t.remote != nil {
		states, err := t.remote.LoadAll(ctx)
		if err != nil {
			t.logger.Error("loading game states from remote backend",
				zap.Error(err),
			)
		} else if len(states) > 0 {
			t.logger.Info("loaded game states from remote backend",
				zap.Int("rooms", len(states)),
			)
			return states
		}
	}

	states, err := t.local.LoadAll(ctx)
	if err != nil {
		t.logger.Error("loading game states from local file",
			zap.Error(err),
		)
		return make(map[string]*state.GameState)
	}

	t.logger.Info("loaded game states from local file",
		zap.Int("rooms", len(states)),
	)
	return states
}

// Load returns one room's state, preferring the remote backend.
//
// Postcondition: Returns (nil, false) when the room is stored nowhere.
func (t *Tiered) Load(ctx context.Context, roomCode string) (*state.GameState, bool) {
	if t.remote != nil {
		st, err := t.remote.Load(ctx, roomCode)
		if err == nil {
			return st, true
		}
	}

	st, err := t.local.Load(ctx, roomCode)
	if err != nil {
		return nil, false
	}
	return st, true
}

// Save persists the full mapping. The remote write is best effort; the
// local file write is the durability floor and its failure is the only
// one reported.
func (t *Tiered) Save(ctx context.Context, states map[string]*state.GameState) error {
	if t.remote != nil {
		if err := t.remote.Save(ctx, states); err != nil {
			t.logger.Error("saving game states to remote backend",
				zap.Error(err),
				zap.Int("rooms", len(states)),
			)
		}
	}

	return t.local.Save(ctx, states)
}
